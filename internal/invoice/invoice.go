// Package invoice renders the financial summary document for a settled
// order. Composition is pure: the same order snapshot always yields the same
// bytes.
package invoice

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/storefront-labs/fulfillment/internal/models"
)

// discountEpsilon hides sub-cent rounding noise in the discount line.
const discountEpsilon = 0.01

type BillTo struct {
	Name    string
	City    string
	State   string
	Country string
	Pincode string
}

type Composer struct {
	ShopName string
}

// Filename is the content-disposition name for an order's invoice download.
func Filename(orderID uint) string {
	return fmt.Sprintf("invoice-%d.pdf", orderID)
}

func (c *Composer) Compose(order *models.Order, billTo BillTo) []byte {
	discount := order.Subtotal + order.Tax + order.Shipping - order.Total
	if discount < discountEpsilon {
		discount = 0
	}
	balanceDue := order.Total - order.PaidAmount
	if balanceDue < 0 {
		balanceDue = 0
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", c.ShopName)
	fmt.Fprintf(&buf, "%s\n\n", strings.Repeat("=", len(c.ShopName)))

	buf.WriteString("BILL TO\n")
	if billTo.Name != "" {
		fmt.Fprintf(&buf, "%s\n", billTo.Name)
	}
	if line := joinNonEmpty(billTo.City, billTo.State, billTo.Country); line != "" {
		fmt.Fprintf(&buf, "%s\n", line)
	}
	if billTo.Pincode != "" {
		fmt.Fprintf(&buf, "%s\n", billTo.Pincode)
	}
	if billTo == (BillTo{}) {
		fmt.Fprintf(&buf, "Customer #%d\n", order.UserID)
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "Invoice for order %s\n", order.Number)
	fmt.Fprintf(&buf, "Date: %s\n", order.CreatedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&buf, "Payment method: %s\n", methodLabel(order.PaymentMethod))
	fmt.Fprintf(&buf, "Payment status: %s\n", order.PaymentStatus)
	fmt.Fprintf(&buf, "Order status: %s\n\n", order.Status)

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tQTY\tUNIT\tTOTAL")
	for _, it := range order.Items {
		title := it.Title
		if title == "" {
			title = fmt.Sprintf("Product #%d", it.ProductID)
		}
		if it.Cancelled {
			title += " (cancelled)"
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\n", title, it.Quantity, it.UnitPrice, it.LineTotal())
	}
	w.Flush()
	buf.WriteString("\n")

	t := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintf(t, "Subtotal\t%.2f\n", order.Subtotal)
	fmt.Fprintf(t, "Tax\t%.2f\n", order.Tax)
	fmt.Fprintf(t, "Shipping\t%.2f\n", order.Shipping)
	fmt.Fprintf(t, "Discount\t-%.2f\n", discount)
	fmt.Fprintf(t, "Total\t%.2f\n", order.Total)
	fmt.Fprintf(t, "Paid\t%.2f\n", order.PaidAmount)
	fmt.Fprintf(t, "Balance due\t%.2f\n", balanceDue)
	t.Flush()

	return buf.Bytes()
}

func methodLabel(m models.PaymentMethod) string {
	switch m {
	case models.MethodCOD:
		return "Cash on Delivery"
	case models.MethodWallet:
		return "Wallet"
	case models.MethodOnline:
		return "Online Payment"
	default:
		return string(m)
	}
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
