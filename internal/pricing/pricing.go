package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/logging"
	"github.com/storefront-labs/fulfillment/internal/models"
)

// ErrCODUnavailable is returned when a cash-on-delivery total exceeds the
// configured limit.
var ErrCODUnavailable = errors.New("cash on delivery unavailable for this amount")

type OfferLookup interface {
	BestPrice(ctx context.Context, productID uint, categoryID *uint, linePrice float64) (clients.BestPrice, error)
}

type DeliveryCharger interface {
	ChargeFor(ctx context.Context, addr clients.Address) (float64, error)
	DefaultCharge() float64
}

type AddressResolver interface {
	GetByID(ctx context.Context, id uint) (clients.Address, error)
}

type Quote struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
}

// Calculator prices a candidate order. Offer and delivery lookups fail open:
// an unreachable offer service leaves the line at its raw price, an
// unresolvable address falls back to the default delivery charge.
type Calculator struct {
	Offers    OfferLookup
	Delivery  DeliveryCharger
	Addresses AddressResolver

	// TaxRate is applied to the post-offer subtotal. Zero by policy today,
	// kept configurable.
	TaxRate float64

	// CODLimit is the maximum order total payable as cash on delivery.
	CODLimit float64
}

func (c *Calculator) Price(ctx context.Context, items []models.OrderItem, addressID *uint, couponDiscount float64, method models.PaymentMethod) (Quote, error) {
	var subtotal float64
	for _, it := range items {
		line := it.UnitPrice * float64(it.Quantity)
		best, err := c.Offers.BestPrice(ctx, it.ProductID, nil, line)
		if err != nil {
			logging.FromContext(ctx).Warn("offer_lookup_failed", "product_id", it.ProductID, "error", err)
			subtotal += line
			continue
		}
		price := best.FinalPrice
		if price < 0 {
			// an offer can discount a line to zero, never below
			price = 0
		}
		subtotal += price
	}

	tax := round2(subtotal * c.TaxRate)
	shipping := c.shippingFor(ctx, addressID)

	if couponDiscount < 0 {
		couponDiscount = 0
	}

	total := subtotal - couponDiscount + tax + shipping
	if total < 0 {
		total = 0
	}

	if method == models.MethodCOD && total > c.CODLimit {
		return Quote{}, fmt.Errorf("%w: total %.2f exceeds %.2f", ErrCODUnavailable, total, c.CODLimit)
	}

	return Quote{Subtotal: subtotal, Tax: tax, Shipping: shipping, Total: round2(total)}, nil
}

func (c *Calculator) shippingFor(ctx context.Context, addressID *uint) float64 {
	if addressID == nil {
		return c.Delivery.DefaultCharge()
	}
	addr, err := c.Addresses.GetByID(ctx, *addressID)
	if err != nil {
		logging.FromContext(ctx).Warn("address_lookup_failed", "address_id", *addressID, "error", err)
		return c.Delivery.DefaultCharge()
	}
	amount, err := c.Delivery.ChargeFor(ctx, addr)
	if err != nil {
		logging.FromContext(ctx).Warn("delivery_charge_failed", "address_id", *addressID, "error", err)
		return c.Delivery.DefaultCharge()
	}
	return amount
}

// Recompute re-derives an order's subtotal and total after a partial item
// cancellation. The discount delta already applied to the order
// (subtotal+tax+shipping−total) is preserved and reapplied to the new
// subtotal, so a coupon's effect does not change shape when items disappear.
func Recompute(order *models.Order) {
	delta := order.Subtotal + order.Tax + order.Shipping - order.Total
	if delta < 0 {
		delta = 0
	}

	newSubtotal := order.ActiveSubtotal()
	newTotal := newSubtotal + order.Tax + order.Shipping - delta
	if newTotal < 0 {
		newTotal = 0
	}

	order.Subtotal = round2(newSubtotal)
	order.Total = round2(newTotal)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
