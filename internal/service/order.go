package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/fulfillment/internal/besteffort"
	"github.com/storefront-labs/fulfillment/internal/logging"
	"github.com/storefront-labs/fulfillment/internal/metrics"
	"github.com/storefront-labs/fulfillment/internal/models"
	"github.com/storefront-labs/fulfillment/internal/payment"
	"github.com/storefront-labs/fulfillment/internal/pricing"
	"github.com/storefront-labs/fulfillment/internal/repo"
	"github.com/storefront-labs/fulfillment/internal/stock"
	"github.com/storefront-labs/fulfillment/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

type CartClearer interface {
	Clear(ctx context.Context, userID uint) error
}

type Notifier interface {
	OrderConfirmation(ctx context.Context, order *models.Order) error
	PaymentFailed(ctx context.Context, order *models.Order) error
}

// OrderService owns the order aggregate and its lifecycle. Every operation
// mutates the order rows first; inventory, wallet, cart and notification
// calls happen after the commit, best-effort, and never roll it back.
type OrderService struct {
	Repo     *repo.GormRepo
	Pricing  *pricing.Calculator
	Stock    *stock.Coordinator
	Payments *payment.Bridge
	Cart     CartClearer
	Notify   Notifier
	Policy   *besteffort.Policy
	Metrics  *metrics.Metrics

	// Numbers overrides order-number generation when set.
	Numbers func() string
}

// PlaceOrder turns a checkout request into a durable order and runs the
// payment-method-specific side effects. The wallet branch keeps the fixed
// sequence payment, stock, paid-state persistence, cart clear, notification.
func (s *OrderService) PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest, userID uint) (*transport.PlaceOrderResult, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	method := models.PaymentMethod(strings.ToUpper(req.PaymentMethod))
	switch method {
	case models.MethodCOD, models.MethodWallet, models.MethodOnline:
	default:
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for i := range req.Items {
		if req.Items[i].ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if req.Items[i].Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if req.Items[i].UnitPrice < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		items = append(items, models.OrderItem{
			ProductID: req.Items[i].ProductID,
			Title:     req.Items[i].Title,
			Image:     req.Items[i].Image,
			UnitPrice: req.Items[i].UnitPrice,
			Quantity:  req.Items[i].Quantity,
			Total:     req.Items[i].UnitPrice * float64(req.Items[i].Quantity),
		})
	}

	quote, err := s.Pricing.Price(ctx, items, req.AddressID, req.CouponDiscount, method)
	if err != nil {
		if errors.Is(err, pricing.ErrCODUnavailable) {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err)
		}
		return nil, err
	}

	order := &models.Order{
		Number:        s.orderNumber(),
		UserID:        userID,
		UserEmail:     req.UserEmail,
		AddressID:     req.AddressID,
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		PaymentMethod: method,
		PaymentStatus: models.PaymentPending,
		Status:        models.StatusPending,
		Items:         items,
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// one retry for an order-number collision
		order.Number = s.orderNumber()
		if err := s.Repo.CreateOrder(ctx, order); err != nil {
			return nil, err
		}
	}

	switch method {
	case models.MethodCOD:
		if err := s.settleCOD(ctx, order); err != nil {
			return nil, err
		}
	case models.MethodWallet:
		declined, err := s.settleWallet(ctx, order)
		if err != nil {
			return nil, err
		}
		if declined {
			s.countPlaced(method, "payment_failed")
			return &transport.PlaceOrderResult{
				OrderID: order.ID,
				Number:  order.Number,
				Status:  string(order.Status),
				Success: false,
				Message: "payment failed: insufficient funds",
			}, nil
		}
	default:
		// online payment confirmation arrives later via MarkOrderPaid
		s.notifyConfirmation(ctx, order)
	}

	s.countPlaced(method, "placed")
	logging.FromContext(ctx).Info("order_placed", "order_id", order.ID, "number", order.Number, "method", method, "total", order.Total)
	return &transport.PlaceOrderResult{
		OrderID: order.ID,
		Number:  order.Number,
		Status:  string(order.Status),
		Success: true,
		Message: "order placed",
	}, nil
}

func (s *OrderService) settleCOD(ctx context.Context, order *models.Order) error {
	s.Stock.DecrementAll(ctx, order.Items)

	now := time.Now().UTC()
	order.PaidAmount = order.Total
	order.PaidAt = &now
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	s.clearCart(ctx, order.UserID)
	s.notifyConfirmation(ctx, order)
	return nil
}

func (s *OrderService) settleWallet(ctx context.Context, order *models.Order) (declined bool, err error) {
	if err := s.Payments.Charge(ctx, order.UserID, order.ID, order.Total); err != nil {
		logging.FromContext(ctx).Warn("wallet_charge_failed", "order_id", order.ID, "error", err)
		order.PaymentStatus = models.PaymentFailed
		order.Status = models.StatusPaymentFailed
		order.PaymentFailureReason = "insufficient wallet balance"
		if err := s.Repo.SaveOrder(ctx, order); err != nil {
			return false, err
		}
		s.notifyPaymentFailed(ctx, order)
		return true, nil
	}

	s.Stock.DecrementAll(ctx, order.Items)

	now := time.Now().UTC()
	order.PaymentStatus = models.PaymentPaid
	order.Status = models.StatusConfirmed
	order.PaidAmount = order.Total
	order.PaidAt = &now
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return false, err
	}

	s.clearCart(ctx, order.UserID)
	s.notifyConfirmation(ctx, order)
	return false, nil
}

// MarkOrderPaid records an external payment confirmation, typically the
// online-payment callback.
func (s *OrderService) MarkOrderPaid(ctx context.Context, orderID uint, reference, methodStr string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: amount must be >= 0", ErrValidation)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	s.Stock.DecrementAll(ctx, order.Items)

	now := time.Now().UTC()
	order.PaymentStatus = models.PaymentPaid
	order.PaymentRef = reference
	if m := models.PaymentMethod(strings.ToUpper(methodStr)); m == models.MethodCOD || m == models.MethodWallet || m == models.MethodOnline {
		order.PaymentMethod = m
	}
	order.PaidAmount = amount
	order.PaidAt = &now
	order.Status = models.StatusConfirmed
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	s.clearCart(ctx, order.UserID)
	s.notifyConfirmation(ctx, order)
	return nil
}

func (s *OrderService) MarkOrderPaymentFailed(ctx context.Context, orderID uint, reason string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	order.PaymentStatus = models.PaymentFailed
	order.Status = models.StatusPaymentFailed
	order.PaymentFailureReason = reason
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	s.notifyPaymentFailed(ctx, order)
	return nil
}

// CancelOrder is the user-initiated path, legal only before shipping.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, reason string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusPending && order.Status != models.StatusConfirmed {
		return fmt.Errorf("%w: order in status %s cannot be cancelled", ErrConflict, order.Status)
	}
	return s.cancel(ctx, order, reason)
}

// CancelOrderByAdmin rejects only terminal source states.
func (s *OrderService) CancelOrderByAdmin(ctx context.Context, orderID uint, reason string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == models.StatusCancelled || order.Status == models.StatusDelivered {
		return fmt.Errorf("%w: order in status %s cannot be cancelled", ErrConflict, order.Status)
	}
	return s.cancel(ctx, order, reason)
}

func (s *OrderService) cancel(ctx context.Context, order *models.Order, reason string) error {
	order.Status = models.StatusCancelled
	order.CancelReason = reason
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	// stock for individually cancelled items was restored at that point
	s.incrementActiveStock(ctx, order)
	s.refundIfPaid(ctx, order, "order cancelled")

	logging.FromContext(ctx).Info("order_cancelled", "order_id", order.ID, "reason", reason)
	return nil
}

// CancelOrderItem marks one line cancelled and re-derives the order totals.
// Cancelling an already-cancelled item is a no-op success. When the last
// active item goes, the whole order is cancelled.
func (s *OrderService) CancelOrderItem(ctx context.Context, orderID, itemID uint, reason string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	var item *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			item = &order.Items[i]
			break
		}
	}
	if item == nil {
		return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
	}
	if item.Cancelled {
		return nil
	}

	item.Cancelled = true
	item.CancelReason = reason
	pricing.Recompute(order)

	if err := s.Repo.SaveOrderAndItem(ctx, order, item); err != nil {
		return err
	}

	s.Stock.Increment(ctx, item.ProductID, item.Quantity)

	if order.AllItemsCancelled() {
		return s.cancel(ctx, order, reason)
	}
	return nil
}

func (s *OrderService) RequestReturn(ctx context.Context, orderID uint, reason string) error {
	return s.transition(ctx, orderID, models.StatusDelivered, models.StatusReturnRequested, reason)
}

func (s *OrderService) CancelReturnRequest(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, models.StatusReturnRequested, models.StatusDelivered, "")
}

func (s *OrderService) RequestReplacement(ctx context.Context, orderID uint, reason string) error {
	return s.transition(ctx, orderID, models.StatusDelivered, models.StatusReplacementRequested, reason)
}

func (s *OrderService) CancelReplacementRequest(ctx context.Context, orderID uint) error {
	return s.transition(ctx, orderID, models.StatusReplacementRequested, models.StatusDelivered, "")
}

// ReturnOrderByAdmin approves a return: restock everything and refund the
// wallet if the order was paid.
func (s *OrderService) ReturnOrderByAdmin(ctx context.Context, orderID uint, reason string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.approveReturn(ctx, order, reason)
}

func (s *OrderService) approveReturn(ctx context.Context, order *models.Order, reason string) error {
	if order.Status != models.StatusReturnRequested && order.Status != models.StatusDelivered {
		return fmt.Errorf("%w: order in status %s cannot be returned", ErrConflict, order.Status)
	}

	order.Status = models.StatusReturned
	order.CancelReason = reason
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	s.incrementActiveStock(ctx, order)
	s.refundIfPaid(ctx, order, "order returned")

	logging.FromContext(ctx).Info("order_returned", "order_id", order.ID, "reason", reason)
	return nil
}

// UpdateStatusAdmin is the generic admin edit. A transition into RETURNED
// goes through the return-approval path so stock and refund effects are not
// skipped; everything else is an unconditional field update plus a note.
func (s *OrderService) UpdateStatusAdmin(ctx context.Context, orderID uint, statusStr, note string) error {
	status, ok := models.ParseOrderStatus(strings.ToUpper(statusStr))
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, statusStr)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if status == models.StatusReturned &&
		(order.Status == models.StatusReturnRequested || order.Status == models.StatusDelivered) {
		if err := s.approveReturn(ctx, order, "return approved"); err != nil {
			return err
		}
		if note == "" {
			return nil
		}
		order.AdminNote = &note
		return s.Repo.SaveOrder(ctx, order)
	}

	order.Status = status
	if note != "" {
		order.AdminNote = &note
	}
	return s.Repo.SaveOrder(ctx, order)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.getOrder(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, limit, offset)
}

func (s *OrderService) transition(ctx context.Context, orderID uint, from, to models.OrderStatus, reason string) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != from {
		return fmt.Errorf("%w: illegal transition %s -> %s", ErrConflict, order.Status, to)
	}
	order.Status = to
	if reason != "" {
		order.CancelReason = reason
	}
	return s.Repo.SaveOrder(ctx, order)
}

func (s *OrderService) getOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) incrementActiveStock(ctx context.Context, order *models.Order) {
	active := make([]models.OrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		if !it.Cancelled {
			active = append(active, it)
		}
	}
	s.Stock.IncrementAll(ctx, active)
}

// refundIfPaid issues at most one wallet credit for the paid amount, falling
// back to the order total when no paid amount was recorded. The refund is
// best-effort; a failed credit leaves the payment status untouched.
func (s *OrderService) refundIfPaid(ctx context.Context, order *models.Order, reason string) {
	if order.PaymentStatus != models.PaymentPaid {
		return
	}
	amount := order.PaidAmount
	if amount <= 0 {
		amount = order.Total
	}
	if err := s.Payments.Refund(ctx, order.UserID, order.ID, amount, reason, "wallet"); err != nil {
		logging.FromContext(ctx).Warn("refund_failed", "order_id", order.ID, "amount", amount, "error", err)
		return
	}
	order.PaymentStatus = models.PaymentRefunded
	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		logging.FromContext(ctx).Error("refund_state_save_failed", "order_id", order.ID, "error", err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.WalletRefunds.Inc()
	}
}

func (s *OrderService) clearCart(ctx context.Context, userID uint) {
	if s.Cart == nil {
		return
	}
	s.Policy.Run(ctx, "cart.clear", func(ctx context.Context) error {
		return s.Cart.Clear(ctx, userID)
	})
}

func (s *OrderService) notifyConfirmation(ctx context.Context, order *models.Order) {
	if s.Notify == nil {
		return
	}
	s.Policy.Run(ctx, "notify.confirmation", func(ctx context.Context) error {
		return s.Notify.OrderConfirmation(ctx, order)
	})
}

func (s *OrderService) notifyPaymentFailed(ctx context.Context, order *models.Order) {
	if s.Notify == nil {
		return
	}
	s.Policy.Run(ctx, "notify.payment_failed", func(ctx context.Context) error {
		return s.Notify.PaymentFailed(ctx, order)
	})
}

func (s *OrderService) countPlaced(method models.PaymentMethod, outcome string) {
	if s.Metrics != nil {
		s.Metrics.OrdersPlaced.WithLabelValues(string(method), outcome).Inc()
	}
}

func (s *OrderService) orderNumber() string {
	if s.Numbers != nil {
		return s.Numbers()
	}
	return newOrderNumber()
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
