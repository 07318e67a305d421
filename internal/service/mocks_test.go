package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront-labs/fulfillment/internal/besteffort"
	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/models"
	"github.com/storefront-labs/fulfillment/internal/payment"
	"github.com/storefront-labs/fulfillment/internal/pricing"
	"github.com/storefront-labs/fulfillment/internal/repo"
	"github.com/storefront-labs/fulfillment/internal/stock"
)

// callLog records the order of side effects across all fakes so tests can
// assert the payment -> stock -> cart -> notify sequence.
type callLog struct {
	calls []string
}

func (l *callLog) add(s string) {
	l.calls = append(l.calls, s)
}

type fakeInventory struct {
	log     *callLog
	failAll bool

	decrements map[uint]uint
	increments map[uint]uint
}

func (f *fakeInventory) Decrement(_ context.Context, productID, qty uint) error {
	f.log.add(fmt.Sprintf("inventory.decrement:%d", productID))
	if f.failAll {
		return errors.New("inventory unavailable")
	}
	f.decrements[productID] += qty
	return nil
}

func (f *fakeInventory) Increment(_ context.Context, productID, qty uint) error {
	f.log.add(fmt.Sprintf("inventory.increment:%d", productID))
	if f.failAll {
		return errors.New("inventory unavailable")
	}
	f.increments[productID] += qty
	return nil
}

type walletCall struct {
	orderID uint
	amount  float64
	reason  string
}

type fakeWallet struct {
	log       *callLog
	declined  bool
	payErr    error
	creditErr error

	payCalls    []walletCall
	creditCalls []walletCall
}

func (f *fakeWallet) Pay(_ context.Context, _, orderID uint, amount float64) (clients.PayResult, error) {
	f.log.add("wallet.pay")
	f.payCalls = append(f.payCalls, walletCall{orderID: orderID, amount: amount})
	if f.payErr != nil {
		return clients.PayResult{}, f.payErr
	}
	return clients.PayResult{Success: !f.declined, Balance: 0}, nil
}

func (f *fakeWallet) Credit(_ context.Context, _, orderID uint, amount float64, reason, _ string) (float64, error) {
	f.log.add("wallet.credit")
	if f.creditErr != nil {
		return 0, f.creditErr
	}
	f.creditCalls = append(f.creditCalls, walletCall{orderID: orderID, amount: amount, reason: reason})
	return 0, nil
}

type fakeCart struct {
	log     *callLog
	cleared []uint
}

func (f *fakeCart) Clear(_ context.Context, userID uint) error {
	f.log.add("cart.clear")
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeNotifier struct {
	log           *callLog
	confirmations []uint
	failures      []uint
}

func (f *fakeNotifier) OrderConfirmation(_ context.Context, order *models.Order) error {
	f.log.add("notify.confirmation")
	f.confirmations = append(f.confirmations, order.ID)
	return nil
}

func (f *fakeNotifier) PaymentFailed(_ context.Context, order *models.Order) error {
	f.log.add("notify.payment_failed")
	f.failures = append(f.failures, order.ID)
	return nil
}

// fakeOffers passes line prices through unchanged unless a discount is set.
type fakeOffers struct {
	discount float64
	err      error
}

func (f *fakeOffers) BestPrice(_ context.Context, _ uint, _ *uint, linePrice float64) (clients.BestPrice, error) {
	if f.err != nil {
		return clients.BestPrice{}, f.err
	}
	return clients.BestPrice{FinalPrice: linePrice - f.discount, DiscountAmount: f.discount}, nil
}

type fakeDelivery struct {
	charge float64
	err    error
}

func (f *fakeDelivery) ChargeFor(_ context.Context, _ clients.Address) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.charge, nil
}

func (f *fakeDelivery) DefaultCharge() float64 { return 50 }

type fakeAddresses struct {
	err error
}

func (f *fakeAddresses) GetByID(_ context.Context, _ uint) (clients.Address, error) {
	if f.err != nil {
		return clients.Address{}, f.err
	}
	return clients.Address{Name: "Test User", City: "Springfield", Country: "US", Pincode: "12345"}, nil
}

type testEnv struct {
	svc       *OrderService
	db        *gorm.DB
	log       *callLog
	inventory *fakeInventory
	wallet    *fakeWallet
	cart      *fakeCart
	notifier  *fakeNotifier
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := &callLog{}
	inventory := &fakeInventory{log: log, decrements: map[uint]uint{}, increments: map[uint]uint{}}
	wallet := &fakeWallet{log: log}
	cart := &fakeCart{log: log}
	notifier := &fakeNotifier{log: log}
	db := newTestDB(t)
	policy := &besteffort.Policy{}

	svc := &OrderService{
		Repo: &repo.GormRepo{DB: db},
		Pricing: &pricing.Calculator{
			Offers:    &fakeOffers{},
			Delivery:  &fakeDelivery{charge: 50},
			Addresses: &fakeAddresses{},
			TaxRate:   0,
			CODLimit:  1000,
		},
		Stock:    &stock.Coordinator{Inventory: inventory, Policy: policy},
		Payments: &payment.Bridge{Wallet: wallet},
		Cart:     cart,
		Notify:   notifier,
		Policy:   policy,
	}

	return &testEnv{svc: svc, db: db, log: log, inventory: inventory, wallet: wallet, cart: cart, notifier: notifier}
}

// seedOrder persists an order directly, bypassing PlaceOrder, for lifecycle
// tests that need a specific starting state.
func (env *testEnv) seedOrder(t *testing.T, order *models.Order) *models.Order {
	t.Helper()
	if order.Number == "" {
		order.Number = newOrderNumber()
	}
	if order.UserID == 0 {
		order.UserID = 7
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.MethodCOD
	}
	require.NoError(t, env.db.Create(order).Error)
	return order
}

func (env *testEnv) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, env.db.Preload("Items").First(&order, id).Error)
	return &order
}
