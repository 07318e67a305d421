package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/models"
)

type stubOffers struct {
	final map[uint]float64
	err   error
}

func (s *stubOffers) BestPrice(_ context.Context, productID uint, _ *uint, linePrice float64) (clients.BestPrice, error) {
	if s.err != nil {
		return clients.BestPrice{}, s.err
	}
	if final, ok := s.final[productID]; ok {
		return clients.BestPrice{FinalPrice: final, DiscountAmount: linePrice - final}, nil
	}
	return clients.BestPrice{FinalPrice: linePrice}, nil
}

type stubDelivery struct {
	charge float64
	err    error
}

func (s *stubDelivery) ChargeFor(_ context.Context, _ clients.Address) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.charge, nil
}

func (s *stubDelivery) DefaultCharge() float64 { return 50 }

type stubAddresses struct {
	err error
}

func (s *stubAddresses) GetByID(_ context.Context, _ uint) (clients.Address, error) {
	if s.err != nil {
		return clients.Address{}, s.err
	}
	return clients.Address{City: "Springfield"}, nil
}

func newCalculator() *Calculator {
	return &Calculator{
		Offers:    &stubOffers{},
		Delivery:  &stubDelivery{charge: 30},
		Addresses: &stubAddresses{},
		TaxRate:   0,
		CODLimit:  1000,
	}
}

func items(pairs ...float64) []models.OrderItem {
	var out []models.OrderItem
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.OrderItem{
			ProductID: uint(i/2 + 1),
			UnitPrice: pairs[i],
			Quantity:  uint(pairs[i+1]),
		})
	}
	return out
}

func addr(id uint) *uint { return &id }

func TestPrice_SubtotalAndShipping(t *testing.T) {
	t.Parallel()

	c := newCalculator()
	quote, err := c.Price(context.Background(), items(300, 2, 200, 1), addr(1), 0, models.MethodCOD)
	require.NoError(t, err)

	assert.Equal(t, 800.0, quote.Subtotal)
	assert.Equal(t, 30.0, quote.Shipping)
	assert.Equal(t, 0.0, quote.Tax)
	assert.Equal(t, 830.0, quote.Total)
}

func TestPrice_OfferApplied(t *testing.T) {
	t.Parallel()

	c := newCalculator()
	c.Offers = &stubOffers{final: map[uint]float64{1: 500}}

	quote, err := c.Price(context.Background(), items(300, 2, 200, 1), nil, 0, models.MethodCOD)
	require.NoError(t, err)
	assert.Equal(t, 700.0, quote.Subtotal)
}

func TestPrice_NegativeOfferPriceClamped(t *testing.T) {
	t.Parallel()

	c := newCalculator()
	c.Offers = &stubOffers{final: map[uint]float64{1: -10}}

	quote, err := c.Price(context.Background(), items(300, 2, 200, 1), nil, 0, models.MethodCOD)
	require.NoError(t, err)
	assert.Equal(t, 200.0, quote.Subtotal)
}

func TestPrice_OfferLookupFailsOpen(t *testing.T) {
	t.Parallel()

	c := newCalculator()
	c.Offers = &stubOffers{err: errors.New("offer service down")}

	quote, err := c.Price(context.Background(), items(300, 2, 200, 1), nil, 0, models.MethodCOD)
	require.NoError(t, err)
	assert.Equal(t, 800.0, quote.Subtotal)
}

func TestPrice_ShippingFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		addresses AddressResolver
		delivery  DeliveryCharger
		addressID *uint
		want      float64
	}{
		{name: "no address", addresses: &stubAddresses{}, delivery: &stubDelivery{charge: 30}, addressID: nil, want: 50},
		{name: "address unresolvable", addresses: &stubAddresses{err: errors.New("404")}, delivery: &stubDelivery{charge: 30}, addressID: addr(1), want: 50},
		{name: "delivery service down", addresses: &stubAddresses{}, delivery: &stubDelivery{err: errors.New("down")}, addressID: addr(1), want: 50},
		{name: "zone resolved", addresses: &stubAddresses{}, delivery: &stubDelivery{charge: 30}, addressID: addr(1), want: 30},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newCalculator()
			c.Addresses = tt.addresses
			c.Delivery = tt.delivery

			quote, err := c.Price(context.Background(), items(100, 1), tt.addressID, 0, models.MethodOnline)
			require.NoError(t, err)
			assert.Equal(t, tt.want, quote.Shipping)
		})
	}
}

func TestPrice_CouponClamping(t *testing.T) {
	t.Parallel()

	c := newCalculator()

	// negative coupons are ignored
	quote, err := c.Price(context.Background(), items(100, 1), nil, -5, models.MethodOnline)
	require.NoError(t, err)
	assert.Equal(t, 150.0, quote.Total)

	// a coupon larger than the order clamps the total at zero
	quote, err = c.Price(context.Background(), items(100, 1), nil, 500, models.MethodOnline)
	require.NoError(t, err)
	assert.Equal(t, 0.0, quote.Total)
}

func TestPrice_CODLimit(t *testing.T) {
	t.Parallel()

	c := newCalculator()

	// exactly at the limit is allowed
	quote, err := c.Price(context.Background(), items(950, 1), nil, 0, models.MethodCOD)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, quote.Total)

	_, err = c.Price(context.Background(), items(950.01, 1), nil, 0, models.MethodCOD)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCODUnavailable)

	// the same total is fine for other methods
	_, err = c.Price(context.Background(), items(950.01, 1), nil, 0, models.MethodWallet)
	require.NoError(t, err)
}

func TestPrice_TaxRate(t *testing.T) {
	t.Parallel()

	c := newCalculator()
	c.TaxRate = 0.1

	quote, err := c.Price(context.Background(), items(100, 1), nil, 0, models.MethodOnline)
	require.NoError(t, err)
	assert.Equal(t, 10.0, quote.Tax)
	assert.Equal(t, 160.0, quote.Total)
}

func TestRecompute_PreservesCouponDelta(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		Subtotal: 100,
		Tax:      0,
		Shipping: 10,
		Total:    90, // a 20 coupon was applied at checkout
		Items: []models.OrderItem{
			{UnitPrice: 40, Quantity: 1, Total: 40, Cancelled: true},
			{UnitPrice: 60, Quantity: 1, Total: 60},
		},
	}

	Recompute(order)

	assert.Equal(t, 60.0, order.Subtotal)
	assert.Equal(t, 50.0, order.Total)
}

func TestRecompute_ClampsAtZero(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		Subtotal: 100,
		Shipping: 10,
		Total:    90,
		Items: []models.OrderItem{
			{UnitPrice: 40, Quantity: 1, Total: 40, Cancelled: true},
			{UnitPrice: 60, Quantity: 1, Total: 60, Cancelled: true},
		},
	}

	Recompute(order)

	assert.Equal(t, 0.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Total)
}

func TestRecompute_DerivesMissingItemTotals(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		Subtotal: 120,
		Total:    120,
		Items: []models.OrderItem{
			{UnitPrice: 30, Quantity: 2}, // no stored total
			{UnitPrice: 60, Quantity: 1, Total: 60, Cancelled: true},
		},
	}

	Recompute(order)

	assert.Equal(t, 60.0, order.Subtotal)
	assert.Equal(t, 60.0, order.Total)
}
