package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/fulfillment/internal/cache"
	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/models"
)

type fakeCatalog struct {
	products map[uint]clients.Product
	calls    int
	err      error
}

func (f *fakeCatalog) GetByID(_ context.Context, productID uint) (clients.Product, error) {
	f.calls++
	if f.err != nil {
		return clients.Product{}, f.err
	}
	p, ok := f.products[productID]
	if !ok {
		return clients.Product{}, errors.New("unknown product")
	}
	return p, nil
}

type mapCache struct {
	entries map[uint]*clients.Product
	sets    int
}

func (m *mapCache) Get(_ context.Context, productID uint) (*clients.Product, error) {
	if p, ok := m.entries[productID]; ok {
		return p, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *mapCache) Set(_ context.Context, productID uint, p *clients.Product) error {
	m.sets++
	m.entries[productID] = p
	return nil
}

func projectorOrder() *models.Order {
	return &models.Order{
		ID:            3,
		Number:        "ORD-XYZ",
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentPaid,
		PaymentMethod: models.MethodWallet,
		Subtotal:      100,
		Total:         100,
		CreatedAt:     time.Now().UTC(),
		Items: []models.OrderItem{
			{ID: 1, ProductID: 10, Title: "Known", Image: "known.png", UnitPrice: 40, Quantity: 1, Total: 40},
			{ID: 2, ProductID: 20, Quantity: 2}, // needs enrichment
		},
	}
}

func TestProject_EnrichesMissingFields(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{products: map[uint]clients.Product{
		20: {Title: "Headphones", Price: 30, Image: "hp.png"},
	}}
	p := &Projector{Catalog: catalog}

	resp := p.Project(context.Background(), projectorOrder())
	require.Len(t, resp.Items, 2)

	// complete snapshots are passed through without a catalog call
	assert.Equal(t, "Known", resp.Items[0].Title)
	assert.Equal(t, 40.0, resp.Items[0].Total)

	assert.Equal(t, "Headphones", resp.Items[1].Title)
	assert.Equal(t, "hp.png", resp.Items[1].Image)
	assert.Equal(t, 30.0, resp.Items[1].UnitPrice)
	// derived unit price x quantity, the stored total was zero
	assert.Equal(t, 60.0, resp.Items[1].Total)
	assert.Equal(t, 1, catalog.calls)
}

func TestProject_EnrichmentFailureSwallowed(t *testing.T) {
	t.Parallel()

	p := &Projector{Catalog: &fakeCatalog{err: errors.New("catalog down")}}

	resp := p.Project(context.Background(), projectorOrder())
	require.Len(t, resp.Items, 2)

	// the incomplete item comes back as stored, not as an error
	assert.Empty(t, resp.Items[1].Title)
	assert.Equal(t, 0.0, resp.Items[1].UnitPrice)
	assert.Equal(t, 0.0, resp.Items[1].Total)
}

func TestProject_CacheReadThrough(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{products: map[uint]clients.Product{
		20: {Title: "Headphones", Price: 30, Image: "hp.png"},
	}}
	c := &mapCache{entries: map[uint]*clients.Product{}}
	p := &Projector{Catalog: catalog, Cache: c}

	p.Project(context.Background(), projectorOrder())
	assert.Equal(t, 1, catalog.calls)
	assert.Equal(t, 1, c.sets)

	// second projection is served from the cache
	p.Project(context.Background(), projectorOrder())
	assert.Equal(t, 1, catalog.calls)
}

func TestProject_OrderFields(t *testing.T) {
	t.Parallel()

	p := &Projector{}
	order := projectorOrder()
	order.Items = nil

	resp := p.Project(context.Background(), order)
	assert.Equal(t, order.ID, resp.ID)
	assert.Equal(t, "ORD-XYZ", resp.Number)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, "PAID", resp.PaymentStatus)
	assert.Equal(t, "WALLET", resp.PaymentMethod)
	assert.Empty(t, resp.Items)
}
