package service

import (
	"context"
	"errors"

	"github.com/storefront-labs/fulfillment/internal/cache"
	"github.com/storefront-labs/fulfillment/internal/clients"
	"github.com/storefront-labs/fulfillment/internal/logging"
	"github.com/storefront-labs/fulfillment/internal/models"
	"github.com/storefront-labs/fulfillment/internal/transport"
)

type ProductFetcher interface {
	GetByID(ctx context.Context, productID uint) (clients.Product, error)
}

// Projector maps the order aggregate into outward summaries, filling in
// title, image and price for items whose snapshot is incomplete. Enrichment
// failures are swallowed; the stored fields win.
type Projector struct {
	Catalog ProductFetcher
	Cache   cache.ProductCache
}

func (p *Projector) Project(ctx context.Context, order *models.Order) transport.OrderResponse {
	resp := transport.OrderResponse{
		ID:            order.ID,
		Number:        order.Number,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: string(order.PaymentMethod),
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		Shipping:      order.Shipping,
		Total:         order.Total,
		PaidAmount:    order.PaidAmount,
		CreatedAt:     order.CreatedAt,
		Items:         make([]transport.OrderItemView, 0, len(order.Items)),
	}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, p.projectItem(ctx, it))
	}
	return resp
}

func (p *Projector) ProjectList(ctx context.Context, orders []models.Order) []transport.OrderResponse {
	out := make([]transport.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, p.Project(ctx, &orders[i]))
	}
	return out
}

func (p *Projector) projectItem(ctx context.Context, it models.OrderItem) transport.OrderItemView {
	if it.Title == "" || it.Image == "" || it.UnitPrice == 0 {
		if prod := p.snapshot(ctx, it.ProductID); prod != nil {
			if it.Title == "" {
				it.Title = prod.Title
			}
			if it.Image == "" {
				it.Image = prod.Image
			}
			if it.UnitPrice == 0 {
				it.UnitPrice = prod.Price
			}
		}
	}

	return transport.OrderItemView{
		ID:        it.ID,
		ProductID: it.ProductID,
		Title:     it.Title,
		Image:     it.Image,
		UnitPrice: it.UnitPrice,
		Quantity:  it.Quantity,
		Total:     it.LineTotal(),
		Cancelled: it.Cancelled,
	}
}

// snapshot reads through the product cache into the catalog. A nil result
// means the product could not be resolved anywhere.
func (p *Projector) snapshot(ctx context.Context, productID uint) *clients.Product {
	if p.Cache != nil {
		prod, err := p.Cache.Get(ctx, productID)
		if err == nil {
			return prod
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logging.FromContext(ctx).Warn("product_cache_get_failed", "product_id", productID, "error", err)
		}
	}

	if p.Catalog == nil {
		return nil
	}
	prod, err := p.Catalog.GetByID(ctx, productID)
	if err != nil {
		logging.FromContext(ctx).Warn("catalog_enrichment_failed", "product_id", productID, "error", err)
		return nil
	}

	if p.Cache != nil {
		if err := p.Cache.Set(ctx, productID, &prod); err != nil {
			logging.FromContext(ctx).Warn("product_cache_set_failed", "product_id", productID, "error", err)
		}
	}
	return &prod
}
