package stock

import (
	"context"
	"fmt"

	"github.com/storefront-labs/fulfillment/internal/besteffort"
	"github.com/storefront-labs/fulfillment/internal/models"
)

type InventoryAPI interface {
	Decrement(ctx context.Context, productID, qty uint) error
	Increment(ctx context.Context, productID, qty uint) error
}

// Coordinator adjusts inventory best-effort. Each product gets its own
// failure boundary so one bad item never blocks adjusting the rest.
type Coordinator struct {
	Inventory InventoryAPI
	Policy    *besteffort.Policy
}

func (c *Coordinator) DecrementAll(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		it := it
		c.Policy.Run(ctx, fmt.Sprintf("inventory.decrement.%d", it.ProductID), func(ctx context.Context) error {
			return c.Inventory.Decrement(ctx, it.ProductID, it.Quantity)
		})
	}
}

func (c *Coordinator) IncrementAll(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		it := it
		c.Policy.Run(ctx, fmt.Sprintf("inventory.increment.%d", it.ProductID), func(ctx context.Context) error {
			return c.Inventory.Increment(ctx, it.ProductID, it.Quantity)
		})
	}
}

func (c *Coordinator) Increment(ctx context.Context, productID, qty uint) {
	c.Policy.Run(ctx, fmt.Sprintf("inventory.increment.%d", productID), func(ctx context.Context) error {
		return c.Inventory.Increment(ctx, productID, qty)
	})
}
