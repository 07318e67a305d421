package cache

import (
	"context"
	"errors"

	"github.com/storefront-labs/fulfillment/internal/clients"
)

type ProductCache interface {
	Get(ctx context.Context, productID uint) (*clients.Product, error)
	Set(ctx context.Context, productID uint, product *clients.Product) error
}

var ErrCacheMiss = errors.New("cache miss")
