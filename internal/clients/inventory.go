package clients

import (
	"context"
	"net/http"
)

type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

type stockRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

func (c *InventoryClient) Decrement(ctx context.Context, productID, qty uint) error {
	return postJSON(ctx, c.httpClient, c.baseURL+"/inventory/decrement", stockRequest{ProductID: productID, Quantity: qty}, nil)
}

func (c *InventoryClient) Increment(ctx context.Context, productID, qty uint) error {
	return postJSON(ctx, c.httpClient, c.baseURL+"/inventory/increment", stockRequest{ProductID: productID, Quantity: qty}, nil)
}
