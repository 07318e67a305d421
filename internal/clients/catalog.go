package clients

import (
	"context"
	"fmt"
	"net/http"
)

type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

type Product struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

func (c *CatalogClient) GetByID(ctx context.Context, productID uint) (Product, error) {
	var p Product
	err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/products/%d", c.baseURL, productID), &p)
	return p, err
}
