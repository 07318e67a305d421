package clients

import (
	"context"
	"net/http"
)

type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

type clearCartRequest struct {
	UserID uint `json:"user_id"`
}

func (c *CartClient) Clear(ctx context.Context, userID uint) error {
	return postJSON(ctx, c.httpClient, c.baseURL+"/cart/clear", clearCartRequest{UserID: userID}, nil)
}
