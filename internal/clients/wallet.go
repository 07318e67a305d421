package clients

import (
	"context"
	"net/http"
)

type WalletClient struct {
	baseURL    string
	httpClient *http.Client
}

type PayResult struct {
	Success bool    `json:"success"`
	Balance float64 `json:"balance"`
}

type payRequest struct {
	UserID  uint    `json:"user_id"`
	OrderID uint    `json:"order_id"`
	Amount  float64 `json:"amount"`
}

func (c *WalletClient) Pay(ctx context.Context, userID, orderID uint, amount float64) (PayResult, error) {
	var res PayResult
	err := c.doPay(ctx, payRequest{UserID: userID, OrderID: orderID, Amount: amount}, &res)
	return res, err
}

func (c *WalletClient) doPay(ctx context.Context, req payRequest, out *PayResult) error {
	return postJSON(ctx, c.httpClient, c.baseURL+"/wallet/pay", req, out)
}

type creditRequest struct {
	UserID  uint    `json:"user_id"`
	OrderID uint    `json:"order_id"`
	Amount  float64 `json:"amount"`
	Reason  string  `json:"reason"`
	Source  string  `json:"source"`
}

type creditResult struct {
	Balance float64 `json:"balance"`
}

func (c *WalletClient) Credit(ctx context.Context, userID, orderID uint, amount float64, reason, source string) (float64, error) {
	var res creditResult
	req := creditRequest{UserID: userID, OrderID: orderID, Amount: amount, Reason: reason, Source: source}
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/wallet/credit", req, &res); err != nil {
		return 0, err
	}
	return res.Balance, nil
}
