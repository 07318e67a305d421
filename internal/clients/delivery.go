package clients

import (
	"context"
	"net/http"
)

// DefaultDeliveryCharge applies whenever the delivery zone of an address
// cannot be resolved.
const DefaultDeliveryCharge = 50

type DeliveryClient struct {
	baseURL    string
	httpClient *http.Client

	// BaseCharge is the fallback amount when the service or zone is
	// unavailable.
	BaseCharge float64
}

type chargeResult struct {
	Amount float64 `json:"amount"`
}

func (c *DeliveryClient) ChargeFor(ctx context.Context, addr Address) (float64, error) {
	var res chargeResult
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/delivery/charge", addr, &res); err != nil {
		return 0, err
	}
	return res.Amount, nil
}

func (c *DeliveryClient) DefaultCharge() float64 {
	return c.BaseCharge
}
