package clients

import (
	"context"
	"fmt"
	"net/http"
)

type AddressClient struct {
	baseURL    string
	httpClient *http.Client
}

type Address struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Pincode string `json:"pincode"`
}

func (c *AddressClient) GetByID(ctx context.Context, id uint) (Address, error) {
	var addr Address
	err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/addresses/%d", c.baseURL, id), &addr)
	return addr, err
}
