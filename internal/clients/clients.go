// Package clients holds the narrow HTTP contracts toward the services the
// fulfillment engine collaborates with: inventory, wallet, offers, delivery
// charges, addresses, carts and the product catalog.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config is the full set of collaborator base URLs, filled from the service
// configuration at startup.
type Config struct {
	InventoryURL string
	WalletURL    string
	OfferURL     string
	DeliveryURL  string
	AddressURL   string
	CartURL      string
	CatalogURL   string
}

type Set struct {
	Inventory *InventoryClient
	Wallet    *WalletClient
	Offers    *OfferClient
	Delivery  *DeliveryClient
	Addresses *AddressClient
	Cart      *CartClient
	Catalog   *CatalogClient
}

func NewSet(cfg Config) *Set {
	hc := newHTTPClient()
	return &Set{
		Inventory: &InventoryClient{baseURL: cfg.InventoryURL, httpClient: hc},
		Wallet:    &WalletClient{baseURL: cfg.WalletURL, httpClient: hc},
		Offers:    &OfferClient{baseURL: cfg.OfferURL, httpClient: hc},
		Delivery:  &DeliveryClient{baseURL: cfg.DeliveryURL, httpClient: hc, BaseCharge: DefaultDeliveryCharge},
		Addresses: &AddressClient{baseURL: cfg.AddressURL, httpClient: hc},
		Cart:      &CartClient{baseURL: cfg.CartURL, httpClient: hc},
		Catalog:   &CatalogClient{baseURL: cfg.CatalogURL, httpClient: hc},
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func postJSON(ctx context.Context, hc *http.Client, url string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func getJSON(ctx context.Context, hc *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
