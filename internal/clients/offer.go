package clients

import (
	"context"
	"net/http"
)

type OfferClient struct {
	baseURL    string
	httpClient *http.Client
}

type BestPrice struct {
	FinalPrice     float64 `json:"final_price"`
	DiscountAmount float64 `json:"discount_amount"`
}

type bestPriceRequest struct {
	ProductID  uint    `json:"product_id"`
	CategoryID *uint   `json:"category_id"`
	LinePrice  float64 `json:"line_price"`
}

// BestPrice asks the offer service for the discounted price of one order
// line. categoryID may be nil.
func (c *OfferClient) BestPrice(ctx context.Context, productID uint, categoryID *uint, linePrice float64) (BestPrice, error) {
	var res BestPrice
	req := bestPriceRequest{ProductID: productID, CategoryID: categoryID, LinePrice: linePrice}
	err := postJSON(ctx, c.httpClient, c.baseURL+"/offers/best-price", req, &res)
	return res, err
}
