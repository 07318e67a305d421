package transport

import "time"

type PlaceOrderItem struct {
	ProductID uint    `json:"product_id"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  uint    `json:"quantity"`
}

type PlaceOrderRequest struct {
	UserEmail      string           `json:"user_email"`
	AddressID      *uint            `json:"address_id"`
	PaymentMethod  string           `json:"payment_method"`
	CouponDiscount float64          `json:"coupon_discount"`
	Items          []PlaceOrderItem `json:"items"`
}

type PlaceOrderResult struct {
	OrderID uint   `json:"order_id"`
	Number  string `json:"number"`
	Status  string `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type OrderItemView struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  uint    `json:"quantity"`
	Total     float64 `json:"total"`
	Cancelled bool    `json:"cancelled"`
}

type OrderResponse struct {
	ID            uint            `json:"id"`
	Number        string          `json:"number"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      float64         `json:"subtotal"`
	Tax           float64         `json:"tax"`
	Shipping      float64         `json:"shipping"`
	Total         float64         `json:"total"`
	PaidAmount    float64         `json:"paid_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItemView `json:"items"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type MarkPaidRequest struct {
	Reference string  `json:"reference"`
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
}

type MarkFailedRequest struct {
	Reason string `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}
