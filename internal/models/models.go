package models

import "time"

type OrderStatus string

const (
	StatusPending              OrderStatus = "PENDING"
	StatusConfirmed            OrderStatus = "CONFIRMED"
	StatusShipped              OrderStatus = "SHIPPED"
	StatusOutForDelivery       OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered            OrderStatus = "DELIVERED"
	StatusCancelled            OrderStatus = "CANCELLED"
	StatusPaymentFailed        OrderStatus = "PAYMENT_FAILED"
	StatusReturnRequested      OrderStatus = "RETURN_REQUESTED"
	StatusReturned             OrderStatus = "RETURNED"
	StatusReplacementRequested OrderStatus = "REPLACEMENT_REQUESTED"
)

var orderStatuses = map[OrderStatus]struct{}{
	StatusPending:              {},
	StatusConfirmed:            {},
	StatusShipped:              {},
	StatusOutForDelivery:       {},
	StatusDelivered:            {},
	StatusCancelled:            {},
	StatusPaymentFailed:        {},
	StatusReturnRequested:      {},
	StatusReturned:             {},
	StatusReplacementRequested: {},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderStatuses[st]
	return st, ok
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "COD"
	MethodWallet PaymentMethod = "WALLET"
	MethodOnline PaymentMethod = "ONLINE"
)

type Order struct {
	ID     uint   `gorm:"primaryKey"          json:"id"`
	Number string `gorm:"uniqueIndex;not null" json:"number"`

	UserID    uint   `gorm:"index;not null" json:"user_id"`
	UserEmail string `json:"user_email"`
	AddressID *uint  `json:"address_id"`

	Subtotal   float64 `gorm:"not null" json:"subtotal"`
	Tax        float64 `gorm:"not null" json:"tax"`
	Shipping   float64 `gorm:"not null" json:"shipping"`
	Total      float64 `gorm:"not null" json:"total"`
	PaidAmount float64 `json:"paid_amount"`

	PaymentMethod        PaymentMethod `gorm:"type:varchar(16);not null" json:"payment_method"`
	PaymentStatus        PaymentStatus `gorm:"type:varchar(16);default:'PENDING'" json:"payment_status"`
	PaymentRef           string        `json:"payment_ref"`
	PaymentFailureReason string        `json:"payment_failure_reason"`

	Status       OrderStatus `gorm:"type:varchar(32);default:'PENDING'" json:"status"`
	CancelReason string      `json:"cancel_reason"`
	AdminNote    *string     `json:"admin_note"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	PaidAt    *time.Time `json:"paid_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"     json:"id"`
	OrderID   uint `gorm:"index;not null" json:"order_id"`
	ProductID uint `gorm:"not null"       json:"product_id"`

	Title     string  `json:"title"`
	Image     string  `json:"image"`
	UnitPrice float64 `gorm:"not null"                   json:"unit_price"`
	Quantity  uint    `gorm:"default:1;check:quantity>0" json:"quantity"`
	Total     float64 `json:"total"`

	Cancelled    bool   `gorm:"default:false" json:"cancelled"`
	CancelReason string `json:"cancel_reason"`
}

// LineTotal is the stored total once set, otherwise unit price times quantity.
func (i OrderItem) LineTotal() float64 {
	if i.Total > 0 {
		return i.Total
	}
	return i.UnitPrice * float64(i.Quantity)
}

// ActiveSubtotal sums the line totals of all non-cancelled items.
func (o *Order) ActiveSubtotal() float64 {
	var sum float64
	for _, it := range o.Items {
		if !it.Cancelled {
			sum += it.LineTotal()
		}
	}
	return sum
}

func (o *Order) AllItemsCancelled() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if !it.Cancelled {
			return false
		}
	}
	return true
}
