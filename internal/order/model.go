package order

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks the money axis of an order. Transitions are
// forward-only: PENDING may become PAID or FAILED, nothing moves back.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Status tracks fulfillment, independent of payment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

type Order struct {
	ID              uuid.UUID     `json:"id"`
	Reference       string        `json:"reference"`
	UserID          *uint         `json:"user_id,omitempty"`
	Customer        string        `json:"customer"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	StripeSessionID *string       `json:"stripe_session_id,omitempty"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Status          Status        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is a priced snapshot taken at checkout time. Catalog
// changes after session creation never alter it.
type OrderItem struct {
	ID          int64     `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
}

type CheckoutItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CheckoutParams struct {
	UserID uint
	Email  string
	Items  []CheckoutItemInput
}

type CheckoutResult struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reference string    `json:"reference"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}
