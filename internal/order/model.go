package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	PaymentRef  *string         `json:"payment_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []Item          `json:"items,omitempty"`
}

type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	// snapshot of the product price at placement; later price changes
	// never alter historical orders
	PricePerItem decimal.Decimal `json:"price_per_item"`
}

// Line is one requested (product, quantity) pair.
type Line struct {
	ProductID string
	Quantity  int
}
