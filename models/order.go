package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type OrderStatus string

const (
	// Order statuses (typical e-commerce flow)
	OrderStatusConfirmed   OrderStatus = "confirmed"     // Payment captured, order exists
	OrderStatusReadyToShip OrderStatus = "ready_to_ship" // Packed and ready for dispatch
	OrderStatusShipped     OrderStatus = "shipped"       // Out for delivery
	OrderStatusDelivered   OrderStatus = "delivered"     // Customer received the item
	OrderStatusReturned    OrderStatus = "returned"      // Customer returned the item
	OrderStatusCancelled   OrderStatus = "cancelled"     // Cancelled before shipping
)

// Order is created at most once per gateway checkout session. The unique
// index on SessionID is what makes reconciliation idempotent: a second
// insert for the same session hits the constraint instead of creating a row.
type Order struct {
	ID            string      `gorm:"primaryKey" json:"id"`
	SessionID     string      `gorm:"uniqueIndex;not null" json:"session_id"`
	Status        OrderStatus `gorm:"type:VARCHAR(20);default:'confirmed'" json:"status"`
	Amount        int64       `gorm:"not null" json:"amount"` // minor units, as reported by the gateway
	Currency      string      `gorm:"type:VARCHAR(3);not null" json:"currency"`
	Items         OrderItems  `gorm:"type:jsonb" json:"items"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `gorm:"index" json:"customer_email"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderItem snapshots a purchased line at capture time. Prices are the
// gateway-reported unit amounts, not current catalog prices.
type OrderItem struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitAmount  int64  `json:"unit_amount"`
	Quantity    int    `json:"quantity"`
}

// OrderItems is stored as a single jsonb column.
type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	return json.Marshal(items)
}

func (items *OrderItems) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	default:
		return errors.New("unsupported type for order items column")
	}
}
