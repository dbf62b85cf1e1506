package models

import "time"

// CheckoutAttempt tracks the last gateway status observed for a session.
// It is lightweight bookkeeping only: order creation never depends on it.
type CheckoutAttempt struct {
	SessionID  string    `gorm:"primaryKey" json:"session_id"`
	LastStatus string    `gorm:"type:VARCHAR(20);not null" json:"last_status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StockClampEvent records a stock decrement that was floored at zero, so the
// shortfall is visible for manual review instead of silently dropped.
type StockClampEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string    `gorm:"index;not null" json:"order_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Requested int       `gorm:"not null" json:"requested"`
	Resolved  bool      `gorm:"not null;default:false" json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
}
