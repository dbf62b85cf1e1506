package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oakmart-dev/storefront-api/models"
)

// Inventory applies stock adjustments as single conditional UPDATE
// statements. Reading the stock into application code and writing a
// computed value back would lose updates under concurrent orders.
type Inventory struct {
	db *gorm.DB
}

func NewInventory(db *gorm.DB) *Inventory {
	return &Inventory{db: db}
}

// decrementRetries bounds the loop for the rare window where stock moves
// between the two conditional statements (e.g. an admin restock).
const decrementRetries = 3

// Decrement applies a floor-decrement: stock = max(0, stock - qty).
// It first tries the full decrement, guarded by stock >= qty; if stock is
// short it clamps to zero instead and records a StockClampEvent for manual
// review. Returns whether clamping occurred.
func (s *Inventory) Decrement(ctx context.Context, orderID string, productID uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrement stock for product %d: quantity %d out of range", productID, qty)
	}

	for attempt := 0; attempt < decrementRetries; attempt++ {
		res := s.db.WithContext(ctx).Exec(
			`UPDATE products SET stock = stock - ?, updated_at = NOW()
			 WHERE id = ? AND deleted_at IS NULL AND stock >= ?`,
			qty, productID, qty,
		)
		if res.Error != nil {
			return false, fmt.Errorf("decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return false, nil
		}

		res = s.db.WithContext(ctx).Exec(
			`UPDATE products SET stock = 0, updated_at = NOW()
			 WHERE id = ? AND deleted_at IS NULL AND stock < ?`,
			productID, qty,
		)
		if res.Error != nil {
			return false, fmt.Errorf("clamp stock: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			event := models.StockClampEvent{
				OrderID:   orderID,
				ProductID: productID,
				Requested: qty,
			}
			if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
				return true, fmt.Errorf("record clamp event: %w", err)
			}
			return true, nil
		}

		// Neither statement matched: the row changed between them, or the
		// product does not exist. Retry; a missing product falls out below.
	}

	return false, fmt.Errorf("decrement stock for product %d: no matching row", productID)
}

// Restock atomically adds stock back, used by the admin restock endpoint.
func (s *Inventory) Restock(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("restock product %d: quantity %d out of range", productID, qty)
	}
	res := s.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = NOW()
		 WHERE id = ? AND deleted_at IS NULL`,
		qty, productID,
	)
	if res.Error != nil {
		return fmt.Errorf("restock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
