package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakmart-dev/storefront-api/models"
)

// Orders persists order rows. The only write path is TryCreate.
type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// TryCreate inserts the order unless one already exists for its session.
// The insert runs as a single ON CONFLICT DO NOTHING statement against the
// unique index on session_id, so concurrent attempts for the same session
// resolve inside the database: exactly one insert wins, the rest observe
// zero affected rows. A check-then-insert sequence would be racy here.
func (s *Orders) TryCreate(ctx context.Context, order *models.Order) (bool, *models.Order, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(order)
	if res.Error != nil {
		return false, nil, fmt.Errorf("insert order: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, order, nil
	}

	// Lost the race: some earlier attempt created the order. Load it so the
	// caller can answer with the same result as the winner did.
	var existing models.Order
	if err := s.db.WithContext(ctx).First(&existing, "session_id = ?", order.SessionID).Error; err != nil {
		return false, nil, fmt.Errorf("load existing order for session %s: %w", order.SessionID, err)
	}
	return false, &existing, nil
}

// GetBySession returns the order for a session, or gorm.ErrRecordNotFound.
func (s *Orders) GetBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
