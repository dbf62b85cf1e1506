package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakmart-dev/storefront-api/models"
)

// Attempts keeps the last gateway status seen per session. Purely
// informational; reconciliation correctness never depends on it.
type Attempts struct {
	db *gorm.DB
}

func NewAttempts(db *gorm.DB) *Attempts {
	return &Attempts{db: db}
}

func (s *Attempts) Track(ctx context.Context, sessionID, status string) error {
	attempt := models.CheckoutAttempt{SessionID: sessionID, LastStatus: status}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_status", "updated_at"}),
		}).
		Create(&attempt).Error
	if err != nil {
		return fmt.Errorf("track attempt for session %s: %w", sessionID, err)
	}
	return nil
}
