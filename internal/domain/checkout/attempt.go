// internal/domain/checkout/attempt.go
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Attempt is one recorded checkout transition, kept for support staff
type Attempt struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SessionID      string          `gorm:"size:64;index;not null" json:"-"`
	UserID         *int            `gorm:"index" json:"user_id,omitempty"`
	CartID         int             `gorm:"index" json:"cart_id"`
	AddressID      int             `json:"address_id,omitempty"`
	OrderReference string          `gorm:"size:100;index" json:"order_reference,omitempty"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	State          State           `gorm:"size:32;not null" json:"state"`
	FailureReason  string          `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName sets the table name
func (Attempt) TableName() string {
	return "checkout_attempts"
}

// AttemptRecorder persists checkout transitions
type AttemptRecorder interface {
	Record(ctx context.Context, attempt *Attempt) error
}

// NopRecorder discards attempts
type NopRecorder struct{}

// Record implements AttemptRecorder
func (NopRecorder) Record(context.Context, *Attempt) error { return nil }

// AttemptRepository stores attempts in Postgres
type AttemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record inserts attempt
func (r *AttemptRepository) Record(ctx context.Context, attempt *Attempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record checkout attempt: %w", err)
	}
	return nil
}

// ListBySession returns the most recent attempts of a session, newest first
func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var attempts []Attempt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list checkout attempts: %w", err)
	}
	return attempts, nil
}
