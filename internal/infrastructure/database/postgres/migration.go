// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger.WithField("component", "migration"),
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	models := []interface{}{
		&checkout.Attempt{},
	}

	for _, model := range models {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates indexes AutoMigrate cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_checkout_attempts_session_created ON checkout_attempts(session_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_checkout_attempts_state_created ON checkout_attempts(state, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failed++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes ensured")
	return nil
}
