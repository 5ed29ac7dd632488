package transaction

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/models"
)

// Store persists transaction rows.
type Store interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Transaction, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateTransaction inserts tx. Unique violations surface as gorm.ErrDuplicatedKey
// when the connection was opened with TranslateError.
func (s *GormStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *GormStore) GetBySessionID(ctx context.Context, sessionID string) (*models.Transaction, error) {
	var out models.Transaction
	err := s.db.WithContext(ctx).First(&out, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
