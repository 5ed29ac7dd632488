package transaction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// Service answers read queries over recorded transactions.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var out models.Transaction
	if err := s.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return &out, nil
}

// ListEmployeeTransactions returns the newest transactions of one employee.
func (s *Service) ListEmployeeTransactions(ctx context.Context, employeeID string, limit int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > types.MaxScanSize {
		limit = 50
	}
	var rows []*models.Transaction
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list employee transactions: %w", err)
	}
	return rows, nil
}

type ScanTransactionsResponse struct {
	Items []*models.Transaction `json:"items"`
	Total int64                 `json:"total"`
}

var scanFields = []string{
	"id", "employee_id", "fuel_type_id", "payment_method", "status",
	"receipt_number", "session_id", "external_transaction_id", "total_amount", "created_at",
}

// ScanTransactions is the paginated admin listing.
func (s *Service) ScanTransactions(ctx context.Context, req *types.ScanRequest) (*ScanTransactionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.Normalize(scanFields...); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where(types.FiltersAnd(req.Filters)).
		Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []*models.Transaction
	if err := tx.Order(req.OrderBy("created_at")).Limit(req.Size).Offset(req.From).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &ScanTransactionsResponse{Items: rows, Total: total}, nil
}
