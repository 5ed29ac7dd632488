// Package auditlog appends to and queries the employee audit trail.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/logctx"
	"github.com/fatflowers/fuelpos/pkg/tool"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// RequestMeta identifies the client an action came from.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Writer is the write side used by other services.
type Writer interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// Create appends entry, filling ID, trace id and timestamp when unset.
func (s *Service) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil {
		return fmt.Errorf("nil audit log entry")
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if entry.TraceID == "" {
		entry.TraceID = logctx.TraceID(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("audit_log_write_failed", "action", entry.Action, "err", err)
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// Record is a shorthand for Create.
func (s *Service) Record(ctx context.Context, action types.AuditAction, employeeID *string, details map[string]any, meta RequestMeta) error {
	entry := &models.AuditLog{
		EmployeeID: employeeID,
		Action:     action,
		Details:    datatypes.JSONMap(details),
	}
	if meta.IPAddress != "" {
		entry.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		entry.UserAgent = &meta.UserAgent
	}
	return s.Create(ctx, entry)
}

type ScanResponse struct {
	Items []*models.AuditLog `json:"items"`
	Total int64              `json:"total"`
}

var scanFields = []string{"id", "employee_id", "action", "trace_id", "created_at"}

func (s *Service) Scan(ctx context.Context, req *types.ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.Normalize(scanFields...); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where(types.FiltersAnd(req.Filters)).
		Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var rows []*models.AuditLog
	if err := tx.Order(req.OrderBy("created_at")).Limit(req.Size).Offset(req.From).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) Writer { return s }),
)
