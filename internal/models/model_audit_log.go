package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/pkg/types"
)

var ErrAuditLogImmutable = errors.New("audit log entries are append-only")

// AuditLog records who did what. Rows are never updated or deleted.
type AuditLog struct {
	ID string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	// EmployeeID is nil for events before authentication, e.g. a failed login.
	EmployeeID *string           `gorm:"column:employee_id;type:varchar(64);index:idx_audit_employee_id" json:"employee_id"`
	Action     types.AuditAction `gorm:"column:action;type:varchar(64);not null;index:idx_audit_action" json:"action"`
	Details    datatypes.JSONMap `gorm:"column:details;type:jsonb" json:"details"`
	IPAddress  *string           `gorm:"column:ip_address;type:varchar(64)" json:"ip_address"`
	UserAgent  *string           `gorm:"column:user_agent;type:text" json:"user_agent"`
	TraceID    string            `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeUpdate(*gorm.DB) error { return ErrAuditLogImmutable }

func (a *AuditLog) BeforeDelete(*gorm.DB) error { return ErrAuditLogImmutable }
