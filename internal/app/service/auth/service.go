// Package auth signs employees in with their PIN and issues bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/logctx"
	"github.com/fatflowers/fuelpos/pkg/tool"
	"github.com/fatflowers/fuelpos/pkg/types"
)

var (
	ErrInvalidPIN   = errors.New("invalid PIN")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("role not allowed")
)

type Claims struct {
	EmployeeID string             `json:"employee_id"`
	Role       types.EmployeeRole `json:"role"`
	jwt.StandardClaims
}

type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Employee  *models.Employee `json:"employee"`
}

type Service struct {
	db     *gorm.DB
	audit  auditlog.Writer
	secret []byte
	ttl    time.Duration
	cost   int
	log    *zap.SugaredLogger
	now    func() time.Time
}

func New(db *gorm.DB, audit auditlog.Writer, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{
		db:     db,
		audit:  audit,
		secret: []byte(cfg.Auth.JWTSecret),
		ttl:    cfg.Auth.TokenTTL,
		cost:   bcrypt.DefaultCost,
		log:    log,
		now:    time.Now,
	}
}

// Login finds the active employee whose PIN matches. Every attempt is
// audited, failed ones without an employee id.
func (s *Service) Login(ctx context.Context, pin string, meta auditlog.RequestMeta) (*LoginResult, error) {
	emp, err := s.matchPIN(ctx, pin)
	if err != nil {
		if errors.Is(err, ErrInvalidPIN) {
			s.writeAudit(ctx, types.AuditActionLogin, nil, map[string]any{"success": false}, meta)
		}
		return nil, err
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(emp).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	emp.LastLoginAt = &now

	token, expiresAt, err := s.IssueToken(emp)
	if err != nil {
		return nil, err
	}
	s.writeAudit(ctx, types.AuditActionLogin, &emp.ID, map[string]any{"success": true}, meta)
	logctx.FromCtx(ctx, s.log).Infow("employee_logged_in", "employee_id", emp.ID, "role", emp.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Employee: emp}, nil
}

func (s *Service) Logout(ctx context.Context, employeeID string, meta auditlog.RequestMeta) {
	s.writeAudit(ctx, types.AuditActionLogout, &employeeID, nil, meta)
}

func (s *Service) matchPIN(ctx context.Context, pin string) (*models.Employee, error) {
	if pin == "" {
		return nil, ErrInvalidPIN
	}
	var employees []*models.Employee
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	for _, e := range employees {
		if bcrypt.CompareHashAndPassword([]byte(e.PINHash), []byte(pin)) == nil {
			return e, nil
		}
	}
	return nil, ErrInvalidPIN
}

func (s *Service) IssueToken(emp *models.Employee) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		EmployeeID: emp.ID,
		Role:       emp.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   emp.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *Service) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.EmployeeID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequireRole fails unless claims carry one of roles.
func RequireRole(claims *Claims, roles ...types.EmployeeRole) error {
	if claims == nil {
		return ErrInvalidToken
	}
	for _, r := range roles {
		if claims.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) HashPIN(pin string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Seed creates configured employees that do not exist yet, matched by name.
func (s *Service) Seed(ctx context.Context, seeds []config.EmployeeSeed) error {
	for _, seed := range seeds {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Employee{}).Where("full_name = ?", seed.FullName).Count(&count).Error; err != nil {
			return fmt.Errorf("seed employee %s: %w", seed.FullName, err)
		}
		if count > 0 {
			continue
		}
		hash, err := s.HashPIN(seed.PIN)
		if err != nil {
			return fmt.Errorf("hash PIN for %s: %w", seed.FullName, err)
		}
		role := seed.Role
		if role == "" {
			role = types.EmployeeRoleCashier
		}
		emp := &models.Employee{ID: tool.GenerateUUIDV7(), FullName: seed.FullName, PINHash: hash, Role: role, IsActive: true}
		if err := s.db.WithContext(ctx).Create(emp).Error; err != nil {
			return fmt.Errorf("seed employee %s: %w", seed.FullName, err)
		}
		s.log.Infow("employee_seeded", "employee_id", emp.ID, "role", role)
	}
	return nil
}

func (s *Service) writeAudit(ctx context.Context, action types.AuditAction, employeeID *string, details map[string]any, meta auditlog.RequestMeta) {
	entry := &models.AuditLog{EmployeeID: employeeID, Action: action, Details: details}
	if meta.IPAddress != "" {
		entry.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		entry.UserAgent = &meta.UserAgent
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("auth_audit_write_failed", "action", action, "err", err)
	}
}

func seedFromConfig(lc fx.Lifecycle, s *Service, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Seed(ctx, cfg.Employees)
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(seedFromConfig),
)
