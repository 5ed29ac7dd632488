// Package db opens the Postgres pool, migrates the POS schema and closes the
// pool on shutdown.
package db

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/gormlog"
)

var ErrEmptyDSN = errors.New("db: database.dsn is empty")

func NewDB(l *zap.SugaredLogger, cfg *config.Config) (*gorm.DB, error) {
	dc := cfg.Database
	if dc.DSN == "" {
		return nil, ErrEmptyDSN
	}
	level := gormlogger.Info
	if cfg.Env == config.EnvProd {
		level = gormlogger.Warn
	}
	// TranslateError surfaces unique violations (duplicate session sale) as
	// gorm.ErrDuplicatedKey.
	gdb, err := gorm.Open(postgres.Open(dc.DSN), &gorm.Config{
		Logger:         gormlog.New(l, gormlog.WithLevel(level), gormlog.WithSlowThreshold(dc.SlowQuery)),
		TranslateError: true,
	})
	if err != nil {
		l.Errorw("db_connect_failed", "err", err)
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if dc.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dc.MaxOpenConns)
	}
	if dc.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dc.MaxIdleConns)
	}
	if dc.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dc.ConnMaxLifetime)
	}
	l.Infow("db_connected", "max_open_conns", dc.MaxOpenConns)
	return gdb, nil
}

// Migrate creates or updates the employees, fuel_types, gas_transactions and
// audit_logs tables.
func Migrate(l *zap.SugaredLogger, gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		l.Errorw("db_migrate_failed", "err", err)
		return err
	}
	l.Infow("db_migrated", "tables", len(models.All()))
	return nil
}

func closeOnStop(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("db_close_skipped", "err", err)
				return nil
			}
			l.Infow("db_closing")
			return sqlDB.Close()
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Invoke(Migrate),
	fx.Invoke(closeOnStop),
)
