package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/fuelpos/internal/app/api/server"
	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/app/service/qrsession"
	"github.com/fatflowers/fuelpos/internal/app/service/statistics"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/internal/platform/bank"
	"github.com/fatflowers/fuelpos/internal/platform/db"
	"github.com/fatflowers/fuelpos/internal/platform/qrimage"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/logger"
	"github.com/fatflowers/fuelpos/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// SetupModule migrates the schema and seeds fuel types and employees from
// config. Starting it alone prepares a database without serving traffic.
var SetupModule = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	auditlog.Module,
	catalog.Module,
	auth.Module,
)

var Module = fx.Options(
	SetupModule,
	metrics.Module,
	bank.Module,
	qrimage.Module,
	transaction.Module,
	qrsession.Module,
	statistics.Module,
	server.Module,
)
