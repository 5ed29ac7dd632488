package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/docs"
	"github.com/fatflowers/fuelpos/internal/app/api/handlers"
	mw "github.com/fatflowers/fuelpos/internal/app/api/middleware"
	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/app/service/qrsession"
	"github.com/fatflowers/fuelpos/internal/app/service/statistics"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	cfgpkg "github.com/fatflowers/fuelpos/pkg/config"
	metrics "github.com/fatflowers/fuelpos/pkg/metrics"
	"github.com/fatflowers/fuelpos/pkg/types"
)

const qrEventsPath = "/api/v1/qr/sessions/:id/events"

type RouteParams struct {
	fx.In

	Log        *zap.SugaredLogger
	Config     *cfgpkg.Config
	DB         *gorm.DB
	Auth       *auth.Service
	Catalog    *catalog.Service
	Recorder   *transaction.Recorder
	Tx         *transaction.Service
	Audit      *auditlog.Service
	Stats      *statistics.Service
	QRSessions *qrsession.Manager
}

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, p RouteParams) {
	log := p.Log
	// Prometheus metrics
	if p.Config.MetricsAddr != "" {
		prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem:   "fuelpos_http",
			StreamPaths: []string{qrEventsPath},
			Logger:      log,
		})
		prom.SetListenAddress(p.Config.MetricsAddr)
		prom.Use(r)

		log.Infow("metrics started", "addr", p.Config.MetricsAddr)
	}
	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub, p.DB, p.QRSessions)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))

	// Everything but login needs an employee token.
	protected := apiV1.Group("")
	protected.Use(mw.AuthMiddleware(p.Auth, log))

	handlers.RegisterAuthRoutes(apiV1, protected, p.Auth)
	handlers.RegisterFuelTypeRoutes(protected, p.Catalog)
	handlers.RegisterTransactionRoutes(protected, p.Recorder, p.Tx)
	handlers.RegisterQRSessionRoutes(protected, p.QRSessions, p.Catalog)

	admin := protected.Group("/admin")
	admin.Use(mw.RequireRole(types.EmployeeRoleManager, types.EmployeeRoleAdmin))
	handlers.RegisterAdminRoutes(admin, p.Tx, p.Audit, p.Stats)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	// No WriteTimeout: QR session event streams stay open until the session
	// ends or the server shuts down.
	shutdown := make(chan struct{})
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return handlers.WithShutdown(context.Background(), shutdown)
		},
	}
	srv.RegisterOnShutdown(func() { close(shutdown) })

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
