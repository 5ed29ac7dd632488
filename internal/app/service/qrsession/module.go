package qrsession

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/internal/platform/bank"
	"github.com/fatflowers/fuelpos/internal/platform/qrimage"
	"github.com/fatflowers/fuelpos/pkg/config"
	"github.com/fatflowers/fuelpos/pkg/metrics"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Renderer  *qrimage.Renderer
	Checker   bank.StatusChecker
	Recorder  *transaction.Recorder
	Metrics   *metrics.Business
	Log       *zap.SugaredLogger
}

func NewFromConfig(p Params) *Manager {
	build, merchantRef := NewPayloadBuilder(p.Config.Merchant, p.Config.QR.Mode)
	m := NewManager(Options{
		Timeout:      p.Config.QR.Timeout,
		PollInterval: p.Config.QR.PollInterval,
		TickInterval: p.Config.QR.TickInterval,
		Retention:    p.Config.QR.Retention,
	}, build, merchantRef, p.Renderer, p.Checker, p.Recorder, p.Metrics, p.Log)

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			p.Log.Infow("qr_session_manager_stopping")
			return m.Close(ctx)
		},
	})
	return m
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
