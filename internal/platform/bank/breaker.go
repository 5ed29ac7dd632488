package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/pkg/config"
)

// BreakerChecker stops hammering an unhealthy bank. An open circuit is
// reported as ErrTransient so pollers keep waiting for their deadline.
type BreakerChecker struct {
	next    StatusChecker
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerChecker(next StatusChecker, cfg config.BreakerConfig, log *zap.SugaredLogger) *BreakerChecker {
	settings := gobreaker.Settings{
		Name:        "bank_status",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// A poller giving up is not the bank's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warnw("circuit_breaker_state_changed", "name", name, "from", from.String(), "to", to.String())
			}
		},
	}
	return &BreakerChecker{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerChecker) CheckStatus(ctx context.Context, transactionRef string) (*StatusResult, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.CheckStatus(ctx, transactionRef)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return nil, err
	}
	return out.(*StatusResult), nil
}

func (b *BreakerChecker) State() gobreaker.State {
	return b.breaker.State()
}
