package bank

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/pkg/config"
)

// NewStatusChecker builds the checker selected by bank.mode, wrapped in a
// circuit breaker when bank.breaker.enabled is set.
func NewStatusChecker(cfg *config.Config, log *zap.SugaredLogger) (StatusChecker, error) {
	var checker StatusChecker
	switch cfg.Bank.Mode {
	case config.BankModeSimulated, "":
		checker = NewSimulatedChecker(cfg.Bank.SuccessRate)
		log.Infow("bank_checker_simulated", "success_rate", cfg.Bank.SuccessRate)
	case config.BankModeHTTP:
		if cfg.Bank.BaseURL == "" {
			return nil, fmt.Errorf("bank.base_url is required in %q mode", config.BankModeHTTP)
		}
		checker = NewHTTPChecker(cfg.Bank.BaseURL, cfg.Bank.APIKey, cfg.Bank.RequestTimeout)
		log.Infow("bank_checker_http", "base_url", cfg.Bank.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported bank.mode %q", cfg.Bank.Mode)
	}
	if cfg.Bank.Breaker.Enabled {
		checker = NewBreakerChecker(checker, cfg.Bank.Breaker, log)
	}
	return checker, nil
}

var Module = fx.Options(
	fx.Provide(NewStatusChecker),
)
