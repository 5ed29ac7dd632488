package main

// @title           Fuel POS API
// @version         1.0
// @description     Fuel station point of sale: counter sales, PromptPay QR payment sessions and sales reporting.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8888
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/fatflowers/fuelpos/internal/app"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "fuelpos",
		Short:         "Fuel station POS API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// config.New reads the file path from the environment.
			if configFile != "" {
				return os.Setenv("APP_CONFIG_FILE", configFile)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./config.yaml or ./config/config.yaml)")
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until SIGINT/SIGTERM",
		RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database and seed fuel types and employees, then exit",
		RunE:  func(cmd *cobra.Command, args []string) error { return migrate() },
	})
	return root
}

func serve() error {
	a := fx.New(app.Module)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	<-a.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

func migrate() error {
	a := fx.New(app.SetupModule, fx.NopLogger)
	ctx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return a.Stop(ctx)
}
