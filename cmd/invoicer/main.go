package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jesses-code-adventures/invoicer/internal/config"
	"github.com/jesses-code-adventures/invoicer/internal/logger"
	"github.com/jesses-code-adventures/invoicer/internal/service"
	"github.com/jesses-code-adventures/invoicer/internal/tenant"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("", "")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	base, err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if cfg.DevMode {
		log.Debug().Str("data_dir", cfg.DataDir).Str("driver", cfg.DatabaseDriver).Msg("Starting in dev mode")
	}

	ctx := context.Background()
	tenants, err := tenant.Open(ctx, cfg, tenant.WithLogger(base))
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	invoiceService := service.NewInvoiceService(tenants, cfg, service.WithLogger(base))
	defer invoiceService.Close()

	rootCmd := newRootCmd(invoiceService)
	return rootCmd.ExecuteContext(ctx)
}
