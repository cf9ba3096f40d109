// Command contractlens analyzes or humanizes a contract from the command line.
//
//	contractlens analyze msa.pdf
//	contractlens humanize --url https://example.com/terms
//	cat terms.txt | contractlens analyze -
//	contractlens migrate up
//
// The result JSON goes to stdout; diagnostics go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"contractlens/internal/app"
	"contractlens/internal/config"
	"contractlens/internal/logging"
	"contractlens/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCmd(buildService)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		var exit *exitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// buildService loads configuration and wires the pipeline. The returned
// func closes the app and flushes the logger.
func buildService(ctx context.Context, verbose bool) (service.ContractService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	// Diagnostics always go to stderr; stdout is reserved for the result.
	if !verbose && cfg.Log.Level == "debug" {
		cfg.Log.Level = "info"
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	logger.Debug("pipeline ready", zap.Strings("providers", a.Providers))
	return a.Contracts, func() {
		_ = a.Close()
		_ = logger.Sync()
	}, nil
}
