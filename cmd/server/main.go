package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contractlens/internal/app"
	"contractlens/internal/config"
	"contractlens/internal/handler"
	"contractlens/internal/logging"
	"contractlens/internal/router"
)

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --outputTypes go

// @title contractlens API
// @version 1.0
// @description Finds risky clauses in contracts and rewrites contracts in plain language.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token: "Bearer <jwt>"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to wire pipeline: %w", err)
	}
	defer func() { _ = a.Close() }()

	// Initialize handlers
	contractH := handler.NewContractHandler(a.Contracts, cfg.Limits, logger)
	healthH := handler.NewHealthHandler(a.Providers)
	var runH *handler.RunHandler
	if a.Runs != nil {
		runH = handler.NewRunHandler(a.Runs, logger)
	}

	// Setup router
	r := router.Setup(cfg, logger, contractH, runH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.Bool("auth", cfg.Auth.Enabled()),
			zap.String("pacing", cfg.Pacing.Strategy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
