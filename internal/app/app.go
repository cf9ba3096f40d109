// Package app builds the contract pipeline from configuration. Both the HTTP
// server and the CLI start from here.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"contractlens/internal/analysis"
	"contractlens/internal/chunker"
	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/llm"
	"contractlens/internal/pacing"
	"contractlens/internal/port"
	"contractlens/internal/prompt"
	"contractlens/internal/repository/postgres"
	"contractlens/internal/service"
	s3storage "contractlens/internal/storage/s3"
	"contractlens/internal/textsource"

	// Register LLM providers
	_ "contractlens/internal/llm/claude"
	_ "contractlens/internal/llm/gemini"
	_ "contractlens/internal/llm/openrouter"
)

// App holds the wired pipeline.
type App struct {
	Aggregator *analysis.Aggregator
	Contracts  service.ContractService
	// Runs is nil when no database is configured.
	Runs      service.RunService
	Providers []string

	db *sqlx.DB
}

// New wires generators, pacers, processors, the aggregator and the contract
// service, plus run history when a database is configured. Each mode gets
// its own pacer so one mode's rate limit does not slow the other.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	prompts, err := prompt.Load(cfg.Prompts.OverridePath)
	if err != nil {
		return nil, fmt.Errorf("loading prompt templates: %w", err)
	}

	observer := analysis.NewLogObserver(logger)
	processors := make(map[domain.Mode]*analysis.Processor, 2)
	var providers []string

	for _, mode := range []domain.Mode{domain.ModeAnalyze, domain.ModeHumanize} {
		primary := cfg.LLM.PrimaryFor(mode)
		gen, err := llm.NewGeneratorChain(primary, cfg.LLM.FallbackConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("%s generator: %w", mode, err)
		}
		pacer, err := pacing.New(cfg.Pacing)
		if err != nil {
			return nil, err
		}
		processors[mode] = analysis.NewProcessor(gen, prompts, pacer, observer, analysis.ProcessorConfig{
			Mode:            mode,
			Timeout:         primary.Timeout(),
			MaxOutputTokens: primary.MaxOutputTokens,
			Temperature:     primary.Temperature,
		})
		providers = append(providers, string(mode)+":"+primary.Provider)
		logger.Info("generator ready",
			zap.String("mode", string(mode)),
			zap.String("provider", primary.Provider),
			zap.String("model", primary.Model))
	}

	agg := analysis.NewAggregator(analysis.AggregatorConfig{
		Analyzer:        processors[domain.ModeAnalyze],
		Humanizer:       processors[domain.ModeHumanize],
		AnalyzerChunks:  chunkOptions(cfg.Chunking, domain.ModeAnalyze),
		HumanizerChunks: chunkOptions(cfg.Chunking, domain.ModeHumanize),
		Observer:        observer,
	})

	a := &App{Aggregator: agg, Providers: providers}

	if cfg.DB.Enabled() {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		var storage port.ObjectStorage
		if cfg.S3.Enabled() {
			storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
			if err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
			}
		}
		a.Runs = service.NewRunService(postgres.NewRunRepo(db), storage, cfg.S3, logger)
		logger.Info("run history enabled",
			zap.String("db_host", cfg.DB.Host),
			zap.Bool("archive_uploads", storage != nil))
	}

	source := textsource.New(cfg.Limits, logger)
	a.Contracts = service.NewContractService(agg, source, a.Runs, cfg.Limits, logger)
	return a, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func chunkOptions(cfg config.ChunkingConfig, mode domain.Mode) chunker.Options {
	size := cfg.For(mode)
	return chunker.Options{
		MaxSegmentSize: size.MaxSegmentSize,
		OverlapSize:    size.OverlapSize,
		Lookback:       cfg.Lookback,
	}
}
