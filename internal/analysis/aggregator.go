package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contractlens/internal/chunker"
	"contractlens/internal/domain"
	"contractlens/internal/port"
)

// Segment sizes used when a mode has no explicit chunk options.
var (
	DefaultAnalyzerChunks  = chunker.Options{MaxSegmentSize: 15000, OverlapSize: 500, Lookback: chunker.DefaultLookback}
	DefaultHumanizerChunks = chunker.Options{MaxSegmentSize: 8000, OverlapSize: 300, Lookback: chunker.DefaultLookback}
)

// SegmentProcessor handles one segment. *Processor is the production implementation.
type SegmentProcessor interface {
	Process(ctx context.Context, seg chunker.Segment) (json.RawMessage, error)
}

// AggregatorConfig wires the per-mode processors and chunk options.
type AggregatorConfig struct {
	Analyzer        SegmentProcessor
	Humanizer       SegmentProcessor
	AnalyzerChunks  chunker.Options
	HumanizerChunks chunker.Options
	Observer        port.Observer
}

// Aggregator runs a whole document through one mode's processor, segment by
// segment, and merges what succeeded.
type Aggregator struct {
	processors map[domain.Mode]SegmentProcessor
	chunks     map[domain.Mode]chunker.Options
	observer   port.Observer
	newRunID   func() string
}

// NewAggregator creates an Aggregator. Zero chunk options fall back to the defaults.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.AnalyzerChunks.MaxSegmentSize == 0 {
		cfg.AnalyzerChunks = DefaultAnalyzerChunks
	}
	if cfg.HumanizerChunks.MaxSegmentSize == 0 {
		cfg.HumanizerChunks = DefaultHumanizerChunks
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	return &Aggregator{
		processors: map[domain.Mode]SegmentProcessor{
			domain.ModeAnalyze:  cfg.Analyzer,
			domain.ModeHumanize: cfg.Humanizer,
		},
		chunks: map[domain.Mode]chunker.Options{
			domain.ModeAnalyze:  cfg.AnalyzerChunks,
			domain.ModeHumanize: cfg.HumanizerChunks,
		},
		observer: cfg.Observer,
		newRunID: uuid.NewString,
	}
}

// Analyze returns the deduplicated risk findings for document. When every
// segment fails the result carries Error and the returned error wraps
// domain.ErrAllSegmentsFailed.
func (a *Aggregator) Analyze(ctx context.Context, document string) (*domain.AnalysisResult, error) {
	m := newFindingsMerger()
	warnings, err := a.run(ctx, document, domain.ModeAnalyze, m.add)
	if err != nil {
		return failedAnalysis(warnings, err)
	}
	return &domain.AnalysisResult{Analysis: m.result(), Warnings: warnings}, nil
}

// Humanize returns the merged plain-language rewrite of document. Failure
// semantics match Analyze.
func (a *Aggregator) Humanize(ctx context.Context, document string) (*domain.HumanizeResult, error) {
	m := newSimplificationMerger()
	warnings, err := a.run(ctx, document, domain.ModeHumanize, m.add)
	if err != nil {
		return failedHumanize(warnings, err)
	}
	return &domain.HumanizeResult{Simplification: m.result(document), Warnings: warnings}, nil
}

func isAllFailed(err error) bool {
	return errors.Is(err, domain.ErrAllSegmentsFailed)
}

func failedAnalysis(warnings []string, err error) (*domain.AnalysisResult, error) {
	if !isAllFailed(err) {
		return nil, err
	}
	return &domain.AnalysisResult{Warnings: warnings, Error: err.Error()}, err
}

func failedHumanize(warnings []string, err error) (*domain.HumanizeResult, error) {
	if !isAllFailed(err) {
		return nil, err
	}
	return &domain.HumanizeResult{Warnings: warnings, Error: err.Error()}, err
}

// run splits document with the mode's options and feeds each successful
// segment reply to merge, strictly in ordinal order. A segment that fails to
// process or to merge becomes a warning and the run continues.
func (a *Aggregator) run(ctx context.Context, document string, mode domain.Mode, merge func(json.RawMessage) error) ([]string, error) {
	if strings.TrimSpace(document) == "" {
		return nil, domain.ErrEmptyDocument
	}
	proc, ok := a.processors[mode]
	if !ok || proc == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	segments, err := chunker.Split(document, a.chunks[mode])
	if err != nil {
		return nil, err
	}

	runID := RunIDFromContext(ctx)
	if runID == "" {
		runID = a.newRunID()
		ctx = WithRunID(ctx, runID)
	}
	started := time.Now()
	a.observer.Observe(ctx, port.Event{
		Kind:  port.EventRunStarted,
		RunID: runID,
		Mode:  string(mode),
		Total: len(segments),
		Size:  len([]rune(document)),
	})

	var warnings []string
	succeeded := 0
	for _, seg := range segments {
		raw, err := proc.Process(ctx, seg)
		if err == nil {
			err = merge(raw)
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("segment %d: %s", seg.Ordinal, err.Error()))
			continue
		}
		succeeded++
	}

	var runErr error
	if succeeded == 0 {
		runErr = fmt.Errorf("%w (%d segments)", domain.ErrAllSegmentsFailed, len(segments))
	}
	a.observer.Observe(ctx, port.Event{
		Kind:      port.EventRunFinished,
		RunID:     runID,
		Mode:      string(mode),
		Total:     len(segments),
		Succeeded: succeeded,
		Duration:  time.Since(started),
		Err:       runErr,
	})
	return warnings, runErr
}
