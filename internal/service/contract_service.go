package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contractlens/internal/analysis"
	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/port"
	"contractlens/internal/textsource"
)

// ContractInput is the DTO for analyze and humanize requests. Exactly one
// source is used, in the order File, URL, Text.
type ContractInput struct {
	Text        string
	URL         string
	File        []byte
	Filename    string
	ContentType string
}

func (in ContractInput) hasFile() bool {
	return len(in.File) > 0 || in.Filename != ""
}

// Pipeline runs a normalized document through a mode. *analysis.Aggregator
// implements it.
type Pipeline interface {
	Analyze(ctx context.Context, document string) (*domain.AnalysisResult, error)
	Humanize(ctx context.Context, document string) (*domain.HumanizeResult, error)
}

// ContractService analyzes or humanizes one contract from text, a URL or an upload.
type ContractService interface {
	Analyze(ctx context.Context, input ContractInput) (*domain.AnalysisResult, error)
	Humanize(ctx context.Context, input ContractInput) (*domain.HumanizeResult, error)
}

type contractService struct {
	pipeline Pipeline
	source   port.TextSource
	runs     RunService
	limits   config.LimitsConfig
	logger   *zap.Logger
}

// NewContractService creates a new ContractService implementation. A nil
// RunService disables run history.
func NewContractService(
	pipeline Pipeline,
	source port.TextSource,
	runs RunService,
	limits config.LimitsConfig,
	logger *zap.Logger,
) ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &contractService{
		pipeline: pipeline,
		source:   source,
		runs:     runs,
		limits:   limits,
		logger:   logger.Named("service.contract"),
	}
}

func (s *contractService) Analyze(ctx context.Context, input ContractInput) (*domain.AnalysisResult, error) {
	text, err := s.resolveText(ctx, input, domain.ModeAnalyze)
	if err != nil {
		return nil, err
	}
	runID := uuid.New()
	res, err := s.pipeline.Analyze(analysis.WithRunID(ctx, runID.String()), text)
	if res != nil && s.runs != nil {
		res.RunID = runID.String()
		s.record(ctx, RunRecord{ID: runID, Mode: domain.ModeAnalyze, Input: input, Chars: utf8.RuneCountInString(text), Failed: res.Error != "", Result: res})
	}
	if err != nil {
		s.logger.Warn("analyze failed", zap.Int("chars", utf8.RuneCountInString(text)), zap.Error(err))
		return res, err
	}
	s.logger.Info("analyze finished",
		zap.Int("chars", utf8.RuneCountInString(text)),
		zap.Int("findings", len(res.Analysis)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (s *contractService) Humanize(ctx context.Context, input ContractInput) (*domain.HumanizeResult, error) {
	text, err := s.resolveText(ctx, input, domain.ModeHumanize)
	if err != nil {
		return nil, err
	}
	runID := uuid.New()
	res, err := s.pipeline.Humanize(analysis.WithRunID(ctx, runID.String()), text)
	if res != nil && s.runs != nil {
		res.RunID = runID.String()
		s.record(ctx, RunRecord{ID: runID, Mode: domain.ModeHumanize, Input: input, Chars: utf8.RuneCountInString(text), Failed: res.Error != "", Result: res})
	}
	if err != nil {
		s.logger.Warn("humanize failed", zap.Int("chars", utf8.RuneCountInString(text)), zap.Error(err))
		return res, err
	}
	s.logger.Info("humanize finished",
		zap.Int("chars", utf8.RuneCountInString(text)),
		zap.Int("key_points", len(res.KeyPoints)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// record stores the run. Failures are logged, not returned.
func (s *contractService) record(ctx context.Context, rec RunRecord) {
	if err := s.runs.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("recording run failed", zap.String("run_id", rec.ID.String()), zap.Error(err))
	}
}

// resolveText extracts, normalizes and length-checks the input text.
func (s *contractService) resolveText(ctx context.Context, input ContractInput, mode domain.Mode) (string, error) {
	var (
		raw string
		err error
	)
	switch {
	case input.hasFile():
		if limit := s.limits.MaxUploadMB << 20; limit > 0 && int64(len(input.File)) > limit {
			return "", domain.ErrFileTooLarge
		}
		raw, err = s.source.FromUpload(input.File, input.ContentType, input.Filename)
	case strings.TrimSpace(input.URL) != "":
		raw, err = s.source.FromURL(ctx, strings.TrimSpace(input.URL))
	case input.Text != "":
		raw = input.Text
	default:
		return "", domain.ErrNoInput
	}
	if err != nil {
		return "", err
	}

	text := textsource.Normalize(raw)
	if text == "" {
		return "", domain.ErrEmptyDocument
	}
	if minChars := s.limits.MinChars(mode); utf8.RuneCountInString(text) < minChars {
		return "", fmt.Errorf("%w: need at least %d characters, got %d",
			domain.ErrTextTooShort, minChars, utf8.RuneCountInString(text))
	}
	return text, nil
}
