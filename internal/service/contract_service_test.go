package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contractlens/internal/analysis"
	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/service"
	"contractlens/mocks"
	"contractlens/mocks/servicemock"
)

var testLimits = config.LimitsConfig{
	MaxUploadMB:      1,
	MinAnalyzeChars:  50,
	MinHumanizeChars: 10,
}

const longClause = "The Supplier may terminate this Agreement at any time without notice or liability."

func newService(pipeline *mocks.MockPipeline, source *mocks.MockTextSource) service.ContractService {
	return service.NewContractService(pipeline, source, nil, testLimits, nil)
}

func TestContractService_Analyze_NormalizesText(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	source := new(mocks.MockTextSource)
	svc := newService(pipeline, source)

	want := &domain.AnalysisResult{Analysis: []domain.Finding{{ClauseText: "x", RiskScore: 7}}}
	pipeline.On("Analyze", mock.Anything, longClause+"\nSecond line.").Return(want, nil)

	got, err := svc.Analyze(context.Background(), service.ContractInput{
		Text: "  " + longClause + "\r\n\r\n\r\nSecond \t line.\f ",
	})

	require.NoError(t, err)
	assert.Same(t, want, got)
	pipeline.AssertExpectations(t)
	source.AssertNotCalled(t, "FromUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestContractService_Analyze_TextTooShort(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	svc := newService(pipeline, new(mocks.MockTextSource))

	_, err := svc.Analyze(context.Background(), service.ContractInput{Text: "Too short to analyze."})

	assert.ErrorIs(t, err, domain.ErrTextTooShort)
	assert.Contains(t, err.Error(), "at least 50")
	pipeline.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestContractService_Humanize_UsesLowerMinimum(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	svc := newService(pipeline, new(mocks.MockTextSource))

	want := &domain.HumanizeResult{Simplification: domain.Simplification{HumanizedText: "Pay on time."}}
	pipeline.On("Humanize", mock.Anything, "Payment due in 30 days.").Return(want, nil)

	got, err := svc.Humanize(context.Background(), service.ContractInput{Text: "Payment due in 30 days."})

	require.NoError(t, err)
	assert.Equal(t, "Pay on time.", got.HumanizedText)
}

func TestContractService_NoInput(t *testing.T) {
	svc := newService(new(mocks.MockPipeline), new(mocks.MockTextSource))

	_, err := svc.Analyze(context.Background(), service.ContractInput{URL: "   "})

	assert.ErrorIs(t, err, domain.ErrNoInput)
}

func TestContractService_WhitespaceOnlyText(t *testing.T) {
	svc := newService(new(mocks.MockPipeline), new(mocks.MockTextSource))

	_, err := svc.Humanize(context.Background(), service.ContractInput{Text: " \n\t "})

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestContractService_FileTakesPrecedence(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	source := new(mocks.MockTextSource)
	svc := newService(pipeline, source)

	data := []byte("%PDF-1.4")
	source.On("FromUpload", data, "application/pdf", "msa.pdf").Return(longClause, nil)
	pipeline.On("Analyze", mock.Anything, longClause).Return(&domain.AnalysisResult{}, nil)

	_, err := svc.Analyze(context.Background(), service.ContractInput{
		Text:        "ignored",
		URL:         "https://example.com/ignored",
		File:        data,
		Filename:    "msa.pdf",
		ContentType: "application/pdf",
	})

	require.NoError(t, err)
	source.AssertNotCalled(t, "FromURL", mock.Anything, mock.Anything)
	source.AssertExpectations(t)
}

func TestContractService_FileTooLarge(t *testing.T) {
	source := new(mocks.MockTextSource)
	svc := newService(new(mocks.MockPipeline), source)

	_, err := svc.Analyze(context.Background(), service.ContractInput{
		File:     make([]byte, 1<<20+1),
		Filename: "big.txt",
	})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	source.AssertNotCalled(t, "FromUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestContractService_URLSourceFailure(t *testing.T) {
	source := new(mocks.MockTextSource)
	svc := newService(new(mocks.MockPipeline), source)

	source.On("FromURL", mock.Anything, "https://example.com/terms").
		Return("", domain.ErrSourceUnavailable)

	_, err := svc.Humanize(context.Background(), service.ContractInput{URL: " https://example.com/terms "})

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestContractService_PipelineFailurePassesResultThrough(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	svc := newService(pipeline, new(mocks.MockTextSource))

	failed := &domain.AnalysisResult{Error: "all segments failed", Warnings: []string{"segment 1: timeout"}}
	runErr := errors.Join(domain.ErrAllSegmentsFailed)
	pipeline.On("Analyze", mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "The Supplier")
	})).Return(failed, runErr)

	got, err := svc.Analyze(context.Background(), service.ContractInput{Text: longClause})

	assert.ErrorIs(t, err, domain.ErrAllSegmentsFailed)
	assert.Same(t, failed, got)
}

func TestContractService_RecordsRunWhenHistoryEnabled(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	runs := new(servicemock.MockRunService)
	svc := service.NewContractService(pipeline, new(mocks.MockTextSource), runs, testLimits, nil)

	var seenRunID string
	pipeline.On("Analyze", mock.MatchedBy(func(ctx context.Context) bool {
		seenRunID = analysis.RunIDFromContext(ctx)
		return seenRunID != ""
	}), longClause).Return(&domain.AnalysisResult{}, nil)
	runs.On("Record", mock.Anything, mock.MatchedBy(func(rec service.RunRecord) bool {
		return rec.Mode == domain.ModeAnalyze && !rec.Failed && rec.Chars == len(longClause)
	})).Return(nil)

	res, err := svc.Analyze(context.Background(), service.ContractInput{Text: longClause})

	require.NoError(t, err)
	assert.Equal(t, seenRunID, res.RunID)
	runs.AssertExpectations(t)
}

func TestContractService_RecordFailureDoesNotFailRun(t *testing.T) {
	pipeline := new(mocks.MockPipeline)
	runs := new(servicemock.MockRunService)
	svc := service.NewContractService(pipeline, new(mocks.MockTextSource), runs, testLimits, nil)

	failed := &domain.HumanizeResult{Error: "all segments failed (1 segments)"}
	pipeline.On("Humanize", mock.Anything, mock.Anything).
		Return(failed, fmt.Errorf("%w (1 segments)", domain.ErrAllSegmentsFailed))
	runs.On("Record", mock.Anything, mock.MatchedBy(func(rec service.RunRecord) bool {
		return rec.Failed
	})).Return(errors.New("db down"))

	res, err := svc.Humanize(context.Background(), service.ContractInput{Text: "Payment is due in 30 days."})

	assert.ErrorIs(t, err, domain.ErrAllSegmentsFailed)
	assert.NotEmpty(t, res.RunID)
	runs.AssertExpectations(t)
}
