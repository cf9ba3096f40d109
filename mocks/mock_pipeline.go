package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"contractlens/internal/domain"
)

// MockPipeline is a mock implementation of service.Pipeline.
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Analyze(ctx context.Context, document string) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockPipeline) Humanize(ctx context.Context, document string) (*domain.HumanizeResult, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HumanizeResult), args.Error(1)
}
