// Package servicemock holds testify mocks of the service interfaces.
package servicemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"contractlens/internal/domain"
	"contractlens/internal/service"
)

// MockContractService is a mock implementation of service.ContractService.
type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) Analyze(ctx context.Context, input service.ContractInput) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockContractService) Humanize(ctx context.Context, input service.ContractInput) (*domain.HumanizeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HumanizeResult), args.Error(1)
}
