package servicemock

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"contractlens/internal/domain"
	"contractlens/internal/service"
)

// MockRunService is a mock implementation of service.RunService.
type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Record(ctx context.Context, rec service.RunRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRunService) Get(ctx context.Context, id uuid.UUID) (*service.RunDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunDetail), args.Error(1)
}

func (m *MockRunService) List(ctx context.Context, mode domain.Mode, offset, limit int) ([]domain.Run, int, error) {
	args := m.Called(ctx, mode, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Run), args.Int(1), args.Error(2)
}
