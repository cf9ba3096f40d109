package port

import (
	"context"

	"github.com/google/uuid"

	"contractlens/internal/domain"
)

// RunRepository stores completed runs.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, mode domain.Mode, offset, limit int) ([]domain.Run, int, error)
}
