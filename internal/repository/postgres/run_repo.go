package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"contractlens/internal/domain"
	"contractlens/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	run.CreatedAt = time.Now().UTC()

	query := `INSERT INTO runs
		(id, mode, source, source_ref, archive_key, chars, failed, result, created_at)
		VALUES (:id, :mode, :source, :source_ref, :archive_key, :chars, :failed, :result, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	var run domain.Run
	err := r.db.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

// List returns runs newest first. An empty mode lists both modes.
func (r *runRepo) List(ctx context.Context, mode domain.Mode, offset, limit int) ([]domain.Run, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM runs WHERE ($1::text = '' OR mode = $1::text)", mode)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List count: %w", err)
	}

	var runs []domain.Run
	err = r.db.SelectContext(ctx, &runs,
		`SELECT * FROM runs
		 WHERE ($1::text = '' OR mode = $1::text)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		mode, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List: %w", err)
	}
	return runs, total, nil
}
