package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/port"
)

// RunRecord is what the contract service hands over once a run ends.
type RunRecord struct {
	ID     uuid.UUID
	Mode   domain.Mode
	Input  ContractInput
	Chars  int
	Failed bool
	Result interface{}
}

// RunDetail is a stored run plus a temporary link to the archived upload.
type RunDetail struct {
	domain.Run
	ArchiveURL string `json:"archive_url,omitempty"`
}

// RunService defines the run history contract.
type RunService interface {
	Record(ctx context.Context, rec RunRecord) error
	Get(ctx context.Context, id uuid.UUID) (*RunDetail, error)
	List(ctx context.Context, mode domain.Mode, offset, limit int) ([]domain.Run, int, error)
}

type runService struct {
	repo    port.RunRepository
	storage port.ObjectStorage
	s3Cfg   config.S3Config
	logger  *zap.Logger
}

// NewRunService creates a new RunService implementation. A nil storage
// skips archiving uploads.
func NewRunService(
	repo port.RunRepository,
	storage port.ObjectStorage,
	s3Cfg config.S3Config,
	logger *zap.Logger,
) RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runService{
		repo:    repo,
		storage: storage,
		s3Cfg:   s3Cfg,
		logger:  logger.Named("service.run"),
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *runService) Record(ctx context.Context, rec RunRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("runService.Record marshal: %w", err)
	}

	run := &domain.Run{
		ID:     rec.ID,
		Mode:   rec.Mode,
		Chars:  rec.Chars,
		Failed: rec.Failed,
		Result: result,
	}
	switch {
	case rec.Input.hasFile():
		run.Source = domain.SourceFile
		run.SourceRef = rec.Input.Filename
		if key, err := s.archive(ctx, rec); err != nil {
			// The run is still worth keeping without its original.
			s.logger.Warn("archiving upload failed", zap.String("run_id", rec.ID.String()), zap.Error(err))
		} else if key != "" {
			run.ArchiveKey = &key
		}
	case rec.Input.URL != "":
		run.Source = domain.SourceURL
		run.SourceRef = rec.Input.URL
	default:
		run.Source = domain.SourceText
	}

	if err := s.repo.Create(ctx, run); err != nil {
		return err
	}
	s.logger.Debug("run recorded",
		zap.String("run_id", rec.ID.String()),
		zap.String("mode", string(rec.Mode)),
		zap.String("source", string(run.Source)))
	return nil
}

// archive uploads the original file under runs/<id>/. It returns "" when
// archiving is disabled.
func (s *runService) archive(ctx context.Context, rec RunRecord) (string, error) {
	if s.storage == nil || !s.s3Cfg.Enabled() {
		return "", nil
	}
	name := unsafeKeyChars.ReplaceAllString(filepath.Base(rec.Input.Filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "upload"
	}
	key := fmt.Sprintf("runs/%s/%s", rec.ID, name)

	contentType := rec.Input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(rec.Input.File),
		ContentType: contentType,
		Size:        int64(len(rec.Input.File)),
		RunID:       rec.ID.String(),
		Filename:    filepath.Base(rec.Input.Filename),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrArchiveFailed, err)
	}
	return key, nil
}

func (s *runService) Get(ctx context.Context, id uuid.UUID) (*RunDetail, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &RunDetail{Run: *run}
	if run.ArchiveKey != nil && s.storage != nil {
		url, err := s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, *run.ArchiveKey, s.s3Cfg.PresignExpiry)
		if err != nil {
			s.logger.Warn("presigning archive failed", zap.String("run_id", id.String()), zap.Error(err))
		} else {
			detail.ArchiveURL = url
		}
	}
	return detail, nil
}

func (s *runService) List(ctx context.Context, mode domain.Mode, offset, limit int) ([]domain.Run, int, error) {
	if mode != "" && !mode.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	return s.repo.List(ctx, mode, offset, limit)
}
