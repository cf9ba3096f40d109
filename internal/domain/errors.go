package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDocument       = errors.New("input text is empty or contains only whitespace")
	ErrTextTooShort        = errors.New("contract text is too short")
	ErrInvalidChunkConfig  = errors.New("invalid chunk configuration")
	ErrInvalidMode         = errors.New("invalid mode")
	ErrAllSegmentsFailed   = errors.New("all segments failed")
	ErrNoInput             = errors.New("no text, file or url provided")
	ErrSourceUnavailable   = errors.New("no text could be extracted from the source")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRunNotFound         = errors.New("run not found")
	ErrArchiveFailed       = errors.New("archiving upload failed")
)

// ChunkError is a per-segment failure. It never aborts a run.
type ChunkError struct {
	Kind ChunkErrorKind
	Err  error
}

// NewChunkError wraps err with a classification.
func NewChunkError(kind ChunkErrorKind, err error) *ChunkError {
	return &ChunkError{Kind: kind, Err: err}
}

func (e *ChunkError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// ChunkErrorKindOf returns the classification carried by err, or "" if err
// is not a ChunkError.
func ChunkErrorKindOf(err error) ChunkErrorKind {
	var ce *ChunkError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
