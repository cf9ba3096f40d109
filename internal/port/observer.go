package port

import (
	"context"
	"time"
)

// EventKind names a pipeline diagnostic event.
type EventKind string

const (
	EventRunStarted      EventKind = "run_started"
	EventSegmentStarted  EventKind = "segment_started"
	EventSegmentFinished EventKind = "segment_finished"
	EventSegmentFailed   EventKind = "segment_failed"
	EventRunFinished     EventKind = "run_finished"
)

// Event is a progress or diagnostic record emitted while a document is
// processed. Fields not relevant to Kind are left zero.
type Event struct {
	Kind      EventKind
	RunID     string
	Mode      string
	Ordinal   int
	Total     int
	Succeeded int
	Size      int
	Duration  time.Duration
	Err       error
}

// Observer receives pipeline events. Implementations must not block for long;
// they run inline with segment processing.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}
