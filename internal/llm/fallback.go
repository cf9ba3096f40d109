package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"contractlens/internal/domain"
	"contractlens/internal/port"
)

// circuitState tracks rate-limit backoff for a single generator.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackGenerator tries generators in order, skipping those with open
// circuits. Only a rate-limit failure moves on to the next generator; any
// other failure is returned as is.
type FallbackGenerator struct {
	generators []port.TextGenerator
	circuits   []*circuitState
	names      []string
	logger     *zap.Logger
	now        func() time.Time
}

// NewFallbackGenerator creates a FallbackGenerator from an ordered list of generators and their names.
func NewFallbackGenerator(generators []port.TextGenerator, names []string, logger *zap.Logger) *FallbackGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	circuits := make([]*circuitState, len(generators))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackGenerator{
		generators: generators,
		circuits:   circuits,
		names:      names,
		logger:     logger.Named("llm.fallback"),
		now:        time.Now,
	}
}

func (f *FallbackGenerator) Generate(ctx context.Context, req port.GenerateRequest) (*port.GenerateOutput, error) {
	now := f.now()
	var lastErr error
	var earliestReset time.Time

	for i, g := range f.generators {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.Debug("skipping generator, circuit open",
				zap.String("provider", f.names[i]), zap.Time("until", resetAt))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := g.Generate(ctx, req)
		if err == nil {
			return out, nil
		}

		var rlErr *RateLimitError
		if !errors.As(err, &rlErr) {
			return nil, err
		}

		f.logger.Warn("generator rate limited", zap.String("provider", f.names[i]),
			zap.Duration("retry_after", rlErr.RetryAfter))
		lastErr = err
		resetAt := now.Add(rlErr.RetryAfter)
		f.circuits[i].open(resetAt)
		if earliestReset.IsZero() || resetAt.Before(earliestReset) {
			earliestReset = resetAt
		}
	}

	retryAfter := earliestReset.Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	cause := fmt.Errorf("all generators rate limited")
	if lastErr != nil {
		cause = fmt.Errorf("all generators rate limited: %w", lastErr)
	}
	return nil, domain.NewChunkError(domain.KindRequestFailed,
		NewRateLimitError("all", cause, int(retryAfter.Seconds())))
}
