// Package pacing spaces out consecutive text-generation calls within a run.
package pacing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contractlens/internal/config"
	"contractlens/internal/llm"
)

// Strategy names accepted in configuration.
const (
	StrategyFixed    = "fixed"
	StrategyAdaptive = "adaptive"
	StrategyNone     = "none"
)

// Pacer is consulted before each segment call. Wait is a no-op for the first
// segment of a run. Observe receives the outcome of every call.
type Pacer interface {
	Wait(ctx context.Context, ordinal int) error
	Observe(err error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// New builds the pacer named by cfg.Strategy. An empty strategy means fixed.
func New(cfg config.PacingConfig) (Pacer, error) {
	switch cfg.Strategy {
	case StrategyFixed, "":
		return NewFixed(cfg.Interval, Sleep), nil
	case StrategyAdaptive:
		return NewAdaptive(cfg.Interval, cfg.MaxWait, Sleep), nil
	case StrategyNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown pacing strategy: %q", cfg.Strategy)
	}
}

// Fixed sleeps a constant interval before every segment after the first,
// whether or not the previous call succeeded.
type Fixed struct {
	interval time.Duration
	sleep    SleepFunc
}

func NewFixed(interval time.Duration, sleep SleepFunc) *Fixed {
	if sleep == nil {
		sleep = Sleep
	}
	return &Fixed{interval: interval, sleep: sleep}
}

func (f *Fixed) Wait(ctx context.Context, ordinal int) error {
	if ordinal <= 1 {
		return nil
	}
	return f.sleep(ctx, f.interval)
}

func (f *Fixed) Observe(error) {}

// Adaptive waits the floor interval like Fixed, but after a rate-limited call
// the next wait is stretched to the provider's Retry-After hint, capped at maxWait.
type Adaptive struct {
	interval time.Duration
	maxWait  time.Duration
	sleep    SleepFunc

	mu      sync.Mutex
	pending time.Duration
}

func NewAdaptive(interval, maxWait time.Duration, sleep SleepFunc) *Adaptive {
	if sleep == nil {
		sleep = Sleep
	}
	return &Adaptive{interval: interval, maxWait: maxWait, sleep: sleep}
}

func (a *Adaptive) Wait(ctx context.Context, ordinal int) error {
	a.mu.Lock()
	d := a.interval
	if a.pending > d {
		d = a.pending
	}
	a.pending = 0
	a.mu.Unlock()

	if ordinal <= 1 {
		return nil
	}
	return a.sleep(ctx, d)
}

func (a *Adaptive) Observe(err error) {
	var rlErr *llm.RateLimitError
	if !errors.As(err, &rlErr) {
		return
	}
	d := rlErr.RetryAfter
	if a.maxWait > 0 && d > a.maxWait {
		d = a.maxWait
	}
	a.mu.Lock()
	if d > a.pending {
		a.pending = d
	}
	a.mu.Unlock()
}

// None never waits. Intended for tests and self-hosted providers.
type None struct{}

func (None) Wait(ctx context.Context, _ int) error { return ctx.Err() }
func (None) Observe(error)                          {}
