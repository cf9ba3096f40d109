// Package analysis runs the chunked analyze and humanize pipelines: it splits a
// document, sends each segment to the text generator in order, and merges the
// per-segment replies into one result.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"contractlens/internal/chunker"
	"contractlens/internal/domain"
	"contractlens/internal/extract"
	"contractlens/internal/pacing"
	"contractlens/internal/port"
	"contractlens/internal/prompt"
)

// ProcessorConfig holds the per-call limits applied to every segment.
type ProcessorConfig struct {
	Mode            domain.Mode
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
}

// Processor turns one segment into the JSON object the model returned for it.
type Processor struct {
	generator port.TextGenerator
	prompts   *prompt.Set
	pacer     pacing.Pacer
	observer  port.Observer
	cfg       ProcessorConfig
}

// NewProcessor creates a Processor. A nil pacer never waits and a nil
// observer discards events.
func NewProcessor(generator port.TextGenerator, prompts *prompt.Set, pacer pacing.Pacer, observer port.Observer, cfg ProcessorConfig) *Processor {
	if pacer == nil {
		pacer = pacing.None{}
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Processor{
		generator: generator,
		prompts:   prompts,
		pacer:     pacer,
		observer:  observer,
		cfg:       cfg,
	}
}

// Mode returns the mode this processor renders prompts for.
func (p *Processor) Mode() domain.Mode {
	return p.cfg.Mode
}

// Process paces, renders, calls the generator once and extracts the reply's
// JSON object. Every failure is returned as a *domain.ChunkError.
func (p *Processor) Process(ctx context.Context, seg chunker.Segment) (json.RawMessage, error) {
	tmpl, err := p.prompts.For(p.cfg.Mode)
	if err != nil {
		return nil, err
	}

	if err := p.pacer.Wait(ctx, seg.Ordinal); err != nil {
		return nil, domain.NewChunkError(domain.KindRequestFailed, fmt.Errorf("waiting before segment: %w", err))
	}

	ev := port.Event{
		RunID:   RunIDFromContext(ctx),
		Mode:    string(p.cfg.Mode),
		Ordinal: seg.Ordinal,
		Total:   seg.Total,
		Size:    seg.Len(),
	}
	ev.Kind = port.EventSegmentStarted
	p.observer.Observe(ctx, ev)

	started := time.Now()
	raw, err := p.call(ctx, tmpl, seg)
	ev.Duration = time.Since(started)
	if err != nil {
		ev.Kind = port.EventSegmentFailed
		ev.Err = err
	} else {
		ev.Kind = port.EventSegmentFinished
	}
	p.observer.Observe(ctx, ev)
	return raw, err
}

func (p *Processor) call(ctx context.Context, tmpl prompt.Template, seg chunker.Segment) (json.RawMessage, error) {
	text, err := p.prompts.Render(p.cfg.Mode, seg.Text, seg.Ordinal, seg.Total)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	out, err := p.generator.Generate(callCtx, port.GenerateRequest{
		Prompt:          text,
		MaxOutputTokens: p.cfg.MaxOutputTokens,
		Temperature:     p.cfg.Temperature,
	})
	p.pacer.Observe(err)
	if err != nil {
		return nil, classifyCallError(callCtx, err)
	}
	if out == nil {
		return nil, domain.NewChunkError(domain.KindInvalidResponseShape, errors.New("generator returned no output"))
	}
	if strings.TrimSpace(out.Text) == "" {
		return nil, domain.NewChunkError(domain.KindEmptyResponse, errors.New("generator returned an empty completion"))
	}

	obj, err := extract.Extract(out.Text, tmpl.RequiredKey)
	if err != nil {
		var exErr *extract.Error
		if errors.As(err, &exErr) {
			return nil, domain.NewChunkError(exErr.Kind, exErr)
		}
		return nil, domain.NewChunkError(domain.KindMalformedJSON, err)
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, domain.NewChunkError(domain.KindMalformedJSON, err)
	}
	return raw, nil
}

// classifyCallError keeps a provider's own classification and otherwise
// decides between timeout and request_failed from the call context.
func classifyCallError(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && domain.ChunkErrorKindOf(err) != domain.KindTimeout {
		return domain.NewChunkError(domain.KindTimeout, err)
	}
	if domain.ChunkErrorKindOf(err) != "" {
		return err
	}
	return domain.NewChunkError(domain.KindRequestFailed, err)
}

type runIDKey struct{}

// WithRunID returns a context carrying the run ID used in emitted events.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID stored by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
