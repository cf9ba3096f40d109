package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contractlens/internal/domain"
	"contractlens/internal/llm"
	"contractlens/internal/port"
	"contractlens/mocks"
)

var fallbackReq = port.GenerateRequest{Prompt: "analyze this", MaxOutputTokens: 4000}

func fallbackOutput(model string) *port.GenerateOutput {
	return &port.GenerateOutput{Text: `{"analysis": []}`, Model: model}
}

func rateLimited(provider string, secs int) error {
	return domain.NewChunkError(domain.KindRequestFailed, llm.NewRateLimitError(provider, errors.New("429"), secs))
}

func TestFallbackGenerator_FirstSucceeds(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, fallbackReq).Return(fallbackOutput("llama"), nil)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"openrouter", "gemini"}, nil)

	out, err := fg.Generate(context.Background(), fallbackReq)

	require.NoError(t, err)
	assert.Equal(t, "llama", out.Model)
	g2.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestFallbackGenerator_RateLimited_SecondSucceeds(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, fallbackReq).Return(nil, rateLimited("openrouter", 60))
	g2.On("Generate", mock.Anything, fallbackReq).Return(fallbackOutput("gemini"), nil)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"openrouter", "gemini"}, nil)

	out, err := fg.Generate(context.Background(), fallbackReq)

	require.NoError(t, err)
	assert.Equal(t, "gemini", out.Model)
}

func TestFallbackGenerator_OtherFailureDoesNotFallThrough(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	failure := domain.NewChunkError(domain.KindTimeout, context.DeadlineExceeded)
	g1.On("Generate", mock.Anything, fallbackReq).Return(nil, failure)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"openrouter", "gemini"}, nil)

	out, err := fg.Generate(context.Background(), fallbackReq)

	assert.Nil(t, out)
	assert.Equal(t, domain.KindTimeout, domain.ChunkErrorKindOf(err))
	g2.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestFallbackGenerator_AllRateLimited(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, fallbackReq).Return(nil, rateLimited("openrouter", 60))
	g2.On("Generate", mock.Anything, fallbackReq).Return(nil, rateLimited("gemini", 30))

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"openrouter", "gemini"}, nil)

	out, err := fg.Generate(context.Background(), fallbackReq)

	assert.Nil(t, out)
	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
	assert.Equal(t, 30*time.Second, rlErr.RetryAfter)
	assert.Equal(t, domain.KindRequestFailed, domain.ChunkErrorKindOf(err))
}

func TestFallbackGenerator_CircuitSkipsThenCloses(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, fallbackReq).Return(nil, rateLimited("openrouter", 10)).Once()
	g2.On("Generate", mock.Anything, fallbackReq).Return(fallbackOutput("gemini"), nil).Twice()

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"openrouter", "gemini"}, nil)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	llm.SetClock(fg, func() time.Time { return clock })

	_, err := fg.Generate(context.Background(), fallbackReq)
	require.NoError(t, err)

	// Circuit is open: g1 must be skipped.
	clock = clock.Add(5 * time.Second)
	out, err := fg.Generate(context.Background(), fallbackReq)
	require.NoError(t, err)
	assert.Equal(t, "gemini", out.Model)
	g1.AssertNumberOfCalls(t, "Generate", 1)

	clock = clock.Add(6 * time.Second)
	g1.On("Generate", mock.Anything, fallbackReq).Return(fallbackOutput("llama"), nil).Once()
	out, err = fg.Generate(context.Background(), fallbackReq)
	require.NoError(t, err)
	assert.Equal(t, "llama", out.Model)
}
