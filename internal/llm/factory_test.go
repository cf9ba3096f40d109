package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractlens/internal/config"
	"contractlens/internal/llm"
	"contractlens/internal/port"
	"contractlens/mocks"
)

func TestNewGenerator_RegisteredProvider(t *testing.T) {
	want := new(mocks.MockTextGenerator)
	llm.RegisterProvider("test-provider", func(cfg *config.ProviderConfig) (port.TextGenerator, error) {
		return want, nil
	})

	got, err := llm.NewGenerator(&config.ProviderConfig{Provider: "test-provider"})

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Contains(t, llm.Providers(), "test-provider")
}

func TestNewGenerator_UnknownProvider(t *testing.T) {
	got, err := llm.NewGenerator(&config.ProviderConfig{Provider: "does-not-exist"})

	assert.Nil(t, got)
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestNewGeneratorChain(t *testing.T) {
	llm.RegisterProvider("chain-a", func(cfg *config.ProviderConfig) (port.TextGenerator, error) {
		return new(mocks.MockTextGenerator), nil
	})
	llm.RegisterProvider("chain-b", func(cfg *config.ProviderConfig) (port.TextGenerator, error) {
		return new(mocks.MockTextGenerator), nil
	})

	single, err := llm.NewGeneratorChain(&config.ProviderConfig{Provider: "chain-a"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &mocks.MockTextGenerator{}, single)

	chained, err := llm.NewGeneratorChain(
		&config.ProviderConfig{Provider: "chain-a"},
		&config.ProviderConfig{Provider: "chain-b"},
		nil,
	)
	require.NoError(t, err)
	assert.IsType(t, &llm.FallbackGenerator{}, chained)

	_, err = llm.NewGeneratorChain(
		&config.ProviderConfig{Provider: "chain-a"},
		&config.ProviderConfig{Provider: "missing"},
		nil,
	)
	assert.ErrorContains(t, err, "fallback provider")
}
