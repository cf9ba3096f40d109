package llm

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"contractlens/internal/config"
	"contractlens/internal/port"
)

// ProviderFactory is a function that creates a TextGenerator from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.TextGenerator, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// Providers returns the registered provider names in sorted order.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewGenerator creates a TextGenerator from a provider config using the registered factory.
func NewGenerator(cfg *config.ProviderConfig) (port.TextGenerator, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewGeneratorChain creates the primary generator and, when a fallback is
// configured, wraps both in a FallbackGenerator.
func NewGeneratorChain(primary, fallback *config.ProviderConfig, logger *zap.Logger) (port.TextGenerator, error) {
	p, err := NewGenerator(primary)
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		return p, nil
	}
	f, err := NewGenerator(fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return NewFallbackGenerator(
		[]port.TextGenerator{p, f},
		[]string{primary.Provider, fallback.Provider},
		logger,
	), nil
}
