package llm

import (
	"context"

	"github.com/sirupsen/logrus"

	"dev.helix.vectorquery/internal/models"
)

// Chain tries providers in order, falling back to the next when one fails.
// Each provider is attempted exactly once per call.
type Chain struct {
	providers []Provider
	logger    *logrus.Logger
}

// NewChain builds a fallback chain over the given providers.
func NewChain(logger *logrus.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = logrus.New()
	}
	return &Chain{providers: providers, logger: logger}
}

// Empty reports whether the chain has no providers.
func (c *Chain) Empty() bool { return len(c.providers) == 0 }

// Generate runs the prompt through the first provider that succeeds. With no
// providers configured it returns ProviderNotConfiguredError; otherwise the
// last provider's error is returned when every attempt fails.
func (c *Chain) Generate(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	if len(c.providers) == 0 {
		return "", &models.ProviderNotConfiguredError{}
	}

	var lastErr error
	for _, p := range c.providers {
		text, err := p.Generate(ctx, systemPrompt, userPrompt, model)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"provider": p.Name(),
		}).WithError(err).Warn("Provider failed, trying next")
	}
	return "", lastErr
}

// Registry holds the configured providers and builds per-request chains.
type Registry struct {
	order  []Provider
	byName map[string]Provider
	logger *logrus.Logger
}

// NewRegistry registers providers in priority order.
func NewRegistry(logger *logrus.Logger, providers ...Provider) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	r := &Registry{byName: make(map[string]Provider), logger: logger}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, dup := r.byName[p.Name()]; dup {
			continue
		}
		r.byName[p.Name()] = p
		r.order = append(r.order, p)
	}
	return r
}

// Has reports whether a provider with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the registered provider names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}

// ChainFor returns a chain with the named provider first and the remaining
// providers as fallbacks. An unknown or empty name keeps registration order.
func (r *Registry) ChainFor(primary string) *Chain {
	ordered := make([]Provider, 0, len(r.order))
	if p, ok := r.byName[primary]; ok {
		ordered = append(ordered, p)
	}
	for _, p := range r.order {
		if p.Name() == primary {
			continue
		}
		ordered = append(ordered, p)
	}
	return NewChain(r.logger, ordered...)
}
