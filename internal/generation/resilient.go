package generation

import (
	"context"

	"go.uber.org/zap"
)

// ResilientGenerator wraps a Generator with a circuit breaker. While the
// circuit is open every call fails fast with ErrUnavailable, letting the
// caller switch to its fallback path without burning the backend timeout.
type ResilientGenerator struct {
	inner   Generator
	breaker *Breaker
	logger  *zap.Logger
}

// NewResilientGenerator wraps inner with the given breaker.
func NewResilientGenerator(inner Generator, breaker *Breaker, logger *zap.Logger) *ResilientGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientGenerator{inner: inner, breaker: breaker, logger: logger}
}

// Generate forwards to the wrapped generator when the breaker admits the
// request, recording the outcome.
func (g *ResilientGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	if !g.breaker.Allow() {
		return "", ErrUnavailable
	}

	text, err := g.inner.Generate(ctx, messages)
	if err != nil {
		g.breaker.RecordFailure()
		if g.breaker.State() == StateOpen {
			g.logger.Warn("generation circuit opened", zap.Error(err))
		}
		return "", err
	}

	g.breaker.RecordSuccess()
	return text, nil
}

// BreakerState exposes the breaker state for health reporting.
func (g *ResilientGenerator) BreakerState() BreakerState {
	return g.breaker.State()
}

var _ Generator = (*ResilientGenerator)(nil)
