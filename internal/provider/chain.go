package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/metrics"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// DefaultTimeout bounds a single provider attempt.
const DefaultTimeout = 20 * time.Second

// Chain tries providers in order and returns the first usable selection.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chain{providers: providers, timeout: timeout}
}

// Names lists the providers in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns the selection of the first provider that succeeds.
// Terminal errors stop the chain immediately. Any other error demotes to the
// next provider. If every provider fails the error wraps
// quest.ErrQuestGenerationFailed.
func (c *Chain) Generate(ctx context.Context, req Request) (Selection, error) {
	log := logger.FromContext(ctx)

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Selection{}, fmt.Errorf("%w: %w", quest.ErrQuestGenerationFailed, err)
		}

		sel, err := c.attempt(ctx, p, req)
		if err == nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), metrics.OutcomeSuccess).Inc()
			sel.Source = p.Name()
			return sel, nil
		}

		if IsTerminal(err) {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), metrics.OutcomeTerminal).Inc()
			log.Warn("provider refused request", "provider", p.Name(), "error", err)
			return Selection{}, err
		}

		metrics.ProviderAttempts.WithLabelValues(p.Name(), metrics.OutcomeFailure).Inc()
		log.Warn("provider failed, falling through", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return Selection{}, fmt.Errorf("%w: %w", quest.ErrQuestGenerationFailed, errors.Join(errs...))
}

func (c *Chain) attempt(ctx context.Context, p Provider, req Request) (Selection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.ProviderDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	}()

	return p.Attempt(ctx, req)
}
