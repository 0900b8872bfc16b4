// Package parser contains the core quote pipeline: deterministic signal
// extraction, the schema-constrained completion call, reconciliation of the
// model's guesses against extracted ground truth, and the fallback range
// estimate.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fairquote/quote-service/internal/llm"
	"github.com/fairquote/quote-service/internal/model"
	"github.com/fairquote/quote-service/internal/storage"
)

// Completer runs schema-constrained completions against an ordered list of
// LLM clients: first is primary, the rest are fallbacks. Each attempt is
// rate limited and recorded for cost tracking.
//
// Augmented (web search) requests that a client rejects with a
// CapabilityError are retried once against the same client without
// augmentation before falling through to the next client.
type Completer struct {
	clients []llm.Client
	limiter *rate.Limiter
	calls   storage.LLMCallRepository
	logger  *zap.Logger
}

// NewCompleter creates a completer. calls may be nil to disable telemetry
// (the CLI runs without a database).
func NewCompleter(clients []llm.Client, ratePerMinute int, calls storage.LLMCallRepository, logger *zap.Logger) *Completer {
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	rps := rate.Every(time.Minute / time.Duration(ratePerMinute))
	return &Completer{
		clients: clients,
		limiter: rate.NewLimiter(rps, 1),
		calls:   calls,
		logger:  logger,
	}
}

// Complete tries each client in order until one returns a document. purpose
// tags the telemetry rows ("parse" or "range").
func (c *Completer) Complete(ctx context.Context, purpose string, req llm.CompletionRequest) (json.RawMessage, error) {
	if len(c.clients) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	var lastErr error
	for i, client := range c.clients {
		doc, err := c.tryClient(ctx, client, purpose, req)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		if i < len(c.clients)-1 {
			c.logger.Warn("LLM provider failed, trying next",
				zap.String("provider", client.ProviderName()),
				zap.String("purpose", purpose),
				zap.Error(err),
			)
		}
	}

	return nil, fmt.Errorf("all LLM providers failed: %w", lastErr)
}

// tryClient performs one attempt, with the augmented→plain retry built in.
func (c *Completer) tryClient(ctx context.Context, client llm.Client, purpose string, req llm.CompletionRequest) (json.RawMessage, error) {
	doc, err := c.attempt(ctx, client, purpose, req)
	if err == nil {
		return doc, nil
	}

	if req.WebSearch && llm.IsCapabilityUnsupported(err) {
		c.logger.Info("augmented mode rejected, retrying without web search",
			zap.String("provider", client.ProviderName()),
			zap.String("purpose", purpose),
		)
		plain := req
		plain.WebSearch = false
		return c.attempt(ctx, client, purpose, plain)
	}

	return nil, err
}

func (c *Completer) attempt(ctx context.Context, client llm.Client, purpose string, req llm.CompletionRequest) (json.RawMessage, error) {
	// Blocks until a token is available or the context is cancelled.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	doc, err := client.Complete(ctx, req)
	duration := time.Since(start).Milliseconds()

	c.record(ctx, client, purpose, req.WebSearch, err == nil, duration)
	return doc, err
}

func (c *Completer) record(ctx context.Context, client llm.Client, purpose string, augmented, success bool, durationMs int64) {
	if c.calls == nil {
		return
	}
	call := &model.LLMCall{
		Provider:  client.ProviderName(),
		Model:     client.ModelName(),
		Purpose:   purpose,
		Augmented: augmented,
		Success:   success,
	}
	call.DurationMs = &durationMs

	if err := c.calls.Create(ctx, call); err != nil {
		c.logger.Error("recording LLM call", zap.Error(err))
	}
}
