package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/llm"
	"github.com/fairquote/quote-service/internal/model"
)

// QuoteRange is a low/high price estimate. Min <= Max always holds.
type QuoteRange struct {
	Min float64
	Max float64
}

// RangeEstimator obtains a fallback low/high price estimate when the primary
// structured call did not produce one. It asks for web-search-augmented
// estimates first; the Completer downgrades to plain mode on capability
// rejection.
type RangeEstimator struct {
	completer *Completer
	logger    *zap.Logger
}

// NewRangeEstimator creates a range estimator sharing the parser's completer.
func NewRangeEstimator(completer *Completer, logger *zap.Logger) *RangeEstimator {
	return &RangeEstimator{completer: completer, logger: logger}
}

// Estimate returns a normalized price range for the described repair, or an
// error when no usable estimate could be obtained. Callers treat the error
// as "no estimate available"; it never fails the overall request.
func (e *RangeEstimator) Estimate(ctx context.Context, text, currency string) (*QuoteRange, error) {
	schema := llm.RangeSchema()

	doc, err := e.completer.Complete(ctx, model.CallPurposeRange, llm.CompletionRequest{
		System:    rangeSystemInstruction,
		User:      rangeUserInstruction(text, currency),
		Schema:    schema,
		WebSearch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("range estimate call: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("range estimate: %w", err)
	}

	var bounds struct {
		Min float64 `json:"quoteRangeMin"`
		Max float64 `json:"quoteRangeMax"`
	}
	if err := json.Unmarshal(doc, &bounds); err != nil {
		return nil, fmt.Errorf("decoding range estimate: %w", err)
	}

	if !finite(bounds.Min) || !finite(bounds.Max) {
		return nil, fmt.Errorf("range estimate returned non-finite bounds")
	}

	// Normalize: the service occasionally violates the ordering it was asked
	// to guarantee.
	if bounds.Min > bounds.Max {
		e.logger.Debug("range estimate out of order, swapping",
			zap.Float64("min", bounds.Min),
			zap.Float64("max", bounds.Max),
		)
		bounds.Min, bounds.Max = bounds.Max, bounds.Min
	}

	return &QuoteRange{Min: bounds.Min, Max: bounds.Max}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
