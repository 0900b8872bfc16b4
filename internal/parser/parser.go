package parser

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/extract"
	"github.com/fairquote/quote-service/internal/llm"
	"github.com/fairquote/quote-service/internal/model"
)

// defaultCurrency applies when the text carries no currency marker at all.
const defaultCurrency = "USD"

// QuoteParser turns free-text repair quotes into validated AnalysisResults.
// It is state-free per call:
//
//  1. Deterministic extraction (location hint, total, currency)
//  2. Schema-constrained completion, augmented mode first
//  3. Validate the returned document against the closed schema
//  4. Reconcile: extracted total/currency overwrite the model's guesses
//  5. Range-estimator fallback when no price range was produced
type QuoteParser struct {
	completer *Completer
	estimator *RangeEstimator
	logger    *zap.Logger
}

// NewQuoteParser creates a parser. The estimator shares the completer's rate
// limit and telemetry.
func NewQuoteParser(completer *Completer, estimator *RangeEstimator, logger *zap.Logger) *QuoteParser {
	return &QuoteParser{
		completer: completer,
		estimator: estimator,
		logger:    logger,
	}
}

// Parse runs the full pipeline for one quote text. A nil result with an
// error means the structured extraction failed; range-estimation problems
// are absorbed (the range fields stay null).
func (p *QuoteParser) Parse(ctx context.Context, text string) (*model.AnalysisResult, error) {
	cleaned, hint := extract.LocationHint(text)

	var extractedTotal *float64
	if total, ok := extract.QuoteTotal(text); ok {
		extractedTotal = &total
	}

	currency, stated := extract.Currency(text)
	if !stated {
		currency = defaultCurrency
	}

	schema := llm.AnalysisSchema()
	doc, err := p.completer.Complete(ctx, model.CallPurposeParse, llm.CompletionRequest{
		System:    analysisSystemInstruction,
		User:      analysisUserInstruction(cleaned, hint, extractedTotal, currency),
		Schema:    schema,
		WebSearch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("structured completion: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("completion document rejected: %w", err)
	}

	var result model.AnalysisResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return nil, fmt.Errorf("decoding completion document: %w", err)
	}

	p.reconcile(&result, text, hint, extractedTotal, currency)

	// Fill the price range gap if neither the model nor the text produced one.
	pq := &result.ParsedQuote
	if pq.QuoteRangeMin == nil || pq.QuoteRangeMax == nil {
		pq.QuoteRangeMin, pq.QuoteRangeMax = nil, nil
		if rng, err := p.estimator.Estimate(ctx, cleaned, currency); err != nil {
			p.logger.Warn("range estimate unavailable", zap.Error(err))
		} else {
			pq.QuoteRangeMin = &rng.Min
			pq.QuoteRangeMax = &rng.Max
		}
	}

	return &result, nil
}

// reconcile enforces the priority order: trusted deterministic signals always
// override whatever the model inferred for the same fields.
func (p *QuoteParser) reconcile(result *model.AnalysisResult, originalText, hint string, total *float64, currency string) {
	pq := &result.ParsedQuote

	pq.OriginalText = originalText
	pq.QuoteTotal = total
	pq.Currency = currency

	if hint != "" {
		h := hint
		pq.Location.UserLocationHint = &h
	}

	// The model is asked for min <= max; don't rely on it.
	if pq.QuoteRangeMin != nil && pq.QuoteRangeMax != nil && *pq.QuoteRangeMin > *pq.QuoteRangeMax {
		pq.QuoteRangeMin, pq.QuoteRangeMax = pq.QuoteRangeMax, pq.QuoteRangeMin
	}
}
