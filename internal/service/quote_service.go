// Package service wraps the quote pipeline in the service-boundary contract:
// success or failure is reported through a uniform result envelope so callers
// never see internal errors.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/model"
)

// Parser is the pipeline capability the service consumes. Satisfied by
// parser.QuoteParser; tests substitute a stub.
type Parser interface {
	Parse(ctx context.Context, text string) (*model.AnalysisResult, error)
}

// QuoteAnalysisService translates parser outcomes into result envelopes.
type QuoteAnalysisService struct {
	parser Parser
	logger *zap.Logger
}

// NewQuoteAnalysisService creates the service.
func NewQuoteAnalysisService(parser Parser, logger *zap.Logger) *QuoteAnalysisService {
	return &QuoteAnalysisService{
		parser: parser,
		logger: logger,
	}
}

// ParseAndAnalyze runs the pipeline for one quote text. The returned envelope
// has exactly one of Parsed/Error set; parser failures are logged here and
// surfaced as a generic message, never as internal error detail.
func (s *QuoteAnalysisService) ParseAndAnalyze(ctx context.Context, userText string) model.ResultEnvelope {
	result, err := s.parser.Parse(ctx, userText)
	if err != nil || result == nil {
		s.logger.Error("quote parsing failed", zap.Error(err))
		return model.ResultEnvelope{
			Success: false,
			Error:   "parser failed to extract quote information",
		}
	}

	return model.ResultEnvelope{
		Success: true,
		Parsed:  result,
	}
}
