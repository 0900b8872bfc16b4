// Package handler contains the HTTP request handlers for the quote service.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/model"
)

// Analyzer is the service capability the handler consumes.
type Analyzer interface {
	ParseAndAnalyze(ctx context.Context, userText string) model.ResultEnvelope
}

// QuoteHandler handles quote analysis requests.
type QuoteHandler struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(analyzer Analyzer, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		analyzer: analyzer,
		logger:   logger,
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze runs the quote pipeline for the posted text.
// Route: POST /api/v1/quotes/analyze
//
// Empty or missing text is rejected with 400 before any LLM call. Pipeline
// failure surfaces the failure envelope with 502 (the upstream completion
// service let us down, not the client).
func (h *QuoteHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must be JSON with a text field",
		})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "text must be a non-empty string",
		})
		return
	}

	env := h.analyzer.ParseAndAnalyze(c.Request.Context(), req.Text)
	if !env.Success {
		h.logger.Warn("quote analysis failed", zap.String("error", env.Error))
		c.JSON(http.StatusBadGateway, env)
		return
	}

	c.JSON(http.StatusOK, env)
}
