package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/storage"
)

// AdminHandler exposes operational endpoints over the LLM call telemetry.
type AdminHandler struct {
	callRepo storage.LLMCallRepository
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(callRepo storage.LLMCallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		callRepo: callRepo,
		logger:   logger,
	}
}

// Stats returns aggregated LLM call counts for cost monitoring.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.callRepo.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("aggregating llm call stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"llm_calls": stats})
}

// Calls returns the most recent LLM calls.
// Route: GET /api/v1/admin/calls?limit=20
func (h *AdminHandler) Calls(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}

	calls, err := h.callRepo.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing recent llm calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": calls})
}
