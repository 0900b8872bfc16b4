package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalyzer struct {
	envelope model.ResultEnvelope
	calls    int
}

func (s *stubAnalyzer) ParseAndAnalyze(_ context.Context, _ string) model.ResultEnvelope {
	s.calls++
	return s.envelope
}

func newAnalyzeRouter(analyzer *stubAnalyzer) *gin.Engine {
	router := gin.New()
	h := NewQuoteHandler(analyzer, zap.NewNop())
	router.POST("/api/v1/quotes/analyze", h.Analyze)
	return router
}

func postAnalyze(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/quotes/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyze_Success(t *testing.T) {
	analyzer := &stubAnalyzer{envelope: model.ResultEnvelope{
		Success: true,
		Parsed: &model.AnalysisResult{
			RiskLevel:       model.RiskLow,
			Reasons:         []string{"typical price"},
			Recommendations: []string{"proceed"},
		},
	}}
	router := newAnalyzeRouter(analyzer)

	w := postAnalyze(router, `{"text": "oil change quoted at $90 total"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env model.ResultEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !env.Success || env.Parsed == nil || env.Error != "" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestAnalyze_EmptyTextRejectedBeforeService(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newAnalyzeRouter(analyzer)

	for _, body := range []string{`{"text": ""}`, `{"text": "   "}`, `{}`} {
		w := postAnalyze(router, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
	if analyzer.calls != 0 {
		t.Errorf("expected no service calls for invalid input, got %d", analyzer.calls)
	}
}

func TestAnalyze_MalformedJSON(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newAnalyzeRouter(analyzer)

	w := postAnalyze(router, `{"text": `)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", w.Code)
	}
	if analyzer.calls != 0 {
		t.Error("expected no service call for malformed JSON")
	}
}

func TestAnalyze_PipelineFailureMapsTo502(t *testing.T) {
	analyzer := &stubAnalyzer{envelope: model.ResultEnvelope{
		Success: false,
		Error:   "parser failed to extract quote information",
	}}
	router := newAnalyzeRouter(analyzer)

	w := postAnalyze(router, `{"text": "rear bumper dent, quoted $500"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var env model.ResultEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if env.Success || env.Error == "" || env.Parsed != nil {
		t.Errorf("unexpected envelope: %+v", env)
	}
}
