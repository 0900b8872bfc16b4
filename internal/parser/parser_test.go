package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/llm"
)

// stubClient plays back scripted responses and records every request it saw.
type stubClient struct {
	name      string
	responses []stubResponse
	requests  []llm.CompletionRequest
}

type stubResponse struct {
	doc string
	err error
}

func (s *stubClient) Complete(_ context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.doc), nil
}

func (s *stubClient) ProviderName() string { return s.name }
func (s *stubClient) ModelName() string    { return "stub-model" }

func newTestParser(clients ...llm.Client) *QuoteParser {
	logger := zap.NewNop()
	completer := NewCompleter(clients, 60000, nil, logger)
	return NewQuoteParser(completer, NewRangeEstimator(completer, logger), logger)
}

// analysisDoc builds a schema-valid analysis document with the given total,
// currency and range fields (JSON fragments, e.g. "9999" or "null").
func analysisDoc(total, currency, rangeMin, rangeMax string) string {
	return fmt.Sprintf(`{
		"riskLevel": "MEDIUM",
		"reasons": ["model reason"],
		"recommendations": ["model recommendation"],
		"parsedQuote": {
			"originalText": "model echo",
			"vehicle": {"make": "Toyota", "model": "Camry", "year": "2018"},
			"damages": ["rear bumper dent"],
			"location": {"city": "Brooklyn", "stateOrRegion": "NY", "userLocationHint": null},
			"services": ["bumper repair"],
			"quoteTotal": %s,
			"currency": %q,
			"quoteRangeMin": %s,
			"quoteRangeMax": %s,
			"shopName": null,
			"notesFromUser": null
		}
	}`, total, currency, rangeMin, rangeMax)
}

func TestParse_DeterministicSignalsOverrideModel(t *testing.T) {
	// The model claims a 9999 CAD total; the text says $1,250.
	client := &stubClient{name: "stub", responses: []stubResponse{
		{doc: analysisDoc("9999", "CAD", "900", "1500")},
	}}
	p := newTestParser(client)

	text := "2018 Toyota Camry, rear bumper dent, Brooklyn NY. Quote total $1,250."
	result, err := p.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	pq := result.ParsedQuote
	if pq.QuoteTotal == nil || *pq.QuoteTotal != 1250 {
		t.Errorf("expected extracted total 1250 to win, got %v", pq.QuoteTotal)
	}
	if pq.Currency != "USD" {
		t.Errorf("expected extracted currency USD to win, got %q", pq.Currency)
	}
	if pq.OriginalText != text {
		t.Errorf("expected verbatim original text, got %q", pq.OriginalText)
	}
	if pq.Location.UserLocationHint == nil || *pq.Location.UserLocationHint != "Brooklyn NY" {
		t.Errorf("expected location hint Brooklyn NY, got %v", pq.Location.UserLocationHint)
	}
	// Range came from the primary call; no estimator call should have happened.
	if len(client.requests) != 1 {
		t.Errorf("expected 1 completion call, got %d", len(client.requests))
	}
}

func TestParse_NoTotalTriggersRangeEstimator(t *testing.T) {
	client := &stubClient{name: "stub", responses: []stubResponse{
		{doc: analysisDoc("null", "USD", "null", "null")},
		{doc: `{"quoteRangeMin": 400, "quoteRangeMax": 800}`},
	}}
	p := newTestParser(client)

	result, err := p.Parse(context.Background(), "rear bumper dent, no price discussed yet")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	pq := result.ParsedQuote
	if pq.QuoteTotal != nil {
		t.Errorf("expected nil total, got %v", *pq.QuoteTotal)
	}
	if pq.QuoteRangeMin == nil || pq.QuoteRangeMax == nil {
		t.Fatal("expected estimator to populate the range")
	}
	if *pq.QuoteRangeMin != 400 || *pq.QuoteRangeMax != 800 {
		t.Errorf("expected 400/800, got %v/%v", *pq.QuoteRangeMin, *pq.QuoteRangeMax)
	}
	if len(client.requests) != 2 {
		t.Errorf("expected primary + estimator calls, got %d", len(client.requests))
	}
}

func TestParse_EstimatorNormalizesSwappedBounds(t *testing.T) {
	client := &stubClient{name: "stub", responses: []stubResponse{
		{doc: analysisDoc("null", "USD", "null", "null")},
		{doc: `{"quoteRangeMin": 800, "quoteRangeMax": 400}`},
	}}
	p := newTestParser(client)

	result, err := p.Parse(context.Background(), "cracked windshield replacement")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	pq := result.ParsedQuote
	if pq.QuoteRangeMin == nil || pq.QuoteRangeMax == nil {
		t.Fatal("expected range to be populated")
	}
	if *pq.QuoteRangeMin > *pq.QuoteRangeMax {
		t.Errorf("range not normalized: %v > %v", *pq.QuoteRangeMin, *pq.QuoteRangeMax)
	}
}

func TestParse_EstimatorFailureLeavesRangeNull(t *testing.T) {
	client := &stubClient{name: "stub", responses: []stubResponse{
		{doc: analysisDoc("null", "USD", "null", "null")},
		{err: errors.New("provider exploded")},
	}}
	p := newTestParser(client)

	result, err := p.Parse(context.Background(), "suspension noise, no quote yet")
	if err != nil {
		t.Fatalf("estimator failure must not fail the request: %v", err)
	}

	pq := result.ParsedQuote
	if pq.QuoteRangeMin != nil || pq.QuoteRangeMax != nil {
		t.Error("expected range fields to stay null after estimator failure")
	}
}

func TestParse_CapabilityRejectionRetriesPlainMode(t *testing.T) {
	capErr := &llm.CapabilityError{Capability: "web_search", Err: errors.New("web_search tool not available")}
	client := &stubClient{name: "stub", responses: []stubResponse{
		{err: capErr},
		{doc: analysisDoc("450", "USD", "300", "600")},
	}}
	p := newTestParser(client)

	result, err := p.Parse(context.Background(), "brake pads quoted at $450")
	if err != nil {
		t.Fatalf("expected plain-mode retry to succeed: %v", err)
	}
	if result.RiskLevel != "MEDIUM" {
		t.Errorf("unexpected risk level %q", result.RiskLevel)
	}

	if len(client.requests) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(client.requests))
	}
	if !client.requests[0].WebSearch {
		t.Error("expected first attempt to request web search")
	}
	if client.requests[1].WebSearch {
		t.Error("expected retry to drop web search")
	}
}

func TestParse_NonCapabilityFailurePropagates(t *testing.T) {
	client := &stubClient{name: "stub", responses: []stubResponse{
		{err: errors.New("transport timeout")},
	}}
	p := newTestParser(client)

	if _, err := p.Parse(context.Background(), "oil change quoted at $90"); err == nil {
		t.Fatal("expected failure to propagate")
	}
	// No silent plain-mode retry for unrelated failures.
	if len(client.requests) != 1 {
		t.Errorf("expected a single attempt, got %d", len(client.requests))
	}
}

func TestParse_InvalidDocumentRejected(t *testing.T) {
	client := &stubClient{name: "stub", responses: []stubResponse{
		{doc: `{"riskLevel": "SEVERE", "reasons": [], "recommendations": [], "parsedQuote": {}}`},
	}}
	p := newTestParser(client)

	if _, err := p.Parse(context.Background(), "dent repair $200 total"); err == nil {
		t.Fatal("expected schema-invalid document to be rejected")
	}
}

func TestParse_ProviderFallbackOrder(t *testing.T) {
	primary := &stubClient{name: "anthropic", responses: []stubResponse{
		{err: errors.New("primary down")},
	}}
	secondary := &stubClient{name: "openai", responses: []stubResponse{
		{doc: analysisDoc("200", "USD", "150", "300")},
	}}
	p := newTestParser(primary, secondary)

	result, err := p.Parse(context.Background(), "headlight replacement, total $200")
	if err != nil {
		t.Fatalf("expected fallback provider to succeed: %v", err)
	}
	if result.ParsedQuote.QuoteTotal == nil || *result.ParsedQuote.QuoteTotal != 200 {
		t.Errorf("unexpected total %v", result.ParsedQuote.QuoteTotal)
	}
	if len(primary.requests) != 1 || len(secondary.requests) != 1 {
		t.Errorf("expected one attempt per provider, got %d/%d", len(primary.requests), len(secondary.requests))
	}
}
