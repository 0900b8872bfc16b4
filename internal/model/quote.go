// Package model defines the core data types for the quote analysis service.
// Struct tags (`json:"..."` and `db:"..."`) tell serialization libraries how
// to map fields; the field names mirror the wire contract the LLM is asked
// to produce.
package model

import "time"

// RiskLevel is the coarse three-value classification of a quote.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// AllRiskLevels is the ordered list of valid risk levels.
var AllRiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// Valid reports whether the risk level is one of the three known values.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Vehicle identifies the vehicle a quote refers to. Fields are nil when the
// text gave no basis to infer them.
type Vehicle struct {
	Make  *string `json:"make"`
	Model *string `json:"model"`
	Year  *string `json:"year"`
}

// Location describes where the repair would happen. UserLocationHint is the
// deterministically extracted hint (labeled location, "City, ST" token or
// ZIP), distinct from whatever the model inferred for city/region.
type Location struct {
	City             *string `json:"city"`
	StateOrRegion    *string `json:"stateOrRegion"`
	UserLocationHint *string `json:"userLocationHint"`
}

// ParsedQuote is the structured version of a free-text repair quote.
//
// QuoteTotal and Currency always hold the deterministic extraction result,
// never the model's guess (the parser overwrites them after the completion
// call). QuoteRangeMin <= QuoteRangeMax whenever both are set.
type ParsedQuote struct {
	OriginalText  string   `json:"originalText"`
	Vehicle       Vehicle  `json:"vehicle"`
	Damages       []string `json:"damages"`
	Location      Location `json:"location"`
	Services      []string `json:"services"`
	QuoteTotal    *float64 `json:"quoteTotal"`
	Currency      string   `json:"currency"`
	QuoteRangeMin *float64 `json:"quoteRangeMin"`
	QuoteRangeMax *float64 `json:"quoteRangeMax"`
	ShopName      *string  `json:"shopName"`
	NotesFromUser *string  `json:"notesFromUser"`
}

// AnalysisResult is the full verdict for one quote: the parsed structure plus
// the risk assessment.
type AnalysisResult struct {
	RiskLevel       RiskLevel   `json:"riskLevel"`
	Reasons         []string    `json:"reasons"`
	Recommendations []string    `json:"recommendations"`
	ParsedQuote     ParsedQuote `json:"parsedQuote"`
}

// ResultEnvelope is the service-boundary response shape. Exactly one of
// Parsed/Error is populated depending on Success.
type ResultEnvelope struct {
	Success bool            `json:"success"`
	Parsed  *AnalysisResult `json:"parsed,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Call purposes recorded in LLM call telemetry.
const (
	CallPurposeParse = "parse"
	CallPurposeRange = "range"
)

// LLMCall tracks each call to an LLM provider for cost monitoring.
type LLMCall struct {
	ID         int64     `db:"id" json:"id"`
	Provider   string    `db:"provider" json:"provider"`
	Model      string    `db:"model" json:"model"`
	Purpose    string    `db:"purpose" json:"purpose"`
	Augmented  bool      `db:"augmented" json:"augmented"`
	Success    bool      `db:"success" json:"success"`
	DurationMs *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
