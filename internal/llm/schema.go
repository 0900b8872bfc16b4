package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the output contract handed to a completion provider: a strict,
// closed JSON-Schema document in which every field is required and nullable
// fields are expressed as ["type", "null"] unions.
type Schema struct {
	Name        string
	Description string
	Document    map[string]any
}

// Validate checks a returned document against the schema. Providers promise
// conformant output but the parser never trusts that promise.
func (s Schema) Validate(doc json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(s.Document),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating %s document: %w", s.Name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s document violates schema: %s", s.Name, strings.Join(msgs, "; "))
	}
	return nil
}

func nullableType(t string) []string { return []string{t, "null"} }

func stringArray() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

// AnalysisSchema is the full ParsedQuote + risk assessment contract for the
// primary structured call.
func AnalysisSchema() Schema {
	parsedQuote := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"originalText", "vehicle", "damages", "location", "services",
			"quoteTotal", "currency", "quoteRangeMin", "quoteRangeMax",
			"shopName", "notesFromUser",
		},
		"properties": map[string]any{
			"originalText": map[string]any{"type": "string"},
			"vehicle": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"make", "model", "year"},
				"properties": map[string]any{
					"make":  map[string]any{"type": nullableType("string")},
					"model": map[string]any{"type": nullableType("string")},
					"year":  map[string]any{"type": nullableType("string")},
				},
			},
			"damages": stringArray(),
			"location": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"city", "stateOrRegion", "userLocationHint"},
				"properties": map[string]any{
					"city":             map[string]any{"type": nullableType("string")},
					"stateOrRegion":    map[string]any{"type": nullableType("string")},
					"userLocationHint": map[string]any{"type": nullableType("string")},
				},
			},
			"services":      stringArray(),
			"quoteTotal":    map[string]any{"type": nullableType("number")},
			"currency":      map[string]any{"type": "string"},
			"quoteRangeMin": map[string]any{"type": nullableType("number")},
			"quoteRangeMax": map[string]any{"type": nullableType("number")},
			"shopName":      map[string]any{"type": nullableType("string")},
			"notesFromUser": map[string]any{"type": nullableType("string")},
		},
	}

	return Schema{
		Name:        "quote_analysis",
		Description: "Structured breakdown and risk assessment of a vehicle repair quote.",
		Document: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"riskLevel", "reasons", "recommendations", "parsedQuote"},
			"properties": map[string]any{
				"riskLevel": map[string]any{
					"type": "string",
					"enum": []string{"LOW", "MEDIUM", "HIGH"},
				},
				"reasons":         stringArray(),
				"recommendations": stringArray(),
				"parsedQuote":     parsedQuote,
			},
		},
	}
}

// RangeSchema is the narrower contract for the fallback price-range estimate.
// Both bounds are plain numbers here: the estimator demands an answer and
// normalizes ordering itself.
func RangeSchema() Schema {
	return Schema{
		Name:        "quote_range_estimate",
		Description: "Estimated low/high price range for a described vehicle repair.",
		Document: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"quoteRangeMin", "quoteRangeMax"},
			"properties": map[string]any{
				"quoteRangeMin": map[string]any{"type": "number"},
				"quoteRangeMax": map[string]any{"type": "number"},
			},
		},
	}
}
