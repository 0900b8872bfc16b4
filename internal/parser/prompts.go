package parser

import (
	"fmt"
	"strings"
)

// analysisSystemInstruction enumerates the strict output rules for the
// primary structured call.
const analysisSystemInstruction = `You are an expert vehicle repair quote analyst. A user pastes a free-text description of a repair quote; you produce a structured breakdown and a risk assessment.

Output rules:
- Respond only with a document matching the provided schema. No prose, no markdown fencing.
- Echo the original text verbatim in parsedQuote.originalText.
- For every field: infer it from the text when possible, otherwise use null. Never invent vehicles, shops, or prices the text does not support.
- List damages and services in the order they are mentioned in the text.
- riskLevel is LOW, MEDIUM, or HIGH: judge how suspicious or unfavorable the quote looks (price far outside typical range, vague scope, pressure tactics). Give concrete reasons and practical recommendations.
- When typical price information is available (including from web search), set quoteRangeMin and quoteRangeMax to a realistic low/high range for the described work; otherwise leave both null.`

// analysisUserInstruction embeds the raw text plus the deterministically
// extracted signals as hints for the model.
func analysisUserInstruction(text, locationHint string, total *float64, currency string) string {
	var b strings.Builder

	b.WriteString("Analyze this vehicle repair quote:\n\n")
	b.WriteString(text)
	b.WriteString("\n\nExtracted signals (trusted, determined from the text itself):\n")

	if locationHint != "" {
		fmt.Fprintf(&b, "- User location hint: %s\n", locationHint)
	} else {
		b.WriteString("- User location hint: none found\n")
	}
	if total != nil {
		fmt.Fprintf(&b, "- Quoted total: %.2f\n", *total)
	} else {
		b.WriteString("- Quoted total: none found\n")
	}
	fmt.Fprintf(&b, "- Currency: %s\n", currency)

	return b.String()
}

// rangeSystemInstruction demands both bounds always be present and ordered.
const rangeSystemInstruction = `You estimate fair price ranges for vehicle repairs. Given a repair description, return the typical low and high price for the described work in the requested currency.

Output rules:
- Respond only with a document matching the provided schema. No prose, no markdown fencing.
- quoteRangeMin and quoteRangeMax must always be numeric and non-null, with quoteRangeMin <= quoteRangeMax.
- If the description is vague, estimate a wide but realistic range rather than refusing.`

func rangeUserInstruction(text, currency string) string {
	return fmt.Sprintf("Estimate the typical price range in %s for this repair:\n\n%s", currency, text)
}
