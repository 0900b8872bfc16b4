// Package extract contains the deterministic text-signal extraction for the
// quote pipeline: location hints, quoted totals and currency codes are pulled
// out of raw user text with pattern matching, no model inference. These
// values outrank whatever the LLM later guesses for the same fields.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Explicit "location: ..." style labels. A labeled location always wins
	// over positional heuristics and is stripped from the text.
	labeledLocationRe = regexp.MustCompile(`(?i)\b(?:location\s+hint|location|located\s+in)\s*:\s*([^\n.;]+)`)

	// "City, ST" or "City ST", optionally followed by a ZIP.
	cityStateRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:[ ][A-Z][a-zA-Z]+)*,?[ ]+[A-Z]{2}\b(?:[ ]+\d{5}(?:-\d{4})?)?`)

	// Bare 5-digit ZIP, optionally ZIP+4.
	zipRe = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// Amount patterns are tried as ordered families: explicitly labeled totals
// first, then quoted/estimated amounts, then trailing "... quote" figures.
// The first family with any match wins. Within a family the last match wins:
// a figure corrected later in the text supersedes an earlier one.
var amountFamilies = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btotal(?:[ ]+(?:due|cost|price|amount))?\s*(?:is|was|of|came[ ]to|:|=)?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`(?i)\b(?:quoted|quote|estimated|estimate)\s*(?:is|was|me|at|of|for|:)?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`(?i)\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(?:quote|estimate|total)\b`),
}

// Currency sigils and words, tested in order; the first matching code wins.
var currencyPatterns = []struct {
	code string
	re   *regexp.Regexp
}{
	{"USD", regexp.MustCompile(`(?i)\bUSD\b|US\$`)},
	{"CAD", regexp.MustCompile(`(?i)\bCAD\b|C\$`)},
	{"AUD", regexp.MustCompile(`(?i)\bAUD\b|A\$`)},
	{"EUR", regexp.MustCompile(`(?i)\bEUR\b|\beuros?\b|€`)},
	{"GBP", regexp.MustCompile(`(?i)\bGBP\b|\bpounds?\b|£`)},
}

// LocationHint extracts a user location hint from the text.
//
// A labeled form ("location: ...", "location hint: ...", "located in: ...")
// always wins; its value is returned and the label is stripped from the
// cleaned text. Otherwise two positional heuristics apply in order: a
// "City, ST [ZIP]" token, then a bare ZIP code. For the positional forms the
// last occurrence in the text is taken, since trailing mentions are more
// likely to be the actual location than incidental ones earlier on; the text
// is returned unchanged.
func LocationHint(text string) (cleaned string, hint string) {
	if loc := labeledLocationRe.FindStringSubmatchIndex(text); loc != nil {
		hint = strings.TrimSpace(text[loc[2]:loc[3]])
		cleaned = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
		return cleaned, hint
	}

	if matches := cityStateRe.FindAllString(text, -1); len(matches) > 0 {
		return text, strings.TrimSpace(matches[len(matches)-1])
	}
	if matches := zipRe.FindAllString(text, -1); len(matches) > 0 {
		return text, matches[len(matches)-1]
	}
	return text, ""
}

// QuoteTotal extracts a quoted total dollar amount from the text.
//
// The amount families are tried in order and the first family with any match
// wins; within that family the last match in the text is used. Returns
// ok=false when no family matches or the matched number does not parse to a
// finite value.
func QuoteTotal(text string) (float64, bool) {
	for _, re := range amountFamilies {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		return parseAmount(matches[len(matches)-1][1])
	}
	return 0, false
}

// Currency extracts an ISO-4217 currency code from the text. The sigil list
// is tested in order and the first match wins; a bare "$" with no other
// currency marker defaults to USD. Returns ok=false when nothing matches at
// all (the caller defaults to USD in that case too, but the distinction is
// kept so telemetry can tell "stated" from "assumed").
func Currency(text string) (string, bool) {
	for _, p := range currencyPatterns {
		if p.re.MatchString(text) {
			return p.code, true
		}
	}
	if strings.Contains(text, "$") {
		return "USD", true
	}
	return "", false
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
