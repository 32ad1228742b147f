// Package tools contains the deterministic text/feature-extraction
// engines the analysis stages use. Every function here is pure: same
// input text, same report, no I/O.
package tools

import (
	"regexp"
	"strings"
)

// Tool names the stages declare in their capability descriptors.
const (
	ToolReadDocument   = "read_financial_document"
	ToolSearchWeb      = "search_web"
	ToolAnalyzeMetrics = "analyze_investment_data"
	ToolAssessRisks    = "assess_risk_factors"
)

var (
	moneyPattern   = regexp.MustCompile(`(?i)\$[\d,]+\.?\d*\s*(?:million|billion|M|B|K)?`)
	percentPattern = regexp.MustCompile(`\d+\.?\d*\s*%`)
)

// splitParagraphs splits text on blank-line boundaries. Documents
// where extraction failed to preserve blank-line structure come out
// as one or two huge paragraphs, so fewer than 5 paragraphs triggers
// a re-split on single lines longer than minLineLen characters.
func splitParagraphs(text string, minLineLen int) []string {
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		if s := strings.TrimSpace(p); s != "" {
			paras = append(paras, s)
		}
	}
	if len(paras) >= 5 {
		return paras
	}
	paras = paras[:0]
	for _, l := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(l); len(s) > minLineLen {
			paras = append(paras, s)
		}
	}
	return paras
}

// dedupe keeps the first occurrence of each match, preserving order,
// capped at max entries.
func dedupe(matches []string, max int) []string {
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) == max {
			break
		}
	}
	return out
}

// truncate caps s at max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
