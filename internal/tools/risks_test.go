package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRiskSections_CategorizesByIndicators(t *testing.T) {
	text := "We face significant litigation and an ongoing regulatory investigation in Europe.\n" +
		"Rising interest rate exposure and currency volatility pressured margins this quarter."

	out := ExtractRiskSections(text)

	assert.Contains(t, out, "=== Risk-Relevant Sections Extracted for Analysis ===")
	assert.Contains(t, out, "── Legal & Regulatory Risk (1 section(s)) ──")
	assert.Contains(t, out, "Indicators: litigation, regulatory, investigation")
	assert.Contains(t, out, "── Market & Volatility Risk (1 section(s)) ──")
	assert.Contains(t, out, "Indicators: volatility, currency, interest rate")
	assert.Contains(t, out, "The agent should now perform qualitative analysis on these extracts.")
}

func TestExtractRiskSections_CategoryOrderIsFixed(t *testing.T) {
	text := "Going concern uncertainty persists amid continued operating losses this fiscal year.\n" +
		"Substantial debt maturities and covenant pressure constrain refinancing flexibility now."

	out := ExtractRiskSections(text)

	credit := strings.Index(out, "── Credit & Debt Risk")
	health := strings.Index(out, "── Financial Health Concerns")
	require.GreaterOrEqual(t, credit, 0)
	require.GreaterOrEqual(t, health, 0)
	assert.Less(t, credit, health)
}

func TestExtractRiskSections_ParagraphUnderMultipleCategories(t *testing.T) {
	text := "Restructuring charges and impairment losses increased amid supply chain disruption worries.\n" +
		"Short filler line only."

	out := ExtractRiskSections(text)

	// The same paragraph carries both operational and financial-health
	// indicators and appears under both categories.
	assert.Contains(t, out, "── Operational Risk (1 section(s)) ──")
	assert.Contains(t, out, "Indicators: restructuring, impairment, supply chain, disruption")
	assert.Contains(t, out, "── Financial Health Concerns (1 section(s)) ──")
	assert.Contains(t, out, "Indicators: loss")
	assert.Contains(t, out, "Total: 2 risk-relevant sections found across 5 categories.")
}

func TestExtractRiskSections_EmptyInput(t *testing.T) {
	assert.Equal(t, "No financial data provided for risk assessment.", ExtractRiskSections(""))
	assert.Equal(t, "No financial data provided for risk assessment.", ExtractRiskSections("  \n "))
}

func TestExtractRiskSections_NoIndicatorsFallback(t *testing.T) {
	out := ExtractRiskSections("The new cafeteria menu was very well received by employees this spring season.")

	assert.Contains(t, out, "No explicit risk-related sections detected in the document.")
	assert.NotContains(t, out, "Total:")
}

func TestExtractRiskSections_TruncatesLongSections(t *testing.T) {
	long := "Litigation exposure " + strings.Repeat("continues to expand across jurisdictions ", 30)
	out := ExtractRiskSections(long)

	assert.Contains(t, out, "── Legal & Regulatory Risk")
	start := strings.Index(out, `  Text: "`)
	require.GreaterOrEqual(t, start, 0)
	rest := out[start+len(`  Text: "`):]
	end := strings.Index(rest, `"`)
	require.GreaterOrEqual(t, end, 0)
	assert.LessOrEqual(t, len([]rune(rest[:end])), riskSectionChars)
}
