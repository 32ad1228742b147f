package tools

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetrics_FiguresAndKeywords(t *testing.T) {
	text := "Revenue grew 12% to $4.2 million in the fourth quarter.\n\n" +
		"Operating income reached $1.1 million, a margin of 26%.\n\n" +
		"The board declared a dividend of $0.25 per share."

	out := ExtractMetrics(text)

	assert.Contains(t, out, "=== Financial Metrics Extraction ===")
	assert.Contains(t, out, "$4.2 million")
	assert.Contains(t, out, "12%")
	assert.Contains(t, out, "Monetary figures found")
	assert.Contains(t, out, "Percentage figures found")
	assert.Contains(t, out, "Keywords: revenue")
	assert.Contains(t, out, "The agent should now use these extracted figures for investment analysis.")
}

func TestExtractMetrics_KeywordWithoutFigureIsNotASection(t *testing.T) {
	// A paragraph mentioning revenue with no monetary or percentage
	// figure must not be reported as a key financial section.
	out := ExtractMetrics("Revenue recognition policies are described in the annual report appendix.")

	assert.NotContains(t, out, "Key financial sections")
	assert.Contains(t, out, "No structured financial figures detected.")
}

func TestExtractMetrics_FigureWithoutKeywordIsNotASection(t *testing.T) {
	out := ExtractMetrics("The company spent $3.5 million refurbishing its headquarters building.")

	// The raw figure is still listed, but no section is anchored on it.
	assert.Contains(t, out, "$3.5 million")
	assert.NotContains(t, out, "Key financial sections")
}

func TestExtractMetrics_EmptyInput(t *testing.T) {
	assert.Equal(t, "No financial data provided for analysis.", ExtractMetrics(""))
	assert.Equal(t, "No financial data provided for analysis.", ExtractMetrics("   \n\t "))
}

func TestExtractMetrics_Deterministic(t *testing.T) {
	text := "Revenue grew 12% to $4.2 million.\n\nDebt fell to $900K, down 5%."
	require.Equal(t, ExtractMetrics(text), ExtractMetrics(text))
}

func TestExtractMetrics_MoneyFigureCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Item valued at $%d million.\n\n", i+1)
	}
	out := ExtractMetrics(b.String())

	assert.Contains(t, out, "Monetary figures found (40 total):")
	// Distinct figures are listed up to the cap, never beyond it.
	assert.Equal(t, maxMoneyFigures, strings.Count(out, "  • $"))
}

func TestExtractMetrics_DedupeKeepsFirstSeenOrder(t *testing.T) {
	out := ExtractMetrics("$5 million here, $2 million there, and $5 million again.")

	first := strings.Index(out, "  • $5 million")
	second := strings.Index(out, "  • $2 million")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
	assert.Equal(t, 1, strings.Count(out, "  • $5 million"))
	assert.Contains(t, out, "Monetary figures found (3 total):")
}

func TestExtractMetrics_FallbackLineSplit(t *testing.T) {
	// Fewer than five paragraphs: long lines become the section units.
	text := "Quarterly revenue increased 8% year-over-year to $12.4 million driven by subscriptions.\n" +
		"short line\n" +
		"Gross profit margin expanded to 61% on lower infrastructure spending across the business."

	out := ExtractMetrics(text)

	assert.Contains(t, out, "Key financial sections (2 found):")
	assert.Contains(t, out, "Keywords: revenue")
	assert.Contains(t, out, "Keywords: gross profit, margin")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	// Rune-aware: multibyte text is never split mid-character.
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
}

func TestSplitParagraphs(t *testing.T) {
	paras := splitParagraphs("one\n\ntwo\n\nthree\n\nfour\n\nfive", 1)
	assert.Len(t, paras, 5)

	// Below the paragraph threshold the text is re-split on lines that
	// clear the minimum length.
	lines := splitParagraphs("tiny\nthis line is comfortably longer than the minimum\nx", 20)
	require.Len(t, lines, 1)
	assert.Equal(t, "this line is comfortably longer than the minimum", lines[0])
}
