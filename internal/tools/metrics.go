package tools

import (
	"fmt"
	"strings"
)

const (
	maxMoneyFigures   = 20
	maxPercentFigures = 15
	maxKeySections    = 10
	keySectionChars   = 600
	metricLineMinLen  = 30
)

var metricKeywords = []string{
	"revenue", "net income", "gross profit", "operating income",
	"ebitda", "eps", "earnings per share", "free cash flow",
	"operating cash flow", "total assets", "total liabilities",
	"shareholders equity", "debt", "margin", "growth",
	"year-over-year", "quarter", "guidance", "outlook",
	"dividend", "buyback", "repurchase",
}

// ExtractMetrics scans financial text for monetary amounts, percentages
// and keyword-anchored paragraphs, and formats them as an excerpt bundle.
// A paragraph only counts as a key financial section when it contains
// both a vocabulary keyword and a monetary or percentage figure:
// keyword-only matches are too noisy, figure-only matches lack a
// semantic anchor.
func ExtractMetrics(text string) string {
	if strings.TrimSpace(text) == "" {
		return "No financial data provided for analysis."
	}

	paragraphs := splitParagraphs(text, metricLineMinLen)

	output := []string{"=== Financial Metrics Extraction ===", ""}

	moneyMatches := moneyPattern.FindAllString(text, -1)
	if len(moneyMatches) > 0 {
		output = append(output, fmt.Sprintf("Monetary figures found (%d total):", len(moneyMatches)))
		for _, amt := range dedupe(moneyMatches, maxMoneyFigures) {
			output = append(output, "  • "+amt)
		}
		output = append(output, "")
	}

	pctMatches := percentPattern.FindAllString(text, -1)
	if len(pctMatches) > 0 {
		output = append(output, fmt.Sprintf("Percentage figures found (%d total):", len(pctMatches)))
		for _, p := range dedupe(pctMatches, maxPercentFigures) {
			output = append(output, "  • "+p)
		}
		output = append(output, "")
	}

	type section struct {
		text     string
		keywords []string
	}
	var sections []section
	for _, para := range paragraphs {
		lower := strings.ToLower(para)
		var matched []string
		for _, kw := range metricKeywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 && (moneyPattern.MatchString(para) || percentPattern.MatchString(para)) {
			sections = append(sections, section{truncate(para, keySectionChars), matched})
		}
	}

	if len(sections) > 0 {
		output = append(output, fmt.Sprintf("Key financial sections (%d found):", len(sections)))
		for i, s := range sections {
			if i == maxKeySections {
				break
			}
			output = append(output, "  Keywords: "+strings.Join(s.keywords, ", "))
			output = append(output, `  Text: "`+s.text+`"`)
			output = append(output, "")
		}
	}

	if len(output) <= 2 {
		output = append(output,
			"No structured financial figures detected.",
			"The agent should review the full document text directly.")
	} else {
		output = append(output, "The agent should now use these extracted figures for investment analysis.")
	}

	return strings.Join(output, "\n")
}
