package tools

import (
	"fmt"
	"strings"
)

const (
	maxSectionsPerCategory = 5
	riskSectionChars       = 500
	riskLineMinLen         = 50
)

// riskCategory pairs a fixed category name with its indicator keywords.
// The category set is closed; order is part of the report format.
type riskCategory struct {
	name     string
	keywords []string
}

var riskCategories = []riskCategory{
	{"Credit & Debt Risk", []string{
		"debt", "default", "credit", "leverage", "borrowing",
		"interest expense", "covenant", "downgrade",
	}},
	{"Market & Volatility Risk", []string{
		"volatility", "market risk", "currency", "exchange rate",
		"interest rate", "commodity", "inflation",
	}},
	{"Legal & Regulatory Risk", []string{
		"litigation", "regulatory", "compliance", "lawsuit",
		"investigation", "penalty", "sanction", "SEC",
	}},
	{"Operational Risk", []string{
		"restructuring", "impairment", "write-off", "supply chain",
		"cybersecurity", "disruption", "workforce",
	}},
	{"Financial Health Concerns", []string{
		"decline", "loss", "adverse", "uncertainty", "contingent",
		"liability", "going concern", "liquidity risk",
	}},
}

// ExtractRiskSections scans financial text for risk-relevant paragraphs
// and groups them under five fixed categories. A paragraph may appear
// under multiple categories.
func ExtractRiskSections(text string) string {
	if strings.TrimSpace(text) == "" {
		return "No financial data provided for risk assessment."
	}

	paragraphs := splitParagraphs(text, riskLineMinLen)

	output := []string{"=== Risk-Relevant Sections Extracted for Analysis ===\n"}
	totalExtracts := 0

	for _, cat := range riskCategories {
		type match struct {
			text  string
			terms []string
		}
		var relevant []match
		for _, para := range paragraphs {
			lower := strings.ToLower(para)
			var terms []string
			for _, kw := range cat.keywords {
				if strings.Contains(lower, kw) {
					terms = append(terms, kw)
				}
			}
			if len(terms) > 0 {
				relevant = append(relevant, match{truncate(para, riskSectionChars), terms})
			}
		}

		if len(relevant) > 0 {
			output = append(output, fmt.Sprintf("\n── %s (%d section(s)) ──", cat.name, len(relevant)))
			for i, m := range relevant {
				if i == maxSectionsPerCategory {
					break
				}
				output = append(output, "  Indicators: "+strings.Join(m.terms, ", "))
				output = append(output, `  Text: "`+m.text+`"`)
				output = append(output, "")
			}
			totalExtracts += len(relevant)
		}
	}

	if totalExtracts == 0 {
		output = append(output,
			"No explicit risk-related sections detected in the document.",
			"The agent should review the full document for implicit risks.")
	} else {
		output = append(output,
			fmt.Sprintf("\nTotal: %d risk-relevant sections found across %d categories.", totalExtracts, len(riskCategories)),
			"The agent should now perform qualitative analysis on these extracts.")
	}

	return strings.Join(output, "\n")
}
