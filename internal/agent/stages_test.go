package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/client"
	"github.com/finanalyzer/api/internal/config"
)

func unconfiguredRegistry() *Registry {
	return NewRegistry(
		client.NewLLMClient(&config.LLMConfig{}),
		client.NewSerperClient(&config.SerperConfig{}),
		zap.NewNop(),
	)
}

const sampleFinancialText = "Income Statement\n\n" +
	"Revenue grew 12% to $4.2 million for the year.\n\n" +
	"Balance Sheet\n\n" +
	"Total assets of $10 million against total liabilities of $3 million.\n\n" +
	"We face litigation risk and currency volatility in overseas markets."

func TestRegistryStages_FixedOrder(t *testing.T) {
	stages := unconfiguredRegistry().Stages()

	require.Len(t, stages, 4)
	assert.Equal(t, StageVerification, stages[0].Name)
	assert.Equal(t, StageFinancialAnalysis, stages[1].Name)
	assert.Equal(t, StageRiskAssessment, stages[2].Name)
	assert.Equal(t, StageInvestmentAnalysis, stages[3].Name)
	for _, st := range stages {
		assert.NotEmpty(t, st.Role)
		assert.NotNil(t, st.Run)
	}
}

func TestStages_DeterministicWithoutLLM(t *testing.T) {
	r := unconfiguredRegistry()
	pc := &Context{
		Query:        "Is this company a good investment?",
		DocumentText: sampleFinancialText,
	}

	for _, st := range r.Stages() {
		out, err := st.Run(context.Background(), pc)
		require.NoError(t, err, "stage %s", st.Name)
		require.NotEmpty(t, out, "stage %s", st.Name)
		pc.Append(st.Name, out)
	}

	verification, _ := pc.Output(StageVerification)
	assert.Contains(t, verification, "Verdict: PASS")

	financial, _ := pc.Output(StageFinancialAnalysis)
	assert.Contains(t, financial, "Query: Is this company a good investment?")
	assert.Contains(t, financial, "$4.2 million")

	risk, _ := pc.Output(StageRiskAssessment)
	assert.Contains(t, risk, "Legal & Regulatory Risk")
	assert.Contains(t, risk, "Market & Volatility Risk")

	investment, _ := pc.Output(StageInvestmentAnalysis)
	assert.Contains(t, investment, "=== Financial Metrics Extraction ===")
	assert.Contains(t, investment, "Disclaimer: This is automated analysis, not personalized financial advice.")
}

func TestVerificationReport_FailsOnNonFinancialText(t *testing.T) {
	out := verificationReport("A short story about a lighthouse keeper and the sea.")

	assert.Contains(t, out, "Verdict: FAIL")
	assert.Contains(t, out, "Sections missing:")
	assert.NotContains(t, out, "Sections found:")
}

func TestVerificationReport_ReportsFoundAndMissing(t *testing.T) {
	out := verificationReport("Revenue figures appear in the income statement and the balance sheet.")

	assert.Contains(t, out, "Verdict: PASS")
	assert.Contains(t, out, "Income statement")
	assert.Contains(t, out, "Balance sheet")
	assert.Contains(t, out, "Sections missing: Cash-flow statement, Notes & disclosures")
}
