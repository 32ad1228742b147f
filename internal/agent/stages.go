package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/client"
	"github.com/finanalyzer/api/internal/tools"
)

// Stage names. The stage set is closed and known at build time, so
// dispatch is a fixed registry rather than anything reflective.
const (
	StageVerification       = "verification"
	StageFinancialAnalysis  = "financial_analysis"
	StageRiskAssessment     = "risk_assessment"
	StageInvestmentAnalysis = "investment_analysis"
)

var stageTitles = map[string]string{
	StageVerification:       "Document Verification",
	StageFinancialAnalysis:  "Financial Analysis",
	StageRiskAssessment:     "Risk Assessment",
	StageInvestmentAnalysis: "Investment Recommendation",
}

func stageTitle(name string) string {
	if t, ok := stageTitles[name]; ok {
		return t
	}
	return name
}

// Stage is a named unit of analysis work: a role, the tools it may
// use, and an execution function over the shared context.
type Stage struct {
	Name  string
	Role  string
	Tools []string
	Run   func(ctx context.Context, pc *Context) (string, error)
}

// Registry builds the fixed, ordered set of analysis stages around the
// injected clients. When the LLM client is unconfigured, every stage
// degrades to a deterministic report assembled from the extraction
// tools, so the pipeline stays usable in development and tests.
type Registry struct {
	llm    *client.LLMClient
	serper *client.SerperClient
	log    *zap.Logger
}

func NewRegistry(llm *client.LLMClient, serper *client.SerperClient, log *zap.Logger) *Registry {
	return &Registry{llm: llm, serper: serper, log: log}
}

// Stages returns the four capabilities in their required execution
// order: verification gates everything, risk and investment analysis
// both consume the financial-analysis output.
func (r *Registry) Stages() []Stage {
	return []Stage{
		{
			Name:  StageVerification,
			Role:  "Financial Document Verification Specialist",
			Tools: []string{tools.ToolReadDocument},
			Run:   r.runVerification,
		},
		{
			Name:  StageFinancialAnalysis,
			Role:  "Senior Financial Analyst",
			Tools: []string{tools.ToolSearchWeb},
			Run:   r.runFinancialAnalysis,
		},
		{
			Name:  StageRiskAssessment,
			Role:  "Financial Risk Assessment Analyst",
			Tools: []string{tools.ToolAssessRisks},
			Run:   r.runRiskAssessment,
		},
		{
			Name:  StageInvestmentAnalysis,
			Role:  "Certified Investment Advisor",
			Tools: []string{tools.ToolAnalyzeMetrics, tools.ToolSearchWeb},
			Run:   r.runInvestmentAnalysis,
		},
	}
}

func documentBlock(pc *Context) string {
	return "--- START OF DOCUMENT ---\n" + pc.DocumentText + "\n--- END OF DOCUMENT ---"
}

// priorFindings renders the outputs of the stages that already ran,
// so later stages can build on the verified and analyzed state.
func priorFindings(pc *Context) string {
	if len(pc.StageOutputs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Findings from the preceding analysis stages:\n\n")
	for _, out := range pc.StageOutputs {
		fmt.Fprintf(&b, "### %s\n%s\n\n", stageTitle(out.Stage), out.Text)
	}
	return b.String()
}

// marketContext fetches web search context when Serper is configured.
// Search failures are non-fatal: the stage proceeds on document data.
func (r *Registry) marketContext(ctx context.Context, query string) string {
	if !r.serper.IsConfigured() {
		return ""
	}
	results, err := r.serper.Search(ctx, query)
	if err != nil {
		r.log.Warn("market context search failed", zap.Error(err))
		return ""
	}
	return "Current market context from web search:\n" + results + "\n"
}

func (r *Registry) runVerification(ctx context.Context, pc *Context) (string, error) {
	if !r.llm.IsConfigured() {
		return verificationReport(pc.DocumentText), nil
	}

	system := "You are a Financial Document Verification Specialist with a decade of " +
		"compliance experience at a Big Four accounting firm. You can quickly identify " +
		"genuine SEC filings, annual reports, and quarterly earnings documents, and you " +
		"never approve a document without verifying its structural integrity first."

	user := fmt.Sprintf(`Verify the uploaded financial document.

The full document text has been pre-extracted and is provided below:
%s

1. Check whether it contains standard financial statement components (income statement, balance sheet, cash-flow statement, notes/disclosures).
2. Flag any structural issues, missing sections, or indications that the file is NOT a legitimate financial document.
3. Provide a clear PASS / FAIL verification verdict with reasoning.`, documentBlock(pc))

	out, err := r.llm.ChatCompletion(ctx, system, user)
	if err != nil {
		return "", eris.Wrap(err, "verification completion")
	}
	return out, nil
}

func (r *Registry) runFinancialAnalysis(ctx context.Context, pc *Context) (string, error) {
	if !r.llm.IsConfigured() {
		return fmt.Sprintf("Query: %s\n\n%s", pc.Query, tools.ExtractMetrics(pc.DocumentText)), nil
	}

	system := "You are a Senior Financial Analyst, a CFA charterholder with 15+ years of " +
		"experience analyzing corporate financial statements, 10-K/10-Q filings, and " +
		"earnings reports. You always cite specific figures from the document and clearly " +
		"distinguish facts from your professional interpretation."

	market := r.marketContext(ctx, pc.Query+" latest financial results")
	user := fmt.Sprintf(`Perform a comprehensive financial analysis in response to the user's query: %s

%s
The full document text has been pre-extracted and is provided below:
%s

1. Extract and analyze key financial metrics: revenue, net income, operating margins, EPS, debt levels, and cash-flow figures.
2. Identify year-over-year or quarter-over-quarter trends.
3. Provide clear, data-backed answers to the user's specific query.`,
		pc.Query, market, documentBlock(pc))

	out, err := r.llm.ChatCompletion(ctx, system, user)
	if err != nil {
		return "", eris.Wrap(err, "financial analysis completion")
	}
	return out, nil
}

func (r *Registry) runRiskAssessment(ctx context.Context, pc *Context) (string, error) {
	riskExtract := tools.ExtractRiskSections(pc.DocumentText)

	if !r.llm.IsConfigured() {
		return riskExtract, nil
	}

	system := "You are a Financial Risk Assessment Analyst holding an FRM certification, " +
		"with 12 years of experience in enterprise risk management. You ground your risk " +
		"ratings in measurable financial indicators and never exaggerate or downplay findings."

	user := fmt.Sprintf(`Conduct a thorough risk assessment based on the financial document.
User context: %s

%s
Risk-relevant sections were pre-extracted with the %s tool:
%s

1. Evaluate credit risk, market risk, liquidity risk, and operational risk.
2. Analyze debt ratios, interest coverage, current ratio, and cash reserves.
3. Rate each risk category (Low / Medium / High) with supporting data.`,
		pc.Query, priorFindings(pc), tools.ToolAssessRisks, riskExtract)

	out, err := r.llm.ChatCompletion(ctx, system, user)
	if err != nil {
		return "", eris.Wrap(err, "risk assessment completion")
	}
	return out, nil
}

func (r *Registry) runInvestmentAnalysis(ctx context.Context, pc *Context) (string, error) {
	metricsExtract := tools.ExtractMetrics(pc.DocumentText)

	if !r.llm.IsConfigured() {
		return fmt.Sprintf("%s\n\nDisclaimer: This is automated analysis, not personalized financial advice.",
			metricsExtract), nil
	}

	system := "You are a Certified Investment Advisor, FINRA-registered, with expertise in " +
		"equity valuation, asset allocation, and portfolio construction. You never recommend " +
		"products without disclosing risks, fees, and your reasoning."

	market := r.marketContext(ctx, pc.Query+" industry outlook")
	user := fmt.Sprintf(`Provide investment recommendations based on the financial analysis and risk assessment.
User query: %s

%s
Key financial figures were pre-extracted with the %s tool:
%s

%s
1. Evaluate the company's investment merit: valuation, growth prospects, competitive position.
2. Formulate a clear investment thesis (Buy / Hold / Sell or equivalent).
3. Include appropriate risk disclaimers and suitability considerations.`,
		pc.Query, priorFindings(pc), tools.ToolAnalyzeMetrics, metricsExtract, market)

	out, err := r.llm.ChatCompletion(ctx, system, user)
	if err != nil {
		return "", eris.Wrap(err, "investment analysis completion")
	}
	return out, nil
}

var statementComponents = []struct {
	name     string
	keywords []string
}{
	{"Income statement", []string{"income statement", "statement of operations", "revenue"}},
	{"Balance sheet", []string{"balance sheet", "financial position", "total assets"}},
	{"Cash-flow statement", []string{"cash flow", "cash flows"}},
	{"Notes & disclosures", []string{"notes to", "disclosure"}},
}

// verificationReport is the deterministic verification used when no
// language model is configured: a structural scan over the extracted
// text for standard financial statement components.
func verificationReport(text string) string {
	lower := strings.ToLower(text)
	var found, missing []string
	for _, comp := range statementComponents {
		hit := false
		for _, kw := range comp.keywords {
			if strings.Contains(lower, kw) {
				hit = true
				break
			}
		}
		if hit {
			found = append(found, comp.name)
		} else {
			missing = append(missing, comp.name)
		}
	}

	var b strings.Builder
	b.WriteString("Structural verification of the uploaded document.\n\n")
	if len(found) > 0 {
		b.WriteString("Sections found: " + strings.Join(found, ", ") + "\n")
	}
	if len(missing) > 0 {
		b.WriteString("Sections missing: " + strings.Join(missing, ", ") + "\n")
	}
	if len(found) > 0 {
		b.WriteString("\nVerdict: PASS. The document contains recognizable financial statement components.")
	} else {
		b.WriteString("\nVerdict: FAIL. No standard financial statement components were detected.")
	}
	return b.String()
}
