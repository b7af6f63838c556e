package analysis

import (
	"github.com/ternarybob/stockbrief/internal/models"
)

const analystSystemPrompt = "You are a senior equity research analyst. " +
	"You answer only with a single JSON object matching the requested schema, " +
	"with no surrounding prose and no markdown fences. Base every figure on " +
	"the supplied data; do not invent precise numbers the data cannot support."

// DefaultTaskSpecs declares the fixed analysis pipeline:
//
//	knowledge
//	financial
//	ratios (financial)                      business  risk  management  industry
//	valuation (financial, ratios)
//	decision (everything)
//
// The layering into concurrent batches is derived by the registry, not
// declared here.
func DefaultTaskSpecs() []TaskSpec {
	return []TaskSpec{
		{
			Name:         models.TaskKnowledge,
			Category:     CategoryQualitative,
			NewPayload:   func() any { return &models.CompanyKnowledge{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Identify the company behind the ticker and summarize what it does.
Respond with a JSON object with fields: ticker (string), company_name (string),
sector (string), industry (string), is_known (bool), needs_full_refresh (bool),
description (string, 2-3 sentences).`,
		},
		{
			Name:         models.TaskFinancial,
			Category:     CategoryMarket,
			NewPayload:   func() any { return &models.FinancialData{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Extract the latest annual financial statement figures from the raw data.
All monetary figures in millions. Respond with a JSON object with fields:
ticker (string), revenue (number >= 0), net_income (number), total_equity (number),
total_debt (number >= 0), free_cash_flow (number), shares_outstanding (number > 0),
fiscal_year (string, e.g. "FY2025").`,
		},
		{
			Name:         models.TaskRatios,
			Category:     CategoryMarket,
			Requires:     []string{models.TaskFinancial},
			NewPayload:   func() any { return &models.KeyRatios{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Compute key financial ratios from the extracted financial statements.
Respond with a JSON object with fields: ticker (string), roe (percent),
net_margin (percent), debt_to_equity (number >= 0), current_ratio (number >= 0),
revenue_growth_3y (percent CAGR), quality_score (number 0-10 rating overall
financial quality), quality_reasoning (string).`,
		},
		{
			Name:         models.TaskBusiness,
			Category:     CategoryQualitative,
			NewPayload:   func() any { return &models.BusinessAnalysis{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Analyze the company's business model and competitive position.
Respond with a JSON object with fields: ticker (string), products_services
(array of strings), competitive_advantages (array of strings), key_competitors
(array of strings), market_position (string), growth_drivers (array of strings),
moat_strength (one of "Wide", "Narrow", "None").`,
		},
		{
			Name:         models.TaskRisk,
			Category:     CategoryQualitative,
			NewPayload:   func() any { return &models.RiskAssessment{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Assess the key investment risks. Score each risk 1 (low) to 10 (high).
Respond with a JSON object with fields: ticker (string), concentration_risk
(integer 1-10), competition_risk (integer 1-10), disruption_risk (integer 1-10),
regulatory_risk (integer 1-10), overall_risk_score (number 1-10, weighted
average), risk_summary (string).`,
		},
		{
			Name:         models.TaskValuation,
			Category:     CategoryMarket,
			Requires:     []string{models.TaskFinancial, models.TaskRatios},
			NewPayload:   func() any { return &models.ValuationMetrics{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Value the company using the extracted financials and ratios.
Respond with a JSON object with fields: ticker (string), current_price (number > 0),
pe_ratio (number), pfcf_ratio (number), pb_ratio (number), ev_revenue (number),
fair_value_estimate (number > 0, per share), upside_downside (percent, positive
means undervalued).`,
		},
		{
			Name:         models.TaskManagement,
			Category:     CategoryQualitative,
			NewPayload:   func() any { return &models.ManagementAnalysis{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Evaluate the management team and corporate governance.
Respond with a JSON object with fields: ticker (string), ceo_name (string),
ceo_tenure_years (integer >= 0), management_quality (integer 1-10),
track_record (string), corporate_governance (integer 1-10).`,
		},
		{
			Name:         models.TaskIndustry,
			Category:     CategoryQualitative,
			NewPayload:   func() any { return &models.IndustryAnalysis{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Analyze the industry the company operates in.
Respond with a JSON object with fields: ticker (string), industry (string),
industry_growth_rate (percent), market_trends (array of strings),
industry_outlook (one of "Growing", "Stable", "Declining"),
regulatory_environment (string).`,
		},
		{
			Name:     models.TaskDecision,
			Category: CategoryMarket,
			Requires: []string{
				models.TaskKnowledge,
				models.TaskFinancial,
				models.TaskRatios,
				models.TaskBusiness,
				models.TaskRisk,
				models.TaskValuation,
				models.TaskManagement,
				models.TaskIndustry,
			},
			Terminal:     true,
			NewPayload:   func() any { return &models.FinalRecommendation{} },
			SystemPrompt: analystSystemPrompt,
			Instruction:  `Synthesize all sections above into a final investment recommendation.
Sections marked "data unavailable" are missing; weigh the remaining evidence
and lower your confidence accordingly rather than refusing to answer.
Respond with a JSON object with fields: ticker (string), recommendation
(one of "BUY", "HOLD", "SELL"), confidence (number 0-1), target_price
(number > 0, 12-month), key_reasons (array of strings), risks (array of
strings), time_horizon (string), overall_score (number 0-10),
analysis_summary (string, executive summary).`,
		},
	}
}
