// -----------------------------------------------------------------------
// Task payload schemas - typed output structures for each analysis task
// All fields are validated using go-playground/validator tags.
// -----------------------------------------------------------------------

package models

// CompanyKnowledge is the output of the knowledge pre-check task.
type CompanyKnowledge struct {
	Ticker           string `json:"ticker" validate:"required"`
	CompanyName      string `json:"company_name" validate:"required"`
	Sector           string `json:"sector" validate:"required"`
	Industry         string `json:"industry" validate:"required"`
	IsKnown          bool   `json:"is_known"`
	NeedsFullRefresh bool   `json:"needs_full_refresh"`
	Description      string `json:"description" validate:"required"`
}

// FinancialData is the output of the financial statement extraction task.
// Monetary figures are in millions.
type FinancialData struct {
	Ticker            string  `json:"ticker" validate:"required"`
	Revenue           float64 `json:"revenue" validate:"gte=0"`
	NetIncome         float64 `json:"net_income"`
	TotalEquity       float64 `json:"total_equity"`
	TotalDebt         float64 `json:"total_debt" validate:"gte=0"`
	FreeCashFlow      float64 `json:"free_cash_flow"`
	SharesOutstanding float64 `json:"shares_outstanding" validate:"gt=0"`
	FiscalYear        string  `json:"fiscal_year" validate:"required"`
}

// KeyRatios is the output of the ratio computation task.
type KeyRatios struct {
	Ticker           string  `json:"ticker" validate:"required"`
	ROE              float64 `json:"roe"`
	NetMargin        float64 `json:"net_margin"`
	DebtToEquity     float64 `json:"debt_to_equity" validate:"gte=0"`
	CurrentRatio     float64 `json:"current_ratio" validate:"gte=0"`
	RevenueGrowth3Y  float64 `json:"revenue_growth_3y"`
	QualityScore     float64 `json:"quality_score" validate:"gte=0,lte=10"`
	QualityReasoning string  `json:"quality_reasoning" validate:"required"`
}

// BusinessAnalysis is the output of the business research task.
type BusinessAnalysis struct {
	Ticker                string   `json:"ticker" validate:"required"`
	ProductsServices      []string `json:"products_services" validate:"required,min=1"`
	CompetitiveAdvantages []string `json:"competitive_advantages" validate:"required,min=1"`
	KeyCompetitors        []string `json:"key_competitors" validate:"required,min=1"`
	MarketPosition        string   `json:"market_position" validate:"required"`
	GrowthDrivers         []string `json:"growth_drivers" validate:"required,min=1"`
	MoatStrength          string   `json:"moat_strength" validate:"required,oneof=Wide Narrow None"`
}

// RiskAssessment is the output of the risk analysis task.
// Individual risk scores run 1 (low risk) to 10 (high risk).
type RiskAssessment struct {
	Ticker            string  `json:"ticker" validate:"required"`
	ConcentrationRisk int     `json:"concentration_risk" validate:"min=1,max=10"`
	CompetitionRisk   int     `json:"competition_risk" validate:"min=1,max=10"`
	DisruptionRisk    int     `json:"disruption_risk" validate:"min=1,max=10"`
	RegulatoryRisk    int     `json:"regulatory_risk" validate:"min=1,max=10"`
	OverallRiskScore  float64 `json:"overall_risk_score" validate:"gte=1,lte=10"`
	RiskSummary       string  `json:"risk_summary" validate:"required"`
}

// ValuationMetrics is the output of the valuation task.
type ValuationMetrics struct {
	Ticker            string  `json:"ticker" validate:"required"`
	CurrentPrice      float64 `json:"current_price" validate:"gt=0"`
	PERatio           float64 `json:"pe_ratio"`
	PFCFRatio         float64 `json:"pfcf_ratio"`
	PBRatio           float64 `json:"pb_ratio"`
	EVRevenue         float64 `json:"ev_revenue"`
	FairValueEstimate float64 `json:"fair_value_estimate" validate:"gt=0"`
	UpsideDownside    float64 `json:"upside_downside"`
}

// ManagementAnalysis is the output of the management assessment task.
type ManagementAnalysis struct {
	Ticker              string `json:"ticker" validate:"required"`
	CEOName             string `json:"ceo_name" validate:"required"`
	CEOTenureYears      int    `json:"ceo_tenure_years" validate:"gte=0"`
	ManagementQuality   int    `json:"management_quality" validate:"min=1,max=10"`
	TrackRecord         string `json:"track_record" validate:"required"`
	CorporateGovernance int    `json:"corporate_governance" validate:"min=1,max=10"`
}

// IndustryAnalysis is the output of the industry trends task.
type IndustryAnalysis struct {
	Ticker                string   `json:"ticker" validate:"required"`
	Industry              string   `json:"industry" validate:"required"`
	IndustryGrowthRate    float64  `json:"industry_growth_rate"`
	MarketTrends          []string `json:"market_trends" validate:"required,min=1"`
	IndustryOutlook       string   `json:"industry_outlook" validate:"required,oneof=Growing Stable Declining"`
	RegulatoryEnvironment string   `json:"regulatory_environment" validate:"required"`
}

// FinalRecommendation is the output of the terminal synthesis task.
type FinalRecommendation struct {
	Ticker          string   `json:"ticker" validate:"required"`
	Recommendation  string   `json:"recommendation" validate:"required,oneof=BUY HOLD SELL"`
	Confidence      float64  `json:"confidence" validate:"gte=0,lte=1"`
	TargetPrice     float64  `json:"target_price" validate:"gt=0"`
	KeyReasons      []string `json:"key_reasons" validate:"required,min=1"`
	Risks           []string `json:"risks" validate:"required,min=1"`
	TimeHorizon     string   `json:"time_horizon" validate:"required"`
	OverallScore    float64  `json:"overall_score" validate:"gte=0,lte=10"`
	AnalysisSummary string   `json:"analysis_summary" validate:"required"`
}
