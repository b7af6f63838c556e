// -----------------------------------------------------------------------
// Analysis domain models - raw financials, task results, analysis records
// -----------------------------------------------------------------------

package models

import (
	"time"
)

// Recommendation is the terminal investment call for a ticker.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationHold Recommendation = "HOLD"
	RecommendationSell Recommendation = "SELL"
)

// FailureKind classifies why a task or run failed.
type FailureKind string

const (
	FailureTransient           FailureKind = "transient"
	FailureSchemaViolation     FailureKind = "schema_violation"
	FailureUpstreamUnavailable FailureKind = "upstream_unavailable"
	FailureDataUnavailable     FailureKind = "data_unavailable"
	FailureTimeout             FailureKind = "timeout"
	FailureCancelled           FailureKind = "cancelled"
)

// RawFinancials is the normalized market-data bundle fetched once per run and
// shared read-only by every task. It never outlives the run that fetched it.
type RawFinancials struct {
	Ticker            string    `json:"ticker"`
	CompanyName       string    `json:"company_name"`
	Sector            string    `json:"sector"`
	Industry          string    `json:"industry"`
	Description       string    `json:"description"`
	CurrencyCode      string    `json:"currency_code"`
	CurrentPrice      float64   `json:"current_price"`
	MarketCap         float64   `json:"market_cap"`
	Revenue           float64   `json:"revenue"`
	NetIncome         float64   `json:"net_income"`
	TotalEquity       float64   `json:"total_equity"`
	TotalDebt         float64   `json:"total_debt"`
	FreeCashFlow      float64   `json:"free_cash_flow"`
	OperatingCashFlow float64   `json:"operating_cash_flow"`
	CurrentAssets     float64   `json:"current_assets"`
	CurrentLiabilities float64  `json:"current_liabilities"`
	SharesOutstanding float64   `json:"shares_outstanding"`
	RevenueHistory    []float64 `json:"revenue_history,omitempty"` // oldest first, annual, millions
	FiscalYearEnd     string    `json:"fiscal_year_end"`
	FetchedAt         time.Time `json:"fetched_at"`
}

// TaskFailure describes why a task produced no payload.
type TaskFailure struct {
	Kind     FailureKind `json:"kind"`
	Message  string      `json:"message"`
	Attempts int         `json:"attempts"`
}

// TaskResult is the settled outcome of running one task inside one run.
// Either Payload or Failure is set, never both. Results are written once by
// the producing task and read-only afterwards.
type TaskResult struct {
	Task        string        `json:"task"`
	Payload     any           `json:"payload,omitempty"`
	Failure     *TaskFailure  `json:"failure,omitempty"`
	Attempts    int           `json:"attempts"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Succeeded reports whether the task produced a validated payload.
func (r TaskResult) Succeeded() bool {
	return r.Failure == nil && r.Payload != nil
}

// AnalysisRecord is the persisted composite result of one run. One record per
// ticker, latest wins. Immutable once saved except for wholesale replacement.
type AnalysisRecord struct {
	ID              string         `json:"id" badgerhold:"key"`
	Ticker          string         `json:"ticker" badgerhold:"index"`
	RunID           string         `json:"run_id"`
	Recommendation  Recommendation `json:"recommendation"`
	Confidence      float64        `json:"confidence"`
	OverallScore    float64        `json:"overall_score"`
	TargetPrice     float64        `json:"target_price"`
	Partial         bool           `json:"partial"`
	MissingSections []string       `json:"missing_sections,omitempty"`

	Knowledge  *CompanyKnowledge    `json:"knowledge,omitempty"`
	Financial  *FinancialData       `json:"financial,omitempty"`
	Ratios     *KeyRatios           `json:"ratios,omitempty"`
	Business   *BusinessAnalysis    `json:"business,omitempty"`
	Risk       *RiskAssessment      `json:"risk,omitempty"`
	Valuation  *ValuationMetrics    `json:"valuation,omitempty"`
	Management *ManagementAnalysis  `json:"management,omitempty"`
	Industry   *IndustryAnalysis    `json:"industry,omitempty"`
	Decision   *FinalRecommendation `json:"decision,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// HasSection reports whether the named section carries a payload.
func (r *AnalysisRecord) HasSection(name string) bool {
	switch name {
	case TaskKnowledge:
		return r.Knowledge != nil
	case TaskFinancial:
		return r.Financial != nil
	case TaskRatios:
		return r.Ratios != nil
	case TaskBusiness:
		return r.Business != nil
	case TaskRisk:
		return r.Risk != nil
	case TaskValuation:
		return r.Valuation != nil
	case TaskManagement:
		return r.Management != nil
	case TaskIndustry:
		return r.Industry != nil
	case TaskDecision:
		return r.Decision != nil
	}
	return false
}

// Task names double as section keys in the AnalysisRecord.
const (
	TaskKnowledge  = "knowledge"
	TaskFinancial  = "financial"
	TaskRatios     = "ratios"
	TaskBusiness   = "business"
	TaskRisk       = "risk"
	TaskValuation  = "valuation"
	TaskManagement = "management"
	TaskIndustry   = "industry"
	TaskDecision   = "decision"
)
