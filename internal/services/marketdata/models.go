package marketdata

import (
	"sort"
	"strconv"
)

// FundamentalsResponse represents the fundamentals data for a symbol,
// trimmed to the parts the analysis pipeline consumes.
type FundamentalsResponse struct {
	General           *GeneralInfo       `json:"General"`
	Highlights        *Highlights        `json:"Highlights"`
	OutstandingShares *OutstandingShares `json:"outstandingShares"`
	Financials        *Financials        `json:"Financials"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code          string `json:"Code"`
	Name          string `json:"Name"`
	Exchange      string `json:"Exchange"`
	CurrencyCode  string `json:"CurrencyCode"`
	FiscalYearEnd string `json:"FiscalYearEnd"`
	Sector        string `json:"Sector"`
	Industry      string `json:"Industry"`
	Description   string `json:"Description"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization    float64 `json:"MarketCapitalization"`
	MarketCapitalizationMln float64 `json:"MarketCapitalizationMln"`
	RevenueTTM              float64 `json:"RevenueTTM"`
	ProfitMargin            float64 `json:"ProfitMargin"`
	ReturnOnEquityTTM       float64 `json:"ReturnOnEquityTTM"`
	EarningsShare           float64 `json:"EarningsShare"`
}

// OutstandingShares contains outstanding shares information.
type OutstandingShares struct {
	Annual []SharesEntry `json:"annual"`
}

// SharesEntry represents a single entry in outstanding shares.
type SharesEntry struct {
	Date      string  `json:"date"`
	SharesMln float64 `json:"sharesMln"`
	Shares    int64   `json:"shares"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement holds yearly statement entries keyed by date
// ("2025-06-30"). Numeric values arrive as JSON strings, so entries stay
// untyped and are read through statementValue.
type FinancialStatement struct {
	Currency string                            `json:"currency"`
	Yearly   map[string]map[string]interface{} `json:"yearly"`
}

// Quote represents a real-time price quote.
type Quote struct {
	Code      string  `json:"code"`
	Close     float64 `json:"close"`
	Timestamp int64   `json:"timestamp"`
}

// latestYearly returns the most recent yearly entry of the statement, or nil.
func (s *FinancialStatement) latestYearly() map[string]interface{} {
	keys := s.yearlyKeys()
	if len(keys) == 0 {
		return nil
	}
	return s.Yearly[keys[len(keys)-1]]
}

// yearlyKeys returns the statement's year keys sorted ascending. Date-keyed
// maps sort correctly as strings.
func (s *FinancialStatement) yearlyKeys() []string {
	if s == nil || len(s.Yearly) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.Yearly))
	for k := range s.Yearly {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// statementValue reads one numeric field from a statement entry. The API
// serializes statement figures as strings; numbers are accepted too.
func statementValue(entry map[string]interface{}, key string) float64 {
	if entry == nil {
		return 0
	}
	switch v := entry[key].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	}
	return 0
}
