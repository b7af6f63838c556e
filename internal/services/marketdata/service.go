package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/ternarybob/stockbrief/internal/models"
)

const million = 1_000_000

// Service normalizes provider fundamentals into the RawFinancials bundle the
// analysis pipeline consumes. It implements interfaces.MarketDataService.
type Service struct {
	client *Client
	logger arbor.ILogger
}

var _ interfaces.MarketDataService = (*Service)(nil)

// NewService creates a market data service on top of the given client.
func NewService(client *Client, logger arbor.ILogger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// FetchFinancials retrieves and normalizes the fundamentals for a ticker.
// Monetary figures are converted to millions. A ticker without an exchange
// suffix is assumed to be US-listed.
func (s *Service) FetchFinancials(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	symbol := ticker
	if !strings.Contains(symbol, ".") {
		symbol += ".US"
	}

	fundamentals, err := s.client.GetFundamentals(ctx, symbol)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{Symbol: symbol}
		}
		return nil, fmt.Errorf("failed to fetch fundamentals for %s: %w", symbol, err)
	}
	if fundamentals.General == nil {
		return nil, &NotFoundError{Symbol: symbol}
	}

	raw := &models.RawFinancials{
		Ticker:        ticker,
		CompanyName:   fundamentals.General.Name,
		Sector:        fundamentals.General.Sector,
		Industry:      fundamentals.General.Industry,
		Description:   fundamentals.General.Description,
		CurrencyCode:  fundamentals.General.CurrencyCode,
		FiscalYearEnd: fundamentals.General.FiscalYearEnd,
		FetchedAt:     time.Now().UTC(),
	}

	if fundamentals.Highlights != nil {
		raw.MarketCap = fundamentals.Highlights.MarketCapitalizationMln
	}

	if fundamentals.Financials != nil {
		s.applyStatements(raw, fundamentals.Financials)
	}

	if len(fundamentals.OutstandingShares.annualEntries()) > 0 {
		raw.SharesOutstanding = fundamentals.OutstandingShares.annualEntries()[0].SharesMln
	}

	// A missing quote degrades the price, not the whole fetch.
	quote, err := s.client.GetRealTimeQuote(ctx, symbol)
	if err != nil {
		s.logger.Warn().Str("symbol", symbol).Msg("Real-time quote unavailable: " + err.Error())
		if raw.SharesOutstanding > 0 && raw.MarketCap > 0 {
			raw.CurrentPrice = raw.MarketCap / raw.SharesOutstanding
		}
	} else {
		raw.CurrentPrice = quote.Close
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Str("company", raw.CompanyName).
		Float64("price", raw.CurrentPrice).
		Msg("Fundamentals fetched")

	return raw, nil
}

// applyStatements maps the latest yearly statement entries onto the bundle
// and builds the annual revenue history, oldest first.
func (s *Service) applyStatements(raw *models.RawFinancials, financials *Financials) {
	if income := financials.IncomeStatement; income != nil {
		if latest := income.latestYearly(); latest != nil {
			raw.Revenue = statementValue(latest, "totalRevenue") / million
			raw.NetIncome = statementValue(latest, "netIncome") / million
		}
		for _, year := range income.yearlyKeys() {
			if revenue := statementValue(income.Yearly[year], "totalRevenue"); revenue > 0 {
				raw.RevenueHistory = append(raw.RevenueHistory, revenue/million)
			}
		}
	}

	if balance := financials.BalanceSheet; balance != nil {
		if latest := balance.latestYearly(); latest != nil {
			raw.TotalEquity = statementValue(latest, "totalStockholderEquity") / million
			raw.TotalDebt = statementValue(latest, "shortLongTermDebtTotal") / million
			raw.CurrentAssets = statementValue(latest, "totalCurrentAssets") / million
			raw.CurrentLiabilities = statementValue(latest, "totalCurrentLiabilities") / million
			if raw.SharesOutstanding == 0 {
				raw.SharesOutstanding = statementValue(latest, "commonStockSharesOutstanding") / million
			}
		}
	}

	if cashFlow := financials.CashFlow; cashFlow != nil {
		if latest := cashFlow.latestYearly(); latest != nil {
			raw.FreeCashFlow = statementValue(latest, "freeCashFlow") / million
			raw.OperatingCashFlow = statementValue(latest, "totalCashFromOperatingActivities") / million
		}
	}
}

// annualEntries is a nil-safe accessor for the annual share counts, newest
// first as the API delivers them.
func (o *OutstandingShares) annualEntries() []SharesEntry {
	if o == nil {
		return nil
	}
	return o.Annual
}
