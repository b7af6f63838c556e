package interfaces

import (
	"context"

	"github.com/ternarybob/stockbrief/internal/models"
)

// MarketDataService is the data acquisition adapter. It supplies the raw
// financial statement and market data bundle consumed by every task in a run.
type MarketDataService interface {
	// FetchFinancials retrieves fundamentals and market data for a ticker.
	// Returns a NotFound error for unknown tickers and an upstream error
	// when the provider is unavailable.
	FetchFinancials(ctx context.Context, ticker string) (*models.RawFinancials, error)
}
