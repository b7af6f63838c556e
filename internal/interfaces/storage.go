package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/stockbrief/internal/models"
)

// AnalysisStorage persists one AnalysisRecord per ticker, latest wins.
type AnalysisStorage interface {
	// SaveRecord stores the record, replacing any previous record for the
	// same ticker.
	SaveRecord(ctx context.Context, record *models.AnalysisRecord) error

	// GetRecord returns the latest record for the ticker, or nil if none
	// exists.
	GetRecord(ctx context.Context, ticker string) (*models.AnalysisRecord, error)

	// DeleteRecord removes the record for the ticker. Deleting a missing
	// record is not an error.
	DeleteRecord(ctx context.Context, ticker string) error

	// ListRecords returns all stored records, newest first.
	ListRecords(ctx context.Context) ([]*models.AnalysisRecord, error)
}

// WatchlistEntry is a ticker the scheduler keeps analyses fresh for.
type WatchlistEntry struct {
	Ticker  string    `json:"ticker" badgerhold:"key"`
	AddedAt time.Time `json:"added_at"`
}

// WatchlistStorage persists the set of tickers under scheduled refresh.
type WatchlistStorage interface {
	AddTicker(ctx context.Context, ticker string) error
	RemoveTicker(ctx context.Context, ticker string) error
	ListTickers(ctx context.Context) ([]WatchlistEntry, error)
}

// StorageManager provides access to all storage services
type StorageManager interface {
	AnalysisStorage() AnalysisStorage
	WatchlistStorage() WatchlistStorage
	Close() error
}
