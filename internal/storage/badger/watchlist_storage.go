package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// WatchlistStorage implements the WatchlistStorage interface for Badger.
type WatchlistStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWatchlistStorage creates a new WatchlistStorage instance
func NewWatchlistStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WatchlistStorage {
	return &WatchlistStorage{
		db:     db,
		logger: logger,
	}
}

// AddTicker adds a ticker to the watchlist. Re-adding is a no-op.
func (s *WatchlistStorage) AddTicker(ctx context.Context, ticker string) error {
	entry := interfaces.WatchlistEntry{
		Ticker:  ticker,
		AddedAt: time.Now().UTC(),
	}

	if err := s.db.Store().Upsert(ticker, &entry); err != nil {
		return fmt.Errorf("failed to add ticker %s to watchlist: %w", ticker, err)
	}

	s.logger.Debug().Str("ticker", ticker).Msg("Ticker added to watchlist")
	return nil
}

// RemoveTicker removes a ticker from the watchlist. Removing a missing
// ticker is not an error.
func (s *WatchlistStorage) RemoveTicker(ctx context.Context, ticker string) error {
	err := s.db.Store().Delete(ticker, &interfaces.WatchlistEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to remove ticker %s from watchlist: %w", ticker, err)
	}
	return nil
}

// ListTickers returns all watchlist entries sorted by ticker.
func (s *WatchlistStorage) ListTickers(ctx context.Context) ([]interfaces.WatchlistEntry, error) {
	var entries []interfaces.WatchlistEntry
	query := badgerhold.Where("Ticker").Ne("").SortBy("Ticker")

	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	return entries, nil
}
