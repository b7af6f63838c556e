package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/ternarybob/stockbrief/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AnalysisStorage implements the AnalysisStorage interface for Badger.
// One record per ticker, latest wins.
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecord stores the record, replacing any previous record for the same
// ticker so lookups never see two generations at once.
func (s *AnalysisStorage) SaveRecord(ctx context.Context, record *models.AnalysisRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}
	if record.Ticker == "" {
		return fmt.Errorf("record ticker is required")
	}

	if err := s.db.Store().DeleteMatching(&models.AnalysisRecord{},
		badgerhold.Where("Ticker").Eq(record.Ticker).Index("Ticker")); err != nil {
		return fmt.Errorf("failed to clear previous records for %s: %w", record.Ticker, err)
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}

	s.logger.Debug().
		Str("ticker", record.Ticker).
		Str("record_id", record.ID).
		Msg("Analysis record saved")

	return nil
}

// GetRecord returns the latest record for the ticker, or nil if none exists.
func (s *AnalysisStorage) GetRecord(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	var records []models.AnalysisRecord
	query := badgerhold.Where("Ticker").Eq(ticker).Index("Ticker").
		SortBy("GeneratedAt").Reverse().Limit(1)

	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to get analysis record for %s: %w", ticker, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// DeleteRecord removes the record for the ticker. Deleting a missing record
// is not an error.
func (s *AnalysisStorage) DeleteRecord(ctx context.Context, ticker string) error {
	if err := s.db.Store().DeleteMatching(&models.AnalysisRecord{},
		badgerhold.Where("Ticker").Eq(ticker).Index("Ticker")); err != nil {
		return fmt.Errorf("failed to delete analysis record for %s: %w", ticker, err)
	}
	return nil
}

// ListRecords returns all stored records, newest first.
func (s *AnalysisStorage) ListRecords(ctx context.Context) ([]*models.AnalysisRecord, error) {
	var records []models.AnalysisRecord
	query := badgerhold.Where("ID").Ne("").SortBy("GeneratedAt").Reverse()

	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}

	result := make([]*models.AnalysisRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}
