package interfaces

import (
	"context"

	"github.com/ternarybob/stockbrief/internal/models"
)

// StartResult is the outcome of a StartAnalysis call.
type StartResult struct {
	// RunID identifies the in-flight or newly created run. Empty when the
	// cached record was fresh and no run was started.
	RunID string `json:"run_id,omitempty"`

	// Cached is true when a fresh stored record made a new run unnecessary.
	Cached bool `json:"cached"`

	// AlreadyRunning is true when an existing in-flight run was returned
	// instead of starting a duplicate.
	AlreadyRunning bool `json:"already_running"`
}

// AnalysisService runs the analysis pipeline and serves its results.
type AnalysisService interface {
	// StartAnalysis begins an analysis run for the ticker. Idempotent while
	// a run for the ticker is in flight: the existing run ID is returned.
	// When the stored record is still fresh no run is started.
	StartAnalysis(ctx context.Context, ticker string) (StartResult, error)

	// GetRecord returns the latest persisted AnalysisRecord for the ticker,
	// or nil if none exists.
	GetRecord(ctx context.Context, ticker string) (*models.AnalysisRecord, error)

	// GetRun returns the current or most recent run for the ticker, or nil.
	GetRun(ticker string) *models.Run

	// CancelRun cancels an in-flight run for the ticker. Cancelling when no
	// run is in flight is not an error.
	CancelRun(ticker string)
}
