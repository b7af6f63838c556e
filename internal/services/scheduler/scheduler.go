// Package scheduler keeps watchlist analyses fresh on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
)

// Service runs the periodic watchlist refresh. Each tick asks the analysis
// service to start a run per watched ticker; the freshness check inside
// StartAnalysis keeps still-fresh tickers from burning invocations.
type Service struct {
	analysis  interfaces.AnalysisService
	watchlist interfaces.WatchlistStorage
	cron      *cron.Cron
	logger    arbor.ILogger
	schedule  string

	mu         sync.Mutex
	running    bool
	refreshing bool
}

// NewService creates a new scheduler service.
func NewService(analysis interfaces.AnalysisService, watchlist interfaces.WatchlistStorage, schedule string, logger arbor.ILogger) *Service {
	return &Service{
		analysis:  analysis,
		watchlist: watchlist,
		cron:      cron.New(),
		logger:    logger,
		schedule:  schedule,
	}
}

// Start begins the scheduler.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.refreshWatchlist); err != nil {
		return fmt.Errorf("failed to add watchlist refresh job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", s.schedule).Msg("Watchlist scheduler started")
	return nil
}

// Stop halts the scheduler and waits for an in-progress tick to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info().Msg("Watchlist scheduler stopped")
}

// refreshWatchlist starts an analysis run for every watched ticker. Ticks
// that overlap a still-running refresh are skipped.
func (s *Service) refreshWatchlist() {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Skipping watchlist refresh: previous refresh still running")
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := s.watchlist.ListTickers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list watchlist for refresh")
		return
	}
	if len(entries) == 0 {
		return
	}

	started, cached := 0, 0
	for _, entry := range entries {
		result, err := s.analysis.StartAnalysis(ctx, entry.Ticker)
		if err != nil {
			s.logger.Warn().Str("ticker", entry.Ticker).Msg("Watchlist refresh failed to start run: " + err.Error())
			continue
		}
		if result.Cached {
			cached++
			continue
		}
		started++
	}

	s.logger.Info().
		Int("tickers", len(entries)).
		Int("started", started).
		Int("cached", cached).
		Msg("Watchlist refresh tick completed")
}
