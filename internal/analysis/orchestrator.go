package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/common"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/ternarybob/stockbrief/internal/models"
)

// Service orchestrates analysis runs: admission, the batch-by-batch pipeline,
// partial-failure settlement and persistence of the assembled record. At most
// one run per ticker is in flight at any time.
type Service struct {
	registry   *Registry
	executor   *Executor
	assembler  *Assembler
	oracle     *FreshnessOracle
	marketData interfaces.MarketDataService
	storage    interfaces.AnalysisStorage
	logger     arbor.ILogger

	runTimeout    time.Duration
	maxConcurrent int

	mu   sync.Mutex
	runs map[string]*runHandle
}

// runHandle tracks one in-flight or settled run for a ticker.
type runHandle struct {
	run    *models.Run
	cancel context.CancelFunc
	done   chan struct{}
}

// ServiceOptions wires the orchestrator's collaborators and tuning.
type ServiceOptions struct {
	Registry   *Registry
	Executor   *Executor
	Assembler  *Assembler
	Oracle     *FreshnessOracle
	MarketData interfaces.MarketDataService
	Storage    interfaces.AnalysisStorage
	Logger     arbor.ILogger

	// RunTimeout bounds one whole run. Zero disables the deadline.
	RunTimeout time.Duration

	// MaxConcurrent caps concurrent task invocations within a batch.
	// Zero means the batch width is the only bound.
	MaxConcurrent int
}

// NewService creates the orchestration service.
func NewService(opts ServiceOptions) *Service {
	return &Service{
		registry:      opts.Registry,
		executor:      opts.Executor,
		assembler:     opts.Assembler,
		oracle:        opts.Oracle,
		marketData:    opts.MarketData,
		storage:       opts.Storage,
		logger:        opts.Logger,
		runTimeout:    opts.RunTimeout,
		maxConcurrent: opts.MaxConcurrent,
		runs:          make(map[string]*runHandle),
	}
}

var _ interfaces.AnalysisService = (*Service)(nil)

// StartAnalysis admits a run for the ticker. While a run for the same ticker
// is in flight the existing run ID is returned instead of starting another.
// A stored record that the freshness oracle still accepts short-circuits the
// call without starting a run.
func (s *Service) StartAnalysis(ctx context.Context, ticker string) (interfaces.StartResult, error) {
	ticker, err := common.ValidateTicker(ticker)
	if err != nil {
		return interfaces.StartResult{}, err
	}

	s.mu.Lock()
	if handle, ok := s.runs[ticker]; ok && !handle.run.State.Terminal() {
		runID := handle.run.ID
		s.mu.Unlock()
		s.logger.Info().Str("ticker", ticker).Str("run_id", runID).Msg("Analysis already in flight")
		return interfaces.StartResult{RunID: runID, AlreadyRunning: true}, nil
	}
	s.mu.Unlock()

	record, err := s.storage.GetRecord(ctx, ticker)
	if err != nil {
		return interfaces.StartResult{}, fmt.Errorf("failed to load stored analysis for %s: %w", ticker, err)
	}

	regenerate, reason := s.oracle.ShouldRegenerate(record, s.registry.Specs(), time.Now())
	if !regenerate {
		s.logger.Info().Str("ticker", ticker).Msg("Serving cached analysis: " + reason)
		return interfaces.StartResult{Cached: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the lock: another caller may have won the race.
	if handle, ok := s.runs[ticker]; ok && !handle.run.State.Terminal() {
		return interfaces.StartResult{RunID: handle.run.ID, AlreadyRunning: true}, nil
	}

	run := &models.Run{
		ID:        common.NewRunID(),
		Ticker:    ticker,
		State:     models.RunStatePending,
		StartedAt: time.Now().UTC(),
	}

	runCtx := context.Background()
	cancel := context.CancelFunc(func() {})
	if s.runTimeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, s.runTimeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}

	handle := &runHandle{
		run:    run,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.runs[ticker] = handle

	s.logger.Info().Str("ticker", ticker).Str("run_id", run.ID).Msg("Starting analysis run: " + reason)

	go s.executeRun(runCtx, handle)

	return interfaces.StartResult{RunID: run.ID}, nil
}

// GetRecord returns the latest persisted record for the ticker, or nil.
func (s *Service) GetRecord(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	ticker, err := common.ValidateTicker(ticker)
	if err != nil {
		return nil, err
	}
	return s.storage.GetRecord(ctx, ticker)
}

// GetRun returns a snapshot of the current or most recent run for the
// ticker, or nil when none is known.
func (s *Service) GetRun(ticker string) *models.Run {
	ticker = common.NormalizeTicker(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.runs[ticker]
	if !ok {
		return nil
	}
	snapshot := *handle.run
	return &snapshot
}

// CancelRun cancels an in-flight run for the ticker. A no-op when nothing is
// running.
func (s *Service) CancelRun(ticker string) {
	ticker = common.NormalizeTicker(ticker)

	// The run state and ID are written by the run goroutine under s.mu, so
	// both reads must happen inside the locked section.
	s.mu.Lock()
	handle, ok := s.runs[ticker]
	if !ok || handle.run.State.Terminal() {
		s.mu.Unlock()
		return
	}
	runID := handle.run.ID
	cancel := handle.cancel
	s.mu.Unlock()

	s.logger.Info().Str("ticker", ticker).Str("run_id", runID).Msg("Cancelling analysis run")
	cancel()
}

// Wait blocks until the ticker's current run settles. Primarily for the
// scheduler and tests; HTTP callers poll the run status instead.
func (s *Service) Wait(ticker string) {
	ticker = common.NormalizeTicker(ticker)

	s.mu.Lock()
	handle, ok := s.runs[ticker]
	s.mu.Unlock()

	if ok {
		<-handle.done
	}
}

// executeRun drives one run end to end: fetch the shared financial bundle,
// execute the dependency batches, settle the terminal task and persist the
// assembled record.
func (s *Service) executeRun(ctx context.Context, handle *runHandle) {
	defer close(handle.done)
	defer handle.cancel()

	run := handle.run
	ticker := run.Ticker
	s.setState(run, models.RunStateRunning)

	financials, err := s.marketData.FetchFinancials(ctx, ticker)
	if err != nil {
		s.logger.Warn().Str("ticker", ticker).Str("run_id", run.ID).
			Msg("Market data fetch failed: " + err.Error())
		s.finishFailed(run, models.FailureDataUnavailable, fmt.Sprintf("market data unavailable: %v", err))
		return
	}

	results := make(map[string]models.TaskResult)
	var resultsMu sync.Mutex

	var sem chan struct{}
	if s.maxConcurrent > 0 {
		sem = make(chan struct{}, s.maxConcurrent)
	}

	for _, batch := range s.registry.TopologicalBatches() {
		if ctx.Err() != nil {
			s.finishInterrupted(run, ctx)
			return
		}

		// Dependencies always sit in strictly earlier batches, so a snapshot
		// taken between batches is a complete, stable view for every task in
		// this one.
		settled := make(map[string]models.TaskResult, len(results))
		for name, result := range results {
			settled[name] = result
		}

		var wg sync.WaitGroup
		for _, spec := range batch {
			// Non-terminal tasks with a failed dependency settle without an
			// invocation. The terminal task runs regardless and degrades on
			// whatever survived.
			if !spec.Terminal {
				if failed, dep := failedDependency(spec, settled); failed {
					resultsMu.Lock()
					results[spec.Name] = models.TaskResult{
						Task: spec.Name,
						Failure: &models.TaskFailure{
							Kind:    models.FailureUpstreamUnavailable,
							Message: fmt.Sprintf("required task %q did not produce a payload", dep),
						},
						CompletedAt: time.Now().UTC(),
					}
					resultsMu.Unlock()
					continue
				}
			}

			wg.Add(1)
			go func(spec TaskSpec) {
				defer wg.Done()

				if sem != nil {
					sem <- struct{}{}
					defer func() { <-sem }()
				}

				tctx := NewTaskContext(ticker, financials, spec, settled)
				result := s.executor.Run(ctx, spec, tctx)

				resultsMu.Lock()
				results[spec.Name] = result
				resultsMu.Unlock()
			}(spec)
		}
		wg.Wait()
	}

	if ctx.Err() != nil {
		s.finishInterrupted(run, ctx)
		return
	}

	terminal := s.registry.Terminal()
	decision, ok := results[terminal.Name]
	if !ok || !decision.Succeeded() {
		kind := models.FailureUpstreamUnavailable
		message := "terminal task produced no result"
		if ok && decision.Failure != nil {
			kind = decision.Failure.Kind
			message = decision.Failure.Message
		}
		s.finishFailed(run, kind, message)
		return
	}

	record := s.assembler.Assemble(ticker, run.ID, s.registry.Specs(), results)

	// Persist with a fresh context: the run deadline must not lose a
	// completed analysis.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.SaveRecord(saveCtx, record); err != nil {
		s.logger.Error().Str("ticker", ticker).Str("run_id", run.ID).
			Msg("Failed to persist analysis record: " + err.Error())
		s.finishFailed(run, models.FailureTransient, fmt.Sprintf("failed to persist record: %v", err))
		return
	}

	state := models.RunStateCompleted
	if record.Partial {
		state = models.RunStatePartiallyCompleted
	}
	s.finish(run, state)

	s.logger.Info().
		Str("ticker", ticker).
		Str("run_id", run.ID).
		Str("state", string(state)).
		Str("recommendation", string(record.Recommendation)).
		Msg("Analysis run settled")
}

// failedDependency reports whether any declared dependency of the spec is
// missing or failed, and names the first offender.
func failedDependency(spec TaskSpec, results map[string]models.TaskResult) (bool, string) {
	for _, dep := range spec.Requires {
		result, ok := results[dep]
		if !ok || !result.Succeeded() {
			return true, dep
		}
	}
	return false, ""
}

func (s *Service) setState(run *models.Run, state models.RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.State = state
}

func (s *Service) finish(run *models.Run, state models.RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	run.State = state
	run.CompletedAt = &now
}

func (s *Service) finishFailed(run *models.Run, kind models.FailureKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	run.State = models.RunStateFailed
	run.FailureKind = kind
	run.Error = message
	run.CompletedAt = &now
}

// finishInterrupted settles a run whose context ended mid-pipeline: a blown
// deadline fails the run with a timeout, an explicit cancel marks it
// cancelled.
func (s *Service) finishInterrupted(run *models.Run, ctx context.Context) {
	if ctx.Err() == context.DeadlineExceeded {
		s.finishFailed(run, models.FailureTimeout, fmt.Sprintf("run exceeded deadline of %s", s.runTimeout))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	run.State = models.RunStateCancelled
	run.FailureKind = models.FailureCancelled
	run.Error = "run cancelled"
	run.CompletedAt = &now
}
