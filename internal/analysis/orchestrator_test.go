package analysis

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/ternarybob/stockbrief/internal/models"
)

// pipelineLLM routes each prompt to a canned reply by matching a marker
// string from the task instruction. An optional gate blocks the reply until
// released, for exercising in-flight and cancellation behavior.
type pipelineLLM struct {
	mu      sync.Mutex
	replies map[string]*pipelineReply
}

type pipelineReply struct {
	json  string
	err   error
	gate  chan struct{}
	calls int
}

func (l *pipelineLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	prompt := messages[len(messages)-1].Content

	l.mu.Lock()
	var reply *pipelineReply
	for marker, r := range l.replies {
		if strings.Contains(prompt, marker) {
			reply = r
			break
		}
	}
	if reply == nil {
		l.mu.Unlock()
		return "", &SchemaViolationError{Reason: "no scripted reply for prompt"}
	}
	reply.calls++
	gate := reply.gate
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-gate:
		}
	}
	return reply.json, reply.err
}

func (l *pipelineLLM) HealthCheck(ctx context.Context) error { return nil }
func (l *pipelineLLM) Close() error                          { return nil }

func (l *pipelineLLM) callsFor(marker string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replies[marker].calls
}

// memAnalysisStorage is an in-memory AnalysisStorage, one record per ticker.
type memAnalysisStorage struct {
	mu      sync.Mutex
	records map[string]*models.AnalysisRecord
	saveErr error
}

func newMemAnalysisStorage() *memAnalysisStorage {
	return &memAnalysisStorage{records: make(map[string]*models.AnalysisRecord)}
}

func (s *memAnalysisStorage) SaveRecord(ctx context.Context, record *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[record.Ticker] = record
	return nil
}

func (s *memAnalysisStorage) GetRecord(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[ticker], nil
}

func (s *memAnalysisStorage) DeleteRecord(ctx context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, ticker)
	return nil
}

func (s *memAnalysisStorage) ListRecords(ctx context.Context) ([]*models.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AnalysisRecord
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

// stubMarketData returns a fixed bundle or a fixed error.
type stubMarketData struct {
	financials *models.RawFinancials
	err        error
}

func (m *stubMarketData) FetchFinancials(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.financials, nil
}

// pipelineSpecs is a compact four-task graph exercising every settlement
// path: two roots, one dependent task, and the terminal synthesis.
func pipelineSpecs() []TaskSpec {
	return []TaskSpec{
		{
			Name:        models.TaskFinancial,
			Category:    CategoryMarket,
			NewPayload:  func() any { return &models.FinancialData{} },
			Instruction: "Produce the financial extraction payload.",
		},
		{
			Name:        models.TaskRisk,
			Category:    CategoryQualitative,
			NewPayload:  func() any { return &models.RiskAssessment{} },
			Instruction: "Produce the risk assessment payload.",
		},
		{
			Name:        models.TaskRatios,
			Category:    CategoryMarket,
			Requires:    []string{models.TaskFinancial},
			NewPayload:  func() any { return &models.KeyRatios{} },
			Instruction: "Produce the ratio computation payload.",
		},
		{
			Name:        models.TaskDecision,
			Category:    CategoryQualitative,
			Requires:    []string{models.TaskFinancial, models.TaskRisk, models.TaskRatios},
			Terminal:    true,
			NewPayload:  func() any { return &models.FinalRecommendation{} },
			Instruction: "Produce the final recommendation payload.",
		},
	}
}

const (
	markerFinancial = "financial extraction"
	markerRisk      = "risk assessment"
	markerRatios    = "ratio computation"
	markerDecision  = "final recommendation"
)

const validFinancialJSON = `{"ticker":"ACME","revenue":5000,"net_income":600,"total_equity":2500,"total_debt":800,"free_cash_flow":550,"shares_outstanding":100,"fiscal_year":"2025"}`

const validRatiosJSON = `{"ticker":"ACME","roe":24,"net_margin":12,"debt_to_equity":0.32,"current_ratio":1.8,"revenue_growth_3y":9,"quality_score":8,"quality_reasoning":"High returns, low leverage."}`

const validDecisionJSON = `{"ticker":"ACME","recommendation":"BUY","confidence":0.82,"target_price":120,"key_reasons":["quality compounder"],"risks":["cyclicality"],"time_horizon":"3-5 years","overall_score":7.5,"analysis_summary":"Durable business at a fair price."}`

func healthyPipelineLLM() *pipelineLLM {
	return &pipelineLLM{replies: map[string]*pipelineReply{
		markerFinancial: {json: validFinancialJSON},
		markerRisk:      {json: validRiskJSON},
		markerRatios:    {json: validRatiosJSON},
		markerDecision:  {json: validDecisionJSON},
	}}
}

func newPipelineService(t *testing.T, llm interfaces.LLMService, storage interfaces.AnalysisStorage, market interfaces.MarketDataService) *Service {
	return newPipelineServiceWithTimeout(t, llm, storage, market, 5*time.Second)
}

func newPipelineServiceWithTimeout(t *testing.T, llm interfaces.LLMService, storage interfaces.AnalysisStorage, market interfaces.MarketDataService, timeout time.Duration) *Service {
	t.Helper()

	registry, err := NewRegistry(pipelineSpecs())
	require.NoError(t, err)

	logger := arbor.NewLogger()
	return NewService(ServiceOptions{
		Registry:   registry,
		Executor:   NewExecutor(llm, fastRetryConfig(), logger),
		Assembler:  NewAssembler(nil),
		Oracle:     NewFreshnessOracle(),
		MarketData: market,
		Storage:    storage,
		Logger:     logger,
		RunTimeout: timeout,
	})
}

func acmeFinancials() *models.RawFinancials {
	return &models.RawFinancials{
		Ticker:       "ACME",
		CompanyName:  "Acme Corp",
		CurrentPrice: 100,
		Revenue:      5000,
		FetchedAt:    time.Now().UTC(),
	}
}

func TestRunCompletesAndPersists(t *testing.T) {
	storage := newMemAnalysisStorage()
	service := newPipelineService(t, healthyPipelineLLM(), storage, &stubMarketData{financials: acmeFinancials()})

	result, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.Cached)
	assert.False(t, result.AlreadyRunning)

	service.Wait("ACME")

	run := service.GetRun("ACME")
	require.NotNil(t, run)
	assert.Equal(t, models.RunStateCompleted, run.State)
	require.NotNil(t, run.CompletedAt)

	record, err := storage.GetRecord(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, result.RunID, record.RunID)
	assert.False(t, record.Partial)
	assert.Equal(t, models.RecommendationBuy, record.Recommendation)
	assert.InDelta(t, 0.82, record.Confidence, 0.001)
	assert.NotNil(t, record.Financial)
	assert.NotNil(t, record.Risk)
	assert.NotNil(t, record.Ratios)
	assert.NotNil(t, record.Decision)
}

func TestStartAnalysisIdempotentWhileInFlight(t *testing.T) {
	llm := healthyPipelineLLM()
	gate := make(chan struct{})
	llm.replies[markerFinancial].gate = gate

	service := newPipelineService(t, llm, newMemAnalysisStorage(), &stubMarketData{financials: acmeFinancials()})

	first, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotEmpty(t, first.RunID)

	second, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)
	assert.True(t, second.AlreadyRunning)
	assert.Equal(t, first.RunID, second.RunID)

	close(gate)
	service.Wait("ACME")

	run := service.GetRun("ACME")
	assert.Equal(t, models.RunStateCompleted, run.State)
}

func TestStartAnalysisServesCachedRecord(t *testing.T) {
	storage := newMemAnalysisStorage()
	storage.records["ACME"] = &models.AnalysisRecord{
		ID:          "rec-1",
		Ticker:      "ACME",
		GeneratedAt: time.Now().UTC().Add(-time.Hour),
	}

	service := newPipelineService(t, healthyPipelineLLM(), storage, &stubMarketData{financials: acmeFinancials()})

	result, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Empty(t, result.RunID)
	assert.Nil(t, service.GetRun("ACME"))
}

func TestRunFailsWhenMarketDataUnavailable(t *testing.T) {
	storage := newMemAnalysisStorage()
	service := newPipelineService(t, healthyPipelineLLM(), storage, &stubMarketData{err: assert.AnError})

	_, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)

	service.Wait("ACME")

	run := service.GetRun("ACME")
	require.NotNil(t, run)
	assert.Equal(t, models.RunStateFailed, run.State)
	assert.Equal(t, models.FailureDataUnavailable, run.FailureKind)

	record, _ := storage.GetRecord(context.Background(), "ACME")
	assert.Nil(t, record)
}

func TestRiskFailureSettlesPartially(t *testing.T) {
	llm := healthyPipelineLLM()
	llm.replies[markerRisk].json = "not json at all"

	storage := newMemAnalysisStorage()
	service := newPipelineService(t, llm, storage, &stubMarketData{financials: acmeFinancials()})

	_, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)

	service.Wait("ACME")

	run := service.GetRun("ACME")
	assert.Equal(t, models.RunStatePartiallyCompleted, run.State)

	// Schema violations burn the whole retry budget.
	assert.Equal(t, 3, llm.callsFor(markerRisk))

	record, err := storage.GetRecord(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Partial)
	assert.Equal(t, []string{models.TaskRisk}, record.MissingSections)
	assert.Nil(t, record.Risk)
	assert.NotNil(t, record.Decision)
	assert.Equal(t, models.RecommendationBuy, record.Recommendation)
}

func TestDependentTaskSkippedOnUpstreamFailure(t *testing.T) {
	llm := healthyPipelineLLM()
	llm.replies[markerFinancial].err = assert.AnError // permanent, no retry

	storage := newMemAnalysisStorage()
	service := newPipelineService(t, llm, storage, &stubMarketData{financials: acmeFinancials()})

	_, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)

	service.Wait("ACME")

	// ratios never runs: its dependency produced no payload.
	assert.Equal(t, 0, llm.callsFor(markerRatios))

	run := service.GetRun("ACME")
	assert.Equal(t, models.RunStatePartiallyCompleted, run.State)

	record, err := storage.GetRecord(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Partial)
	assert.ElementsMatch(t, []string{models.TaskFinancial, models.TaskRatios}, record.MissingSections)
}

func TestCancelRun(t *testing.T) {
	llm := healthyPipelineLLM()
	gate := make(chan struct{})
	defer close(gate)
	llm.replies[markerFinancial].gate = gate

	storage := newMemAnalysisStorage()
	service := newPipelineService(t, llm, storage, &stubMarketData{financials: acmeFinancials()})

	_, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)

	service.CancelRun("ACME")
	service.Wait("ACME")

	run := service.GetRun("ACME")
	require.NotNil(t, run)
	assert.Equal(t, models.RunStateCancelled, run.State)
	assert.Equal(t, models.FailureCancelled, run.FailureKind)

	record, _ := storage.GetRecord(context.Background(), "ACME")
	assert.Nil(t, record)
}

func TestCancelRunConcurrentWithRunProgress(t *testing.T) {
	// CancelRun reads the run state while the run goroutine transitions it;
	// hammering it during a live run must stay race-free under -race.
	storage := newMemAnalysisStorage()
	service := newPipelineService(t, healthyPipelineLLM(), storage, &stubMarketData{financials: acmeFinancials()})

	_, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			service.CancelRun("ACME")
		}
	}()

	service.Wait("ACME")
	<-done

	run := service.GetRun("ACME")
	require.NotNil(t, run)
	assert.True(t, run.State.Terminal())
}

func TestRunDeadlineFailsWithTimeout(t *testing.T) {
	llm := healthyPipelineLLM()
	gate := make(chan struct{})
	defer close(gate)
	llm.replies[markerFinancial].gate = gate

	storage := newMemAnalysisStorage()
	service := newPipelineServiceWithTimeout(t, llm, storage, &stubMarketData{financials: acmeFinancials()}, 50*time.Millisecond)

	_, err := service.StartAnalysis(context.Background(), "ACME")
	require.NoError(t, err)

	service.Wait("ACME")

	run := service.GetRun("ACME")
	require.NotNil(t, run)
	assert.Equal(t, models.RunStateFailed, run.State)
	assert.Equal(t, models.FailureTimeout, run.FailureKind)

	// In-flight results are discarded, not persisted.
	record, _ := storage.GetRecord(context.Background(), "ACME")
	assert.Nil(t, record)
}

func TestStartAnalysisRejectsInvalidTicker(t *testing.T) {
	service := newPipelineService(t, healthyPipelineLLM(), newMemAnalysisStorage(), &stubMarketData{financials: acmeFinancials()})

	_, err := service.StartAnalysis(context.Background(), "not a ticker!")
	assert.Error(t, err)
}
