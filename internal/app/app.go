// Package app wires configuration, storage, services and handlers into one
// running application.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/analysis"
	"github.com/ternarybob/stockbrief/internal/common"
	"github.com/ternarybob/stockbrief/internal/handlers"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/ternarybob/stockbrief/internal/services/llm"
	"github.com/ternarybob/stockbrief/internal/services/marketdata"
	"github.com/ternarybob/stockbrief/internal/services/scheduler"
	"github.com/ternarybob/stockbrief/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	LLMService        interfaces.LLMService
	MarketDataService interfaces.MarketDataService
	AnalysisService   interfaces.AnalysisService
	SchedulerService  *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AnalysisHandler  *handlers.AnalysisHandler
	WatchlistHandler *handlers.WatchlistHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if cfg.Scheduler.Enabled {
		if err := app.SchedulerService.Start(); err != nil {
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.Provider)).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices builds the analysis pipeline: LLM backend, market data
// client, task registry, executor, and the orchestration service.
func (a *App) initServices() error {
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	a.LLMService = llmService

	clientOpts := []marketdata.ClientOption{
		marketdata.WithLogger(a.Logger),
	}
	if a.Config.MarketData.BaseURL != "" {
		clientOpts = append(clientOpts, marketdata.WithBaseURL(a.Config.MarketData.BaseURL))
	}
	if a.Config.MarketData.RateLimit > 0 {
		clientOpts = append(clientOpts, marketdata.WithRateLimit(a.Config.MarketData.RateLimit))
	}
	client := marketdata.NewClient(a.Config.MarketData.APIKey, clientOpts...)
	a.MarketDataService = marketdata.NewService(client, a.Logger)

	registry, err := analysis.NewRegistry(analysis.DefaultTaskSpecs())
	if err != nil {
		return fmt.Errorf("invalid task configuration: %w", err)
	}

	retryConfig := analysis.NewDefaultRetryConfig()
	retryConfig.MaxRetries = a.Config.Analysis.MaxRetries
	retryConfig.InitialBackoff = common.MustDuration(a.Config.Analysis.InitialBackoff)

	oracle := analysis.NewFreshnessOracle()
	oracle.MarketMaxAge = common.MustDuration(a.Config.Analysis.MarketStaleness)
	oracle.QualitativeMaxAge = common.MustDuration(a.Config.Analysis.QualitativeStaleness)

	a.AnalysisService = analysis.NewService(analysis.ServiceOptions{
		Registry:      registry,
		Executor:      analysis.NewExecutor(a.LLMService, retryConfig, a.Logger),
		Assembler:     analysis.NewAssembler(a.Config.Analysis.ScoreWeights),
		Oracle:        oracle,
		MarketData:    a.MarketDataService,
		Storage:       a.StorageManager.AnalysisStorage(),
		Logger:        a.Logger,
		RunTimeout:    common.MustDuration(a.Config.Analysis.RunTimeout),
		MaxConcurrent: a.Config.Analysis.MaxConcurrent,
	})

	a.SchedulerService = scheduler.NewService(
		a.AnalysisService,
		a.StorageManager.WatchlistStorage(),
		a.Config.Scheduler.Schedule,
		a.Logger,
	)

	return nil
}

// initHandlers builds the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.AnalysisService, a.StorageManager.AnalysisStorage(), a.Logger)
	a.WatchlistHandler = handlers.NewWatchlistHandler(a.StorageManager.WatchlistStorage(), a.Logger)
}

// Close shuts down services and the storage layer.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	return nil
}
