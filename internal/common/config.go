package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	LLM         LLMConfig        `toml:"llm"`
	MarketData  MarketDataConfig `toml:"marketdata"`
	Analysis    AnalysisConfig   `toml:"analysis"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// LLMProvider identifies which reasoning backend serves task invocations.
type LLMProvider string

const (
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderGemini LLMProvider = "gemini"
)

type LLMConfig struct {
	Provider LLMProvider  `toml:"provider"` // "claude" or "gemini"
	Claude   ClaudeConfig `toml:"claude"`
	Gemini   GeminiConfig `toml:"gemini"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"` // ANTHROPIC_API_KEY or config
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"` // e.g. "2m"
	Temperature float32 `toml:"temperature"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// MarketDataConfig configures the fundamentals/market-data provider.
type MarketDataConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`   // empty = provider default
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// AnalysisConfig tunes the orchestration core. Staleness thresholds and score
// weights are deliberately configuration, not code.
type AnalysisConfig struct {
	RunTimeout     string  `toml:"run_timeout"`     // whole-run deadline, e.g. "10m"
	MaxRetries     int     `toml:"max_retries"`     // per-task transient retry budget
	InitialBackoff string  `toml:"initial_backoff"` // e.g. "1s"
	MaxConcurrent  int     `toml:"max_concurrent"`  // concurrent task invocations within a batch (0 = unbounded)

	// Staleness thresholds per task category.
	MarketStaleness      string `toml:"market_staleness"`      // e.g. "24h"
	QualitativeStaleness string `toml:"qualitative_staleness"` // e.g. "168h"

	// Overall score weights per contributing task. Must sum to 1.0.
	ScoreWeights map[string]float64 `toml:"score_weights"`
}

// SchedulerConfig configures the watchlist refresh schedule.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron expression
}

// NewDefaultConfig returns a Config populated with defaults. File, env and
// CLI layers override these.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/stockbrief",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			Provider: LLMProviderClaude,
			Claude: ClaudeConfig{
				Model:       "claude-sonnet-4-20250514",
				MaxTokens:   8192,
				Timeout:     "2m",
				Temperature: 0.3,
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				Timeout:     "2m",
				Temperature: 0.3,
			},
		},
		MarketData: MarketDataConfig{
			RateLimit: 10,
			Timeout:   "30s",
		},
		Analysis: AnalysisConfig{
			RunTimeout:           "10m",
			MaxRetries:           2,
			InitialBackoff:       "1s",
			MaxConcurrent:        0,
			MarketStaleness:      "24h",
			QualitativeStaleness: "168h",
			ScoreWeights: map[string]float64{
				"ratios":     0.20,
				"risk":       0.20,
				"valuation":  0.25,
				"management": 0.15,
				"industry":   0.20,
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 */6 * * *", // every 6 hours
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKBRIEF_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("STOCKBRIEF_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STOCKBRIEF_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("STOCKBRIEF_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("STOCKBRIEF_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("STOCKBRIEF_LOG_OUTPUT"); output != "" {
		var outputs []string
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if provider := os.Getenv("STOCKBRIEF_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.LLM.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.LLM.Gemini.APIKey = key
	}
	if key := os.Getenv("STOCKBRIEF_MARKETDATA_API_KEY"); key != "" {
		config.MarketData.APIKey = key
	}

	if timeout := os.Getenv("STOCKBRIEF_RUN_TIMEOUT"); timeout != "" {
		config.Analysis.RunTimeout = timeout
	}
	if schedule := os.Getenv("STOCKBRIEF_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks configuration values that would otherwise fail at an
// awkward time. Invalid analysis wiring is a startup-fatal condition.
func (c *Config) Validate() error {
	if c.LLM.Provider != LLMProviderClaude && c.LLM.Provider != LLMProviderGemini {
		return fmt.Errorf("invalid llm provider %q: must be 'claude' or 'gemini'", c.LLM.Provider)
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"analysis.run_timeout", c.Analysis.RunTimeout},
		{"analysis.initial_backoff", c.Analysis.InitialBackoff},
		{"analysis.market_staleness", c.Analysis.MarketStaleness},
		{"analysis.qualitative_staleness", c.Analysis.QualitativeStaleness},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.name, err)
		}
	}

	if c.Analysis.MaxRetries < 0 {
		return fmt.Errorf("analysis.max_retries must not be negative")
	}

	var sum float64
	for task, w := range c.Analysis.ScoreWeights {
		if w < 0 {
			return fmt.Errorf("score weight for task %q must not be negative", task)
		}
		sum += w
	}
	if len(c.Analysis.ScoreWeights) > 0 && (sum < 0.999 || sum > 1.001) {
		return fmt.Errorf("analysis.score_weights must sum to 1.0, got %.3f", sum)
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule %q: %w", c.Scheduler.Schedule, err)
		}
	}

	return nil
}

// MustDuration parses a duration that Validate has already checked.
func MustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("unvalidated duration %q: %v", value, err))
	}
	return d
}
