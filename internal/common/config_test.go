package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, LLMProviderClaude, config.LLM.Provider)
	assert.Equal(t, "10m", config.Analysis.RunTimeout)
	assert.Equal(t, 2, config.Analysis.MaxRetries)
	assert.False(t, config.Scheduler.Enabled)

	var sum float64
	for _, w := range config.Analysis.ScoreWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 0.001)

	require.NoError(t, config.Validate())
}

func TestLoadFromFilesLayering(t *testing.T) {
	first := writeConfigFile(t, "base.toml", `
[server]
port = 9000
host = "0.0.0.0"

[analysis]
max_retries = 5
`)
	second := writeConfigFile(t, "override.toml", `
[server]
port = 9100
`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)

	// Later files win; untouched keys keep earlier or default values.
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 5, config.Analysis.MaxRetries)
	assert.Equal(t, "10m", config.Analysis.RunTimeout)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/stockbrief.toml")
	assert.Error(t, err)
}

func TestLoadFromFilesEnvOverrides(t *testing.T) {
	t.Setenv("STOCKBRIEF_SERVER_PORT", "7777")
	t.Setenv("STOCKBRIEF_LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STOCKBRIEF_LOG_OUTPUT", "stdout, file")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7777, config.Server.Port)
	assert.Equal(t, LLMProviderGemini, config.LLM.Provider)
	assert.Equal(t, "test-key", config.LLM.Gemini.APIKey)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 9999, "example.com")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "example.com", config.Server.Host)

	// Zero values leave the config untouched.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "example.com", config.Server.Host)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "unknown llm provider",
			mutate:  func(c *Config) { c.LLM.Provider = "openai" },
			wantErr: "invalid llm provider",
		},
		{
			name:    "bad run timeout",
			mutate:  func(c *Config) { c.Analysis.RunTimeout = "ten minutes" },
			wantErr: "run_timeout",
		},
		{
			name:    "bad staleness window",
			mutate:  func(c *Config) { c.Analysis.MarketStaleness = "1 day" },
			wantErr: "market_staleness",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Analysis.MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *Config) {
				c.Analysis.ScoreWeights = map[string]float64{"ratios": 0.5, "risk": 0.4}
			},
			wantErr: "must sum to 1.0",
		},
		{
			name: "negative weight",
			mutate: func(c *Config) {
				c.Analysis.ScoreWeights = map[string]float64{"ratios": 1.5, "risk": -0.5}
			},
			wantErr: "must not be negative",
		},
		{
			name: "invalid cron schedule when scheduler enabled",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = true
				c.Scheduler.Schedule = "whenever"
			},
			wantErr: "scheduler.schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidateDisabledSchedulerIgnoresSchedule(t *testing.T) {
	config := NewDefaultConfig()
	config.Scheduler.Enabled = false
	config.Scheduler.Schedule = "whenever"

	assert.NoError(t, config.Validate())
}

func TestMustDuration(t *testing.T) {
	assert.Equal(t, 24*time.Hour, MustDuration("24h"))
	assert.Panics(t, func() { MustDuration("one day") })
}
