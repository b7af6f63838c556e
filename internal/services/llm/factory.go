package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/common"
	"github.com/ternarybob/stockbrief/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// the configured provider.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", string(cfg.LLM.Provider)).Msg("Initializing LLM service")

	switch cfg.LLM.Provider {
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.LLM.Claude, logger)

	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.LLM.Gemini, logger)

	default:
		return nil, fmt.Errorf("unsupported llm provider %q: must be 'claude' or 'gemini'", cfg.LLM.Provider)
	}
}
