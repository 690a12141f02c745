package factory

import (
	"fmt"

	"github.com/OpenAgentsInc/commander-sub000/internal/ai/ollama"
	"github.com/OpenAgentsInc/commander-sub000/internal/ai/openai"
	"github.com/OpenAgentsInc/commander-sub000/internal/config"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
)

// NewProvider constructs the appropriate inference provider based on config.
// Called once at daemon startup.
func NewProvider(cfg config.AIConfig) (models.InferenceProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama, cfg.InferenceTimeout), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI, cfg.InferenceTimeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, openai", cfg.Provider)
	}
}
