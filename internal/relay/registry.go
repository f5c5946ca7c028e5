package relay

import (
	"context"

	"github.com/suPer8Hu/pocket-chat/internal/ai"
	"github.com/suPer8Hu/pocket-chat/internal/config"
)

// NewRegistry registers every upstream the relay can forward to. The
// credential is always the caller's key; ollama ignores it.
func NewRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register("openai", func(_ context.Context, credential string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, credential, cfg.OpenAIModel, cfg.ProviderTimeout), nil
	})
	reg.Register("openrouter", func(_ context.Context, credential string) (ai.Provider, error) {
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, credential, cfg.OpenRouterModel,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName, cfg.ProviderTimeout), nil
	})
	reg.Register("ollama", func(_ context.Context, _ string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.ProviderTimeout), nil
	})
	return reg
}
