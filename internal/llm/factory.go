package llm

import (
	"fmt"
	"os"
)

// ProviderTypes lists the provider names NewProvider accepts.
var ProviderTypes = []string{"google", "openai", "openrouter", "anthropic", "ollama"}

// APIKeyEnv returns the environment variable holding the credential for a
// provider type, or "" when the provider needs none.
func APIKeyEnv(providerType string) string {
	switch providerType {
	case "google":
		return "GOOGLE_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	}
	return ""
}

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "google", "openai", "openrouter", "anthropic", "ollama".
func NewProvider(providerType string, model string) (Provider, error) {
	if env := APIKeyEnv(providerType); env != "" && os.Getenv(env) == "" {
		return nil, fmt.Errorf("%s environment variable is not set", env)
	}

	switch providerType {
	case "google":
		return NewGoogleProvider(os.Getenv("GOOGLE_API_KEY"), model), nil

	case "openai":
		return NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), model), nil

	case "openrouter":
		return NewOpenRouterProvider(os.Getenv("OPENROUTER_API_KEY"), model), nil

	case "anthropic":
		return NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY"), model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
