package config

import (
	"path/filepath"
	"time"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".mindspark.yml"

// ModelPreset lists the suggested models for a provider. Default is used
// when the config names no model.
type ModelPreset struct {
	Default string
	Others  []string
}

var modelPresets = map[ProviderType]ModelPreset{
	ProviderGoogle: {
		Default: "gemini-2.5-flash",
		Others:  []string{"gemini-2.5-flash-lite", "gemini-2.5-pro"},
	},
	ProviderOpenAI: {
		Default: "gpt-4o-mini",
		Others:  []string{"gpt-4o", "gpt-4.1-mini"},
	},
	ProviderOpenRouter: {
		Default: "google/gemini-2.5-flash",
		Others:  []string{"openai/gpt-4o-mini"},
	},
	ProviderAnthropic: {
		Default: "claude-haiku-4-5-20251001",
		Others:  []string{"claude-sonnet-4-5-20250929"},
	},
	ProviderOllama: {
		Default: "llama3.2-vision",
		Others:  []string{"llava", "llama3"},
	},
}

// DefaultLanguages are the translation targets offered when none are configured.
var DefaultLanguages = []string{"Spanish", "French", "German", "Japanese"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderGoogle,
		Model:           modelPresets[ProviderGoogle].Default,
		DataDir:         ".mindspark",
		RequestTimeout:  60 * time.Second,
		MaxTokens:       4096,
		Temperature:     0.7,
		RateLimitRPM:    30,
		MaxImageBytes:   20 << 20,
		Languages:       append([]string(nil), DefaultLanguages...),
		DefaultLanguage: DefaultLanguages[0],
		Preferences: Preferences{
			SummaryLength: "medium",
			NoteStyle:     "bullets",
		},
		Storage: StorageConfig{
			Backend: StorageSQLite,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetPreset returns the model preset for the given provider.
// Returns the Google preset if the provider is not found.
func GetPreset(provider ProviderType) ModelPreset {
	if preset, ok := modelPresets[provider]; ok {
		return preset
	}
	return modelPresets[ProviderGoogle]
}

// StoragePath returns the file backing the configured storage backend.
// An explicit storage.path wins; otherwise the file lives in data_dir.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	switch c.Storage.Backend {
	case StorageBolt:
		return filepath.Join(c.DataDir, "mindspark.bolt")
	case StorageMemory:
		return ""
	default:
		return filepath.Join(c.DataDir, "mindspark.db")
	}
}
