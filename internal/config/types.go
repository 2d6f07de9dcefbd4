package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle     ProviderType = "google"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOllama     ProviderType = "ollama"
)

// StorageBackend selects the key-value store holding saved work.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageBolt   StorageBackend = "bolt"
	StorageMemory StorageBackend = "memory"
)

// Config is the top-level mindspark configuration, corresponding to .mindspark.yml.
type Config struct {
	Provider        ProviderType  `yaml:"provider" koanf:"provider"`
	Model           string        `yaml:"model" koanf:"model"`
	DataDir         string        `yaml:"data_dir" koanf:"data_dir"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
	MaxTokens       int           `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature     float64       `yaml:"temperature" koanf:"temperature"`
	RateLimitRPM    int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxImageBytes   int64         `yaml:"max_image_bytes" koanf:"max_image_bytes"`
	Languages       []string      `yaml:"languages" koanf:"languages"`
	DefaultLanguage string        `yaml:"default_language" koanf:"default_language"`
	Preferences     Preferences   `yaml:"preferences" koanf:"preferences"`
	Chat            ChatConfig    `yaml:"chat" koanf:"chat"`
	Storage         StorageConfig `yaml:"storage" koanf:"storage"`
	Server          ServerConfig  `yaml:"server" koanf:"server"`
	Log             LogConfig     `yaml:"log" koanf:"log"`
}

// Preferences tune the summarize and notes prompts.
type Preferences struct {
	SummaryLength string `yaml:"summary_length" koanf:"summary_length"`
	NoteStyle     string `yaml:"note_style" koanf:"note_style"`
}

// ChatConfig overrides the chat persona. Empty values use the built-in Sparky persona.
type ChatConfig struct {
	SystemInstruction string `yaml:"system_instruction,omitempty" koanf:"system_instruction"`
	Greeting          string `yaml:"greeting,omitempty" koanf:"greeting"`
}

// StorageConfig holds saved-work storage settings.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend" koanf:"backend"`
	Path    string         `yaml:"path,omitempty" koanf:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level" koanf:"level"`
	Development bool   `yaml:"development" koanf:"development"`
}
