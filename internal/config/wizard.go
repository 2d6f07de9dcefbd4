package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to MindSpark! Let's set up your study assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providers := []string{
		string(ProviderGoogle),
		string(ProviderOpenAI),
		string(ProviderOpenRouter),
		string(ProviderAnthropic),
		string(ProviderOllama),
	}
	providerPrompt := promptui.Select{
		Label: "Select AI provider",
		Items: providers,
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	preset := GetPreset(cfg.Provider)
	modelPrompt := promptui.Select{
		Label: "Select model",
		Items: append([]string{preset.Default}, preset.Others...),
	}
	_, cfg.Model, err = modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	// 3. Translation languages.
	langPrompt := promptui.Prompt{
		Label:   "Translation languages (comma-separated)",
		Default: strings.Join(DefaultLanguages, ", "),
	}
	langStr, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	if langs := splitAndTrim(langStr); len(langs) > 0 {
		cfg.Languages = langs
		cfg.DefaultLanguage = langs[0]
	}

	// 4. Study preferences.
	lengthPrompt := promptui.Select{
		Label: "Summary length",
		Items: SummaryLengths,
	}
	_, cfg.Preferences.SummaryLength, err = lengthPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("summary length: %w", err)
	}

	stylePrompt := promptui.Select{
		Label: "Note style",
		Items: NoteStyles,
	}
	_, cfg.Preferences.NoteStyle, err = stylePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("note style: %w", err)
	}

	// 5. Storage.
	storagePrompt := promptui.Select{
		Label: "Where should saved work live?",
		Items: []string{
			"sqlite - single database file",
			"bolt   - embedded key/value file",
			"memory - nothing kept between runs",
		},
	}
	storageIdx, _, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage selection: %w", err)
	}
	cfg.Storage.Backend = []StorageBackend{StorageSQLite, StorageBolt, StorageMemory}[storageIdx]

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running mindspark.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
