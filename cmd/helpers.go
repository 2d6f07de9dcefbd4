package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/chat"
	"github.com/mindspark-app/mindspark/internal/config"
	"github.com/mindspark-app/mindspark/internal/db"
	"github.com/mindspark-app/mindspark/internal/kvstore"
	"github.com/mindspark-app/mindspark/internal/library"
	"github.com/mindspark-app/mindspark/internal/llm"
	"github.com/mindspark-app/mindspark/internal/logging"
	"github.com/mindspark-app/mindspark/internal/study"
)

// app bundles the components a command needs. Fields a command did not
// ask for stay nil.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     kvstore.Store
	db        *db.DB
	library   *library.Store
	provider  llm.Provider
	assistant *study.Assistant
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mindspark init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if ephemeral {
		cfg.Storage.Backend = config.StorageMemory
	}
	return cfg, nil
}

// openApp loads config, builds the logger and opens the library. When
// withProvider is set the AI provider and assistant are created as well.
func openApp(withProvider bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	a.store, a.db, err = kvstore.Open(cfg)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a.library = library.NewStore(a.store, library.WithLogger(logger))

	if withProvider {
		if err := a.connect(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// connect creates the rate-limited provider and the assistant.
func (a *app) connect() error {
	provider, err := llm.NewProvider(string(a.cfg.Provider), a.cfg.Model)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	a.provider = llm.NewRateLimitedProvider(provider, a.cfg.RateLimitRPM)
	a.assistant = study.New(a.provider,
		study.WithModel(a.cfg.Model),
		study.WithMaxTokens(a.cfg.MaxTokens),
		study.WithTemperature(a.cfg.Temperature),
		study.WithTimeout(a.cfg.RequestTimeout),
		study.WithPreferences(study.Preferences{
			SummaryLength: a.cfg.Preferences.SummaryLength,
			NoteStyle:     a.cfg.Preferences.NoteStyle,
		}),
		study.WithLogger(a.logger),
	)
	a.logger.Debug("provider ready",
		zap.String("provider", a.provider.Name()),
		zap.String("model", a.cfg.Model))
	return nil
}

// chatManager returns a session manager. Transcripts persist only with
// the sqlite backend.
func (a *app) chatManager() *chat.Manager {
	var store *chat.Store
	if a.db != nil {
		store = chat.NewStore(a.db)
	}
	return chat.NewManager(a.provider, chat.Settings{
		Model:             a.cfg.Model,
		SystemInstruction: a.cfg.Chat.SystemInstruction,
		Greeting:          a.cfg.Chat.Greeting,
		MaxTokens:         a.cfg.MaxTokens,
		Temperature:       a.cfg.Temperature,
		Timeout:           a.cfg.RequestTimeout,
	}, store, a.logger)
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing storage", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

// readInput returns the text for a command: the joined arguments, the
// contents of file, or stdin when it is not a terminal. Arguments win.
func readInput(cmd *cobra.Command, args []string, file string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// taskError prints usage for missing input and turns model failures into
// the message shown to users.
func taskError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, study.ErrInvalidTask):
		_ = cmd.Usage()
		return err
	case errors.Is(err, study.ErrCommunication), errors.Is(err, study.ErrFlashcardParse):
		if verbose {
			return fmt.Errorf("%s (%w)", study.UserMessage(err), err)
		}
		return errors.New(study.UserMessage(err))
	default:
		return err
	}
}
