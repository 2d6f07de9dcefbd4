package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/llm"
)

// Settings configure new sessions.
type Settings struct {
	Model             string
	SystemInstruction string
	Greeting          string
	MaxTokens         int
	Temperature       float64
	// Timeout bounds one reply; zero means no limit beyond the caller's context.
	Timeout time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.SystemInstruction == "" {
		s.SystemInstruction = DefaultSystemInstruction
	}
	if s.Greeting == "" {
		s.Greeting = DefaultGreeting
	}
	return s
}

// Session is one conversation. It owns its transcript; callers get copies.
type Session struct {
	id       string
	provider llm.Provider
	settings Settings
	store    *Store
	logger   *zap.Logger

	mu         sync.Mutex
	transcript []Entry
	busy       bool
}

// NewSession starts a conversation whose transcript opens with the greeting.
func NewSession(provider llm.Provider, settings Settings, store *Store, logger *zap.Logger) *Session {
	settings = settings.withDefaults()
	return newSession(uuid.NewString(), provider, settings, store, logger,
		[]Entry{{Role: RoleModel, Text: settings.Greeting}})
}

func newSession(id string, provider llm.Provider, settings Settings, store *Store, logger *zap.Logger, transcript []Entry) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:         id,
		provider:   provider,
		settings:   settings,
		store:      store,
		logger:     logger.With(zap.String("session_id", id)),
		transcript: transcript,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Transcript returns a snapshot of the conversation so far.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.transcript...)
}

// Busy reports whether a reply is streaming.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Send appends text as a user entry and starts streaming the reply. The
// user entry is in the transcript when Send returns; the model entry grows
// as fragments arrive. An empty model entry is dropped if the reply fails.
func (s *Session) Send(ctx context.Context, text string) (*Subscription, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	req := s.request(text)
	s.transcript = append(s.transcript,
		Entry{Role: RoleUser, Text: text},
		Entry{Role: RoleModel},
	)
	modelIdx := len(s.transcript) - 1
	s.mu.Unlock()

	var cancel context.CancelFunc
	if s.settings.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.settings.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	sub := newSubscription(cancel)

	go s.stream(ctx, req, modelIdx, sub)
	return sub, nil
}

// request builds the model request from the transcript plus the new user
// text. The greeting is display-only and is not sent. Caller holds s.mu.
func (s *Session) request(text string) llm.CompletionRequest {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: s.settings.SystemInstruction}}
	for i, e := range s.transcript {
		if i == 0 && e.Role == RoleModel {
			continue
		}
		if e.Text == "" {
			continue
		}
		role := llm.RoleUser
		if e.Role == RoleModel {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: e.Text})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: text})

	return llm.CompletionRequest{
		Model:       s.settings.Model,
		Messages:    msgs,
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	}
}

func (s *Session) stream(ctx context.Context, req llm.CompletionRequest, modelIdx int, sub *Subscription) {
	start := time.Now()
	_, err := llm.Stream(ctx, s.provider, req, func(delta string) {
		if delta == "" {
			return
		}
		s.mu.Lock()
		s.transcript[modelIdx].Text += delta
		s.mu.Unlock()
		sub.emit(ctx, delta)
	})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	s.mu.Lock()
	if err != nil && s.transcript[modelIdx].Text == "" {
		s.transcript = append(s.transcript[:modelIdx], s.transcript[modelIdx+1:]...)
	}
	snapshot := append([]Entry(nil), s.transcript...)
	s.busy = false
	s.mu.Unlock()

	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Debug("chat reply cancelled", zap.Duration("elapsed", time.Since(start)))
	case err != nil:
		s.logger.Warn("chat reply failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	default:
		s.logger.Debug("chat reply finished", zap.Duration("elapsed", time.Since(start)))
	}

	if s.store != nil {
		if perr := s.store.SaveTranscript(context.WithoutCancel(ctx), s.id, snapshot); perr != nil {
			s.logger.Warn("failed to persist chat transcript", zap.Error(perr))
		}
	}

	if err != nil {
		err = fmt.Errorf("chat reply: %w", err)
	}
	sub.finish(err)
}
