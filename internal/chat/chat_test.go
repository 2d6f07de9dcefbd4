package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindspark-app/mindspark/internal/db"
	"github.com/mindspark-app/mindspark/internal/llm"
)

// gatedProvider streams its chunks one at a time, each released by a
// value on step. A nil step streams everything at once.
type gatedProvider struct {
	chunks []string
	step   chan struct{}
	failAt int // fail after this many chunks; -1 never

	mu   sync.Mutex
	reqs []llm.CompletionRequest
}

func newGated(chunks ...string) *gatedProvider {
	return &gatedProvider{chunks: chunks, failAt: -1}
}

func (g *gatedProvider) Name() string { return "gated" }

func (g *gatedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return g.Stream(ctx, req, func(string) {})
}

func (g *gatedProvider) Stream(ctx context.Context, req llm.CompletionRequest, onDelta func(string)) (*llm.CompletionResponse, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()

	var full strings.Builder
	for i, c := range g.chunks {
		if i == g.failAt {
			return nil, errors.New("upstream reset")
		}
		if g.step != nil {
			select {
			case <-g.step:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		full.WriteString(c)
		onDelta(c)
	}
	if g.failAt == len(g.chunks) {
		return nil, errors.New("upstream reset")
	}
	return &llm.CompletionResponse{Content: full.String()}, nil
}

func (g *gatedProvider) lastRequest() llm.CompletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reqs[len(g.reqs)-1]
}

func TestNewSessionStartsWithGreeting(t *testing.T) {
	s := NewSession(newGated(), Settings{}, nil, nil)
	tr := s.Transcript()
	require.Len(t, tr, 1)
	assert.Equal(t, RoleModel, tr[0].Role)
	assert.Equal(t, DefaultGreeting, tr[0].Text)
	assert.NotEmpty(t, s.ID())
}

func TestSendStreamsInOrder(t *testing.T) {
	p := newGated("Break ", "study time ", "into ", "25-minute blocks.")
	s := NewSession(p, Settings{Model: "gemini-2.5-flash"}, nil, nil)

	sub, err := s.Send(context.Background(), "  How do I focus?  ")
	require.NoError(t, err)

	var got []string
	for d := range sub.Deltas() {
		got = append(got, d)
	}
	require.NoError(t, sub.Wait())
	assert.Equal(t, []string{"Break ", "study time ", "into ", "25-minute blocks."}, got)
	assert.Equal(t, "Break study time into 25-minute blocks.", sub.Reply())

	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, Entry{Role: RoleUser, Text: "How do I focus?"}, tr[1])
	assert.Equal(t, Entry{Role: RoleModel, Text: "Break study time into 25-minute blocks."}, tr[2])
	assert.False(t, s.Busy())
}

func TestUserEntryAppendedImmediatelyAndReplyGrows(t *testing.T) {
	p := newGated("One", " two", " three")
	p.step = make(chan struct{})
	s := NewSession(p, Settings{}, nil, nil)

	sub, err := s.Send(context.Background(), "count")
	require.NoError(t, err)

	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, Entry{Role: RoleUser, Text: "count"}, tr[1])
	assert.Equal(t, "", tr[2].Text)

	prev := ""
	for range p.chunks {
		p.step <- struct{}{}
		<-sub.Deltas()
		cur := s.Transcript()[2].Text
		assert.True(t, strings.HasPrefix(cur, prev), "reply shrank: %q -> %q", prev, cur)
		assert.Greater(t, len(cur), len(prev))
		prev = cur
	}
	require.NoError(t, sub.Wait())
	assert.Equal(t, "One two three", s.Transcript()[2].Text)
}

func TestSendWhileBusy(t *testing.T) {
	p := newGated("slow")
	p.step = make(chan struct{})
	s := NewSession(p, Settings{}, nil, nil)

	sub, err := s.Send(context.Background(), "first")
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	p.step <- struct{}{}
	require.NoError(t, sub.Wait())

	// Free again once the reply ended.
	p.step = nil
	sub, err = s.Send(context.Background(), "third")
	require.NoError(t, err)
	require.NoError(t, sub.Wait())
}

func TestSendEmpty(t *testing.T) {
	s := NewSession(newGated(), Settings{}, nil, nil)
	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Transcript(), 1)
}

func TestErrorBeforeAnyTextDropsModelEntry(t *testing.T) {
	p := newGated("never")
	p.failAt = 0
	s := NewSession(p, Settings{}, nil, nil)

	sub, err := s.Send(context.Background(), "hello?")
	require.NoError(t, err)
	err = sub.Wait()
	require.Error(t, err)

	tr := s.Transcript()
	require.Len(t, tr, 2, "empty model entry removed, user entry kept")
	assert.Equal(t, RoleUser, tr[1].Role)
	assert.False(t, s.Busy())
}

func TestErrorAfterPartialTextKeepsIt(t *testing.T) {
	p := newGated("Partial ", "answer")
	p.failAt = 2
	s := NewSession(p, Settings{}, nil, nil)

	sub, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)
	require.Error(t, sub.Wait())

	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, "Partial answer", tr[2].Text)
}

func TestCancelStopsEarly(t *testing.T) {
	p := newGated("first", "second")
	p.step = make(chan struct{}, 1)
	s := NewSession(p, Settings{}, nil, nil)

	sub, err := s.Send(context.Background(), "go")
	require.NoError(t, err)

	p.step <- struct{}{}
	assert.Equal(t, "first", <-sub.Deltas())
	sub.Cancel()

	err = sub.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, "first", tr[2].Text)
}

func TestTimeout(t *testing.T) {
	p := newGated("never")
	p.step = make(chan struct{})
	s := NewSession(p, Settings{Timeout: 20 * time.Millisecond}, nil, nil)

	sub, err := s.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.ErrorIs(t, sub.Wait(), context.DeadlineExceeded)
	assert.Len(t, s.Transcript(), 2)
}

func TestRequestCarriesHistoryWithoutGreeting(t *testing.T) {
	p := newGated("Sure.")
	s := NewSession(p, Settings{SystemInstruction: "Be Sparky."}, nil, nil)

	sub, err := s.Send(context.Background(), "Tip one?")
	require.NoError(t, err)
	require.NoError(t, sub.Wait())
	sub, err = s.Send(context.Background(), "Tip two?")
	require.NoError(t, err)
	require.NoError(t, sub.Wait())

	msgs := p.lastRequest().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "Be Sparky."}, msgs[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Tip one?"}, msgs[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Sure."}, msgs[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Tip two?"}, msgs[3])
}

func TestNonStreamingProviderDeliversOneDelta(t *testing.T) {
	mock := completeOnly{text: "Whole reply"}
	s := NewSession(mock, Settings{}, nil, nil)

	sub, err := s.Send(context.Background(), "hi")
	require.NoError(t, err)
	var got []string
	for d := range sub.Deltas() {
		got = append(got, d)
	}
	require.NoError(t, sub.Wait())
	assert.Equal(t, []string{"Whole reply"}, got)
}

type completeOnly struct{ text string }

func (completeOnly) Name() string { return "plain" }

func (c completeOnly) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: c.text}, nil
}

func newStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestTranscriptPersistedAndRestored(t *testing.T) {
	store := newStore(t)
	p := newGated("Use ", "flashcards.")

	m := NewManager(p, Settings{}, store, nil)
	s := m.New()
	sub, err := s.Send(context.Background(), "How to memorize?")
	require.NoError(t, err)
	require.NoError(t, sub.Wait())

	stored, err := store.LoadTranscript(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.Transcript(), stored)

	// A fresh manager restores the session from the store.
	m2 := NewManager(p, Settings{}, store, nil)
	restored, err := m2.Get(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.Transcript(), restored.Transcript())

	sub, err = restored.Send(context.Background(), "And then?")
	require.NoError(t, err)
	require.NoError(t, sub.Wait())
	assert.Len(t, restored.Transcript(), 5)

	n, err := m2.Stored(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, m2.Delete(context.Background(), s.ID()))
	assert.Equal(t, 0, m2.Len())
	_, err = store.LoadTranscript(context.Background(), s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	n, err = m2.Stored(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestManagerOpen(t *testing.T) {
	m := NewManager(newGated("ok"), Settings{}, nil, nil)

	s1, err := m.Open(context.Background(), "")
	require.NoError(t, err)
	s2, err := m.Open(context.Background(), s1.ID())
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	s3, err := m.Open(context.Background(), "unknown-id")
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID(), s3.ID())
	assert.Equal(t, 2, m.Len())

	_, err = m.Get(context.Background(), "unknown-id")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	m.Forget(s1.ID())
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(context.Background(), s3.ID()))
	assert.Equal(t, 0, m.Len())
	n, err := m.Stored(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCustomGreeting(t *testing.T) {
	m := NewManager(newGated(), Settings{Greeting: "Ready when you are."}, nil, nil)
	assert.Equal(t, "Ready when you are.", m.New().Transcript()[0].Text)
}
