package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mindspark-app/mindspark/internal/db"
	"github.com/mindspark-app/mindspark/internal/kvstore"
)

// stepClock returns a clock advancing one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return NewStore(kv, WithClock(stepClock())), kv
}

func saveN(t *testing.T, s *Store, n int) []Item {
	t.Helper()
	var out []Item
	for i := 0; i < n; i++ {
		it, err := s.Save(context.Background(), NewItem{
			Type:          "Summary",
			OriginalInput: fmt.Sprintf("input number %d about photosynthesis", i),
			ResultText:    fmt.Sprintf("result %d", i),
		})
		require.NoError(t, err)
		out = append(out, it)
	}
	return out
}

func TestSaveThenListNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	saved := saveN(t, s, 5)

	items := s.List(context.Background())
	require.Len(t, items, 5)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Timestamp.After(items[i-1].Timestamp), "item %d newer than item %d", i, i-1)
	}
	assert.Equal(t, saved[4].ID, items[0].ID)
	assert.Equal(t, saved[0].ID, items[4].ID)
}

func TestSaveAssignsIdentity(t *testing.T) {
	s, _ := newTestStore(t)
	it, err := s.Save(context.Background(), NewItem{
		Type:          "Translation",
		OriginalInput: "Hello there my good friend, how are you",
		ResultText:    "Hola",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, it.ID)
	assert.False(t, it.Timestamp.IsZero())
	assert.Equal(t, "Hello there my good friend,...", it.Title)
	assert.Equal(t, "Hola...", it.Description)
	assert.Equal(t, "Translation", it.Type)
}

func TestSaveIDsUnique(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for _, it := range saveN(t, s, 50) {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
}

func TestSaveKeepsFlashcardsAndImage(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	it, err := s.Save(ctx, NewItem{
		Type:          "Image Analysis",
		OriginalInput: "Extract the text",
		ResultText:    "A diagram of a cell",
		Flashcards:    []Flashcard{{Question: "What is a cell?", Answer: "The unit of life"}},
		ImagePart:     &ImagePart{InlineData: InlineData{Data: "QUJD", MIMEType: "image/png"}},
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, got.Flashcards, 1)
	assert.Equal(t, "The unit of life", got.Flashcards[0].Answer)
	require.NotNil(t, got.ImagePart)
	assert.Equal(t, "image/png", got.ImagePart.InlineData.MIMEType)
}

func TestStoredFormatMatchesBrowser(t *testing.T) {
	s, kv := newTestStore(t)
	_, err := s.Save(context.Background(), NewItem{
		Type:          "Notes",
		OriginalInput: "x",
		ResultText:    "y",
		ImagePart:     &ImagePart{InlineData: InlineData{Data: "QUJD", MIMEType: "image/jpeg"}},
	})
	require.NoError(t, err)

	raw, err := kv.Get(context.Background(), StorageKey)
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.Len(t, generic, 1)
	for _, key := range []string{"id", "type", "title", "timestamp", "description", "originalInput", "resultText", "imagePart"} {
		assert.Contains(t, generic[0], key)
	}
	inline := generic[0]["imagePart"].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mimeType"])
	assert.NotContains(t, generic[0], "flashcards")
}

func TestDeleteUnknownIDLeavesCollection(t *testing.T) {
	s, _ := newTestStore(t)
	saveN(t, s, 3)
	before := s.List(context.Background())

	after, err := s.Delete(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, before, s.List(context.Background()))
}

func TestDeleteExistingID(t *testing.T) {
	s, _ := newTestStore(t)
	saved := saveN(t, s, 3)

	after, err := s.Delete(context.Background(), saved[1].ID)
	require.NoError(t, err)
	require.Len(t, after, 2)
	for _, it := range after {
		assert.NotEqual(t, saved[1].ID, it.ID)
	}
	assert.Len(t, s.List(context.Background()), 2)
}

func TestClearThenListEmpty(t *testing.T) {
	s, kv := newTestStore(t)
	saveN(t, s, 3)

	require.NoError(t, s.Clear(context.Background()))
	assert.Empty(t, s.List(context.Background()))

	_, err := kv.Get(context.Background(), StorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestMalformedValueListsEmpty(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Put(context.Background(), StorageKey, []byte(`{not json`)))

	s := NewStore(kv, WithLogger(zap.New(core)))
	items := s.List(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 1, logs.Len())

	// Saving over a malformed value starts a fresh collection.
	_, err := s.Save(context.Background(), NewItem{Type: "Summary", OriginalInput: "a", ResultText: "b"})
	require.NoError(t, err)
	assert.Len(t, s.List(context.Background()), 1)
}

type failingStore struct{ kvstore.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestStorageErrors(t *testing.T) {
	s := NewStore(failingStore{kvstore.NewMemory()})
	ctx := context.Background()

	assert.Empty(t, s.List(ctx))

	_, err := s.Save(ctx, NewItem{Type: "Notes"})
	assert.Error(t, err)

	_, err = s.Delete(ctx, "x")
	assert.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, n := range []NewItem{
		{Type: "Summary", OriginalInput: "The French Revolution began in 1789", ResultText: "Revolution summary"},
		{Type: "Notes", OriginalInput: "Cell biology basics", ResultText: "Mitochondria notes"},
		{Type: "Translation", OriginalInput: "Good morning", ResultText: "Bonjour"},
		{Type: "Summary", OriginalInput: "Mitochondria and energy", ResultText: "Powerhouse"},
	} {
		_, err := s.Save(ctx, n)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"all types label", Filter{Type: AllTypes}, 4},
		{"by type", Filter{Type: "Summary"}, 2},
		{"query in title", Filter{Query: "french"}, 1},
		{"query in description", Filter{Query: "MITOCHONDRIA"}, 2},
		{"query and type", Filter{Query: "mitochondria", Type: "Notes"}, 1},
		{"no match", Filter{Query: "quantum"}, 0},
		{"limit", Filter{Limit: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Search(ctx, tt.filter)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRecent(t *testing.T) {
	s, _ := newTestStore(t)
	saved := saveN(t, s, 8)

	recent := s.Recent(context.Background(), 6)
	require.Len(t, recent, 6)
	assert.Equal(t, saved[7].ID, recent[0].ID)
}

func TestImportMergesByID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	existing := saveN(t, s, 1)[0]

	raw := `[
	  {"id":"2024-05-01T10:00:00.000Z0.42","type":"Summary","title":"Old work...","timestamp":"2024-05-01T10:00:00.000Z","description":"d...","originalInput":"old","resultText":"r"},
	  {"id":"` + existing.ID + `","type":"Notes","title":"dup","timestamp":"2024-05-02T10:00:00.000Z","description":"","originalInput":"","resultText":""},
	  {"type":"Notes","originalInput":"no id given here","resultText":"z"}
	]`
	added, err := s.Import(ctx, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	items := s.List(ctx)
	require.Len(t, items, 3)

	got, err := s.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.Title, got.Title, "existing record wins")

	old, err := s.Get(ctx, "2024-05-01T10:00:00.000Z0.42")
	require.NoError(t, err)
	assert.Equal(t, 2024, old.Timestamp.Year())
	assert.Equal(t, old.ID, items[len(items)-1].ID, "oldest sorts last")

	_, err = s.Import(ctx, []byte(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestConcurrentSavesAllKept(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	s := NewStore(kvstore.NewSQLite(database))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Save(context.Background(), NewItem{Type: "Notes", OriginalInput: fmt.Sprint(i), ResultText: "r"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.List(context.Background()), 20)
}

func TestTitleFor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "New Work"},
		{"   \n\t ", "New Work"},
		{"Photosynthesis", "Photosynthesis..."},
		{"one two three four five six seven", "one two three four five..."},
		{"  spaced   out   words ", "spaced out words..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFor(tt.in), "TitleFor(%q)", tt.in)
	}
}

func TestDescriptionFor(t *testing.T) {
	assert.Equal(t, "short...", DescriptionFor("short"))

	long := strings.Repeat("é", 200)
	got := DescriptionFor(long)
	assert.Equal(t, strings.Repeat("é", 150)+"...", got)
}
