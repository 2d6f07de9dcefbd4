package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/kvstore"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("saved work not found")

// Store keeps the saved-work collection as one JSON array in a kvstore.
// Every mutation reads the whole array, changes it and writes it back.
type Store struct {
	kv     kvstore.Store
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report unreadable stored data.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store over kv.
func NewStore(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load reads the collection. A missing or unparsable value is an empty
// collection; only storage I/O failures are returned.
func (s *Store) load(ctx context.Context) ([]Item, error) {
	raw, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading saved work: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("failed to parse saved work, treating as empty",
			zap.String("key", StorageKey),
			zap.Error(err),
		)
		return nil, nil
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *Store) write(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding saved work: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("writing saved work: %w", err)
	}
	return nil
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
}

// List returns every record, newest first. It never fails: unreadable
// storage is logged and reported as an empty collection.
func (s *Store) List(ctx context.Context) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("failed to read saved work", zap.Error(err))
		return []Item{}
	}
	if items == nil {
		return []Item{}
	}
	return items
}

// Save assigns an id and timestamp to n, prepends it and rewrites the collection.
func (s *Store) Save(ctx context.Context, n NewItem) (Item, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Item{}, fmt.Errorf("generating id: %w", err)
	}

	item := Item{
		ID:            id.String(),
		Type:          n.Type,
		Title:         n.Title,
		Timestamp:     s.now().UTC(),
		Description:   n.Description,
		OriginalInput: n.OriginalInput,
		ResultText:    n.ResultText,
		Flashcards:    n.Flashcards,
		ImagePart:     n.ImagePart,
	}
	if item.Title == "" {
		item.Title = TitleFor(n.OriginalInput)
	}
	if item.Description == "" {
		item.Description = DescriptionFor(n.ResultText)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return Item{}, err
	}
	if err := s.write(ctx, append([]Item{item}, items...)); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Delete removes the record with the given id and returns what remains.
// An unknown id leaves the collection as it was.
func (s *Store) Delete(ctx context.Context, id string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if err := s.write(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear removes the whole collection.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clearing saved work: %w", err)
	}
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	for _, it := range s.List(ctx) {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

// Search returns the records matching f, newest first.
func (s *Store) Search(ctx context.Context, f Filter) []Item {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	matches := []Item{}
	for _, it := range s.List(ctx) {
		if f.Type != "" && f.Type != AllTypes && it.Type != f.Type {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(it.Title), query) &&
			!strings.Contains(strings.ToLower(it.Description), query) {
			continue
		}
		matches = append(matches, it)
		if f.Limit > 0 && len(matches) == f.Limit {
			break
		}
	}
	return matches
}

// Recent returns the n newest records.
func (s *Store) Recent(ctx context.Context, n int) []Item {
	return s.Search(ctx, Filter{Limit: n})
}

// Import merges a JSON array of records, such as a browser localStorage
// export, into the collection. Records whose id already exists are
// skipped; missing ids and timestamps are filled in. It returns the
// number of records added.
func (s *Store) Import(ctx context.Context, raw []byte) (int, error) {
	var incoming []Item
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return 0, fmt.Errorf("parsing import: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[it.ID] = true
	}

	added := 0
	for _, it := range incoming {
		if it.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return 0, fmt.Errorf("generating id: %w", err)
			}
			it.ID = id.String()
		}
		if seen[it.ID] {
			continue
		}
		if it.Timestamp.IsZero() {
			it.Timestamp = s.now().UTC()
		}
		if it.Title == "" {
			it.Title = TitleFor(it.OriginalInput)
		}
		seen[it.ID] = true
		items = append(items, it)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	sortNewestFirst(items)
	if err := s.write(ctx, items); err != nil {
		return 0, err
	}
	return added, nil
}
