// Package kvstore is a minimal document store: whole values read and
// written under string keys.
package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindspark-app/mindspark/internal/config"
	"github.com/mindspark-app/mindspark/internal/db"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store holds opaque values under string keys. Implementations are safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the store selected by cfg.Storage.Backend. When the sqlite
// backend is chosen the opened database is returned too so that other
// components can share it; it is nil for the other backends.
func Open(cfg *config.Config) (Store, *db.DB, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return NewMemory(), nil, nil

	case config.StorageBolt:
		s, err := OpenBolt(cfg.StoragePath())
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	case config.StorageSQLite, "":
		database, err := db.Open(cfg.StoragePath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return NewSQLite(database), database, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
