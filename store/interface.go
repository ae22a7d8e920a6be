// Package store persists the tod state blob in a pluggable key-value backend.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/josephgoksu/tod/internal/config"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// ErrChecksumMismatch is returned by Get, together with the data read,
// when a stored value no longer matches its recorded checksum.
var ErrChecksumMismatch = errors.New("store: checksum mismatch")

// KVStore defines the contract every backend implements.
// Values are opaque bytes; the state repository decides their encoding.
type KVStore interface {
	// Get returns the value stored under key, or ErrNotFound. A value
	// that fails its integrity check is returned with ErrChecksumMismatch.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (KVStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	case config.DriverFile:
		return NewFileStore(nil, cfg.File.Dir)
	case config.DriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}
