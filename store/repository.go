package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/josephgoksu/tod/internal/state"
	"github.com/josephgoksu/tod/models"
)

// StateRepository stores the whole AppState under one key.
type StateRepository struct {
	kv     KVStore
	key    string
	logger *slog.Logger
}

// NewStateRepository wraps kv. A nil logger uses slog.Default().
func NewStateRepository(kv KVStore, key string, logger *slog.Logger) *StateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateRepository{kv: kv, key: key, logger: logger}
}

// Key returns the store key holding the state.
func (r *StateRepository) Key() string { return r.key }

// Load reads and normalizes the stored state. A missing or undecodable
// value yields the default state; a value that fails its checksum is
// still normalized.
func (r *StateRepository) Load(ctx context.Context) (models.AppState, error) {
	data, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultState(), nil
	}
	if errors.Is(err, ErrChecksumMismatch) && data != nil {
		r.logger.Warn("stored state failed its checksum, normalizing it anyway", "key", r.key, "error", err)
		err = nil
	}
	if err != nil {
		return models.AppState{}, fmt.Errorf("load state: %w", err)
	}

	s, err := state.NormalizeJSON(data)
	if err != nil {
		r.logger.Warn("stored state is not valid JSON, using defaults", "key", r.key, "error", err)
		return models.DefaultState(), nil
	}
	return s, nil
}

// Save writes s as JSON. Callers pass normalized state.
func (r *StateRepository) Save(ctx context.Context, s models.AppState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := r.kv.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (r *StateRepository) Close() error {
	return r.kv.Close()
}
