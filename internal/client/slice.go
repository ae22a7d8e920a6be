package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Slice is a typed handle on one state slice.
type Slice[T any] struct {
	sync    *Synchronizer
	key     string
	initial T
}

// Bind returns a handle for key, using initial when the slice has no value
// or its value does not decode into T.
func Bind[T any](s *Synchronizer, key string, initial T) *Slice[T] {
	return &Slice[T]{sync: s, key: key, initial: initial}
}

// Key returns the slice key.
func (b *Slice[T]) Key() string { return b.key }

// Load reads the slice through the synchronizer.
func (b *Slice[T]) Load(ctx context.Context) (T, error) {
	initial, err := json.Marshal(b.initial)
	if err != nil {
		return b.initial, fmt.Errorf("encode initial %s: %w", b.key, err)
	}
	raw, err := b.sync.Load(ctx, b.key, initial)
	return b.decode(raw), err
}

// Get returns the mirrored value without any I/O.
func (b *Slice[T]) Get() T {
	raw, _ := b.sync.Mirror(b.key)
	return b.decode(raw)
}

// Set replaces the slice value.
func (b *Slice[T]) Set(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.key, err)
	}
	return b.sync.Set(ctx, b.key, Value(raw))
}

// Update derives the next value from the current one.
func (b *Slice[T]) Update(ctx context.Context, fn func(prev T) T) error {
	return b.sync.Set(ctx, b.key, func(prev json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(fn(b.decode(prev)))
	})
}

// TryUpdate is Update for functions that can refuse the change. A returned
// error leaves the slice untouched and is passed through.
func (b *Slice[T]) TryUpdate(ctx context.Context, fn func(prev T) (T, error)) error {
	return b.sync.Set(ctx, b.key, func(prev json.RawMessage) (json.RawMessage, error) {
		next, err := fn(b.decode(prev))
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

func (b *Slice[T]) decode(raw json.RawMessage) T {
	if len(raw) == 0 {
		return b.initial
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return b.initial
	}
	return v
}
