package client

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// DefaultWatchDelay is how long the watcher waits for writes to settle.
const DefaultWatchDelay = 500 * time.Millisecond

// Watcher marks externally edited slice files as pending and reconciles
// once the edits settle.
type Watcher struct {
	sync   *Synchronizer
	local  *LocalStore
	logger *slog.Logger
	delay  time.Duration

	mu     sync.Mutex
	hashes map[string][32]byte
	keys   []string
	timer  *time.Timer
	flush  chan []string
}

// NewWatcher watches the synchronizer's local directory. A zero delay uses DefaultWatchDelay.
func NewWatcher(s *Synchronizer, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	return &Watcher{
		sync:   s,
		local:  s.local,
		logger: s.logger,
		delay:  delay,
		hashes: make(map[string][32]byte),
		flush:  make(chan []string, 1),
	}
}

// Run blocks until ctx is done. Each settled batch of slice edits is
// recorded as pending and pushed with Reconcile; a failed push stays pending.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.local.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.local.Dir(), err)
	}
	w.logger.Info("watching local state", "dir", w.local.Dir())

	defer w.stopTimer()
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case keys := <-w.flush:
			w.handleBatch(ctx, keys)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	key, ok := w.local.KeyForPath(event.Name)
	if !ok || !w.changed(key, event.Name) {
		return
	}
	w.logger.Debug("slice file changed", "slice", key, "op", event.Op.String())
	w.add(key)
}

// changed reports whether the file content differs from the last seen version.
func (w *Watcher) changed(key, path string) bool {
	data, err := afero.ReadFile(w.local.fs, path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.hashes[key]; ok && prev == sum {
		return false
	}
	w.hashes[key] = sum
	return true
}

// add queues key and restarts the settle timer.
func (w *Watcher) add(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !slices.Contains(w.keys, key) {
		w.keys = append(w.keys, key)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.settle)
}

func (w *Watcher) settle() {
	w.mu.Lock()
	keys := w.keys
	w.keys = nil
	w.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	select {
	case w.flush <- keys:
	default:
		// A batch is already waiting; requeue so nothing is dropped.
		for _, k := range keys {
			w.add(k)
		}
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleBatch(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := w.local.MarkPending(key); err != nil {
			w.logger.Error("mark slice pending", "slice", key, "error", err)
		}
	}
	if err := w.sync.Reconcile(ctx); err != nil {
		w.logger.Warn("push after local edit failed", "slices", keys, "kind", Classify(err), "error", err)
		return
	}
	w.logger.Info("pushed local edits", "slices", keys)
}
