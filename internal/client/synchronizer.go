package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/josephgoksu/tod/internal/state"
)

// Status is the sync state shown to users.
type Status struct {
	Loading           bool
	Syncing           bool
	Error             error
	UsingLocalStorage bool
	Mode              Mode
	Pending           []string
}

// Update computes a slice's next value from its previous one.
// prev is nil when the slice has no value yet. It runs with the
// synchronizer locked and must not call back into it.
type Update func(prev json.RawMessage) (json.RawMessage, error)

// Value is an Update that ignores the previous value.
func Value(v json.RawMessage) Update {
	return func(json.RawMessage) (json.RawMessage, error) { return v, nil }
}

// Options configures a Synchronizer.
type Options struct {
	Remote Remote
	// Local holds mirrored slices. Nil keeps them in memory only.
	Local  *LocalStore
	Logger *slog.Logger
	// RetryInterval bounds how often a degraded synchronizer retries the
	// remote. Zero retries on every Load and Set.
	RetryInterval time.Duration
	// Now is the clock used for retry throttling. Defaults to time.Now.
	Now func() time.Time
}

// Synchronizer mirrors state slices locally and pushes changes to the
// remote blob with fetch, merge, replace. Concurrent Sets race and the
// last replace wins.
type Synchronizer struct {
	remote   Remote
	local    *LocalStore
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	mode    Mode
	mirror  map[string]json.RawMessage
	loaded  bool
	loading bool
	syncing int
	lastErr error
	retry   *rate.Limiter
}

// New builds a Synchronizer starting in remote mode.
func New(opts Options) *Synchronizer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Local == nil {
		opts.Local = &LocalStore{fs: afero.NewMemMapFs(), dir: "/"}
	}
	return &Synchronizer{
		remote:   opts.Remote,
		local:    opts.Local,
		logger:   opts.Logger,
		interval: opts.RetryInterval,
		now:      opts.Now,
		mode:     ModeRemote,
		mirror:   make(map[string]json.RawMessage),
		retry:    newRetryLimiter(opts.RetryInterval, opts.Now()),
	}
}

// newRetryLimiter returns a limiter whose first token is already spent,
// so the first retry happens one interval after degrading.
func newRetryLimiter(interval time.Duration, now time.Time) *rate.Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	l := rate.NewLimiter(limit, 1)
	l.AllowN(now, 1)
	return l
}

// Status returns a snapshot of the sync state.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	st := Status{
		Loading:           s.loading,
		Syncing:           s.syncing > 0,
		Error:             s.lastErr,
		UsingLocalStorage: s.mode == ModeDegraded,
		Mode:              s.mode,
	}
	s.mu.Unlock()

	if pending, err := s.local.Pending(); err == nil {
		st.Pending = pending
	}
	return st
}

// Mode returns the current mode.
func (s *Synchronizer) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Mirror returns the last known value for key.
func (s *Synchronizer) Mirror(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.mirror[key]
	return v, ok
}

// Load reads the slice key. In remote mode it fetches the blob and returns
// the field, or initial when absent. A failed fetch degrades the
// synchronizer and the local slice (or initial) is returned instead.
// The returned error is only for local storage failures.
func (s *Synchronizer) Load(ctx context.Context, key string, initial json.RawMessage) (json.RawMessage, error) {
	s.mu.Lock()
	// Only the first Load clears loading, so overlapping loads keep it set.
	first := !s.loaded
	if first {
		s.loaded = true
		s.loading = true
	}
	s.mu.Unlock()

	defer func() {
		if first {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}
	}()

	s.maybeRetry(ctx)

	if s.Mode() == ModeRemote {
		blob, err := s.remote.Fetch(ctx)
		s.record(err)
		if err == nil {
			value, ok := blob.Slice(key)
			if !ok {
				value = initial
			}
			s.setMirror(key, value)
			return value, nil
		}
		s.logger.Warn("remote load failed, using local storage", "slice", key, "kind", Classify(err), "error", err)
	}

	value, ok, err := s.local.Read(key)
	if err != nil {
		s.setMirror(key, initial)
		return initial, err
	}
	if !ok {
		value = initial
	}
	s.setMirror(key, value)
	return value, nil
}

// Set applies update to the slice key. The mirror changes before any network
// call. In degraded mode only local storage is written. In remote mode the
// current blob is fetched, merged and replaced; a failure writes the new
// value locally and degrades the synchronizer. Remote failures are reported
// through Status, not the returned error.
func (s *Synchronizer) Set(ctx context.Context, key string, update Update) error {
	s.mu.Lock()
	next, err := update(s.mirror[key])
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", key, err)
	}
	s.mirror[key] = next
	s.syncing++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncing--
		s.mu.Unlock()
	}()

	if s.Mode() == ModeDegraded {
		if err := s.local.Write(key, next); err != nil {
			return err
		}
		s.maybeRetry(ctx)
		return nil
	}

	if err := s.push(ctx, key, next); err != nil {
		s.logger.Warn("remote save failed, writing local storage", "slice", key, "kind", Classify(err), "error", err)
		return s.local.Write(key, next)
	}
	return nil
}

func (s *Synchronizer) push(ctx context.Context, key string, value json.RawMessage) error {
	blob, err := s.remote.Fetch(ctx)
	if err != nil {
		s.record(err)
		return err
	}
	err = s.remote.Replace(ctx, state.MergeSlice(blob, key, value))
	s.record(err)
	return err
}

// Reconcile pushes every pending local slice into the remote blob and
// returns to remote mode. With nothing pending it only checks the remote.
func (s *Synchronizer) Reconcile(ctx context.Context) error {
	pending, err := s.local.Pending()
	if err != nil {
		return err
	}

	blob, err := s.remote.Fetch(ctx)
	if err != nil {
		s.record(err)
		return err
	}

	merged := blob
	pushed := make(map[string]json.RawMessage, len(pending))
	for _, key := range pending {
		value, ok, err := s.local.Read(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		merged = state.MergeSlice(merged, key, value)
		pushed[key] = value
	}

	if len(pending) > 0 {
		if err := s.remote.Replace(ctx, merged); err != nil {
			s.record(err)
			return err
		}
	}
	s.record(nil)

	if err := s.local.ClearPending(pending); err != nil {
		return err
	}

	s.mu.Lock()
	maps.Copy(s.mirror, pushed)
	s.mu.Unlock()

	if len(pending) > 0 {
		s.logger.Info("reconciled local changes", "slices", pending)
	}
	return nil
}

// maybeRetry reconciles when degraded and the retry limiter allows it.
func (s *Synchronizer) maybeRetry(ctx context.Context) {
	s.mu.Lock()
	allowed := s.mode == ModeDegraded && s.retry.AllowN(s.now(), 1)
	s.mu.Unlock()
	if !allowed {
		return
	}
	if err := s.Reconcile(ctx); err != nil {
		s.logger.Debug("remote still unavailable", "kind", Classify(err), "error", err)
	}
}

// record applies the outcome of a remote call to mode and status.
func (s *Synchronizer) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.mode
	s.mode = Transition(s.mode, OutcomeOf(err))
	s.lastErr = err
	if prev == ModeRemote && s.mode == ModeDegraded {
		s.retry = newRetryLimiter(s.interval, s.now())
	}
}

func (s *Synchronizer) setMirror(key string, value json.RawMessage) {
	s.mu.Lock()
	s.mirror[key] = value
	s.mu.Unlock()
}
