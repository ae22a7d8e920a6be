package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	sliceFileExt    = ".json"
	pendingFileName = ".pending.json"
)

// LocalStore keeps one file per state slice, plus the set of slices
// written while the remote was unreachable.
type LocalStore struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewLocalStore roots a store at dir. A nil fs uses the OS filesystem.
func NewLocalStore(fsys afero.Fs, dir string) (*LocalStore, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create local state dir %s: %w", dir, err)
	}
	return &LocalStore{fs: fsys, dir: dir}, nil
}

// Dir returns the directory holding slice files.
func (l *LocalStore) Dir() string { return l.dir }

// SliceFile returns the path of the file for key.
func (l *LocalStore) SliceFile(key string) string {
	return filepath.Join(l.dir, key+sliceFileExt)
}

// KeyForPath returns the slice key stored at path, if path is a slice file in this store.
func (l *LocalStore) KeyForPath(path string) (string, bool) {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(l.dir) {
		return "", false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, sliceFileExt) {
		return "", false
	}
	return strings.TrimSuffix(base, sliceFileExt), true
}

// Read returns the stored slice value. ok is false when the slice was never
// written or holds something that is not JSON.
func (l *LocalStore) Read(key string) (json.RawMessage, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := afero.ReadFile(l.fs, l.SliceFile(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read local slice %s: %w", key, err)
	}
	if !json.Valid(data) {
		return nil, false, nil
	}
	return json.RawMessage(data), true, nil
}

// Write stores value for key and records key as pending.
func (l *LocalStore) Write(key string, value json.RawMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeFile(l.SliceFile(key), value); err != nil {
		return fmt.Errorf("write local slice %s: %w", key, err)
	}
	return l.markPendingLocked(key)
}

// MarkPending records key as written locally but not yet pushed.
func (l *LocalStore) MarkPending(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markPendingLocked(key)
}

// Pending returns the slices awaiting reconciliation, sorted.
func (l *LocalStore) Pending() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readPendingLocked()
}

// ClearPending removes keys from the pending set.
func (l *LocalStore) ClearPending(keys []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.readPendingLocked()
	if err != nil {
		return err
	}
	pending = slices.DeleteFunc(pending, func(k string) bool { return slices.Contains(keys, k) })
	return l.writePendingLocked(pending)
}

func (l *LocalStore) markPendingLocked(key string) error {
	pending, err := l.readPendingLocked()
	if err != nil {
		return err
	}
	if slices.Contains(pending, key) {
		return nil
	}
	pending = append(pending, key)
	slices.Sort(pending)
	return l.writePendingLocked(pending)
}

func (l *LocalStore) readPendingLocked() ([]string, error) {
	data, err := afero.ReadFile(l.fs, filepath.Join(l.dir, pendingFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending set: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		// An unreadable pending file loses nothing but the push hint.
		return []string{}, nil
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (l *LocalStore) writePendingLocked(keys []string) error {
	path := filepath.Join(l.dir, pendingFileName)
	if len(keys) == 0 {
		if err := l.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear pending set: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode pending set: %w", err)
	}
	if err := l.writeFile(path, data); err != nil {
		return fmt.Errorf("write pending set: %w", err)
	}
	return nil
}

func (l *LocalStore) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(l.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := l.fs.Rename(tmp, path); err != nil {
		_ = l.fs.Remove(tmp)
		return err
	}
	return nil
}
