package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	dataFileExt    = ".json"
	checksumSuffix = ".checksum"
)

// FileStore implements KVStore with one file per key plus a sha256 checksum file.
// Writes go to temp files first and are renamed into place.
type FileStore struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir. A nil fs uses the OS filesystem.
func NewFileStore(fsys afero.Fs, dir string) (*FileStore, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

// calculateChecksum computes the SHA256 checksum of the given data.
func calculateChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+dataFileExt)
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.path(key)
	data, err := afero.ReadFile(s.fs, filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read data file %s: %w", filePath, err)
	}

	// Files written before checksums existed load as-is; the next Put adds one.
	expected, err := afero.ReadFile(s.fs, filePath+checksumSuffix)
	switch {
	case err == nil:
		if actual := calculateChecksum(data); actual != strings.TrimSpace(string(expected)) {
			return data, fmt.Errorf("%w for %s - expected %s, got %s - file was edited or is corrupt",
				ErrChecksumMismatch, filePath, strings.TrimSpace(string(expected)), actual)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("error checking checksum file %s: %w", filePath+checksumSuffix, err)
	}
	return data, nil
}

func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.path(key)
	checksumPath := filePath + checksumSuffix
	tempFilePath := filePath + ".tmp"
	tempChecksumPath := checksumPath + ".tmp"

	defer func() { _ = s.fs.Remove(tempFilePath) }()
	defer func() { _ = s.fs.Remove(tempChecksumPath) }()

	if err := afero.WriteFile(s.fs, tempFilePath, value, 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary data file %s: %w", tempFilePath, err)
	}
	if err := afero.WriteFile(s.fs, tempChecksumPath, []byte(calculateChecksum(value)), 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary checksum file %s: %w", tempChecksumPath, err)
	}
	if err := s.fs.Rename(tempFilePath, filePath); err != nil {
		return fmt.Errorf("failed to rename temporary data file %s to %s: %w", tempFilePath, filePath, err)
	}
	if err := s.fs.Rename(tempChecksumPath, checksumPath); err != nil {
		return fmt.Errorf("data file %s updated, but failed to update checksum file: %w", filePath, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
