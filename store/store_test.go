package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/tod/internal/config"
	"github.com/josephgoksu/tod/models"
)

// kvContract exercises the behaviour every driver must share.
func kvContract(t *testing.T, kv KVStore) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, "tod-state", []byte(`{"theme":"dark"}`)))
	got, err := kv.Get(ctx, "tod-state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(got))

	require.NoError(t, kv.Put(ctx, "tod-state", []byte(`{"theme":"light"}`)))
	got, err = kv.Get(ctx, "tod-state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(got))

	_, err = kv.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	kv := NewMemoryStore()
	defer func() { _ = kv.Close() }()
	kvContract(t, kv)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, kv.Put(ctx, "k", buf))
	buf[0] = 'x'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteStore(t *testing.T) {
	kv, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()
	kvContract(t, kv)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tod.db")
	ctx := context.Background()

	kv, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "tod-state", []byte(`{"tags":["Work"]}`)))
	require.NoError(t, kv.Close())

	kv, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()
	got, err := kv.Get(ctx, "tod-state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags":["Work"]}`, string(got))
}

func TestFileStore(t *testing.T) {
	kv, err := NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	kvContract(t, kv)
}

func TestFileStore_WritesChecksumAndNoTempFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	kv, err := NewFileStore(fs, "/data")
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), "tod-state", []byte(`{}`)))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"tod-state.json", "tod-state.json.checksum"}, names)
}

func TestFileStore_DetectsTampering(t *testing.T) {
	fs := afero.NewMemMapFs()
	kv, err := NewFileStore(fs, "/data")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, "tod-state", []byte(`{"theme":"dark"}`)))

	require.NoError(t, afero.WriteFile(fs, "/data/tod-state.json", []byte(`{"theme":"light"}`), 0o644))
	got, err := kv.Get(ctx, "tod-state")
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.JSONEq(t, `{"theme":"light"}`, string(got))
}

func TestStateRepository_LoadsHandEditedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	kv, err := NewFileStore(fs, "/data")
	require.NoError(t, err)
	repo := NewStateRepository(kv, "tod-state", nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.DefaultState()))
	require.NoError(t, afero.WriteFile(fs, "/data/tod-state.json", []byte(`{"theme":"dark","tags":["Home","Home"]}`), 0o644))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, got.Theme)
	assert.Equal(t, []string{"Home"}, got.Tags)

	require.NoError(t, repo.Save(ctx, got))
	_, err = kv.Get(ctx, "tod-state")
	assert.NoError(t, err)
}

func TestFileStore_LoadsFileWithoutChecksum(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/tod-state.json", []byte(`{"theme":"dark"}`), 0o644))
	kv, err := NewFileStore(fs, "/data")
	require.NoError(t, err)

	got, err := kv.Get(context.Background(), "tod-state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(got))
}

func TestFileStore_EscapesKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	kv, err := NewFileStore(fs, "/data")
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), "../escape", []byte(`1`)))

	exists, err := afero.Exists(fs, "/escape.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOpen_Drivers(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, kv)

	kv, err = Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "tod.db")}})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, kv)
	require.NoError(t, kv.Close())

	kv, err = Open(ctx, config.StoreConfig{Driver: config.DriverFile, File: config.FileConfig{Dir: filepath.Join(dir, "files")}})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	_, err = Open(ctx, config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Put(context.Context, string, []byte) error    { return f.err }
func (f failingStore) Close() error                                   { return nil }

func TestStateRepository_LoadDefaults(t *testing.T) {
	repo := NewStateRepository(NewMemoryStore(), "tod-state", nil)
	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultState(), s)
}

func TestStateRepository_UndecodableIsDefaults(t *testing.T) {
	kv := NewMemoryStore()
	require.NoError(t, kv.Put(context.Background(), "tod-state", []byte("{not json")))
	repo := NewStateRepository(kv, "tod-state", nil)

	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultState(), s)
}

func TestStateRepository_LegacyShapeIsRepaired(t *testing.T) {
	kv := NewMemoryStore()
	require.NoError(t, kv.Put(context.Background(), "tod-state", []byte(`{"theme":"neon","tags":[],"tasks":[{"title":"x","id":"7"}]}`)))
	repo := NewStateRepository(kv, "tod-state", nil)

	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, s.Theme)
	assert.Equal(t, models.DefaultTags(), s.Tags)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, float64(7), s.Tasks[0].ID)
}

func TestStateRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := NewStateRepository(NewMemoryStore(), "tod-state", nil)
	ctx := context.Background()

	want := models.DefaultState()
	want.Theme = models.ThemeDark
	want.FilterByTags = []string{"Work"}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStateRepository_StoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	repo := NewStateRepository(failingStore{err: boom}, "tod-state", nil)

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, repo.Save(context.Background(), models.DefaultState()), boom)
}
