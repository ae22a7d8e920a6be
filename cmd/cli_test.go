package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/tod/internal/config"
	"github.com/josephgoksu/tod/internal/logger"
	"github.com/josephgoksu/tod/internal/server"
	"github.com/josephgoksu/tod/models"
	"github.com/josephgoksu/tod/store"
)

// cliEnv runs commands against an in-process state service.
type cliEnv struct {
	dataDir string
	kv      *store.MemoryStore
	down    atomic.Bool
	stderr  bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := &cliEnv{dataDir: t.TempDir(), kv: store.NewMemoryStore()}

	repo := store.NewStateRepository(env.kv, config.DefaultStateKey, logger.Discard())
	srv := server.New(config.ServerConfig{BasePath: config.DefaultBasePath}, repo, logger.Discard())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		srv.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("TOD_CLIENT_URL", ts.URL+config.DefaultBasePath)
	t.Setenv("TOD_LOG_LEVEL", "error")

	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })
	return env
}

// resetFlags restores flag values, which persist on the shared command tree.
func resetFlags() {
	_ = rootCmd.PersistentFlags().Set("json", "false")
	taskPriority = models.DefaultPriority
	taskDescription = ""
	taskDeadline = ""
	taskStatus = string(models.StatusTodo)
	taskTags = nil
	listStatus = ""
	listTags = nil
	listAll = false
	_ = stateExportCmd.Flags().Set("format", formatJSON)
	_ = stateNormalizeCmd.Flags().Set("format", formatJSON)
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	e.stderr.Reset()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&e.stderr)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(append([]string{"--data-dir", e.dataDir}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "tod %v", args)
	return out
}

func (e *cliEnv) stored(t *testing.T) models.AppState {
	t.Helper()
	raw, err := e.kv.Get(context.Background(), config.DefaultStateKey)
	require.NoError(t, err)
	var s models.AppState
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func (e *cliEnv) listTasks(t *testing.T, args ...string) []models.Task {
	t.Helper()
	out := e.mustRun(t, append([]string{"task", "list", "--json"}, args...)...)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	return tasks
}

func TestTaskAdd_ListsNormalizedTask(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "task", "add", "  Write report  ", "--priority", "High", "--tag", "Work", "--deadline", "2026-12-01")
	assert.Contains(t, out, "Added 1792314000000: Write report")

	tasks := env.listTasks(t)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, float64(1792314000000), task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, "High", task.Priority)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, []string{"Work"}, task.Tags)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, "2026-12-01", *task.Deadline)
	assert.Equal(t, "2026-10-18T09:00:00.000Z", task.CreatedAt)

	assert.Equal(t, tasks, env.stored(t).Tasks)
}

func TestTaskAdd_IDsStayUnique(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "task", "add", "one")
	env.mustRun(t, "task", "add", "two")

	tasks := env.listTasks(t)
	require.Len(t, tasks, 2)
	assert.Equal(t, tasks[0].ID+1, tasks[1].ID)
}

func TestTaskAdd_BlankTitleRejected(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "task", "add", "   ")
	require.Error(t, err)
	assert.Empty(t, env.listTasks(t))
}

func TestTaskStatusAndRemove(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "task", "add", "Ship it")
	id := "1792314000000"

	env.mustRun(t, "task", "status", id, "In Progress")
	assert.Equal(t, models.StatusInProgress, env.listTasks(t)[0].Status)

	env.mustRun(t, "task", "done", id)
	assert.Len(t, env.listTasks(t, "--status", "Done"), 1)
	assert.Empty(t, env.listTasks(t, "--status", "To-Do"))

	_, err := env.run(t, "task", "status", id, "Blocked")
	assert.ErrorContains(t, err, "unknown status")

	env.mustRun(t, "task", "rm", id)
	assert.Empty(t, env.listTasks(t))

	_, err = env.run(t, "task", "rm", id)
	assert.ErrorContains(t, err, "task 1792314000000 not found")
}

func TestTaskList_RespectsSavedFilter(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "task", "add", "work item", "--tag", "Work")
	env.mustRun(t, "task", "add", "home item", "--tag", "Personal")

	env.mustRun(t, "filter", "Work")
	tasks := env.listTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "work item", tasks[0].Title)

	assert.Len(t, env.listTasks(t, "--all"), 2)

	env.mustRun(t, "filter")
	assert.Len(t, env.listTasks(t), 2)
}

func TestFilter_UnknownTagRejected(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "filter", "Nope")
	assert.ErrorContains(t, err, `unknown tag "Nope"`)
}

func TestTagAddRemove_KeepsFilterConsistent(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "tag", "add", "Errands", "Work")
	env.mustRun(t, "filter", "Errands")

	out := env.mustRun(t, "tag", "list", "--json")
	var listed map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, []string{"Work", "Personal", "Errands"}, listed["tags"])
	assert.Equal(t, []string{"Errands"}, listed["filterByTags"])

	env.mustRun(t, "tag", "rm", "Errands")
	s := env.stored(t)
	assert.Equal(t, []string{"Work", "Personal"}, s.Tags)
	assert.Empty(t, s.FilterByTags)

	_, err := env.run(t, "tag", "rm", "Work", "Personal")
	assert.ErrorContains(t, err, "cannot remove every tag")
}

func TestTagAdd_EnforcesLimit(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "tag", "add", "a", "b", "c", "d", "e", "f", "g", "h", "i")
	assert.ErrorContains(t, err, "too many tags")

	_, err = env.kv.Get(context.Background(), config.DefaultStateKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTheme(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, "light\n", env.mustRun(t, "theme"))
	env.mustRun(t, "theme", "DARK")
	assert.Equal(t, models.ThemeDark, env.stored(t).Theme)

	_, err := env.run(t, "theme", "blue")
	assert.ErrorContains(t, err, "unknown theme")
}

func TestSliceGetSet(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "slice", "set", "priorities", `["Now","Later"]`)
	assert.JSONEq(t, `["Now","Later"]`, env.mustRun(t, "slice", "get", "priorities"))

	_, err := env.run(t, "slice", "get", "colour")
	assert.ErrorContains(t, err, "unknown slice")

	_, err = env.run(t, "slice", "set", "theme", "dark")
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestOfflineChanges_PushedBySyncPush(t *testing.T) {
	env := newCLIEnv(t)
	env.down.Store(true)

	env.mustRun(t, "task", "add", "offline task")
	assert.Contains(t, env.stderr.String(), "Saved locally")
	assert.FileExists(t, filepath.Join(env.dataDir, "local", "tasks.json"))

	out := env.mustRun(t, "sync", "status")
	assert.Contains(t, out, "local only")
	assert.Contains(t, out, "pending: tasks")

	_, err := env.kv.Get(context.Background(), config.DefaultStateKey)
	require.ErrorIs(t, err, store.ErrNotFound)

	env.down.Store(false)
	out = env.mustRun(t, "sync", "push")
	assert.Contains(t, out, "Pushed 1 slice(s)")

	s := env.stored(t)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, "offline task", s.Tasks[0].Title)

	out = env.mustRun(t, "sync", "status", "--json")
	var st syncStatusResponse
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "remote", st.Mode)
	assert.Empty(t, st.Pending)
}

func TestStateNormalize_Offline(t *testing.T) {
	env := newCLIEnv(t)
	input := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"theme":"dark","tags":[],"tasks":[{"id":1,"title":"  a  ","status":"Nope"},{"title":"no id"}]}`), 0644))

	out := env.mustRun(t, "state", "normalize", input, "--format", "yaml")
	assert.Contains(t, out, "theme: dark")
	assert.Contains(t, out, "title: a")
	assert.Contains(t, out, "status: To-Do")
	assert.Contains(t, out, "- Work")
	assert.NotContains(t, out, "no id")

	_, err := env.run(t, "state", "normalize", input, "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestStatePutAndExport(t *testing.T) {
	env := newCLIEnv(t)
	input := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"theme":"dark","priorities":["P1"]}`), 0644))

	env.mustRun(t, "state", "put", input)
	assert.Equal(t, []string{"P1"}, env.stored(t).Priorities)

	out := env.mustRun(t, "state", "export", "--format", "toml")
	assert.Contains(t, out, `theme = "dark"`)
	assert.Contains(t, out, `priorities = ["P1"]`)
}

func TestFilterTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Status: models.StatusTodo, Tags: []string{"Work", "Home"}},
		{ID: 2, Status: models.StatusDone, Tags: []string{"Work"}},
		{ID: 3, Status: models.StatusTodo},
	}
	ids := func(ts []models.Task) []float64 {
		out := []float64{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []float64{1, 2, 3}, ids(filterTasks(tasks, "", nil)))
	assert.Equal(t, []float64{1, 2}, ids(filterTasks(tasks, "", []string{"Work"})))
	assert.Equal(t, []float64{1}, ids(filterTasks(tasks, "", []string{"Work", "Home"})))
	assert.Equal(t, []float64{1, 3}, ids(filterTasks(tasks, models.StatusTodo, nil)))
}

func TestNextTaskID(t *testing.T) {
	at := time.UnixMilli(1000)
	assert.Equal(t, float64(1000), nextTaskID(nil, at))
	assert.Equal(t, float64(5001), nextTaskID([]models.Task{{ID: 5000}, {ID: 3}}, at))
}
