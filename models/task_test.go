package models

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTask_ValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{
			name: "valid task",
			task: Task{
				ID:        1700000000000,
				Title:     "Buy milk",
				Status:    StatusTodo,
				Priority:  DefaultPriority,
				Tags:      []string{"Work"},
				CreatedAt: "2026-10-18T09:00:00.000Z",
			},
		},
		{
			name: "empty title",
			task: Task{ID: 1, Status: StatusTodo, Priority: DefaultPriority, Tags: []string{}},
			wantErr: true,
		},
		{
			name: "title too long",
			task: Task{ID: 1, Title: strings.Repeat("a", 101), Status: StatusTodo, Priority: DefaultPriority, Tags: []string{}},
			wantErr: true,
		},
		{
			name: "invalid status",
			task: Task{ID: 1, Title: "ok", Status: "Bogus", Priority: DefaultPriority, Tags: []string{}},
			wantErr: true,
		},
		{
			name: "status with a space",
			task: Task{ID: 1, Title: "ok", Status: StatusInProgress, Priority: DefaultPriority, Tags: []string{}},
		},
		{
			name: "non-finite id",
			task: Task{ID: math.Inf(1), Title: "ok", Status: StatusDone, Priority: DefaultPriority, Tags: []string{}},
			wantErr: true,
		},
		{
			name: "duplicate tags",
			task: Task{ID: 1, Title: "ok", Status: StatusDone, Priority: DefaultPriority, Tags: []string{"a", "a"}},
			wantErr: true,
		},
		{
			name: "deadline too long",
			task: Task{ID: 1, Title: "ok", Status: StatusDone, Priority: DefaultPriority, Tags: []string{}, Deadline: strPtr(strings.Repeat("9", 31))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.task)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskStatus_Valid(t *testing.T) {
	assert.True(t, StatusTodo.Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.True(t, StatusDone.Valid())
	assert.False(t, TaskStatus("done").Valid())
	assert.False(t, TaskStatus("").Valid())
}

func TestDefaultState_IsValid(t *testing.T) {
	s := DefaultState()
	require.NoError(t, ValidateState(s))
	assert.Equal(t, []string{"Work", "Personal"}, s.Tags)
	assert.Equal(t, []string{"Low", "Medium", "High"}, s.Priorities)
	assert.Equal(t, ThemeLight, s.Theme)
	assert.NotNil(t, s.Tasks)
	assert.NotNil(t, s.FilterByTags)
}

func TestDefaultState_ReturnsFreshCopies(t *testing.T) {
	a := DefaultState()
	a.Tags[0] = "Changed"
	b := DefaultState()
	assert.Equal(t, "Work", b.Tags[0])
}

func TestValidateState_FilterMustBeSubset(t *testing.T) {
	s := DefaultState()
	s.FilterByTags = []string{"Work", "Errands"}
	assert.Error(t, ValidateState(s))

	s.FilterByTags = []string{"Personal"}
	assert.NoError(t, ValidateState(s))
}

func TestAppState_CloneIsDeep(t *testing.T) {
	s := DefaultState()
	s.Tasks = []Task{{ID: 1, Title: "a", Status: StatusTodo, Priority: "Low", Tags: []string{"Work"}, Deadline: strPtr("2026-10-20")}}

	c := s.Clone()
	c.Tasks[0].Tags[0] = "Personal"
	*c.Tasks[0].Deadline = "2027-01-01"
	c.Tags = append(c.Tags, "Extra")

	assert.Equal(t, "Work", s.Tasks[0].Tags[0])
	assert.Equal(t, "2026-10-20", *s.Tasks[0].Deadline)
	assert.Len(t, s.Tags, 2)
}

func TestIsSliceKey(t *testing.T) {
	for _, k := range SliceKeys {
		assert.True(t, IsSliceKey(k), k)
	}
	assert.False(t, IsSliceKey("Tasks"))
	assert.False(t, IsSliceKey(""))
}
