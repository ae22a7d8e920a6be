package models

import (
	"fmt"
	"slices"
)

// Theme is the UI colour scheme persisted alongside the tasks.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Limits for the top-level lists.
const (
	MaxTags        = 10
	MaxPriorities  = 6
	MaxFilterTags  = 10
	MaxListItemLen = 20
)

// Slice keys. Each names one independently settable field of AppState.
const (
	SliceTasks        = "tasks"
	SliceTags         = "tags"
	SlicePriorities   = "priorities"
	SliceTheme        = "theme"
	SliceFilterByTags = "filterByTags"
)

// SliceKeys lists every AppState field in wire order.
var SliceKeys = []string{SliceTasks, SliceTags, SlicePriorities, SliceTheme, SliceFilterByTags}

// IsSliceKey reports whether key names an AppState field.
func IsSliceKey(key string) bool {
	return slices.Contains(SliceKeys, key)
}

var (
	defaultTags       = []string{"Work", "Personal"}
	defaultPriorities = []string{"Low", "Medium", "High"}
)

// DefaultTags returns a fresh copy of the fallback tag list.
func DefaultTags() []string { return slices.Clone(defaultTags) }

// DefaultPriorities returns a fresh copy of the fallback priority list.
func DefaultPriorities() []string { return slices.Clone(defaultPriorities) }

// AppState is the whole persisted document for the todo app.
// It is always stored and exchanged as one value.
type AppState struct {
	Tasks        []Task   `json:"tasks" toml:"tasks" yaml:"tasks" validate:"dive"`
	Tags         []string `json:"tags" toml:"tags" yaml:"tags" validate:"min=1,max=10,unique,dive,min=1,max=20"`
	Priorities   []string `json:"priorities" toml:"priorities" yaml:"priorities" validate:"min=1,max=6,unique,dive,min=1,max=20"`
	Theme        Theme    `json:"theme" toml:"theme" yaml:"theme" validate:"oneof=light dark"`
	FilterByTags []string `json:"filterByTags" toml:"filterByTags" yaml:"filterByTags" validate:"max=10,unique,dive,min=1,max=20"`
}

// DefaultState returns the state used for an empty store.
func DefaultState() AppState {
	return AppState{
		Tasks:        []Task{},
		Tags:         DefaultTags(),
		Priorities:   DefaultPriorities(),
		Theme:        ThemeLight,
		FilterByTags: []string{},
	}
}

// Clone returns a deep copy of s.
func (s AppState) Clone() AppState {
	out := AppState{
		Tasks:        make([]Task, len(s.Tasks)),
		Tags:         append([]string{}, s.Tags...),
		Priorities:   append([]string{}, s.Priorities...),
		Theme:        s.Theme,
		FilterByTags: append([]string{}, s.FilterByTags...),
	}
	for i, t := range s.Tasks {
		t.Tags = append([]string{}, t.Tags...)
		if t.Deadline != nil {
			d := *t.Deadline
			t.Deadline = &d
		}
		out.Tasks[i] = t
	}
	return out
}

// ValidateState checks that s satisfies every structural rule of a normalized state,
// including filterByTags being a subset of tags.
func ValidateState(s AppState) error {
	if err := ValidateStruct(s); err != nil {
		return err
	}
	for _, tag := range s.FilterByTags {
		if !slices.Contains(s.Tags, tag) {
			return fmt.Errorf("filterByTags entry %q is not a known tag", tag)
		}
	}
	return nil
}
