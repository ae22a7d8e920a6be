// Package state holds the rules that turn arbitrary client input into a
// well-formed models.AppState, and the merge used to update one field of
// the stored state blob.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/josephgoksu/tod/models"
)

// TimestampLayout matches the ISO 8601 form a browser's toISOString produces.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Normalizer sanitizes untrusted state. The zero value uses the wall clock.
type Normalizer struct {
	// Now supplies createdAt for tasks that lack a usable one.
	Now func() time.Time
}

var defaultNormalizer = Normalizer{}

// Normalize converts any decoded JSON value into a valid AppState.
// It never fails: missing or invalid fields fall back to their defaults.
func Normalize(v any) models.AppState {
	return defaultNormalizer.Normalize(v)
}

// NormalizeJSON decodes data and normalizes the result.
// Only a decode error is returned; any well-formed JSON normalizes.
func NormalizeJSON(data []byte) (models.AppState, error) {
	return defaultNormalizer.NormalizeJSON(data)
}

// SanitizeTask validates a single task with the wall clock.
func SanitizeTask(v any) (models.Task, bool) {
	return defaultNormalizer.SanitizeTask(v)
}

// Decode parses a JSON document into the generic form Normalize accepts.
// Numbers stay json.Number so values outside the float64 range still
// decode. Trailing data after the first value is an error.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode state: unexpected data after JSON value")
	}
	return v, nil
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// NormalizeJSON decodes data and normalizes the result.
func (n Normalizer) NormalizeJSON(data []byte) (models.AppState, error) {
	v, err := Decode(data)
	if err != nil {
		return models.AppState{}, err
	}
	return n.Normalize(v), nil
}

// Normalize converts any decoded JSON value into a valid AppState.
func (n Normalizer) Normalize(v any) models.AppState {
	base := models.DefaultState()

	obj, ok := v.(map[string]any)
	if !ok {
		return base
	}

	if raw, ok := obj[models.SliceTags].([]any); ok {
		base.Tags = SanitizeStringArray(raw, models.MaxListItemLen, models.MaxTags, models.DefaultTags())
	}

	if raw, ok := obj[models.SlicePriorities].([]any); ok {
		base.Priorities = SanitizeStringArray(raw, models.MaxListItemLen, models.MaxPriorities, models.DefaultPriorities())
	}

	if theme, ok := obj[models.SliceTheme].(string); ok && theme == string(models.ThemeDark) {
		base.Theme = models.ThemeDark
	}

	if raw, ok := obj[models.SliceFilterByTags].([]any); ok {
		filter := SanitizeStringArray(raw, models.MaxListItemLen, models.MaxFilterTags, []string{})
		kept := make([]string, 0, len(filter))
		for _, tag := range filter {
			if slices.Contains(base.Tags, tag) {
				kept = append(kept, tag)
			}
		}
		base.FilterByTags = kept
	}

	if raw, ok := obj[models.SliceTasks].([]any); ok {
		for _, item := range raw {
			if task, ok := n.SanitizeTask(item); ok {
				base.Tasks = append(base.Tasks, task)
			}
		}
	}

	return base
}

// SanitizeTask validates a single task. It reports false when v is not an
// object, has no usable title, or has no finite id.
func (n Normalizer) SanitizeTask(v any) (models.Task, bool) {
	raw, ok := v.(map[string]any)
	if !ok {
		return models.Task{}, false
	}

	title, ok := coerceTrimmedString(raw["title"], models.MaxTitleLength)
	if !ok {
		return models.Task{}, false
	}

	rawID, present := raw["id"]
	if !present {
		return models.Task{}, false
	}
	id, ok := toNumber(rawID)
	if !ok || !isFinite(id) {
		return models.Task{}, false
	}

	task := models.Task{
		ID:          id,
		Title:       title,
		Status:      models.StatusTodo,
		Priority:    models.DefaultPriority,
		Description: "",
		Tags:        SanitizeStringArray(raw["tags"], models.MaxTagLength, models.MaxTaskTags, []string{}),
	}

	if s, ok := raw["status"].(string); ok && models.TaskStatus(s).Valid() {
		task.Status = models.TaskStatus(s)
	}
	if p, ok := coerceTrimmedString(raw["priority"], models.MaxPriorityLength); ok {
		task.Priority = p
	}
	if d, ok := coerceTrimmedString(raw["description"], models.MaxDescriptionLength); ok {
		task.Description = d
	}
	if d, ok := shortString(raw["deadline"], models.MaxDateLength); ok {
		task.Deadline = &d
	}
	if c, ok := shortString(raw["createdAt"], models.MaxDateLength); ok {
		task.CreatedAt = c
	} else {
		task.CreatedAt = n.now().UTC().Format(TimestampLayout)
	}

	return task, true
}

// SanitizeStringArray keeps the trimmed, truncated, non-empty, distinct
// string entries of v in order, up to maxItems. A non-array v, or one
// with no surviving entries, yields fallback.
func SanitizeStringArray(v any, maxLength, maxItems int, fallback []string) []string {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		items = make([]any, len(list))
		for i, s := range list {
			items[i] = s
		}
	default:
		return fallback
	}

	result := make([]string, 0, min(len(items), maxItems))
	for _, entry := range items {
		if len(result) >= maxItems {
			break
		}
		text, ok := coerceTrimmedString(entry, maxLength)
		if ok && !slices.Contains(result, text) {
			result = append(result, text)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
