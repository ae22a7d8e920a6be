package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/models"
)

// FormatID prints a task id without exponent or trailing zeros.
func FormatID(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}

// RenderTasks renders tasks as a table, or a hint when there are none.
func RenderTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return StyleSubtle.Render("No tasks.") + "\n"
	}

	t := &Table{
		Headers:  []string{"", "ID", "Title", "Priority", "Tags", "Deadline"},
		MaxWidth: 40,
	}
	for _, task := range tasks {
		deadline := ""
		if task.Deadline != nil {
			deadline = *task.Deadline
		}
		t.Rows = append(t.Rows, []string{
			StatusStyle(task.Status).Render(StatusIcon(task.Status)),
			FormatID(task.ID),
			task.Title,
			task.Priority,
			strings.Join(task.Tags, ", "),
			deadline,
		})
	}
	return t.Render()
}

// RenderTags lists tags, marking those in the active filter.
func RenderTags(tags, filter []string) string {
	var sb strings.Builder
	for _, tag := range tags {
		marker := " "
		for _, f := range filter {
			if f == tag {
				marker = "*"
				break
			}
		}
		fmt.Fprintf(&sb, " %s %s\n", marker, StyleTag.Render(tag))
	}
	return sb.String()
}

// RenderSyncStatus describes a synchronizer status in one or two lines.
func RenderSyncStatus(st client.Status) string {
	var sb strings.Builder
	switch st.Mode {
	case client.ModeDegraded:
		sb.WriteString(StyleWarning.Render("● local only") + " " + StyleSubtle.Render("(state service unreachable)"))
	default:
		sb.WriteString(StyleSuccess.Render("● synced"))
	}
	sb.WriteString("\n")

	if len(st.Pending) > 0 {
		fmt.Fprintf(&sb, "  pending: %s\n", strings.Join(st.Pending, ", "))
	}
	if st.Error != nil {
		fmt.Fprintf(&sb, "  %s %s\n", StyleError.Render("last error:"), st.Error)
	}
	return sb.String()
}
