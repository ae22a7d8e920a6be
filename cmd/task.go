package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/internal/state"
	"github.com/josephgoksu/tod/internal/ui"
	"github.com/josephgoksu/tod/models"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task. The title and every flag go through the same rules the
state service applies, so over-long values are truncated and unknown
statuses fall back to To-Do.

Examples:
  tod task add "Write report" --priority High --tag Work
  tod task add "Renew passport" --deadline 2026-12-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks. By default only tasks carrying every tag in the saved
filter are shown; --all ignores it.`,
	Args: cobra.NoArgs,
	RunE: runTaskList,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Change a task's status",
	Long:  `Set the status to one of: To-Do, In Progress, Done.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskStatus(cmd, []string{args[0], string(models.StatusDone)})
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskRm,
}

var (
	taskPriority    string
	taskDescription string
	taskDeadline    string
	taskStatus      string
	taskTags        []string

	listStatus string
	listTags   []string
	listAll    bool
)

// now is replaced in tests.
var now = time.Now

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskStatusCmd, taskDoneCmd, taskRmCmd)

	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", models.DefaultPriority, "Priority label")
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Longer description")
	taskAddCmd.Flags().StringVar(&taskDeadline, "deadline", "", "Deadline, free-form (e.g. 2026-12-01)")
	taskAddCmd.Flags().StringVarP(&taskStatus, "status", "s", string(models.StatusTodo), "Initial status")
	taskAddCmd.Flags().StringSliceVarP(&taskTags, "tag", "t", nil, "Tag (repeatable)")

	taskListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only show tasks with this status")
	taskListCmd.Flags().StringSliceVarP(&listTags, "tag", "t", nil, "Only show tasks with this tag (repeatable)")
	taskListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Ignore the saved tag filter")
}

func bindTasks(s *client.Synchronizer) *client.Slice[[]models.Task] {
	return client.Bind(s, models.SliceTasks, []models.Task{})
}

// nextTaskID returns the current time in milliseconds, bumped past any existing id.
func nextTaskID(tasks []models.Task, t time.Time) float64 {
	id := float64(t.UnixMilli())
	for _, task := range tasks {
		if task.ID >= id {
			id = task.ID + 1
		}
	}
	return id
}

// buildTask runs the flag values through the state rules.
func buildTask(title string, id float64, createdAt time.Time) (models.Task, error) {
	raw := map[string]any{
		"id":          id,
		"title":       title,
		"status":      taskStatus,
		"priority":    taskPriority,
		"description": taskDescription,
		"tags":        toAnySlice(taskTags),
		"createdAt":   createdAt.UTC().Format(state.TimestampLayout),
	}
	if taskDeadline != "" {
		raw["deadline"] = taskDeadline
	}
	task, ok := state.SanitizeTask(raw)
	if !ok {
		return models.Task{}, fmt.Errorf("task title cannot be empty")
	}
	return task, nil
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))

	_, _, s, err := setup()
	if err != nil {
		return err
	}
	tasks := bindTasks(s)
	if _, err := tasks.Load(cmd.Context()); err != nil {
		return err
	}

	var added models.Task
	err = tasks.TryUpdate(cmd.Context(), func(prev []models.Task) ([]models.Task, error) {
		t := now()
		task, err := buildTask(title, nextTaskID(prev, t), t)
		if err != nil {
			return nil, err
		}
		added = task
		return append(prev, task), nil
	})
	if err != nil {
		return err
	}
	reportSync(cmd, s)

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), added)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s: %s\n", ui.FormatID(added.ID), added.Title)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	if listStatus != "" && !models.TaskStatus(listStatus).Valid() {
		return fmt.Errorf("unknown status %q (want To-Do, In Progress or Done)", listStatus)
	}

	_, _, s, err := setup()
	if err != nil {
		return err
	}
	tasks, err := bindTasks(s).Load(cmd.Context())
	if err != nil {
		return err
	}

	required := slices.Clone(listTags)
	if !listAll {
		filter, err := client.Bind(s, models.SliceFilterByTags, []string{}).Load(cmd.Context())
		if err != nil {
			return err
		}
		required = append(required, filter...)
	}

	shown := filterTasks(tasks, models.TaskStatus(listStatus), required)
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), shown)
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.RenderTasks(shown))
	if st := s.Status(); st.UsingLocalStorage {
		cmd.PrintErrln("Showing local data; the state service is unreachable.")
	}
	return nil
}

// filterTasks keeps tasks with the given status (any when empty) that carry every tag.
func filterTasks(tasks []models.Task, status models.TaskStatus, tags []string) []models.Task {
	shown := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && t.Status != status {
			continue
		}
		if !slices.ContainsFunc(tags, func(tag string) bool { return !t.HasTag(tag) }) {
			shown = append(shown, t)
		}
	}
	return shown
}

func parseTaskID(arg string) (float64, error) {
	id, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// errTaskNotFound is returned by task updates when no task has the id.
type errTaskNotFound float64

func (e errTaskNotFound) Error() string {
	return fmt.Sprintf("task %s not found", ui.FormatID(float64(e)))
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	status := models.TaskStatus(args[1])
	if !status.Valid() {
		return fmt.Errorf("unknown status %q (want To-Do, In Progress or Done)", args[1])
	}
	return mutateTask(cmd, id, func(tasks []models.Task, i int) []models.Task {
		tasks[i].Status = status
		return tasks
	}, fmt.Sprintf("✓ Task %s is now %s", ui.FormatID(id), status))
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	return mutateTask(cmd, id, func(tasks []models.Task, i int) []models.Task {
		return slices.Delete(tasks, i, i+1)
	}, fmt.Sprintf("✓ Removed task %s", ui.FormatID(id)))
}

// mutateTask applies fn to the task with id and saves the result.
func mutateTask(cmd *cobra.Command, id float64, fn func([]models.Task, int) []models.Task, done string) error {
	_, _, s, err := setup()
	if err != nil {
		return err
	}
	tasks := bindTasks(s)
	if _, err := tasks.Load(cmd.Context()); err != nil {
		return err
	}

	err = tasks.TryUpdate(cmd.Context(), func(prev []models.Task) ([]models.Task, error) {
		i := slices.IndexFunc(prev, func(t models.Task) bool { return t.ID == id })
		if i < 0 {
			return nil, errTaskNotFound(id)
		}
		return fn(slices.Clone(prev), i), nil
	})
	if err != nil {
		return err
	}
	reportSync(cmd, s)

	if !isJSON() {
		fmt.Fprintln(cmd.OutOrStdout(), done)
	}
	return nil
}
