package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/models"
)

var sliceCmd = &cobra.Command{
	Use:   "slice",
	Short: "Read or write one part of the state through the synchronizer",
	Long: `Slices are the top-level fields of the state: ` + strings.Join(models.SliceKeys, ", ") + `.

Writes go to the state service, or to local files while it is unreachable.`,
}

var sliceGetCmd = &cobra.Command{
	Use:       "get <slice>",
	Short:     "Print a slice",
	Args:      cobra.ExactArgs(1),
	ValidArgs: models.SliceKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !models.IsSliceKey(key) {
			return unknownSliceError(key)
		}
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		value, err := s.Load(cmd.Context(), key, defaultSlice(key))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), value)
	},
}

var sliceSetCmd = &cobra.Command{
	Use:   "set <slice> <json>",
	Short: "Replace a slice with a JSON value",
	Long: `Replace one slice. The service normalizes the merged document, so
invalid entries are dropped on the next read.

Examples:
  tod slice set theme '"dark"'
  tod slice set tags '["Work","Home"]'`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: models.SliceKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], []byte(args[1])
		if !models.IsSliceKey(key) {
			return unknownSliceError(key)
		}
		if !json.Valid(raw) {
			return fmt.Errorf("value for %s is not valid JSON", key)
		}
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		if _, err := s.Load(cmd.Context(), key, defaultSlice(key)); err != nil {
			return err
		}
		if err := s.Set(cmd.Context(), key, client.Value(raw)); err != nil {
			return err
		}
		reportSync(cmd, s)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sliceCmd)
	sliceCmd.AddCommand(sliceGetCmd, sliceSetCmd)
}

func unknownSliceError(key string) error {
	return fmt.Errorf("unknown slice %q (want one of: %s)", key, strings.Join(models.SliceKeys, ", "))
}

// defaultSlice returns the JSON of key's default value.
func defaultSlice(key string) json.RawMessage {
	var v any
	d := models.DefaultState()
	switch key {
	case models.SliceTasks:
		v = d.Tasks
	case models.SliceTags:
		v = d.Tags
	case models.SlicePriorities:
		v = d.Priorities
	case models.SliceTheme:
		v = d.Theme
	case models.SliceFilterByTags:
		v = d.FilterByTags
	}
	raw, _ := json.Marshal(v)
	return raw
}
