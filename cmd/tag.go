package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/internal/state"
	"github.com/josephgoksu/tod/internal/ui"
	"github.com/josephgoksu/tod/models"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage the tag list",
}

var tagListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tags; entries in the active filter are marked with *",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		tags, err := bindTagList(s).Load(cmd.Context())
		if err != nil {
			return err
		}
		filter, err := bindFilter(s).Load(cmd.Context())
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), map[string][]string{
				models.SliceTags:         tags,
				models.SliceFilterByTags: filter,
			})
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderTags(tags, filter))
		return nil
	},
}

var tagAddCmd = &cobra.Command{
	Use:   "add <tag>...",
	Short: "Add tags",
	Long:  fmt.Sprintf("Add tags. At most %d tags of up to %d characters are kept.", models.MaxTags, models.MaxListItemLen),
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		tags := bindTagList(s)
		if _, err := tags.Load(cmd.Context()); err != nil {
			return err
		}
		err = tags.TryUpdate(cmd.Context(), func(prev []string) ([]string, error) {
			merged := append(slices.Clone(prev), args...)
			if len(uniqueTrimmed(merged)) > models.MaxTags {
				return nil, fmt.Errorf("too many tags (max %d)", models.MaxTags)
			}
			return state.SanitizeStringArray(merged, models.MaxListItemLen, models.MaxTags, prev), nil
		})
		if err != nil {
			return err
		}
		reportSync(cmd, s)
		if !isJSON() {
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderTags(tags.Get(), nil))
		}
		return nil
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <tag>...",
	Short: "Remove tags and drop them from the filter",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		tags := bindTagList(s)
		if _, err := tags.Load(cmd.Context()); err != nil {
			return err
		}
		err = tags.TryUpdate(cmd.Context(), func(prev []string) ([]string, error) {
			kept := without(prev, args)
			if len(kept) == 0 {
				return nil, fmt.Errorf("cannot remove every tag")
			}
			return kept, nil
		})
		if err != nil {
			return err
		}

		filter := bindFilter(s)
		current, err := filter.Load(cmd.Context())
		if err != nil {
			return err
		}
		if next := without(current, args); len(next) != len(current) {
			if err := filter.Set(cmd.Context(), next); err != nil {
				return err
			}
		}
		reportSync(cmd, s)
		if !isJSON() {
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderTags(tags.Get(), filter.Get()))
		}
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark]",
	Short:     "Show or set the colour theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(models.ThemeLight), string(models.ThemeDark)},
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		theme := client.Bind(s, models.SliceTheme, models.ThemeLight)
		current, err := theme.Load(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 0 {
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), current)
			}
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		}

		next := models.Theme(strings.ToLower(args[0]))
		if next != models.ThemeLight && next != models.ThemeDark {
			return fmt.Errorf("unknown theme %q (want light or dark)", args[0])
		}
		if err := theme.Set(cmd.Context(), next); err != nil {
			return err
		}
		reportSync(cmd, s)
		if !isJSON() {
			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s.\n", next)
		}
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter [tag]...",
	Short: "Set the saved tag filter; no arguments clears it",
	Long: `Set the tags a task must carry to appear in "tod task list".
Every tag must already exist. Run without arguments to clear the filter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		known, err := bindTagList(s).Load(cmd.Context())
		if err != nil {
			return err
		}
		for _, tag := range args {
			if !slices.Contains(known, strings.TrimSpace(tag)) {
				return fmt.Errorf("unknown tag %q", tag)
			}
		}

		filter := bindFilter(s)
		if _, err := filter.Load(cmd.Context()); err != nil {
			return err
		}
		next := state.SanitizeStringArray(args, models.MaxListItemLen, models.MaxFilterTags, []string{})
		if err := filter.Set(cmd.Context(), next); err != nil {
			return err
		}
		reportSync(cmd, s)
		if !isJSON() {
			if len(next) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Filter cleared.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Filtering by: %s\n", strings.Join(next, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagCmd, themeCmd, filterCmd)
	tagCmd.AddCommand(tagListCmd, tagAddCmd, tagRmCmd)
}

func bindTagList(s *client.Synchronizer) *client.Slice[[]string] {
	return client.Bind(s, models.SliceTags, models.DefaultTags())
}

func bindFilter(s *client.Synchronizer) *client.Slice[[]string] {
	return client.Bind(s, models.SliceFilterByTags, []string{})
}

// without returns list minus every entry in drop, compared after trimming.
func without(list, drop []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if !slices.ContainsFunc(drop, func(d string) bool { return strings.TrimSpace(d) == item }) {
			out = append(out, item)
		}
	}
	return out
}

func uniqueTrimmed(items []string) []string {
	return state.SanitizeStringArray(items, models.MaxListItemLen, len(items), []string{})
}
