package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/internal/ui"
	"github.com/josephgoksu/tod/models"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and reconcile local fallback storage",
	Long: `While the state service is unreachable, changes are written to files
under the local directory (client.localDir) and remembered as pending.
These commands show and push them.`,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the state service and list pending local changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, s, err := setup()
		if err != nil {
			return err
		}
		// Any read reaches the service and sets the mode.
		if _, err := client.Bind(s, models.SliceTheme, models.ThemeLight).Load(cmd.Context()); err != nil {
			return err
		}
		st := s.Status()
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), syncStatusResponse{
				URL:     cfg.Client.URL,
				Mode:    st.Mode.String(),
				Pending: st.Pending,
				Error:   errString(st.Error),
			})
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderSyncStatus(st))
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push pending local changes to the state service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, s, err := setup()
		if err != nil {
			return err
		}
		pending := s.Status().Pending
		if err := s.Reconcile(cmd.Context()); err != nil {
			return err
		}
		if !isJSON() {
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to push.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Pushed %d slice(s).\n", len(pending))
			}
		}
		return nil
	},
}

var syncWatchDelay time.Duration

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Push local file edits as they happen",
	Long: `Watch the local directory and push each edited slice file to the
state service once writes settle. Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, s, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := s.Reconcile(ctx); err != nil {
			log.Warn("initial reconcile failed", "error", err)
		}
		err = client.NewWatcher(s, syncWatchDelay).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

type syncStatusResponse struct {
	URL     string   `json:"url"`
	Mode    string   `json:"mode"`
	Pending []string `json:"pending"`
	Error   string   `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncStatusCmd, syncPushCmd, syncWatchCmd)
	syncWatchCmd.Flags().DurationVar(&syncWatchDelay, "delay", client.DefaultWatchDelay, "How long writes must settle before a push")
}
