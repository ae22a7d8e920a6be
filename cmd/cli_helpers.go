package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/internal/config"
	"github.com/josephgoksu/tod/internal/logger"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printJSON writes v indented on a terminal and compact otherwise.
func printJSON(w io.Writer, v any) error {
	var (
		output []byte
		err    error
	)
	if isTerminal(w) {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// newLogger builds the slog logger for cfg, writing to stderr.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logger.New(os.Stderr, logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: cfg.Verbose,
	})
}

// openSynchronizer wires a synchronizer for the configured remote and local directory.
func openSynchronizer(cfg *config.Config, log *slog.Logger) (*client.Synchronizer, error) {
	local, err := client.NewLocalStore(nil, cfg.Client.LocalDir)
	if err != nil {
		return nil, err
	}
	return client.New(client.Options{
		Remote:        client.NewHTTPRemote(cfg.Client.URL, cfg.Client.Timeout),
		Local:         local,
		Logger:        log,
		RetryInterval: cfg.Client.RetryInterval,
	}), nil
}

// setup loads configuration, the logger and a synchronizer for a command.
func setup() (*config.Config, *slog.Logger, *client.Synchronizer, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := openSynchronizer(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, s, nil
}

// readInput reads the named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// reportSync tells the user when a change only reached local storage.
func reportSync(cmd *cobra.Command, s *client.Synchronizer) {
	st := s.Status()
	if !st.UsingLocalStorage {
		return
	}
	LogError("last sync error", st.Error)
	cmd.PrintErrln("Saved locally; the state service is unreachable.")
}
