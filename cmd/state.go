package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/josephgoksu/tod/internal/client"
	"github.com/josephgoksu/tod/internal/state"
	"github.com/josephgoksu/tod/models"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read, replace or normalize the whole state document",
}

var stateGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the state stored by the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := newRemote()
		if err != nil {
			return err
		}
		blob, err := remote.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch state from %s: %w", remote.URL(), err)
		}
		return printJSON(cmd.OutOrStdout(), blob)
	},
}

var statePutCmd = &cobra.Command{
	Use:   "put <file|->",
	Short: "Replace the stored state with a JSON document",
	Long: `Send a JSON object to the service, which normalizes it before storing.
Use "-" to read from stdin.

Examples:
  tod state put backup.json
  tod state get | jq '.theme = "dark"' | tod state put -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		blob, err := state.ParseBlob(data)
		if err != nil {
			return err
		}
		remote, err := newRemote()
		if err != nil {
			return err
		}
		if err := remote.Replace(cmd.Context(), blob); err != nil {
			return fmt.Errorf("replace state at %s: %w", remote.URL(), err)
		}
		if !isJSON() {
			fmt.Fprintln(cmd.OutOrStdout(), "State replaced.")
		}
		return nil
	},
}

var stateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the normalized state as JSON, YAML or TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		remote, err := newRemote()
		if err != nil {
			return err
		}
		blob, err := remote.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch state from %s: %w", remote.URL(), err)
		}
		raw, err := blob.JSON()
		if err != nil {
			return err
		}
		s, err := state.NormalizeJSON(raw)
		if err != nil {
			return err
		}
		return writeState(cmd.OutOrStdout(), s, format)
	},
}

var stateNormalizeCmd = &cobra.Command{
	Use:   "normalize <file|->",
	Short: "Normalize a JSON document offline",
	Long: `Apply the same rules the service applies on PUT, without contacting it.
Invalid entries are dropped and missing fields take their defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		s, err := state.NormalizeJSON(data)
		if err != nil {
			return fmt.Errorf("invalid JSON input: %w", err)
		}
		return writeState(cmd.OutOrStdout(), s, format)
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateGetCmd, statePutCmd, stateExportCmd, stateNormalizeCmd)

	for _, c := range []*cobra.Command{stateExportCmd, stateNormalizeCmd} {
		c.Flags().StringP("format", "f", formatJSON, "output format: json, yaml or toml")
	}
}

func newRemote() (*client.HTTPRemote, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return client.NewHTTPRemote(cfg.Client.URL, cfg.Client.Timeout), nil
}

// writeState encodes s in the requested format.
func writeState(w io.Writer, s models.AppState, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return printJSON(w, s)
	case formatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatTOML:
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(s); err != nil {
			return fmt.Errorf("failed to marshal TOML: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unsupported format: %s. Supported formats are json, yaml, toml", format)
	}
}
