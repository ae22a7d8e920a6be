package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/tod/internal/server"
	"github.com/josephgoksu/tod/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the state normalization service",
	Long: `Serve the todo state over HTTP.

GET returns the stored state, normalized. PUT normalizes the request body
and stores the result. The backend is chosen with --store:

  sqlite  single-file database in the data dir (default)
  file    one JSON file per key, with a checksum
  s3      an S3-compatible bucket (store.s3.* settings)
  memory  in-process only, lost on exit

Examples:
  tod serve
  tod serve --addr 127.0.0.1:9000 --store file
  TOD_STORE_DRIVER=s3 TOD_STORE_S3_BUCKET=tod tod serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default :8787)")
	serveCmd.Flags().String("store", "", "store driver: sqlite, file, s3 or memory")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("store.driver", serveCmd.Flags().Lookup("store"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	repo := store.NewStateRepository(kv, cfg.Store.Key, log)
	defer func() { _ = repo.Close() }()

	srv := server.New(cfg.Server, repo, log)

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)
	log.Info("store ready", "driver", cfg.Store.Driver, "key", cfg.Store.Key)

	select {
	case err = <-errChan:
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("shutdown", "error", shutdownErr)
	}
	wg.Wait()
	return err
}
