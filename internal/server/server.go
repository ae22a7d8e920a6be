// Package server exposes the tod state resource over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/josephgoksu/tod/internal/config"
	"github.com/josephgoksu/tod/models"
)

// StateRepository abstracts the persisted AppState.
type StateRepository interface {
	Load(ctx context.Context) (models.AppState, error)
	Save(ctx context.Context, s models.AppState) error
}

type Server struct {
	repo         StateRepository
	logger       *slog.Logger
	basePath     string
	maxBodyBytes int64
	server       *http.Server
}

// New builds a server for cfg. A nil logger uses slog.Default().
func New(cfg config.ServerConfig, repo StateRepository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = config.DefaultMaxBodyBytes
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = config.DefaultBasePath
	}

	s := &Server{
		repo:         repo,
		logger:       logger,
		basePath:     basePath,
		maxBodyBytes: maxBody,
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		s.logger.Info("state service listening", "addr", s.server.Addr, "path", s.basePath)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
