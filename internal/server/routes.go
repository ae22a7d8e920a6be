package server

import "net/http"

// registerRoutes sets up all endpoints and wraps them in middleware.
// Outermost first: request id and logging, panic recovery, CORS.
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(s.basePath, s.handleState)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleNotFound)

	return s.requestMiddleware(s.recoverMiddleware(corsMiddleware(mux)))
}
