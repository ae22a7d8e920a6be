package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/josephgoksu/tod/internal/state"
)

// handleState serves GET and PUT on the state resource.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetState(w, r)
	case http.MethodPut:
		s.handlePutState(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT, OPTIONS")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, msgMethodNotAllowed)
	}
}

// handleGetState
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	current, err := s.repo.Load(r.Context())
	if err != nil {
		s.internalError(w, r, "load state", err)
		return
	}
	writeAPIJSON(w, http.StatusOK, current)
}

// handlePutState normalizes the body and replaces the stored state with it.
// Nothing is read from the store first.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: msgBodyTooLarge})
			return
		}
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON})
		return
	}

	next, err := state.NormalizeJSON(body)
	if err != nil {
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON})
		return
	}

	if err := s.repo.Save(r.Context(), next); err != nil {
		s.internalError(w, r, "save state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth does not touch the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error("store call failed", "op", op, "request_id", requestIDFrom(r.Context()), "error", err)
	writeAPIJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
}

func writeAPIJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
