// Package api exposes the session tracker and store to polling clients.
// Handlers translate store reads into JSON responses; none of them mutate
// lifecycle state (deletion goes straight to the store).
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/probelab/researchd/internal/core/domain"
	"github.com/probelab/researchd/internal/core/ports"
	"github.com/probelab/researchd/internal/core/services"
)

type Server struct {
	logger  *slog.Logger
	tracker *services.ResearchTracker
	repo    ports.SessionRepository
	bus     *services.EventBus
}

func NewServer(logger *slog.Logger, tracker *services.ResearchTracker, repo ports.SessionRepository, bus *services.EventBus) *Server {
	return &Server{
		logger:  logger,
		tracker: tracker,
		repo:    repo,
		bus:     bus,
	}
}

// Handler returns the http.Handler for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", s.handleStartSearch)
	mux.HandleFunc("GET /status/{session_id}", s.handleStatus)
	mux.HandleFunc("GET /output/{session_id}", s.handleOutput)
	mux.HandleFunc("DELETE /session/{session_id}", s.handleDeleteSession)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /events/{session_id}", s.handleSessionEvents)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type searchRequest struct {
	Question string `json:"question"`
}

type searchResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type statusResponse struct {
	SessionID   string               `json:"session_id"`
	Status      domain.SessionStatus `json:"status"`
	Progress    int                  `json:"progress"`
	CurrentStep string               `json:"current_step"`
	Message     string               `json:"message"`
	Result      *string              `json:"result,omitempty"`
}

type outputResponse struct {
	SessionID string `json:"session_id"`
	OutputLog string `json:"output_log"`
}

// handleStartSearch starts a new research session.
// Submission always succeeds; execution failures surface later via polling.
// POST /search
func (s *Server) handleStartSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.tracker.Submit(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("failed to submit research session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	s.writeJSON(w, http.StatusOK, searchResponse{
		SessionID: string(id),
		Status:    string(domain.StatusStarted),
		Message:   "Research session started successfully",
	})
}

// handleStatus reports progress and, once terminal, the result.
// GET /status/{session_id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		SessionID:   string(session.ID),
		Status:      session.Status,
		Progress:    session.Progress,
		CurrentStep: session.CurrentStep,
		Message:     session.Message,
		Result:      session.Result,
	})
}

// handleOutput returns the accumulated output log.
// GET /output/{session_id}
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, outputResponse{
		SessionID: string(session.ID),
		OutputLog: session.OutputLog,
	})
}

// handleDeleteSession removes a session record.
// DELETE /session/{session_id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("session_id"))
	if err := s.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		s.logger.Error("failed to delete session", "session_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

// handleListSessions returns every tracked session record.
// GET /sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.repo.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleHealth is the liveness probe.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"timestamp":       time.Now().Format(time.RFC3339),
		"active_sessions": s.repo.Count(r.Context()),
	})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	id := domain.SessionID(r.PathValue("session_id"))
	session, err := s.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "Session not found")
			return domain.Session{}, false
		}
		s.logger.Error("failed to load session", "session_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return domain.Session{}, false
	}
	return session, true
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, detail string) {
	s.writeJSON(w, code, map[string]string{"detail": detail})
}
