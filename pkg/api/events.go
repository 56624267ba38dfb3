package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/probelab/researchd/internal/core/domain"
)

// handleSessionEvents streams status and log events for one session over
// Server-Sent Events. The stream is additive convenience only; the polled
// endpoints remain the contract.
// GET /events/{session_id}
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("session_id"))
	if _, err := s.repo.Get(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		s.logger.Error("failed to load session", "session_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, unsubscribe := s.bus.Subscribe(id)
	defer unsubscribe()

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			flusher.Flush()
		}
	}
}
