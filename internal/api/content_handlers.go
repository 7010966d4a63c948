package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medquest/internal/logger"
	"medquest/internal/worker"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !s.Content.Ready() {
		status = "loading"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, map[string]string{"status": status})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"topics": s.Content.Topics(r.Context()),
	})
}

func (s *Server) handleSubtopics(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	subs, err := s.Content.Subtopics(r.Context(), topic)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"topic":     topic,
		"subtopics": subs,
	})
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	sub := chi.URLParam(r, "sub")

	note, err := s.Content.Note(r.Context(), topic, sub)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, note)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	s.ReloadPool.Submit(&worker.ReloadContentJob{Loader: s.Content})
	log.Info("content reload queued")
	respondJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}
