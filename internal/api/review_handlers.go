package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medquest/internal/errors"
	"medquest/internal/models"
	"medquest/internal/repository"
)

func ledgerParam(r *http.Request) (repository.Ledger, error) {
	switch name := chi.URLParam(r, "ledger"); name {
	case string(repository.LedgerMissed):
		return repository.LedgerMissed, nil
	case string(repository.LedgerRetested):
		return repository.LedgerRetested, nil
	default:
		return "", errors.NewValidationError("ledger", "must be 'missed' or 'retested'")
	}
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := ledgerParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	filter := repository.LedgerFilter{
		Topic:    r.URL.Query().Get("topic"),
		Subtopic: r.URL.Query().Get("sub"),
		WeekID:   r.URL.Query().Get("week"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			handleError(w, r, errors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"ledger":  ledger,
		"entries": s.Store.Ledger(ledger, filter),
	})
}

func (s *Server) handleClearLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := ledgerParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Store.ClearLedger(r.Context(), ledger); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handleError(w, r, errors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"results": s.Store.QuizResults(limit),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.Store.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req models.Settings
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	saved, err := s.Store.UpdateSettings(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, saved)
}
