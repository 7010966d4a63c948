package api

import (
	"net/http"

	"medquest/internal/errors"
)

type startQuizRequest struct {
	Topic string `json:"topic"`
	Sub   string `json:"sub,omitempty"`
}

type pickRequest struct {
	Letter string `json:"letter"`
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Topic == "" {
		handleError(w, r, errors.NewValidationError("topic", "must not be empty"))
		return
	}

	session, err := s.Quiz.StartBattle(r.Context(), req.Topic, req.Sub)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleStartVignettes(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Topic == "" {
		handleError(w, r, errors.NewValidationError("topic", "must not be empty"))
		return
	}

	session, err := s.Quiz.StartVignettes(r.Context(), req.Topic, req.Sub)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleStartRetest(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Topic == "" {
		handleError(w, r, errors.NewValidationError("topic", "must not be empty"))
		return
	}

	session, err := s.Quiz.StartRetest(r.Context(), req.Topic)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleCurrentQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := s.Quiz.Current(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Letter == "" {
		handleError(w, r, errors.NewValidationError("letter", "must not be empty"))
		return
	}

	session, err := s.Quiz.Pick(r.Context(), req.Letter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleLockIn(w http.ResponseWriter, r *http.Request) {
	session, err := s.Quiz.LockIn(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	session, err := s.Quiz.Timeout(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	session, err := s.Quiz.Next(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	session, err := s.Quiz.Prev(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := s.Quiz.Submit(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.Quiz.Abandon(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "abandoned"})
}
