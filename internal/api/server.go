package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medquest/internal/progress"
	"medquest/internal/services"
	"medquest/internal/worker"
)

type Server struct {
	Content    services.ContentService
	Quiz       services.QuizService
	Store      *progress.Store
	ReloadPool *worker.Pool
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Get("/topics", s.handleTopics)
	r.Get("/topics/{topic}/subtopics", s.handleSubtopics)
	r.Get("/notes/{topic}/{sub}", s.handleNote)
	r.Post("/reload", s.handleReload)

	r.Route("/quiz", func(r chi.Router) {
		r.Post("/battle", s.handleStartBattle)
		r.Post("/vignettes", s.handleStartVignettes)
		r.Post("/retest", s.handleStartRetest)
		r.Get("/", s.handleCurrentQuiz)
		r.Post("/pick", s.handlePick)
		r.Post("/lockin", s.handleLockIn)
		r.Post("/timeout", s.handleTimeout)
		r.Post("/next", s.handleNext)
		r.Post("/prev", s.handlePrev)
		r.Post("/submit", s.handleSubmit)
		r.Post("/abandon", s.handleAbandon)
	})

	r.Get("/review/{ledger}", s.handleListLedger)
	r.Post("/review/{ledger}/clear", s.handleClearLedger)
	r.Get("/history", s.handleHistory)

	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)

	return r
}
