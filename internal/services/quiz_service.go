package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medquest/internal/canon"
	apperrors "medquest/internal/errors"
	"medquest/internal/logger"
	"medquest/internal/models"
	"medquest/internal/progress"
	"medquest/internal/quiz"
	"medquest/internal/repository"
)

// QuizService manages the single live session and its countdown timer.
type QuizService interface {
	StartBattle(ctx context.Context, topic, sub string) (*quiz.Session, error)
	StartVignettes(ctx context.Context, topic, sub string) (*quiz.Session, error)
	StartRetest(ctx context.Context, topic string) (*quiz.Session, error)
	Current(ctx context.Context) (*quiz.Session, error)
	Pick(ctx context.Context, letter string) (*quiz.Session, error)
	LockIn(ctx context.Context) (*quiz.Session, error)
	Timeout(ctx context.Context) (*quiz.Session, error)
	Next(ctx context.Context) (*quiz.Session, error)
	Prev(ctx context.Context) (*quiz.Session, error)
	Submit(ctx context.Context) (*models.QuizResult, error)
	Abandon(ctx context.Context) error
}

const retestLimit = 10

type quizService struct {
	mu           sync.Mutex
	engine       *quiz.Engine
	content      ContentService
	store        *progress.Store
	unlocks      *progress.UnlockController
	battleLength int
	session      *quiz.Session
	timer        *time.Timer
	log          *logger.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(engine *quiz.Engine, content ContentService, store *progress.Store, unlocks *progress.UnlockController, battleLength int) QuizService {
	return &quizService{
		engine:       engine,
		content:      content,
		store:        store,
		unlocks:      unlocks,
		battleLength: battleLength,
		log:          logger.Default().WithPrefix("quiz-service"),
	}
}

func (s *quizService) StartBattle(ctx context.Context, topic, sub string) (*quiz.Session, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting battle: topic=%q, sub=%q", topic, sub)

	if !s.unlocks.IsUnlocked(s.content.Resolver().Resolve(topic)) {
		return nil, apperrors.NewLockedError(topic)
	}

	title := fmt.Sprintf("Battle: %s", topic)
	if sub != "" {
		title = fmt.Sprintf("Battle: %s / %s", topic, sub)
	}
	return s.startSession(ctx, s.battlePool(topic, sub), s.battleLength, quiz.StartOptions{
		Title: title,
		Topic: topic,
		Sub:   sub,
		Mode:  quiz.ModeBattle,
	})
}

func (s *quizService) StartVignettes(ctx context.Context, topic, sub string) (*quiz.Session, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting vignettes: topic=%q, sub=%q", topic, sub)

	title := fmt.Sprintf("Vignettes: %s", topic)
	if sub != "" {
		title = fmt.Sprintf("Vignettes: %s / %s", topic, sub)
	}
	return s.startSession(ctx, s.vignettePool(topic, sub), s.battleLength, quiz.StartOptions{
		Title:        title,
		Topic:        topic,
		Sub:          sub,
		Mode:         quiz.ModeCustom,
		Difficulties: s.store.Settings().Difficulties,
	})
}

// StartRetest draws from the missed ledger for one topic. Correctly
// answered items move to the retested ledger through the standard
// grading rule.
func (s *quizService) StartRetest(ctx context.Context, topic string) (*quiz.Session, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting retest: topic=%q", topic)

	missed := s.store.Ledger(repository.LedgerMissed, repository.LedgerFilter{
		Topic: topic,
		Limit: retestLimit,
	})
	pool := make([]models.Question, len(missed))
	for i, m := range missed {
		pool[i] = m.Question
	}

	return s.startSession(ctx, pool, retestLimit, quiz.StartOptions{
		Title: fmt.Sprintf("Retest: %s", topic),
		Topic: topic,
		Mode:  quiz.ModeCustom,
	})
}

func (s *quizService) startSession(ctx context.Context, pool []models.Question, n int, opts quiz.StartOptions) (*quiz.Session, error) {
	settings := s.store.Settings()
	opts.WeekID = weekStamp(time.Now())
	opts.TimerEnabled = settings.TimerEnabled
	opts.SecondsPerQuestion = settings.SecondsPerQuestion

	session, err := s.engine.Start(pool, n, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.log.Warn("replacing live session %s with %s", s.session.ID, session.ID)
		s.stopTimerLocked()
		s.engine.Abandon(s.session)
	}
	s.session = session
	s.armTimerLocked(ctx)
	return session.Clone(), nil
}

func (s *quizService) Current(ctx context.Context) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	return s.session.Clone(), nil
}

func (s *quizService) Pick(ctx context.Context, letter string) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	s.engine.Pick(s.session, letter)
	return s.session.Clone(), nil
}

func (s *quizService) LockIn(ctx context.Context) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	if s.engine.LockIn(ctx, s.session) {
		s.stopTimerLocked()
	}
	return s.session.Clone(), nil
}

// Timeout force-locks the current slot. Clients report expiry
// themselves; the server-side countdown is a backstop for clients that
// do not.
func (s *quizService) Timeout(ctx context.Context) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	s.stopTimerLocked()
	s.engine.Timeout(ctx, s.session)
	return s.session.Clone(), nil
}

func (s *quizService) Next(ctx context.Context) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	s.engine.Next(s.session)
	s.stopTimerLocked()
	s.armTimerLocked(ctx)
	return s.session.Clone(), nil
}

func (s *quizService) Prev(ctx context.Context) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	s.engine.Prev(s.session)
	s.stopTimerLocked()
	s.armTimerLocked(ctx)
	return s.session.Clone(), nil
}

func (s *quizService) Submit(ctx context.Context) (*models.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.NewNotFoundError("quiz session", "live")
	}
	s.stopTimerLocked()
	result := s.engine.Submit(ctx, s.session)
	s.session = nil
	return &result, nil
}

func (s *quizService) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return apperrors.NewNotFoundError("quiz session", "live")
	}
	s.stopTimerLocked()
	s.engine.Abandon(s.session)
	s.session = nil
	return nil
}

// battlePool selects regular questions for (topic, sub). A named
// subtopic falls back to its long-form list when it has no regular
// questions; a whole-topic battle concatenates every subtopic with the
// same per-subtopic fallback.
func (s *quizService) battlePool(topic, sub string) []models.Question {
	bank := s.content.QuestionIndex()
	if bank == nil {
		return nil
	}
	tKey := s.content.Resolver().Resolve(topic)

	if sub != "" {
		sKey := canon.Normalize(sub)
		if qs := bank.Regular.Questions(tKey, sKey); len(qs) > 0 {
			return qs
		}
		return bank.LongForm.Questions(tKey, sKey)
	}

	var pool []models.Question
	seen := make(map[string]bool)
	for sKey, qs := range bank.Regular[tKey] {
		seen[sKey] = true
		if len(qs) > 0 {
			pool = append(pool, qs...)
		} else if long := bank.LongForm.Questions(tKey, sKey); len(long) > 0 {
			pool = append(pool, long...)
		}
	}
	for sKey, qs := range bank.LongForm[tKey] {
		if !seen[sKey] {
			pool = append(pool, qs...)
		}
	}
	return pool
}

func (s *quizService) vignettePool(topic, sub string) []models.Question {
	bank := s.content.QuestionIndex()
	if bank == nil {
		return nil
	}
	tKey := s.content.Resolver().Resolve(topic)

	if sub != "" {
		return bank.LongForm.Questions(tKey, canon.Normalize(sub))
	}
	var pool []models.Question
	for _, qs := range bank.LongForm[tKey] {
		pool = append(pool, qs...)
	}
	return pool
}

// armTimerLocked schedules the countdown for the current slot. The timer
// fires at most once per slot; navigation re-arms it and lock-in,
// submit and abandon cancel it. Callers hold s.mu.
func (s *quizService) armTimerLocked(ctx context.Context) {
	session := s.session
	if session == nil || !session.TimerEnabled || session.Stage != quiz.StageLive {
		return
	}
	if session.Answers[session.Index].Locked {
		return
	}

	id := session.ID
	index := session.Index
	s.timer = time.AfterFunc(time.Duration(session.SecondsPerQuestion)*time.Second, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// The session may have moved on or ended while the timer was live.
		if s.session == nil || s.session.ID != id || s.session.Index != index {
			return
		}
		s.engine.Timeout(context.WithoutCancel(ctx), s.session)
	})
}

func (s *quizService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// weekStamp renders an ISO week identifier like "2026-W35", used to
// stamp missed-question snapshots.
func weekStamp(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
