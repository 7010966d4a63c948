package quiz

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"medquest/internal/canon"
	apperrors "medquest/internal/errors"
	"medquest/internal/logger"
	"medquest/internal/models"
	"medquest/internal/progress"
)

type Mode string

const (
	ModeBattle Mode = "battle"
	ModeCustom Mode = "custom"
)

type Stage string

const (
	StageLive   Stage = "live"
	StageReview Stage = "review"
)

// AnswerSlot is the per-question answer state. Picked stays tentative
// until the slot locks; Correct is set only once graded.
type AnswerSlot struct {
	Picked  string `json:"picked,omitempty"`
	Locked  bool   `json:"locked"`
	Correct *bool  `json:"correct,omitempty"`
}

// Session is one in-flight quiz. All mutation goes through the Engine;
// the session itself is plain state.
type Session struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Topic              string            `json:"topic"`
	Sub                string            `json:"sub,omitempty"`
	Mode               Mode              `json:"mode"`
	WeekID             string            `json:"week_id,omitempty"`
	Items              []models.Question `json:"items"`
	Index              int               `json:"index"`
	Stage              Stage             `json:"stage"`
	Answers            []AnswerSlot      `json:"answers"`
	CorrectCount       int               `json:"correct_count"`
	TimerEnabled       bool              `json:"timer_enabled"`
	SecondsPerQuestion int               `json:"seconds_per_question"`
	StartedAt          time.Time         `json:"started_at"`
}

// Current returns the question at the session cursor.
func (s *Session) Current() models.Question {
	return s.Items[s.Index]
}

// Clone returns a deep copy of the session, safe to read and marshal
// after the caller's lock is released.
func (s *Session) Clone() *Session {
	out := *s
	out.Items = append([]models.Question(nil), s.Items...)
	out.Answers = make([]AnswerSlot, len(s.Answers))
	for i, a := range s.Answers {
		if a.Correct != nil {
			v := *a.Correct
			a.Correct = &v
		}
		out.Answers[i] = a
	}
	return &out
}

// StartOptions parameterize a new session.
type StartOptions struct {
	Title              string
	Topic              string
	Sub                string
	Mode               Mode
	WeekID             string
	TimerEnabled       bool
	SecondsPerQuestion int
	Difficulties       []models.Difficulty // empty means no filter
}

// Engine owns the quiz state machine: grading, progress recording, the
// missed/retested ledger rule and unlock evaluation.
type Engine struct {
	store   *progress.Store
	unlocks *progress.UnlockController
	rng     *rand.Rand
	log     *logger.Logger
}

func NewEngine(store *progress.Store, unlocks *progress.UnlockController) *Engine {
	return &Engine{
		store:   store,
		unlocks: unlocks,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     logger.Default().WithPrefix("quiz"),
	}
}

// Start builds a session of up to n questions drawn from pool. The pool
// is filtered by difficulty first; an empty result is an EmptyPoolError.
// Items are shuffled and each gets its content-derived qid so grading
// and the ledgers key off stable identity.
func (e *Engine) Start(pool []models.Question, n int, opts StartOptions) (*Session, error) {
	filtered := filterByDifficulty(pool, opts.Difficulties)
	if len(filtered) == 0 {
		scope := opts.Topic
		if opts.Sub != "" {
			scope += " / " + opts.Sub
		}
		return nil, apperrors.NewEmptyPoolError(scope)
	}

	items := make([]models.Question, len(filtered))
	copy(items, filtered)
	e.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	for i := range items {
		items[i].QID = canon.QID(items[i].Topic, items[i].Subtopic, items[i].Stem)
	}

	s := &Session{
		ID:                 uuid.NewString(),
		Title:              opts.Title,
		Topic:              opts.Topic,
		Sub:                opts.Sub,
		Mode:               opts.Mode,
		WeekID:             opts.WeekID,
		Items:              items,
		Stage:              StageLive,
		Answers:            make([]AnswerSlot, len(items)),
		TimerEnabled:       opts.TimerEnabled,
		SecondsPerQuestion: opts.SecondsPerQuestion,
		StartedAt:          time.Now().UTC(),
	}
	e.log.Info("session started: id=%s, title=%q, %d questions", s.ID, s.Title, len(items))
	return s, nil
}

// Pick records a tentative choice on the current slot. Locked slots
// ignore picks.
func (e *Engine) Pick(s *Session, letter string) {
	if s.Stage != StageLive {
		return
	}
	slot := &s.Answers[s.Index]
	if slot.Locked {
		return
	}
	slot.Picked = letter
}

// LockIn commits the current slot's tentative pick: the answer is
// graded, the attempt recorded, the ledgers and unlock streak updated.
// Silently a no-op when the slot is already locked or nothing is picked.
func (e *Engine) LockIn(ctx context.Context, s *Session) bool {
	if s.Stage != StageLive {
		return false
	}
	slot := &s.Answers[s.Index]
	if slot.Locked || slot.Picked == "" {
		return false
	}

	q := s.Current()
	correct := !q.Flagged && slot.Picked == q.Answer
	e.grade(ctx, s, s.Index, correct)
	return true
}

// Timeout force-locks the current slot as incorrect when the countdown
// expires. The tentative pick is kept for review but never graded
// correct. A locked slot ignores timeouts that raced with a lock-in.
func (e *Engine) Timeout(ctx context.Context, s *Session) {
	if s.Stage != StageLive {
		return
	}
	slot := &s.Answers[s.Index]
	if slot.Locked {
		return
	}
	e.log.Debug("timeout on question %d of session %s", s.Index+1, s.ID)
	e.grade(ctx, s, s.Index, false)
}

// Next advances the cursor; past the last question the session flips to
// the review stage.
func (e *Engine) Next(s *Session) {
	if s.Index >= len(s.Items)-1 {
		s.Stage = StageReview
		return
	}
	s.Index++
}

// Prev moves the cursor back, clamped at the first question. From review
// it returns to the last question.
func (e *Engine) Prev(s *Session) {
	if s.Stage == StageReview {
		s.Stage = StageLive
		return
	}
	if s.Index > 0 {
		s.Index--
	}
}

// Submit finalizes the session. Every still-unlocked slot is graded as
// locked-incorrect with its tentative pick preserved, the aggregate
// result is appended to quiz history and streaks are reset. The caller
// discards the session afterwards.
func (e *Engine) Submit(ctx context.Context, s *Session) models.QuizResult {
	for i := range s.Answers {
		if !s.Answers[i].Locked {
			e.grade(ctx, s, i, false)
		}
	}
	s.Stage = StageReview

	result := models.QuizResult{
		Title:   s.Title,
		Total:   len(s.Items),
		Correct: s.CorrectCount,
		TS:      time.Now().UTC(),
	}
	if err := e.store.AppendQuizResult(ctx, result); err != nil {
		e.log.Error("failed to append quiz result: %v", err)
	}
	e.unlocks.ResetStreaks()
	e.log.Info("session submitted: id=%s, score %d/%d", s.ID, result.Correct, result.Total)
	return result
}

// Abandon drops a session. Locked slots were committed as they were
// graded; unlocked ones leave no trace.
func (e *Engine) Abandon(s *Session) {
	e.unlocks.ResetStreaks()
	e.log.Info("session abandoned: id=%s", s.ID)
}

// grade locks slot i with the given verdict and applies every
// side effect: the accuracy bucket, the missed/retested ledger rule and,
// for whole-topic battles outside explore mode, the unlock streak.
func (e *Engine) grade(ctx context.Context, s *Session, i int, correct bool) {
	slot := &s.Answers[i]
	q := s.Items[i]

	slot.Locked = true
	verdict := correct
	slot.Correct = &verdict
	if correct {
		s.CorrectCount++
	}

	if err := e.store.RecordAttempt(ctx, q.Topic, q.Subtopic, correct); err != nil {
		e.log.Error("failed to record attempt: %v", err)
	}

	if !correct {
		if err := e.store.MarkMissed(ctx, q, s.WeekID); err != nil {
			e.log.Error("failed to record missed question: %v", err)
		}
	} else if e.store.IsMissed(q.QID) {
		if err := e.store.MarkRetested(ctx, q.QID); err != nil {
			e.log.Error("failed to move question to retested: %v", err)
		}
	}

	if s.Mode == ModeBattle && s.Sub == "" && !e.store.Settings().Explore {
		if err := e.unlocks.OnGraded(ctx, q.Topic, correct); err != nil {
			e.log.Error("failed to apply unlock rule: %v", err)
		}
	}
}

func filterByDifficulty(pool []models.Question, difficulties []models.Difficulty) []models.Question {
	if len(difficulties) == 0 {
		return pool
	}
	allowed := make(map[models.Difficulty]bool, len(difficulties))
	for _, d := range difficulties {
		allowed[d] = true
	}
	out := make([]models.Question, 0, len(pool))
	for _, q := range pool {
		if allowed[q.Difficulty] {
			out = append(out, q)
		}
	}
	return out
}
