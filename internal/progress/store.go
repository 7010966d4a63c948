package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"medquest/internal/logger"
	"medquest/internal/models"
	"medquest/internal/repository"
)

// Store is the in-memory progress aggregate backed by the repository.
// All reads are served from memory; every mutation is written through
// before the in-memory state changes, so a failed write never leaves
// the two out of sync.
type Store struct {
	mu       sync.Mutex
	repo     repository.ProgressRepository
	stats    map[repository.StatKey]models.ProgressRecord
	unlocks  map[string]bool
	order    []string // unlock insertion order
	missed   map[string]models.MissedQuestion
	retested map[string]models.MissedQuestion
	results  []models.QuizResult
	settings models.Settings
	log      *logger.Logger
}

func NewStore(repo repository.ProgressRepository) *Store {
	return &Store{
		repo:     repo,
		stats:    make(map[repository.StatKey]models.ProgressRecord),
		unlocks:  make(map[string]bool),
		missed:   make(map[string]models.MissedQuestion),
		retested: make(map[string]models.MissedQuestion),
		settings: models.DefaultSettings(),
		log:      logger.Default().WithPrefix("progress"),
	}
}

// Load hydrates the aggregate from the repository snapshot.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = snap.Stats
	if s.stats == nil {
		s.stats = make(map[repository.StatKey]models.ProgressRecord)
	}
	s.unlocks = make(map[string]bool, len(snap.Unlocks))
	s.order = append([]string(nil), snap.Unlocks...)
	for _, t := range snap.Unlocks {
		s.unlocks[t] = true
	}
	s.missed = make(map[string]models.MissedQuestion, len(snap.Missed))
	for _, m := range snap.Missed {
		s.missed[m.QID] = m
	}
	s.retested = make(map[string]models.MissedQuestion, len(snap.Retested))
	for _, m := range snap.Retested {
		s.retested[m.QID] = m
	}
	s.results = snap.Results
	if snap.Settings != nil {
		s.settings = sanitizeSettings(*snap.Settings)
	}

	s.log.Info("progress loaded: %d stat buckets, %d unlocked topics, %d missed, %d retested",
		len(s.stats), len(s.unlocks), len(s.missed), len(s.retested))
	return nil
}

// RecordAttempt bumps the (topic, subtopic) accuracy bucket.
func (s *Store) RecordAttempt(ctx context.Context, topic, subtopic string, correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := repository.StatKey{Topic: topic, Subtopic: subtopic}
	rec := s.stats[key]
	rec.Attempted++
	if correct {
		rec.Correct++
	}
	if err := s.repo.SaveStat(ctx, key, rec); err != nil {
		return err
	}
	s.stats[key] = rec
	return nil
}

// MarkMissed puts a question into the missed ledger, stamped with the
// week it was missed in. A question already in the retested ledger moves
// back to missed.
func (s *Store) MarkMissed(ctx context.Context, q models.Question, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.MissedQuestion{Question: q, WeekID: weekID}
	if err := s.repo.PutMissed(ctx, m); err != nil {
		return err
	}
	s.missed[q.QID] = m
	delete(s.retested, q.QID)
	return nil
}

// MarkRetested moves a missed question to the retested ledger. Questions
// not currently in the missed ledger are left alone.
func (s *Store) MarkRetested(ctx context.Context, qid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missed[qid]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	if err := s.repo.MoveToRetested(ctx, qid, now); err != nil {
		return err
	}
	m.RetestedAt = &now
	s.retested[qid] = m
	delete(s.missed, qid)
	return nil
}

// IsMissed reports whether a qid is currently in the missed ledger.
func (s *Store) IsMissed(qid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.missed[qid]
	return ok
}

// ClearLedger empties one ledger.
func (s *Store) ClearLedger(ctx context.Context, ledger repository.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearLedger(ctx, ledger); err != nil {
		return err
	}
	switch ledger {
	case repository.LedgerMissed:
		s.missed = make(map[string]models.MissedQuestion)
	case repository.LedgerRetested:
		s.retested = make(map[string]models.MissedQuestion)
	}
	return nil
}

// Ledger returns a filtered copy of one ledger, in stable qid order.
func (s *Store) Ledger(ledger repository.Ledger, filter repository.LedgerFilter) []models.MissedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.missed
	if ledger == repository.LedgerRetested {
		src = s.retested
	}
	qids := make([]string, 0, len(src))
	for qid := range src {
		qids = append(qids, qid)
	}
	sort.Strings(qids)

	out := make([]models.MissedQuestion, 0, len(src))
	for _, qid := range qids {
		m := src[qid]
		if filter.Topic != "" && m.Topic != filter.Topic {
			continue
		}
		if filter.Subtopic != "" && m.Subtopic != filter.Subtopic {
			continue
		}
		if filter.WeekID != "" && m.WeekID != filter.WeekID {
			continue
		}
		out = append(out, m)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Stats returns the accuracy bucket for one (topic, subtopic).
func (s *Store) Stats(topic, subtopic string) models.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[repository.StatKey{Topic: topic, Subtopic: subtopic}]
}

// TopicStats sums every subtopic bucket under a topic.
func (s *Store) TopicStats(topic string) models.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total models.ProgressRecord
	for key, rec := range s.stats {
		if key.Topic == topic {
			total.Attempted += rec.Attempted
			total.Correct += rec.Correct
		}
	}
	return total
}

// AddUnlock marks a topic unlocked. Unlocks are monotonic, never removed.
func (s *Store) AddUnlock(ctx context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unlocks[topic] {
		return nil
	}
	if err := s.repo.AddUnlock(ctx, topic); err != nil {
		return err
	}
	s.unlocks[topic] = true
	s.order = append(s.order, topic)
	s.log.Info("topic unlocked: %s", topic)
	return nil
}

// HasUnlock reports whether a topic is in the unlock set.
func (s *Store) HasUnlock(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocks[topic]
}

// Unlocks returns the unlock set in insertion order.
func (s *Store) Unlocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// AppendQuizResult records one finished session.
func (s *Store) AppendQuizResult(ctx context.Context, r models.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.AppendQuizResult(ctx, r); err != nil {
		return err
	}
	s.results = append([]models.QuizResult{r}, s.results...)
	return nil
}

// QuizResults returns recent results, newest first. Limit <= 0 returns all.
func (s *Store) QuizResults(limit int) []models.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]models.QuizResult(nil), s.results...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Settings returns the current settings.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings persists new settings. An empty difficulty filter
// collapses back to all difficulties so the pool can never be filtered
// to nothing by configuration alone.
func (s *Store) UpdateSettings(ctx context.Context, in models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := sanitizeSettings(in)
	if err := s.repo.SaveSettings(ctx, clean); err != nil {
		return s.settings, err
	}
	s.settings = clean
	return clean, nil
}

func sanitizeSettings(s models.Settings) models.Settings {
	if s.SecondsPerQuestion <= 0 {
		s.SecondsPerQuestion = models.DefaultSettings().SecondsPerQuestion
	}
	valid := s.Difficulties[:0:0]
	for _, d := range s.Difficulties {
		switch d {
		case models.Easy, models.Medium, models.Hard:
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		valid = models.AllDifficulties()
	}
	s.Difficulties = valid
	return s
}
