package services

import (
	"context"
	"sort"
	"sync"

	"medquest/internal/canon"
	apperrors "medquest/internal/errors"
	"medquest/internal/logger"
	"medquest/internal/models"
	"medquest/internal/progress"
	"medquest/internal/schema"
)

// TopicSummary is one topic tile: display name, unlock state and the
// aggregate accuracy across its subtopics.
type TopicSummary struct {
	Name      string                `json:"name"`
	Unlocked  bool                  `json:"unlocked"`
	Subtopics int                   `json:"subtopics"`
	Stats     models.ProgressRecord `json:"stats"`
}

// SubtopicSummary merges what the notes and both question pools know
// about one subtopic.
type SubtopicSummary struct {
	Name           string                `json:"name"`
	HasNotes       bool                  `json:"has_notes"`
	SlideReference string                `json:"slide_reference,omitempty"`
	RegularCount   int                   `json:"regular_count"`
	LongFormCount  int                   `json:"long_form_count"`
	Stats          models.ProgressRecord `json:"stats"`
}

// ContentService owns the canonical indices and the merged display
// views over them.
type ContentService interface {
	Load(ctx context.Context) error
	Ready() bool
	Topics(ctx context.Context) []TopicSummary
	Subtopics(ctx context.Context, topic string) ([]SubtopicSummary, error)
	Note(ctx context.Context, topic, sub string) (*models.Subtopic, error)
	QuestionIndex() *models.QuestionIndex
	Resolver() *canon.Resolver
}

type contentService struct {
	mu       sync.RWMutex
	adapter  *schema.Adapter
	resolver *canon.Resolver
	store    *progress.Store
	unlocks  *progress.UnlockController
	notes    *models.NotesIndex
	bank     *models.QuestionIndex
	log      *logger.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(adapter *schema.Adapter, resolver *canon.Resolver, store *progress.Store, unlocks *progress.UnlockController) ContentService {
	return &contentService{
		adapter:  adapter,
		resolver: resolver,
		store:    store,
		unlocks:  unlocks,
		log:      logger.Default().WithPrefix("content-service"),
	}
}

// Load fetches and rebuilds both indices, then swaps them in atomically.
// A flat-array bank cannot distinguish the regular and long-form pools,
// so those sources get the unified superset under both names.
func (s *contentService) Load(ctx context.Context) error {
	notes, bank, err := s.adapter.Load(ctx)
	if err != nil {
		return err
	}
	if len(bank.Flat) > 0 {
		schema.Unify(bank)
	}

	s.mu.Lock()
	s.notes = notes
	s.bank = bank
	s.mu.Unlock()

	topics := s.topicNames()
	if err := s.unlocks.SetTopics(ctx, topics); err != nil {
		return err
	}
	s.log.Info("content ready: %d topics", len(topics))
	return nil
}

func (s *contentService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes != nil && s.bank != nil
}

// topicNames is the canonical display order: the notes topic list when
// present, otherwise the bank topics through the resolver's ordering.
func (s *contentService) topicNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notes != nil && len(s.notes.Topics) > 0 {
		names := make([]string, len(s.notes.Topics))
		for i, t := range s.notes.Topics {
			names[i] = t.Name
		}
		return names
	}
	if s.bank != nil {
		return s.resolver.OrderTopics(s.bank.Topics)
	}
	return nil
}

func (s *contentService) Topics(ctx context.Context) []TopicSummary {
	log := logger.FromContext(ctx)

	names := s.topicNames()
	out := make([]TopicSummary, 0, len(names))
	for _, name := range names {
		subs, err := s.Subtopics(ctx, name)
		if err != nil {
			log.Warn("failed to merge subtopics for %q: %v", name, err)
		}
		out = append(out, TopicSummary{
			Name:      name,
			Unlocked:  s.unlocks.IsUnlocked(name),
			Subtopics: len(subs),
			Stats:     s.store.TopicStats(name),
		})
	}
	return out
}

// Subtopics merges the notes and both pools into one display list:
// the name union, notes-bearing entries first, alphabetical within each
// group.
func (s *contentService) Subtopics(ctx context.Context, topic string) ([]SubtopicSummary, error) {
	s.mu.RLock()
	notes, bank := s.notes, s.bank
	s.mu.RUnlock()
	if notes == nil || bank == nil {
		return nil, apperrors.NewLoadError("content", nil)
	}

	tKey := s.resolver.Resolve(topic)
	merged := make(map[string]*SubtopicSummary)

	entry := func(subKey, display string) *SubtopicSummary {
		if e, ok := merged[subKey]; ok {
			return e
		}
		e := &SubtopicSummary{Name: display}
		merged[subKey] = e
		return e
	}

	for subKey, sub := range notes.Subtopics(tKey) {
		e := entry(subKey, sub.Name)
		e.HasNotes = sub.Content != ""
		e.SlideReference = sub.SlideReference
	}
	for subKey, qs := range bank.Regular[tKey] {
		display := subKey
		if len(qs) > 0 && qs[0].Subtopic != "" {
			display = qs[0].Subtopic
		}
		entry(subKey, display).RegularCount = len(qs)
	}
	for subKey, qs := range bank.LongForm[tKey] {
		display := subKey
		if len(qs) > 0 && qs[0].Subtopic != "" {
			display = qs[0].Subtopic
		}
		entry(subKey, display).LongFormCount = len(qs)
	}

	out := make([]SubtopicSummary, 0, len(merged))
	for _, e := range merged {
		e.Stats = s.store.Stats(topic, e.Name)
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HasNotes != out[j].HasNotes {
			return out[i].HasNotes
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *contentService) Note(ctx context.Context, topic, sub string) (*models.Subtopic, error) {
	s.mu.RLock()
	notes := s.notes
	s.mu.RUnlock()
	if notes == nil {
		return nil, apperrors.NewLoadError("content", nil)
	}

	tKey := s.resolver.Resolve(topic)
	entry, ok := notes.Subtopic(tKey, canon.Normalize(sub))
	if !ok {
		return nil, apperrors.NewNotFoundError("note", topic+"/"+sub)
	}
	return entry, nil
}

func (s *contentService) QuestionIndex() *models.QuestionIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bank
}

func (s *contentService) Resolver() *canon.Resolver {
	return s.resolver
}
