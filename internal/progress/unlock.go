package progress

import (
	"context"
	"sync"

	"medquest/internal/canon"
	"medquest/internal/logger"
)

// streakTarget is how many consecutive correct answers in a topic's
// battle unlock the next topic.
const streakTarget = 3

// UnlockController applies the sequential unlock rule over the canonical
// topic order: the first topic is always available, and a streak of
// consecutive correct answers in topic N unlocks topic N+1. Streaks are
// per topic, reset by any incorrect answer, and do not survive the end
// of a session.
type UnlockController struct {
	mu      sync.Mutex
	store   *Store
	topics  []string
	byKey   map[string]string
	streaks map[string]int
	log     *logger.Logger
}

func NewUnlockController(store *Store) *UnlockController {
	return &UnlockController{
		store:   store,
		byKey:   make(map[string]string),
		streaks: make(map[string]int),
		log:     logger.Default().WithPrefix("unlock"),
	}
}

// SetTopics installs the canonical topic order. The first topic is
// seeded into the unlock set so progress starts somewhere even before
// any question is answered.
func (u *UnlockController) SetTopics(ctx context.Context, topics []string) error {
	u.mu.Lock()
	u.topics = append([]string(nil), topics...)
	u.byKey = make(map[string]string, len(topics))
	for _, t := range topics {
		u.byKey[canon.Normalize(t)] = t
	}
	u.mu.Unlock()

	if len(topics) > 0 && !u.store.HasUnlock(topics[0]) {
		return u.store.AddUnlock(ctx, topics[0])
	}
	return nil
}

// IsUnlocked reports whether a topic can be quizzed. The topic may be
// given in any casing; it is matched against the canonical list.
// Explore mode bypasses the gate entirely.
func (u *UnlockController) IsUnlocked(topic string) bool {
	if u.store.Settings().Explore {
		return true
	}
	u.mu.Lock()
	topic = u.canonicalLocked(topic)
	first := len(u.topics) > 0 && u.topics[0] == topic
	u.mu.Unlock()
	return first || u.store.HasUnlock(topic)
}

// OnGraded feeds one graded answer into the streak counter. A correct
// answer extends the topic's streak; reaching the target unlocks the
// next topic in canonical order and resets the streak. An incorrect
// answer resets the streak to zero.
func (u *UnlockController) OnGraded(ctx context.Context, topic string, correct bool) error {
	u.mu.Lock()
	topic = u.canonicalLocked(topic)
	if !correct {
		u.streaks[topic] = 0
		u.mu.Unlock()
		return nil
	}
	u.streaks[topic]++
	reached := u.streaks[topic] >= streakTarget
	var next string
	if reached {
		u.streaks[topic] = 0
		next = u.nextTopicLocked(topic)
	}
	u.mu.Unlock()

	if !reached || next == "" {
		return nil
	}
	if u.store.HasUnlock(next) {
		return nil
	}
	u.log.Info("streak of %d in %q unlocks %q", streakTarget, topic, next)
	return u.store.AddUnlock(ctx, next)
}

// Streak returns the current streak for a topic.
func (u *UnlockController) Streak(topic string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.streaks[u.canonicalLocked(topic)]
}

// ResetStreaks clears all streak counters. Called when a session ends so
// partial streaks never leak into the next session.
func (u *UnlockController) ResetStreaks() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.streaks = make(map[string]int)
}

// canonicalLocked maps any casing of a topic name to its display name.
// Callers hold u.mu.
func (u *UnlockController) canonicalLocked(topic string) string {
	if display, ok := u.byKey[canon.Normalize(topic)]; ok {
		return display
	}
	return topic
}

func (u *UnlockController) nextTopicLocked(topic string) string {
	for i, t := range u.topics {
		if t == topic && i+1 < len(u.topics) {
			return u.topics[i+1]
		}
	}
	return ""
}
