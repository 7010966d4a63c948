package repository

import (
	"context"
	"time"

	"medquest/internal/models"
)

// Ledger names one of the two review lists. A question lives in at most
// one ledger at a time.
type Ledger string

const (
	LedgerMissed   Ledger = "missed"
	LedgerRetested Ledger = "retested"
)

// StatKey identifies one accuracy bucket.
type StatKey struct {
	Topic    string
	Subtopic string
}

// LedgerFilter narrows ledger listings. Zero values mean "no filter";
// Limit <= 0 means unlimited.
type LedgerFilter struct {
	Topic    string
	Subtopic string
	WeekID   string
	Limit    int
}

// Snapshot is the full persisted progress state, loaded once at startup.
type Snapshot struct {
	Stats    map[StatKey]models.ProgressRecord
	Unlocks  []string // unlock order
	Missed   []models.MissedQuestion
	Retested []models.MissedQuestion
	Results  []models.QuizResult
	Settings *models.Settings // nil when never saved
}

// ProgressRepository persists quiz progress, the review ledgers, session
// results and settings.
type ProgressRepository interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	SaveStat(ctx context.Context, key StatKey, rec models.ProgressRecord) error
	AddUnlock(ctx context.Context, topic string) error

	// PutMissed inserts or refreshes a missed entry. If the question is
	// currently in the retested ledger it moves back to missed.
	PutMissed(ctx context.Context, m models.MissedQuestion) error
	// MoveToRetested flips a missed entry to the retested ledger. It is a
	// no-op when the qid is not in the missed ledger.
	MoveToRetested(ctx context.Context, qid string, retestedAt time.Time) error
	ClearLedger(ctx context.Context, ledger Ledger) error
	ListLedger(ctx context.Context, ledger Ledger, filter LedgerFilter) ([]models.MissedQuestion, error)

	AppendQuizResult(ctx context.Context, r models.QuizResult) error
	ListQuizResults(ctx context.Context, limit int) ([]models.QuizResult, error)

	SaveSettings(ctx context.Context, s models.Settings) error
}
