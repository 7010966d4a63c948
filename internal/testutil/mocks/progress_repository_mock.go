package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"medquest/internal/models"
	"medquest/internal/repository"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Snapshot), args.Error(1)
}

func (m *MockProgressRepository) SaveStat(ctx context.Context, key repository.StatKey, rec models.ProgressRecord) error {
	args := m.Called(ctx, key, rec)
	return args.Error(0)
}

func (m *MockProgressRepository) AddUnlock(ctx context.Context, topic string) error {
	args := m.Called(ctx, topic)
	return args.Error(0)
}

func (m *MockProgressRepository) PutMissed(ctx context.Context, missed models.MissedQuestion) error {
	args := m.Called(ctx, missed)
	return args.Error(0)
}

func (m *MockProgressRepository) MoveToRetested(ctx context.Context, qid string, retestedAt time.Time) error {
	args := m.Called(ctx, qid, retestedAt)
	return args.Error(0)
}

func (m *MockProgressRepository) ClearLedger(ctx context.Context, ledger repository.Ledger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockProgressRepository) ListLedger(ctx context.Context, ledger repository.Ledger, filter repository.LedgerFilter) ([]models.MissedQuestion, error) {
	args := m.Called(ctx, ledger, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MissedQuestion), args.Error(1)
}

func (m *MockProgressRepository) AppendQuizResult(ctx context.Context, r models.QuizResult) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockProgressRepository) ListQuizResults(ctx context.Context, limit int) ([]models.QuizResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuizResult), args.Error(1)
}

func (m *MockProgressRepository) SaveSettings(ctx context.Context, s models.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
