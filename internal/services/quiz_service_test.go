package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medquest/internal/errors"
	"medquest/internal/models"
	"medquest/internal/quiz"
	"medquest/internal/repository"
	"medquest/internal/services"
)

func newQuizFixture(t *testing.T) (*serviceFixture, services.QuizService) {
	t.Helper()
	f := newServiceFixture(t, testNotes, testBank, testLongBank)
	engine := quiz.NewEngine(f.store, f.unlocks)
	svc := services.NewQuizService(engine, f.content, f.store, f.unlocks, 10)
	return f, svc
}

func TestQuizService_StartBattleLockedTopic(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()

	// Renal is not the first canonical topic, so it starts locked.
	_, err := svc.StartBattle(ctx, "Renal", "")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeLocked, appErr.Code)

	// Explore mode bypasses the gate.
	_, err = f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)
	session, err := svc.StartBattle(ctx, "Renal", "")
	require.NoError(t, err)
	assert.Equal(t, quiz.ModeBattle, session.Mode)
	assert.NotEmpty(t, session.Items)
}

func TestQuizService_StartBattleTopicCasing(t *testing.T) {
	_, svc := newQuizFixture(t)
	ctx := context.Background()

	// Cardiology is the unlocked first topic but has no questions, so a
	// mixed-case request must reach the pool lookup, not the lock gate.
	_, err := svc.StartBattle(ctx, "cardiology", "")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeEmptyPool, appErr.Code)
}

func TestQuizService_ReturnedSessionIsASnapshot(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	before, err := svc.StartBattle(ctx, "Renal", "Nephron")
	require.NoError(t, err)

	after, err := svc.Pick(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", after.Answers[0].Picked)
	assert.Empty(t, before.Answers[0].Picked, "earlier snapshots do not see later mutations")
}

func TestQuizService_BattlePoolFallsBackToLongForm(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	// "Pool Only" has no regular questions, only a long-form list.
	session, err := svc.StartBattle(ctx, "Renal", "Pool Only")
	require.NoError(t, err)
	require.Len(t, session.Items, 1)
	assert.Equal(t, "vignette only", session.Items[0].Stem)
}

func TestQuizService_WholeTopicBattleSpansSubtopics(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	session, err := svc.StartBattle(ctx, "Renal", "")
	require.NoError(t, err)
	// Two regular Nephron questions plus the Pool Only long-form fallback.
	assert.Len(t, session.Items, 3)
}

func TestQuizService_VignettesUseLongPool(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	session, err := svc.StartVignettes(ctx, "Renal", "Nephron")
	require.NoError(t, err)
	require.Len(t, session.Items, 1)
	assert.Equal(t, "long one", session.Items[0].Stem)
}

func TestQuizService_EmptyPool(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	_, err = svc.StartVignettes(ctx, "Cardiology", "")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeEmptyPool, appErr.Code)
}

func TestQuizService_SingleLiveSession(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	first, err := svc.StartBattle(ctx, "Renal", "")
	require.NoError(t, err)

	second, err := svc.StartBattle(ctx, "Renal", "Nephron")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID, "a new session replaces the live one")
}

func TestQuizService_FullSessionFlow(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	session, err := svc.StartBattle(ctx, "Renal", "Nephron")
	require.NoError(t, err)
	require.Len(t, session.Items, 2)

	_, err = svc.Pick(ctx, "A")
	require.NoError(t, err)
	session, err = svc.LockIn(ctx)
	require.NoError(t, err)
	assert.True(t, session.Answers[0].Locked)

	_, err = svc.Next(ctx)
	require.NoError(t, err)

	result, err := svc.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)

	_, err = svc.Current(ctx)
	assert.Error(t, err, "submit destroys the session")
}

func TestQuizService_TimeoutLocksCurrentSlot(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	_, err = svc.StartBattle(ctx, "Renal", "Nephron")
	require.NoError(t, err)
	_, err = svc.Pick(ctx, "B")
	require.NoError(t, err)

	session, err := svc.Timeout(ctx)
	require.NoError(t, err)
	slot := session.Answers[0]
	require.True(t, slot.Locked)
	require.NotNil(t, slot.Correct)
	assert.False(t, *slot.Correct)
	assert.Equal(t, "B", slot.Picked, "tentative pick survives the timeout")
}

func TestQuizService_RetestDrawsFromMissedLedger(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	// Miss both Nephron questions in a battle.
	session, err := svc.StartBattle(ctx, "Renal", "Nephron")
	require.NoError(t, err)
	for range session.Items {
		_, err = svc.Pick(ctx, "B")
		require.NoError(t, err)
		_, err = svc.LockIn(ctx)
		require.NoError(t, err)
		_, err = svc.Next(ctx)
		require.NoError(t, err)
	}
	_, err = svc.Submit(ctx)
	require.NoError(t, err)
	require.Len(t, f.store.Ledger(repository.LedgerMissed, repository.LedgerFilter{}), 2)

	retest, err := svc.StartRetest(ctx, "Renal")
	require.NoError(t, err)
	assert.Len(t, retest.Items, 2)

	// Answer both correctly; they move to the retested ledger.
	for range retest.Items {
		_, err = svc.Pick(ctx, "A")
		require.NoError(t, err)
		_, err = svc.LockIn(ctx)
		require.NoError(t, err)
		_, err = svc.Next(ctx)
		require.NoError(t, err)
	}
	_, err = svc.Submit(ctx)
	require.NoError(t, err)

	assert.Empty(t, f.store.Ledger(repository.LedgerMissed, repository.LedgerFilter{}))
	assert.Len(t, f.store.Ledger(repository.LedgerRetested, repository.LedgerFilter{}), 2)
}

func TestQuizService_AbandonDiscardsSession(t *testing.T) {
	f, svc := newQuizFixture(t)
	ctx := context.Background()
	_, err := f.store.UpdateSettings(ctx, models.Settings{Explore: true})
	require.NoError(t, err)

	_, err = svc.StartBattle(ctx, "Renal", "Nephron")
	require.NoError(t, err)
	require.NoError(t, svc.Abandon(ctx))

	_, err = svc.Current(ctx)
	assert.Error(t, err)
	assert.Empty(t, f.store.QuizResults(0), "abandon records nothing")
}
