package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medquest/internal/canon"
	"medquest/internal/content"
	apperrors "medquest/internal/errors"
	"medquest/internal/progress"
	"medquest/internal/repository/sqlite"
	"medquest/internal/schema"
	"medquest/internal/services"
	"medquest/internal/testutil"
	"medquest/internal/testutil/mocks"
)

const testNotes = `{
	"lectures": [
		{"topic": "Renal", "subtopics": [
			{"name": "Nephron", "content": "Filter unit.", "slide_ref": "Slide 1"},
			{"name": "Notes Only", "content": "No questions here."}
		]},
		{"topic": "Cardiology", "subtopics": [
			{"name": "Valves", "content": "Four of them."}
		]}
	]
}`

const testBank = `{
	"lectures": [
		{"topic": "Renal", "subtopics": [
			{
				"name": "Nephron",
				"questions": [
					{"stem": "regular one", "options": ["right","wrong"], "answer": "A"},
					{"stem": "regular two", "options": ["right","wrong"], "answer": "A"}
				]
			}
		]}
	]
}`

const testLongBank = `{
	"lectures": [
		{"topic": "Renal", "subtopics": [
			{"name": "Nephron", "long_questions": [
				{"stem": "long one", "options": ["right","wrong"], "answer": "A"}
			]},
			{"name": "Pool Only", "long_questions": [
				{"stem": "vignette only", "options": ["right","wrong"], "answer": "A"}
			]}
		]}
	]
}`

type serviceFixture struct {
	store   *progress.Store
	unlocks *progress.UnlockController
	content services.ContentService
}

func newServiceFixture(t *testing.T, notes, bank, long string) *serviceFixture {
	t.Helper()
	ctx := context.Background()

	database := testutil.NewTestDB(t)
	store := progress.NewStore(sqlite.NewProgressRepository(database.DB))
	require.NoError(t, store.Load(ctx))
	unlocks := progress.NewUnlockController(store)

	source := new(mocks.MockSource)
	source.On("LoadNotes", mock.Anything).Return(json.RawMessage(notes), nil)
	source.On("LoadQuestionBank", mock.Anything, content.KindRegular).Return(json.RawMessage(bank), nil)
	source.On("LoadQuestionBank", mock.Anything, content.KindLongForm).Return(json.RawMessage(long), nil)

	resolver := canon.NewResolver(nil, nil)
	builder := schema.NewBuilder(resolver, schema.NewNormalizer(0))
	adapter := schema.NewAdapter(source, builder)

	svc := services.NewContentService(adapter, resolver, store, unlocks)
	require.NoError(t, svc.Load(ctx))
	return &serviceFixture{store: store, unlocks: unlocks, content: svc}
}

func TestContentService_Topics(t *testing.T) {
	f := newServiceFixture(t, testNotes, testBank, testLongBank)

	topics := f.content.Topics(context.Background())
	require.Len(t, topics, 2)
	assert.Equal(t, "Cardiology", topics[0].Name, "no priority list, alphabetical")
	assert.Equal(t, "Renal", topics[1].Name)
	assert.True(t, topics[0].Unlocked, "first canonical topic is seeded unlocked")
	assert.False(t, topics[1].Unlocked)
}

func TestContentService_SubtopicsMergedView(t *testing.T) {
	f := newServiceFixture(t, testNotes, testBank, testLongBank)

	subs, err := f.content.Subtopics(context.Background(), "Renal")
	require.NoError(t, err)
	require.Len(t, subs, 3)

	// Notes-bearing entries lead, alphabetical within each group.
	assert.Equal(t, "Nephron", subs[0].Name)
	assert.Equal(t, "Notes Only", subs[1].Name)
	assert.Equal(t, "Pool Only", subs[2].Name)

	assert.True(t, subs[0].HasNotes)
	assert.Equal(t, 2, subs[0].RegularCount)
	assert.Equal(t, 1, subs[0].LongFormCount)
	assert.Equal(t, "Slide 1", subs[0].SlideReference)

	assert.False(t, subs[2].HasNotes)
	assert.Equal(t, 0, subs[2].RegularCount)
	assert.Equal(t, 1, subs[2].LongFormCount)
}

func TestContentService_Note(t *testing.T) {
	f := newServiceFixture(t, testNotes, testBank, testLongBank)
	ctx := context.Background()

	note, err := f.content.Note(ctx, "renal", "NEPHRON")
	require.NoError(t, err)
	assert.Equal(t, "Filter unit.", note.Content)

	_, err = f.content.Note(ctx, "Renal", "Missing")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestContentService_FlatBankUnifiesPools(t *testing.T) {
	flat := `{"questions": [
		{"topic": "Renal", "subtopic": "Nephron", "stem": "only q", "options": ["x","y"], "answer": "A"}
	]}`
	f := newServiceFixture(t, testNotes, flat, flat)

	ix := f.content.QuestionIndex()
	reg := ix.Regular.Questions("renal", "nephron")
	long := ix.LongForm.Questions("renal", "nephron")
	require.Len(t, reg, 1, "each question appears exactly once per pool")
	require.Len(t, long, 1)
	assert.Equal(t, reg[0].Stem, long[0].Stem, "flat banks expose the same set under both pools")
}
