package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuestionIndex_FlatShape(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"questions": [
			{"topic": "Renal", "subtopic": "Nephron", "stem": "Q one", "options": ["a","b"], "answer": "A"},
			{"stem": "Q two", "options": ["a","b"], "answer": "B"},
			{"topic": "Renal", "subtopic": "Nephron", "stem": "Q one", "options": ["a","b"], "answer": "A"}
		]
	}`)

	ix := b.BuildQuestionIndex(payload)

	reg := ix.Regular.Questions("renal", "nephron")
	require.Len(t, reg, 2, "duplicates stay in the tree")
	assert.False(t, reg[0].LongForm)

	long := ix.LongForm.Questions("renal", "nephron")
	require.Len(t, long, 2)
	assert.True(t, long[0].LongForm, "long-form copy of the same question")

	// Missing topic/subtopic default to General/All.
	assert.Len(t, ix.Regular.Questions("general", "all"), 1)

	assert.Len(t, ix.Flat, 2, "flat list dedupes by qid")
	assert.Equal(t, []string{"General", "Renal"}, ix.Topics, "General sorts first")
}

func TestBuildQuestionIndex_LectureShape(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"lectures": [
			{"topic": "Cardiology", "subtopics": [
				{
					"name": "Heart Failure",
					"questions": [{"stem": "regular q", "options": ["x","y"], "answer": "A"}],
					"long_questions": [{"stem": "long vignette q", "options": ["x","y"], "answer": "B"}]
				}
			]}
		]
	}`)

	ix := b.BuildQuestionIndex(payload)

	reg := ix.Regular.Questions("cardiology", "heart failure")
	require.Len(t, reg, 1)
	assert.Equal(t, "regular q", reg[0].Stem)

	long := ix.LongForm.Questions("cardiology", "heart failure")
	require.Len(t, long, 1)
	assert.Equal(t, "long vignette q", long[0].Stem)

	assert.Equal(t, []string{"Cardiology"}, ix.Topics)
}

func TestBuildQuestionIndex_LongPoolFallsBackToQuestions(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"lectures": [
			{"topic": "Renal", "subtopics": [
				{"name": "Nephron", "questions": [{"stem": "only q", "options": ["x"], "answer": "A"}]}
			]}
		]
	}`)

	ix := b.BuildQuestionIndex(payload)
	assert.Len(t, ix.LongForm.Questions("renal", "nephron"), 1,
		"long pool probes down to the shared questions key")
}

func TestBuildQuestionIndex_WrappedLectures(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"lectures": [
			{"lectures": [
				{"topic": "Renal", "subtopics": [
					{"name": "Nephron", "questions": [{"stem": "q", "options": ["x"], "answer": "A"}]}
				]}
			]}
		]
	}`)

	ix := b.BuildQuestionIndex(payload)
	assert.Len(t, ix.Regular.Questions("renal", "nephron"), 1)
}

func TestBuildQuestionIndex_NestedShape(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"Zebra Topic": {"Sub B": [{"stem": "q1", "options": ["x"], "answer": "A"}]},
		"Alpha Topic": {"Sub A": [{"stem": "q2", "options": ["x"], "answer": "A"}]}
	}`)

	ix := b.BuildQuestionIndex(payload)

	assert.Equal(t, []string{"Zebra Topic", "Alpha Topic"}, ix.Topics,
		"nested shape preserves key encounter order")
	assert.Len(t, ix.Regular.Questions("zebra topic", "sub b"), 1)
	assert.Len(t, ix.LongForm.Questions("zebra topic", "sub b"), 1,
		"nested leaves feed both pools")
}

func TestBuildQuestionIndex_FlatBeatsLectures(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"questions": [{"topic": "Renal", "stem": "flat q", "options": ["x"], "answer": "A"}],
		"lectures": [{"topic": "Cardiology", "subtopics": []}]
	}`)

	ix := b.BuildQuestionIndex(payload)
	assert.NotEmpty(t, ix.Flat, "questions key wins the shape priority")
	assert.Empty(t, ix.Regular["cardiology"])
}

func TestBuildQuestionIndex_Malformed(t *testing.T) {
	b := testBuilder(nil, nil)

	ix := b.BuildQuestionIndex(json.RawMessage(`"just a string"`))
	assert.Empty(t, ix.Flat)
	assert.Empty(t, ix.Regular)

	ix = b.BuildQuestionIndex(json.RawMessage(`{"questions": "not an array"}`))
	assert.Empty(t, ix.Flat)
}

func TestUnify(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"lectures": [
			{"topic": "Renal", "subtopics": [
				{
					"name": "Nephron",
					"questions": [{"stem": "r1", "options": ["x"], "answer": "A"}],
					"long_questions": [{"stem": "l1", "options": ["x"], "answer": "A"}]
				}
			]}
		]
	}`)

	ix := b.BuildQuestionIndex(payload)
	Unify(ix)

	reg := ix.Regular.Questions("renal", "nephron")
	long := ix.LongForm.Questions("renal", "nephron")
	require.Len(t, reg, 2, "both views expose the combined superset")
	assert.Equal(t, reg, long)
}

func TestUnify_CollapsesDuplicateEntries(t *testing.T) {
	b := testBuilder(nil, nil)
	payload := json.RawMessage(`{
		"questions": [
			{"topic": "Cardio", "subtopic": "Heart", "stem": "only q", "options": ["x","y"], "answer": "A"}
		]
	}`)

	// A flat payload already fills both pools with the same set; the
	// unified view must hold each question once, not once per pool.
	ix := b.BuildQuestionIndex(payload)
	Unify(ix)

	require.Len(t, ix.Regular.Questions("cardio", "heart"), 1)
	require.Len(t, ix.LongForm.Questions("cardio", "heart"), 1)
}

func TestBuildQuestionIndex_AliasMergesBankTopics(t *testing.T) {
	b := testBuilder(map[string]string{"Cardio": "Cardiology"}, nil)
	payload := json.RawMessage(`{
		"questions": [
			{"topic": "Cardiology", "subtopic": "Valves", "stem": "q1", "options": ["x"], "answer": "A"},
			{"topic": "Cardio", "subtopic": "Valves", "stem": "q2", "options": ["x"], "answer": "A"}
		]
	}`)

	ix := b.BuildQuestionIndex(payload)
	assert.Len(t, ix.Regular.Questions("cardiology", "valves"), 2)
	assert.Equal(t, []string{"Cardiology"}, ix.Topics)
}
