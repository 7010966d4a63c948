package canon_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"medquest/internal/canon"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cardiology", canon.Normalize("  Cardiology "))
	assert.Equal(t, "heart failure", canon.Normalize("Heart\t\nFailure"))
	assert.Equal(t, "", canon.Normalize("   "))
}

func TestQID_Stable(t *testing.T) {
	a := canon.QID("Cardiology", "Heart Failure", "A 65-year-old man presents with dyspnea")
	b := canon.QID(" cardiology ", "heart  failure", "A 65-YEAR-OLD man presents with dyspnea")
	assert.Equal(t, a, b, "qid should be insensitive to case and whitespace")
}

func TestQID_TruncatesStemAt60Runes(t *testing.T) {
	longStem := strings.Repeat("x", 200)
	qid := canon.QID("t", "s", longStem)
	assert.Equal(t, "t__s__"+strings.Repeat("x", 60), qid)

	// Two stems sharing their first 60 runes collide deliberately.
	other := canon.QID("t", "s", strings.Repeat("x", 61)+" trailing difference")
	assert.Equal(t, qid, other)
}

func TestResolver_Aliases(t *testing.T) {
	r := canon.NewResolver(map[string]string{
		"Cardio":   "Cardiology",
		"  HEART ": "Cardiology",
	}, nil)

	assert.Equal(t, "cardiology", r.Resolve("cardio"))
	assert.Equal(t, "cardiology", r.Resolve("heart"))
	assert.Equal(t, "cardiology", r.Resolve("Cardiology"))
	assert.Equal(t, "renal", r.Resolve("Renal"), "unaliased names pass through normalized")
}

func TestOrderTopics(t *testing.T) {
	r := canon.NewResolver(nil, []string{"Cardiology", "Pulmonology"})

	got := r.OrderTopics([]string{"Renal", "Pulmonology", "General", "Anatomy", "Cardiology"})
	assert.Equal(t, []string{"General", "Cardiology", "Pulmonology", "Anatomy", "Renal"}, got)
}

func TestOrderTopics_NoPriorityList(t *testing.T) {
	r := canon.NewResolver(nil, nil)

	got := r.OrderTopics([]string{"Renal", "General", "Anatomy"})
	assert.Equal(t, []string{"General", "Anatomy", "Renal"}, got)
}
