package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleDocument_AllSegments(t *testing.T) {
	raw := Raw{
		"content":  "The nephron filters blood.",
		"eli5":     "Tiny filters clean your blood.",
		"mnemonic": "NEPHRON",
		"connections": []any{
			map[string]any{"topic": "Cardiology", "subtopic": "Blood Pressure", "reason": "RAAS"},
			map[string]any{"topic": "Endocrine"},
		},
	}

	want := "The nephron filters blood." +
		"\n\nELI5: Tiny filters clean your blood." +
		"\n\nMnemonic: NEPHRON" +
		"\n\nConnections:\n• Cardiology — Blood Pressure (RAAS)\n• Endocrine"
	assert.Equal(t, want, AssembleDocument(raw))
}

func TestAssembleDocument_HighYieldFallback(t *testing.T) {
	raw := Raw{
		"high_yield": []any{"First pearl", "Second pearl"},
		"mnemonic":   "ABC",
	}

	assert.Equal(t, "• First pearl\n• Second pearl\n\nMnemonic: ABC", AssembleDocument(raw))
}

func TestAssembleDocument_ContentWinsOverHighYield(t *testing.T) {
	raw := Raw{
		"content":    "Primary text.",
		"high_yield": []any{"ignored"},
	}

	assert.Equal(t, "Primary text.", AssembleDocument(raw))
}

func TestAssembleDocument_Empty(t *testing.T) {
	assert.Equal(t, "", AssembleDocument(Raw{}))
}

func TestAssembleDocument_OnlyELI5(t *testing.T) {
	raw := Raw{"eli5": "Just this."}
	assert.Equal(t, "ELI5: Just this.", AssembleDocument(raw))
}

func TestSlideReference(t *testing.T) {
	assert.Equal(t, "Slide 12", SlideReference(Raw{"slide_reference": "Slide 12"}))
	assert.Equal(t, "Slide 3", SlideReference(Raw{"slide_ref": "Slide 3"}))
	assert.Equal(t, "4, 7", SlideReference(Raw{"slides": []any{float64(4), float64(7)}}))
	assert.Equal(t, "", SlideReference(Raw{}))
}
