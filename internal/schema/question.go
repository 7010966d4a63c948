package schema

import (
	"encoding/json"
	"strings"

	"medquest/internal/canon"
	"medquest/internal/logger"
	"medquest/internal/models"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultLongFormThreshold is the stem length above which a question is
// treated as a long-form vignette when the source carries no explicit
// flag. The source data used both 280 and 320 in different call sites;
// the lower bound is the single value used everywhere here.
const DefaultLongFormThreshold = 280

// Image paths in the source data point into an authoring sandbox; they
// are rewritten to the public asset prefix.
const (
	sandboxImagePrefix = "sandbox:/mnt/data/"
	publicImagePrefix  = "/qimages/"
)

// Normalizer converts one raw question record, in any supported
// encoding, into the canonical Question. It is a pure function of the
// record plus the topic/subtopic strings supplied by the caller.
type Normalizer struct {
	LongFormThreshold int
}

func NewNormalizer(threshold int) *Normalizer {
	if threshold <= 0 {
		threshold = DefaultLongFormThreshold
	}
	return &Normalizer{LongFormThreshold: threshold}
}

// Normalize builds the canonical Question. fallbackID is used when the
// record carries no id of its own.
func (n *Normalizer) Normalize(raw Raw, topic, subtopic, fallbackID string) models.Question {
	stem := raw.str("stem", "question", "prompt")

	if t := raw.str("topic", "topic_name", "topic_title", "subject"); topic == "" && t != "" {
		topic = t
	}
	if s := raw.str("subtopic", "name", "title", "section"); subtopic == "" && s != "" {
		subtopic = s
	}

	q := models.Question{
		ID:             raw.str("id"),
		Topic:          topic,
		Subtopic:       subtopic,
		Stem:           stem,
		Options:        resolveOptions(raw),
		Difficulty:     classifyDifficulty(raw.str("difficulty", "level", "Difficulty")),
		Explanation:    resolveExplanation(raw),
		Image:          rewriteImage(raw.str("image", "img")),
		SlideReference: raw.str("slide_reference", "slide_ref"),
	}
	if q.ID == "" {
		q.ID = fallbackID
	}

	q.Answer, q.Flagged = resolveAnswer(raw, q.Options)
	if q.Flagged {
		logger.Default().WithPrefix("schema").Warn(
			"answer %q matches no option for question %s (%s / %s)",
			q.Answer, q.ID, topic, subtopic)
	}

	q.LongForm = raw.flag("long_form", "vignette") ||
		len([]rune(stem)) > n.LongFormThreshold

	return q
}

// resolveOptions accepts an object map (passed through), or an array of
// strings or of objects exposing text/label/value, assigned successive
// letters in encounter order.
func resolveOptions(raw Raw) map[string]string {
	if obj, ok := raw.object("options"); ok {
		out := make(map[string]string, len(obj))
		for k, v := range obj {
			out[k] = scalarString(v)
		}
		return out
	}
	arr, ok := raw.slice("options")
	if !ok {
		arr, ok = raw.slice("choices")
	}
	out := map[string]string{}
	if !ok {
		return out
	}
	for i, item := range arr {
		if i >= len(letters) {
			break
		}
		letter := string(letters[i])
		if s, isStr := item.(string); isStr {
			out[letter] = s
		} else if obj, isObj := asRaw(item); isObj {
			out[letter] = obj.str("text", "label", "value")
		} else {
			out[letter] = scalarString(item)
		}
	}
	return out
}

// resolveAnswer maps the raw answer value onto an option letter. When
// the value is not itself a key, option values are searched for a
// case/whitespace-insensitive match. A miss leaves the answer as given
// and flags the question; grading will then never match, by contract
// a degraded case rather than a failure.
func resolveAnswer(raw Raw, options map[string]string) (string, bool) {
	answer := raw.str("answer", "correct", "correct_answer")
	if answer == "" {
		return "", false
	}
	if _, ok := options[answer]; ok {
		return answer, false
	}
	want := canon.Normalize(answer)
	for letter, text := range options {
		if canon.Normalize(text) == want {
			return letter, false
		}
	}
	return answer, true
}

// classifyDifficulty folds the assorted difficulty/level encodings into
// the three canonical values, defaulting to medium.
func classifyDifficulty(raw string) models.Difficulty {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "eas"), s == "1", s == "low":
		return models.Easy
	case strings.HasPrefix(s, "har"), s == "3", s == "high":
		return models.Hard
	default:
		return models.Medium
	}
}

func resolveExplanation(raw Raw) string {
	if e := raw.str("expl", "explanation"); e != "" {
		return e
	}
	if r, ok := raw["rationales"]; ok && r != nil {
		if b, err := json.Marshal(r); err == nil {
			return string(b)
		}
	}
	return ""
}

func rewriteImage(path string) string {
	if path == "" {
		return ""
	}
	return strings.Replace(path, sandboxImagePrefix, publicImagePrefix, 1)
}
