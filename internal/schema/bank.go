package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"medquest/internal/canon"
	"medquest/internal/models"
)

// BankShape identifies which question-bank encoding a payload uses.
// Predicates run in fixed priority order: a flat questions array beats
// a lecture tree, which beats the bare nested-dict form.
type BankShape int

const (
	BankShapeUnknown BankShape = iota
	BankShapeFlat
	BankShapeLectures
	BankShapeNested
)

func (s BankShape) String() string {
	switch s {
	case BankShapeFlat:
		return "flat-array"
	case BankShapeLectures:
		return "lecture-tree"
	case BankShapeNested:
		return "nested-dict"
	default:
		return "unknown"
	}
}

// Pool selects which question list to read from a lecture-tree
// subtopic. Each pool probes its key fallbacks in order.
type Pool int

const (
	PoolRegular Pool = iota
	PoolLongForm
)

func (p Pool) propKeys() []string {
	if p == PoolLongForm {
		return []string{"long_questions", "long", "long_form_questions", "vignettes", "questions"}
	}
	return []string{"questions", "regular_questions", "items"}
}

// BuildQuestionIndex decodes one question-bank payload into the
// canonical index with its regular and long-form pools. Unrecognized
// or malformed payloads degrade to an empty index rather than failing
// the adapter.
func (b *Builder) BuildQuestionIndex(data json.RawMessage) *models.QuestionIndex {
	ix := models.NewQuestionIndex()

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		b.log.Warn("question bank is not a JSON object, using empty index: %v", err)
		return ix
	}
	r := Raw(root)

	switch {
	case r.has("questions"):
		if qs, ok := r.slice("questions"); ok {
			b.log.Debug("bank shape detected: %s (%d questions)", BankShapeFlat, len(qs))
			b.buildFlat(ix, qs)
			return ix
		}
		b.log.Warn("bank has a non-array questions field, using empty index")
		return ix

	case r.has("lectures"):
		lectures, _ := r.slice("lectures")
		b.log.Debug("bank shape detected: %s (%d lectures)", BankShapeLectures, len(lectures))
		b.buildLectures(ix, flattenLectures(lectures))
		return ix

	default:
		b.log.Debug("bank shape detected: %s", BankShapeNested)
		if err := b.buildNested(ix, data); err != nil {
			b.log.Warn("failed to walk nested bank, using empty index: %v", err)
			return models.NewQuestionIndex()
		}
		return ix
	}
}

// buildFlat groups a flat questions array by resolved topic/subtopic
// into the two parallel trees, tagging the regular copy long_form=false
// and the long-form copy long_form=true, and keeps a flat list
// deduplicated by qid. Topics sort General first, then alphabetical.
func (b *Builder) buildFlat(ix *models.QuestionIndex, qs []any) {
	type subAcc struct {
		names map[string]string // subKey -> display name
		order []string
	}
	topicNames := map[string]string{}
	subsByTopic := map[string]*subAcc{}
	seen := map[string]bool{}

	for i, item := range qs {
		raw, ok := asRaw(item)
		if !ok {
			continue
		}
		topic := raw.str("topic", "topic_name", "topic_title", "subject")
		if topic == "" {
			topic = canon.GeneralTopic
		}
		sub := raw.str("subtopic", "name", "title", "section")
		if sub == "" {
			sub = "All"
		}

		q := b.normalizer.Normalize(raw, topic, sub, fmt.Sprintf("Q%d", i+1))
		tKey := b.resolver.Resolve(topic)
		sKey := canon.Normalize(sub)

		if _, ok := topicNames[tKey]; !ok {
			topicNames[tKey] = topic
			subsByTopic[tKey] = &subAcc{names: map[string]string{}}
		}
		acc := subsByTopic[tKey]
		if _, ok := acc.names[sKey]; !ok {
			acc.names[sKey] = sub
			acc.order = append(acc.order, sKey)
		}

		regular := q
		regular.LongForm = false
		long := q
		long.LongForm = true
		ix.Regular.Add(tKey, sKey, regular)
		ix.LongForm.Add(tKey, sKey, long)

		qid := canon.QID(q.Topic, q.Subtopic, q.Stem)
		if !seen[qid] {
			seen[qid] = true
			ix.Flat = append(ix.Flat, q)
		}
	}

	names := make([]string, 0, len(topicNames))
	for _, n := range topicNames {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == canon.GeneralTopic {
			return true
		}
		if names[j] == canon.GeneralTopic {
			return false
		}
		return names[i] < names[j]
	})
	ix.Topics = names
}

// buildLectures fills both pools from one lecture tree. The same
// payload serves regular and long-form; only the per-subtopic property
// fallbacks differ.
func (b *Builder) buildLectures(ix *models.QuestionIndex, lectures []Raw) {
	seenTopic := map[string]bool{}
	for _, lec := range lectures {
		topicName := lec.str("topic", "topic_title", "name")
		tKey := b.resolver.Resolve(topicName)
		if !seenTopic[tKey] {
			seenTopic[tKey] = true
			ix.Topics = append(ix.Topics, topicName)
		}

		subs, _ := lec.slice("subtopics")
		for _, s := range subs {
			sr, ok := asRaw(s)
			if !ok {
				continue
			}
			subName := sr.str("name", "subtopic", "title")
			sKey := canon.Normalize(subName)
			ix.Regular.Add(tKey, sKey, b.poolQuestions(sr, PoolRegular, topicName, subName)...)
			ix.LongForm.Add(tKey, sKey, b.poolQuestions(sr, PoolLongForm, topicName, subName)...)
		}
	}
}

func (b *Builder) poolQuestions(sub Raw, pool Pool, topicName, subName string) []models.Question {
	var rawArr []any
	for _, key := range pool.propKeys() {
		if arr, ok := sub.slice(key); ok && len(arr) > 0 {
			rawArr = arr
			break
		}
	}
	out := make([]models.Question, 0, len(rawArr))
	for i, item := range rawArr {
		raw, ok := asRaw(item)
		if !ok {
			continue
		}
		out = append(out, b.normalizer.Normalize(raw, topicName, subName, fmt.Sprintf("Q%d", i+1)))
	}
	return out
}

// buildNested walks the bare topic -> subtopic -> question[] object,
// preserving key encounter order. Each leaf array feeds both pools.
func (b *Builder) buildNested(ix *models.QuestionIndex, data json.RawMessage) error {
	topics, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	for _, topic := range topics {
		tKey := b.resolver.Resolve(topic.key)
		ix.Topics = append(ix.Topics, topic.key)

		subs, err := decodeOrderedObject(topic.value)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			var rawArr []any
			if err := json.Unmarshal(sub.value, &rawArr); err != nil {
				continue
			}
			sKey := canon.Normalize(sub.key)
			qs := make([]models.Question, 0, len(rawArr))
			for i, item := range rawArr {
				raw, ok := asRaw(item)
				if !ok {
					continue
				}
				qs = append(qs, b.normalizer.Normalize(raw, topic.key, sub.key, fmt.Sprintf("Q%d", i+1)))
			}
			ix.Regular.Add(tKey, sKey, qs...)
			ix.LongForm.Add(tKey, sKey, qs...)
		}
	}
	return nil
}

// flattenLectures unwraps one level of the nested
// {lectures:[{lectures:[...]}]} wrapper some exports produce.
func flattenLectures(in []any) []Raw {
	var out []Raw
	for _, v := range in {
		r, ok := asRaw(v)
		if !ok {
			continue
		}
		if inner, ok := r.slice("lectures"); ok {
			out = append(out, rawSlice(inner)...)
			continue
		}
		out = append(out, r)
	}
	return out
}
