package schema

import (
	"encoding/json"
	"strings"

	"medquest/internal/canon"
	"medquest/internal/models"
)

// NotesShape identifies which of the supported notes encodings a
// payload uses. Detection runs the required-field predicates in a
// fixed priority order and the parse result is tagged with exactly one
// variant, never inferred again downstream.
type NotesShape int

const (
	NotesShapeUnknown NotesShape = iota
	NotesShapeLectures
	NotesShapeTopicList
	NotesShapeFlat
)

func (s NotesShape) String() string {
	switch s {
	case NotesShapeLectures:
		return "lectures"
	case NotesShapeTopicList:
		return "topic-list"
	case NotesShapeFlat:
		return "flat-text"
	default:
		return "unknown"
	}
}

// notesPayload is the tagged parse result: whatever the wire shape, it
// is reduced to the lecture-tree variant before indexing.
type notesPayload struct {
	Shape    NotesShape
	Lectures []Raw
}

// detectNotes classifies a decoded notes document and reduces it to
// lecture-tree form. Unrecognized shapes yield an empty payload.
func detectNotes(root Raw) notesPayload {
	if lectures, ok := root.slice("lectures"); ok {
		return notesPayload{Shape: NotesShapeLectures, Lectures: rawSlice(lectures)}
	}

	if topics, ok := root.slice("topics"); ok {
		out := make([]Raw, 0, len(topics))
		for _, t := range topics {
			tr, ok := asRaw(t)
			if !ok {
				continue
			}
			lec := Raw{"topic": tr.str("topic_title", "topic", "name")}
			if subs, ok := tr.slice("subtopics"); ok {
				lec["subtopics"] = subs
			}
			out = append(out, lec)
		}
		return notesPayload{Shape: NotesShapeTopicList, Lectures: out}
	}

	if paragraphs, ok := root.slice("paragraphs"); ok {
		var parts []string
		for _, p := range paragraphs {
			if s := scalarString(p); s != "" {
				parts = append(parts, s)
			}
		}
		return flatNotes(strings.Join(parts, "\n\n"))
	}
	if content := root.str("content"); content != "" {
		return flatNotes(content)
	}

	return notesPayload{Shape: NotesShapeUnknown}
}

// flatNotes synthesizes the single General/All topic tree used for
// unstructured text payloads.
func flatNotes(text string) notesPayload {
	return notesPayload{
		Shape: NotesShapeFlat,
		Lectures: []Raw{{
			"topic": canon.GeneralTopic,
			"subtopics": []any{map[string]any{
				"name":    "All",
				"content": text,
			}},
		}},
	}
}

// BuildNotesIndex decodes a raw notes document and assembles the
// canonical index. Structural errors degrade to an empty index so a
// malformed notes file never takes down the whole adapter.
func (b *Builder) BuildNotesIndex(data json.RawMessage) *models.NotesIndex {
	ix := models.NewNotesIndex()

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		b.log.Warn("notes payload is not a JSON object, using empty index: %v", err)
		return ix
	}

	payload := detectNotes(Raw(root))
	b.log.Debug("notes shape detected: %s (%d lectures)", payload.Shape, len(payload.Lectures))
	if payload.Shape == NotesShapeUnknown {
		b.log.Warn("unrecognized notes shape, using empty index")
		return ix
	}

	type topicAcc struct {
		name string
		subs map[string]*models.Subtopic
		keys []string
	}
	accs := make(map[string]*topicAcc)
	var topicKeys []string

	for _, lec := range payload.Lectures {
		topicName := lec.str("topic", "topic_title", "name")
		if topicName == "" {
			topicName = "Untitled Topic"
		}
		key := b.resolver.Resolve(topicName)
		acc, ok := accs[key]
		if !ok {
			acc = &topicAcc{name: topicName, subs: make(map[string]*models.Subtopic)}
			accs[key] = acc
			topicKeys = append(topicKeys, key)
		}

		subs, _ := lec.slice("subtopics")
		for _, s := range subs {
			sr, ok := asRaw(s)
			if !ok {
				continue
			}
			subName := sr.str("name", "subtopic", "title")
			if subName == "" {
				subName = "Untitled Subtopic"
			}
			subKey := canon.Normalize(subName)
			sub := &models.Subtopic{
				Name:           subName,
				Content:        AssembleDocument(sr),
				SlideReference: SlideReference(sr),
			}
			if _, seen := acc.subs[subKey]; !seen {
				acc.keys = append(acc.keys, subKey)
			}
			acc.subs[subKey] = sub
			ix.Put(key, acc.name, subKey, sub)
		}
	}

	names := make([]string, 0, len(topicKeys))
	byName := make(map[string]string, len(topicKeys))
	for _, k := range topicKeys {
		names = append(names, accs[k].name)
		byName[accs[k].name] = k
	}
	for _, name := range b.resolver.OrderTopics(names) {
		acc := accs[byName[name]]
		topic := models.Topic{Name: name}
		for _, sk := range acc.keys {
			topic.Subtopics = append(topic.Subtopics, *acc.subs[sk])
		}
		ix.Topics = append(ix.Topics, topic)
	}
	return ix
}

func rawSlice(in []any) []Raw {
	out := make([]Raw, 0, len(in))
	for _, v := range in {
		if r, ok := asRaw(v); ok {
			out = append(out, r)
		}
	}
	return out
}
