package models

import "time"

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// AllDifficulties is the full filter set; the persisted difficulty
// filter collapses back to it whenever it would become empty.
func AllDifficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Question is the canonical form every supported raw encoding
// normalizes into. Options are keyed by letters A..Z; Answer is one of
// those keys unless answer resolution failed, in which case Flagged is
// set and the question can never grade correct.
type Question struct {
	ID             string            `json:"id"`
	QID            string            `json:"qid,omitempty"` // content-derived identity, stable across reloads
	Topic          string            `json:"topic"`
	Subtopic       string            `json:"subtopic"`
	Stem           string            `json:"stem"`
	Options        map[string]string `json:"options"`
	Answer         string            `json:"answer"`
	Difficulty     Difficulty        `json:"difficulty"`
	LongForm       bool              `json:"long_form"`
	Explanation    string            `json:"explanation,omitempty"`
	Image          string            `json:"image,omitempty"`
	SlideReference string            `json:"slide_reference,omitempty"`
	Flagged        bool              `json:"flagged,omitempty"`
}

// Subtopic carries the assembled notes document for one subtopic.
type Subtopic struct {
	Name           string `json:"name"`
	Content        string `json:"content"`
	SlideReference string `json:"slide_reference,omitempty"`
}

type Topic struct {
	Name      string     `json:"name"`
	Subtopics []Subtopic `json:"subtopics"`
}

// NotesIndex is the canonical notes model: topics in display order plus
// a lookup keyed by (alias-resolved topic, normalized subtopic).
type NotesIndex struct {
	Topics []Topic
	lookup map[string]map[string]*Subtopic
	names  map[string]string // canonical key -> first-seen display name
}

func NewNotesIndex() *NotesIndex {
	return &NotesIndex{
		lookup: make(map[string]map[string]*Subtopic),
		names:  make(map[string]string),
	}
}

// Put registers a subtopic under canonical keys. The first-seen display
// name wins for a given topic key.
func (ix *NotesIndex) Put(topicKey, topicName, subKey string, sub *Subtopic) {
	if _, ok := ix.names[topicKey]; !ok {
		ix.names[topicKey] = topicName
	}
	subs, ok := ix.lookup[topicKey]
	if !ok {
		subs = make(map[string]*Subtopic)
		ix.lookup[topicKey] = subs
	}
	subs[subKey] = sub
}

// Subtopic looks up one subtopic by canonical keys.
func (ix *NotesIndex) Subtopic(topicKey, subKey string) (*Subtopic, bool) {
	subs, ok := ix.lookup[topicKey]
	if !ok {
		return nil, false
	}
	s, ok := subs[subKey]
	return s, ok
}

// TopicName returns the first-seen display name for a canonical key.
func (ix *NotesIndex) TopicName(topicKey string) (string, bool) {
	n, ok := ix.names[topicKey]
	return n, ok
}

// Subtopics returns the subtopic map for a canonical topic key.
func (ix *NotesIndex) Subtopics(topicKey string) map[string]*Subtopic {
	return ix.lookup[topicKey]
}

// QuestionIndex holds the two parallel pools. Each maps canonical topic
// key -> normalized subtopic -> questions in source order. A raw
// question may appear in both pools with different LongForm flags when
// the source format does not distinguish them.
type QuestionIndex struct {
	Regular  PoolTree
	LongForm PoolTree
	Flat     []Question // deduplicated by qid, flat-array sources only
	Topics   []string   // display names in source/display order
}

type PoolTree map[string]map[string][]Question

func NewQuestionIndex() *QuestionIndex {
	return &QuestionIndex{Regular: PoolTree{}, LongForm: PoolTree{}}
}

func (t PoolTree) Add(topicKey, subKey string, qs ...Question) {
	subs, ok := t[topicKey]
	if !ok {
		subs = make(map[string][]Question)
		t[topicKey] = subs
	}
	subs[subKey] = append(subs[subKey], qs...)
}

func (t PoolTree) Questions(topicKey, subKey string) []Question {
	if subs, ok := t[topicKey]; ok {
		return subs[subKey]
	}
	return nil
}

// ProgressRecord tracks per-(topic, subtopic) accuracy. Correct never
// exceeds Attempted.
type ProgressRecord struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
}

// MissedQuestion is the enriched snapshot kept in the missed and
// retested ledgers, stamped with the week it was missed in. RetestedAt
// is set only once the entry moves to the retested ledger.
type MissedQuestion struct {
	Question
	WeekID     string     `json:"week_id"`
	RetestedAt *time.Time `json:"retested_at,omitempty"`
}

// QuizResult is one finished session's aggregate, appended on submit.
type QuizResult struct {
	Title   string    `json:"title"`
	Total   int       `json:"total"`
	Correct int       `json:"correct"`
	TS      time.Time `json:"ts"`
}

// Settings is the persisted quiz configuration.
type Settings struct {
	TimerEnabled       bool         `json:"timer_enabled"`
	SecondsPerQuestion int          `json:"seconds_per_question"`
	Difficulties       []Difficulty `json:"difficulties"`
	Explore            bool         `json:"explore"`
}

func DefaultSettings() Settings {
	return Settings{
		SecondsPerQuestion: 75,
		Difficulties:       AllDifficulties(),
	}
}
