package content

import (
	"context"
	"encoding/json"
)

// Kind selects which question-bank document a source serves.
type Kind string

const (
	KindRegular  Kind = "regular"
	KindLongForm Kind = "longform"
)

// Source abstracts where content documents come from. The schema
// adapter composes with this interface instead of reaching for a
// global fetch function, so tests and alternative backends can swap it
// wholesale.
type Source interface {
	LoadNotes(ctx context.Context) (json.RawMessage, error)
	LoadQuestionBank(ctx context.Context, kind Kind) (json.RawMessage, error)
}
