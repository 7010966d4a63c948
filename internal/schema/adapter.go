package schema

import (
	"context"
	"encoding/json"
	"sync"

	"medquest/internal/canon"
	"medquest/internal/content"
	apperrors "medquest/internal/errors"
	"medquest/internal/logger"
	"medquest/internal/models"
)

// Builder turns decoded payloads into canonical indices. It carries the
// alias resolver and question normalizer shared by every shape.
type Builder struct {
	resolver   *canon.Resolver
	normalizer *Normalizer
	log        *logger.Logger
}

func NewBuilder(resolver *canon.Resolver, normalizer *Normalizer) *Builder {
	return &Builder{
		resolver:   resolver,
		normalizer: normalizer,
		log:        logger.Default().WithPrefix("schema"),
	}
}

// Adapter composes a content source with the builders. Load is the
// parallel-fetch barrier: the notes document and both question-bank
// documents must all resolve before any index is built, and any one
// permanent failure is fatal to the ready state.
type Adapter struct {
	source  content.Source
	builder *Builder
	log     *logger.Logger
}

func NewAdapter(source content.Source, builder *Builder) *Adapter {
	return &Adapter{
		source:  source,
		builder: builder,
		log:     logger.Default().WithPrefix("adapter"),
	}
}

func (a *Adapter) Load(ctx context.Context) (*models.NotesIndex, *models.QuestionIndex, error) {
	var (
		wg                  sync.WaitGroup
		notes, regular, long json.RawMessage
		notesErr, regErr, longErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		notes, notesErr = a.source.LoadNotes(ctx)
	}()
	go func() {
		defer wg.Done()
		regular, regErr = a.source.LoadQuestionBank(ctx, content.KindRegular)
	}()
	go func() {
		defer wg.Done()
		long, longErr = a.source.LoadQuestionBank(ctx, content.KindLongForm)
	}()
	wg.Wait()

	if notesErr != nil {
		return nil, nil, apperrors.NewLoadError("notes", notesErr)
	}
	if regErr != nil {
		return nil, nil, apperrors.NewLoadError("question bank", regErr)
	}
	if longErr != nil {
		return nil, nil, apperrors.NewLoadError("long-form question bank", longErr)
	}

	notesIx := a.builder.BuildNotesIndex(notes)
	regIx := a.builder.BuildQuestionIndex(regular)
	longIx := a.builder.BuildQuestionIndex(long)

	questionIx := &models.QuestionIndex{
		Regular:  regIx.Regular,
		LongForm: longIx.LongForm,
		Flat:     regIx.Flat,
		Topics:   mergeTopicNames(regIx.Topics, longIx.Topics),
	}

	a.log.Info("content loaded: %d topics (notes), %d topics (bank)",
		len(notesIx.Topics), len(questionIx.Topics))
	return notesIx, questionIx, nil
}

// Unify rebuilds both pools as the union of a subtopic's regular and
// long-form question lists, exposed identically under both names. A
// source that cannot distinguish the two views feeds the same payload
// into both fetches, so entries are collapsed by content-derived
// identity: each question appears once per pool.
func Unify(ix *models.QuestionIndex) {
	merged := models.PoolTree{}
	seen := make(map[string]bool)
	collect := func(tree models.PoolTree) {
		for tKey, subs := range tree {
			for sKey, qs := range subs {
				for _, q := range qs {
					qid := canon.QID(q.Topic, q.Subtopic, q.Stem)
					if seen[qid] {
						continue
					}
					seen[qid] = true
					merged.Add(tKey, sKey, q)
				}
			}
		}
	}
	collect(ix.Regular)
	collect(ix.LongForm)

	clone := func() models.PoolTree {
		out := models.PoolTree{}
		for tKey, subs := range merged {
			for sKey, qs := range subs {
				out.Add(tKey, sKey, qs...)
			}
		}
		return out
	}
	ix.Regular = clone()
	ix.LongForm = clone()
}

func mergeTopicNames(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, n := range a {
		if !seen[canon.Normalize(n)] {
			seen[canon.Normalize(n)] = true
			out = append(out, n)
		}
	}
	for _, n := range b {
		if !seen[canon.Normalize(n)] {
			seen[canon.Normalize(n)] = true
			out = append(out, n)
		}
	}
	return out
}
