package canon

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"medquest/internal/logger"
)

// GeneralTopic is the synthetic topic used when a payload carries no
// topic information of its own. It always sorts first.
const GeneralTopic = "General"

// Normalize lower-cases a name, collapses runs of whitespace to a
// single space and trims the result. All index lookups go through it.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// QID derives the stable identity of a question, used as the ledger
// and dedup key everywhere a question must be referenced across
// sessions. The stem contributes its first 60 normalized runes.
func QID(topic, subtopic, stem string) string {
	n := Normalize(stem)
	if r := []rune(n); len(r) > 60 {
		n = string(r[:60])
	}
	return Normalize(topic) + "__" + Normalize(subtopic) + "__" + n
}

// Resolver canonicalizes free-text topic names. Content authored under
// different spellings of the same topic merges because both the notes
// index and the question index key on Resolve output.
type Resolver struct {
	aliases map[string]string
	order   []string
}

type resolverFile struct {
	Aliases    map[string]string `yaml:"aliases"`
	TopicOrder []string          `yaml:"topic_order"`
}

// NewResolver builds a Resolver with an explicit alias table and
// priority topic order.
func NewResolver(aliases map[string]string, order []string) *Resolver {
	norm := make(map[string]string, len(aliases))
	for raw, canonical := range aliases {
		norm[Normalize(raw)] = Normalize(canonical)
	}
	return &Resolver{aliases: norm, order: order}
}

// LoadResolver reads the alias table and topic priority order from a
// YAML file. A missing file is not an error: the resolver degrades to
// pure normalization with no fixed ordering.
func LoadResolver(path string) (*Resolver, error) {
	log := logger.Default().WithPrefix("canon")
	if path == "" {
		return NewResolver(nil, nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("alias file %s not found, using identity resolver", path)
			return NewResolver(nil, nil), nil
		}
		return nil, err
	}
	var f resolverFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	log.Info("loaded %d topic aliases, %d ordered topics", len(f.Aliases), len(f.TopicOrder))
	return NewResolver(f.Aliases, f.TopicOrder), nil
}

// Resolve maps a raw topic name to its canonical key: normalization
// followed by alias substitution. Names without an alias pass through
// normalized. Resolve(x) == Resolve(x) for equal inputs.
func (r *Resolver) Resolve(raw string) string {
	n := Normalize(raw)
	if hit, ok := r.aliases[n]; ok {
		return hit
	}
	return n
}

// OrderTopics sorts display names: topics on the priority list first in
// list order, the rest alphabetical, with General always leading.
func (r *Resolver) OrderTopics(names []string) []string {
	rank := make(map[string]int, len(r.order))
	for i, t := range r.order {
		rank[Normalize(t)] = i
	}

	var listed, rest []string
	for _, n := range names {
		if _, ok := rank[Normalize(n)]; ok {
			listed = append(listed, n)
		} else {
			rest = append(rest, n)
		}
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return rank[Normalize(listed[i])] < rank[Normalize(listed[j])]
	})
	sort.Strings(rest)

	out := make([]string, 0, len(names))
	out = append(out, listed...)
	out = append(out, rest...)

	// General jumps the whole queue regardless of the priority list.
	for i, n := range out {
		if n == GeneralTopic {
			copy(out[1:i+1], out[:i])
			out[0] = GeneralTopic
			break
		}
	}
	return out
}
