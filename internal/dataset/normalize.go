package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key returns the join key for a country name: NFC normalized, case folded,
// with runs of whitespace collapsed to a single space.
func Key(name string) string {
	s := norm.NFC.String(name)
	s = strings.Join(strings.Fields(s), " ")
	// Casers carry state, so one is built per call.
	return cases.Fold().String(s)
}

// Substitution renames a country to its canonical spelling.
type Substitution struct {
	From string
	To   string
}

// Substituter applies a substitution list by join key.
type Substituter struct {
	to map[string]string
}

// NewSubstituter builds a Substituter. When two entries share a From key the
// later one wins.
func NewSubstituter(subs []Substitution) *Substituter {
	s := &Substituter{to: make(map[string]string, len(subs))}
	for _, sub := range subs {
		s.to[Key(sub.From)] = sub.To
	}
	return s
}

// Apply returns the canonical name for name, or name itself (trimmed) when
// no substitution matches.
func (s *Substituter) Apply(name string) string {
	if s != nil {
		if to, ok := s.to[Key(name)]; ok {
			return to
		}
	}
	return strings.TrimSpace(name)
}
