package engine

import (
	"sort"
	"strings"

	"github.com/driquet/ezsnip/internal/snippet"
)

// Stop is one tab stop region in an expanded snippet. Start and End are
// byte offsets into Expansion.Text.
type Stop struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Expansion is the result of expanding a snippet.
type Expansion struct {
	Scope       string `json:"scope"`
	Trigger     string `json:"trigger"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
	// Stops are in traversal order: ascending index, index 0 last.
	// Mirrors share an index and appear once per occurrence.
	Stops []Stop `json:"stops"`
}

// Expand renders def, replacing each placeholder with the default of its
// index. Mirrors take the first non-empty default given for their index.
func Expand(scope string, def *snippet.Definition) Expansion {
	defaults := make(map[int]string)
	for _, tok := range def.Body {
		if ph := tok.Placeholder; ph != nil && defaults[ph.Index] == "" {
			defaults[ph.Index] = ph.Default
		}
	}

	var (
		b     strings.Builder
		stops = []Stop{}
	)
	for _, tok := range def.Body {
		if tok.Placeholder == nil {
			b.WriteString(tok.Text)
			continue
		}
		start := b.Len()
		b.WriteString(defaults[tok.Placeholder.Index])
		stops = append(stops, Stop{Index: tok.Placeholder.Index, Start: start, End: b.Len()})
	}
	sortStops(stops)

	return Expansion{
		Scope:       scope,
		Trigger:     def.Trigger,
		Description: def.Description,
		Text:        b.String(),
		Stops:       stops,
	}
}

func sortStops(stops []Stop) {
	sort.SliceStable(stops, func(i, j int) bool {
		a, b := stops[i], stops[j]
		if a.Index != b.Index {
			if a.Index == 0 {
				return false
			}
			if b.Index == 0 {
				return true
			}
			return a.Index < b.Index
		}
		return a.Start < b.Start
	})
}

// Indices returns the distinct stop indices in traversal order.
func (e Expansion) Indices() []int {
	var indices []int
	for i, s := range e.Stops {
		if i == 0 || s.Index != e.Stops[i-1].Index {
			indices = append(indices, s.Index)
		}
	}
	return indices
}

// Linked returns every stop sharing index.
func (e Expansion) Linked(index int) []Stop {
	var linked []Stop
	for _, s := range e.Stops {
		if s.Index == index {
			linked = append(linked, s)
		}
	}
	return linked
}

// Value returns the current text of the first stop with index.
func (e Expansion) Value(index int) string {
	for _, s := range e.Stops {
		if s.Index == index {
			return e.Text[s.Start:s.End]
		}
	}
	return ""
}

// Apply returns a new expansion where every stop whose index is in values
// holds that value. Mirrors all receive the same text and stop offsets are
// moved accordingly.
func (e Expansion) Apply(values map[int]string) Expansion {
	byStart := append([]Stop(nil), e.Stops...)
	sort.SliceStable(byStart, func(i, j int) bool {
		return byStart[i].Start < byStart[j].Start
	})

	var (
		b     strings.Builder
		prev  int
		stops = make([]Stop, 0, len(byStart))
	)
	for _, s := range byStart {
		b.WriteString(e.Text[prev:s.Start])
		value, found := values[s.Index]
		if !found {
			value = e.Text[s.Start:s.End]
		}
		start := b.Len()
		b.WriteString(value)
		stops = append(stops, Stop{Index: s.Index, Start: start, End: b.Len()})
		prev = s.End
	}
	b.WriteString(e.Text[prev:])
	sortStops(stops)

	out := e
	out.Text = b.String()
	out.Stops = stops
	return out
}
