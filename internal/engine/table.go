package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/driquet/ezsnip/internal/library"
	"github.com/driquet/ezsnip/internal/snippet"
)

// ErrDuplicateScope is returned when two partitions share a scope.
var ErrDuplicateScope = errors.New("duplicate snippet scope")

// DuplicateTriggerError reports two definitions sharing a trigger in one scope.
type DuplicateTriggerError struct {
	Scope   string
	Trigger string
	First   *snippet.Definition
	Second  *snippet.Definition
}

func (e *DuplicateTriggerError) Error() string {
	return fmt.Sprintf("duplicate trigger %q in scope %q: defined at %s and %s",
		e.Trigger, e.Scope, e.First.Location(), e.Second.Location())
}

// Partition holds the snippets of a single scope. It is not modified after Build.
type Partition struct {
	scope    string
	order    []string
	snippets map[string]*snippet.Definition
}

// Build creates the partition for scope. Every trigger defined more than
// once is reported as a DuplicateTriggerError and no partition is returned.
func Build(scope string, defs []*snippet.Definition) (*Partition, error) {
	p := &Partition{
		scope:    scope,
		snippets: make(map[string]*snippet.Definition, len(defs)),
	}

	var errs []error
	for _, def := range defs {
		if first, found := p.snippets[def.Trigger]; found {
			errs = append(errs, &DuplicateTriggerError{
				Scope:   scope,
				Trigger: def.Trigger,
				First:   first,
				Second:  def,
			})
			continue
		}
		p.snippets[def.Trigger] = def
		p.order = append(p.order, def.Trigger)
	}

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return p, nil
}

// Scope returns the scope of the partition.
func (p *Partition) Scope() string {
	return p.scope
}

// Triggers returns the triggers in definition order.
func (p *Partition) Triggers() []string {
	return append([]string(nil), p.order...)
}

// Lookup returns the definition for trigger.
func (p *Partition) Lookup(trigger string) (*snippet.Definition, bool) {
	def, found := p.snippets[trigger]
	return def, found
}

// Len returns the number of snippets in the partition.
func (p *Partition) Len() int {
	return len(p.order)
}

// Table maps (scope, trigger) to snippet definitions. A Table is immutable
// once built and safe for concurrent readers.
type Table struct {
	partitions map[string]*Partition
}

// NewTable assembles partitions into a table.
func NewTable(partitions ...*Partition) (*Table, error) {
	t := &Table{partitions: make(map[string]*Partition, len(partitions))}
	for _, p := range partitions {
		if _, found := t.partitions[p.scope]; found {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateScope, p.scope)
		}
		t.partitions[p.scope] = p
	}
	return t, nil
}

// LoadTable parses the sources and builds one partition per scope.
// Malformed definitions are logged and skipped; duplicate triggers fail
// the load.
func LoadTable(sources []library.Source) (*Table, error) {
	var scopes []string
	defsByScope := make(map[string][]*snippet.Definition)

	for _, src := range sources {
		defs, err := snippet.Parse(src.Name, src.Text)
		for _, perr := range multierr.Errors(err) {
			entry := logrus.WithField("scope", src.Scope).WithError(perr)
			var fe *snippet.FormatError
			if errors.As(perr, &fe) {
				entry = entry.WithFields(logrus.Fields{
					"source":  fe.Source,
					"line":    fe.Line,
					"trigger": fe.Trigger,
				})
			}
			entry.Warn("skipping malformed snippet")
		}

		if _, found := defsByScope[src.Scope]; !found {
			scopes = append(scopes, src.Scope)
		}
		defsByScope[src.Scope] = append(defsByScope[src.Scope], defs...)
	}

	var (
		partitions []*Partition
		errs       []error
	)
	for _, scope := range scopes {
		p, err := Build(scope, defsByScope[scope])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logrus.WithFields(logrus.Fields{"scope": scope, "snippets": p.Len()}).Debug("loaded snippet scope")
		partitions = append(partitions, p)
	}
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	return NewTable(partitions...)
}

// Scopes returns the scopes of the table in lexical order.
func (t *Table) Scopes() []string {
	scopes := make([]string, 0, len(t.partitions))
	for scope := range t.partitions {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Partition returns the partition of scope.
func (t *Table) Partition(scope string) (*Partition, bool) {
	p, found := t.partitions[scope]
	return p, found
}

// Lookup returns the definition of trigger in scope.
func (t *Table) Lookup(scope, trigger string) (*snippet.Definition, bool) {
	p, found := t.partitions[scope]
	if !found {
		return nil, false
	}
	return p.Lookup(trigger)
}

// Expand expands trigger in scope. It returns false when no such snippet
// exists.
func (t *Table) Expand(scope, trigger string) (Expansion, bool) {
	def, found := t.Lookup(scope, trigger)
	if !found {
		return Expansion{}, false
	}
	return Expand(scope, def), true
}
