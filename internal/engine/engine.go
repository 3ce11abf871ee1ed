package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/driquet/ezsnip/internal/database"
	"github.com/driquet/ezsnip/internal/highlight"
	"github.com/driquet/ezsnip/internal/library"
	"github.com/driquet/ezsnip/internal/snippet"
	"github.com/driquet/ezsnip/internal/ui"
)

// Engine serves snippets from an immutable table and records their usage.
type Engine struct {
	table *Table
	db    database.Database
	ui    ui.UI
	now   func() time.Time
}

var (
	ErrSnippetUnknown = errors.New("snippet not found")
	ErrScopeUnknown   = errors.New("scope not found")
)

// NewEngine creates a new Engine.
// It loads the built-in snippets and the configured snippet directories,
// builds the table, and sets up the UI based on preference (CLI flag > config > default).
func NewEngine(db database.Database, config Config) (*Engine, error) {
	sources := library.Builtin()
	for _, dir := range config.SnippetDirs {
		dirSources, err := library.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		sources = append(sources, dirSources...)
	}

	table, err := LoadTable(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to load snippets: %w", err)
	}

	return New(table, db, newUI(config)), nil
}

// New creates an Engine around an already built table.
func New(table *Table, db database.Database, u ui.UI) *Engine {
	return &Engine{
		table: table,
		db:    db,
		ui:    u,
		now:   time.Now,
	}
}

func newUI(config Config) ui.UI {
	switch config.DefaultUI {
	case "rofi":
		return ui.NewRofiUI(config.Rofi)
	case "fuzzy":
		return ui.NewFuzzy()
	default:
		return ui.NewTerminalUI(highlight.New(config.HighlightStyle))
	}
}

// Table returns the snippet table.
func (e *Engine) Table() *Table {
	return e.table
}

// Scopes returns the known scopes in lexical order.
func (e *Engine) Scopes() []string {
	return e.table.Scopes()
}

// Triggers returns the triggers of scope in definition order.
func (e *Engine) Triggers(scope string) ([]string, error) {
	p, found := e.table.Partition(scope)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrScopeUnknown, scope)
	}
	return p.Triggers(), nil
}

// Get retrieves a snippet definition and returns whether it was found.
func (e *Engine) Get(scope, trigger string) (*snippet.Definition, bool) {
	return e.table.Lookup(scope, trigger)
}

// Usage returns the recorded usage of the snippets of scope, keyed by trigger.
func (e *Engine) Usage(scope string) (map[string]*database.Usage, error) {
	if _, found := e.table.Partition(scope); !found {
		return nil, fmt.Errorf("%w: %q", ErrScopeUnknown, scope)
	}
	return e.db.GetUsage(scope)
}

// SnippetUsage returns the usage of a single snippet. A snippet that was
// never expanded has a zero count.
func (e *Engine) SnippetUsage(scope, trigger string) (database.Usage, error) {
	if _, found := e.table.Lookup(scope, trigger); !found {
		return database.Usage{}, fmt.Errorf("%w: %q in scope %q", ErrSnippetUnknown, trigger, scope)
	}

	u, err := e.db.GetUsageByTrigger(scope, trigger)
	if errors.Is(err, database.ErrNoUsage) {
		return database.Usage{Scope: scope, Trigger: trigger}, nil
	}
	if err != nil {
		return database.Usage{}, err
	}
	return *u, nil
}

// ResetUsage forgets the usage of the snippets of scope.
func (e *Engine) ResetUsage(scope string) error {
	if _, found := e.table.Partition(scope); !found {
		return fmt.Errorf("%w: %q", ErrScopeUnknown, scope)
	}
	return e.db.ResetUsage(scope)
}

// ImportUsage stores usage records, typically read back from a CSV export.
// Records of unknown snippets are skipped and returned as a count.
func (e *Engine) ImportUsage(records []*database.Usage) (int, error) {
	skipped := 0
	for _, u := range records {
		if _, found := e.table.Lookup(u.Scope, u.Trigger); !found {
			logrus.WithFields(logrus.Fields{
				"scope":   u.Scope,
				"trigger": u.Trigger,
			}).Warn("skipping usage of unknown snippet")
			skipped++
			continue
		}
		if err := e.db.SetUsage(u); err != nil {
			return skipped, fmt.Errorf("failed to import usage of %q: %w", u.Trigger, err)
		}
	}
	return skipped, nil
}

// Entries returns the picker entries of scope, most used first.
func (e *Engine) Entries(scope string) ([]ui.Entry, error) {
	triggers, err := e.Triggers(scope)
	if err != nil {
		return nil, err
	}

	usage, err := e.db.GetUsage(scope)
	if err != nil {
		logrus.WithError(err).WithField("scope", scope).Warn("failed to read snippet usage")
		usage = nil
	}

	entries := make([]ui.Entry, 0, len(triggers))
	for _, trigger := range triggers {
		exp, _ := e.table.Expand(scope, trigger)
		entry := ui.Entry{
			Trigger:     trigger,
			Description: exp.Description,
			Preview:     exp.Text,
		}
		if u, found := usage[trigger]; found {
			entry.Count = u.Count
		}
		entries = append(entries, entry)
	}
	ui.SortByUsage(entries)

	return entries, nil
}

// SelectScope returns scope when it is set, the only scope when there is
// one, and otherwise asks the user.
func (e *Engine) SelectScope(scope string) (string, error) {
	if scope != "" {
		return scope, nil
	}

	scopes := e.Scopes()
	switch len(scopes) {
	case 0:
		return "", fmt.Errorf("no snippet scopes available")
	case 1:
		return scopes[0], nil
	}
	return e.ui.Select("Scope", scopes)
}

// SelectSnippet prompts the user to select a snippet of scope.
// It returns the trigger of the selected snippet.
func (e *Engine) SelectSnippet(scope string) (string, error) {
	entries, err := e.Entries(scope)
	if err != nil {
		return "", err
	}
	return e.ui.SelectSnippet(entries)
}

// Expand expands a snippet and increments its usage count.
// A failure to record the usage is logged, not returned.
func (e *Engine) Expand(scope, trigger string) (Expansion, error) {
	if _, found := e.table.Partition(scope); !found {
		return Expansion{}, fmt.Errorf("%w: %q", ErrScopeUnknown, scope)
	}

	exp, found := e.table.Expand(scope, trigger)
	if !found {
		return Expansion{}, fmt.Errorf("%w: %q in scope %q", ErrSnippetUnknown, trigger, scope)
	}

	if err := e.db.IncUsageCount(scope, trigger, e.now()); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"scope":   scope,
			"trigger": trigger,
		}).Warn("failed to increment snippet usage count")
	}

	return exp, nil
}

// Fill asks the user for the value of every tab stop in traversal order and
// applies each answer to all mirrors of the stop. Stops whose default is
// kept are left unchanged.
func (e *Engine) Fill(exp Expansion) (Expansion, error) {
	values := make(map[int]string)
	for _, index := range exp.Indices() {
		def := exp.Value(index)
		answer, err := e.ui.Prompt(fmt.Sprintf("%s: tab stop %d", exp.Trigger, index), def)
		if err != nil {
			return Expansion{}, err
		}
		if answer != def {
			values[index] = answer
		}
	}
	return exp.Apply(values), nil
}
