// Package ui provides the interactive snippet pickers of ezsnip.
// It includes a fuzzy finder UI, a terminal UI and a Rofi UI.
package ui

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
)

// ErrUserAborted is returned when the user cancels an input/selection operation.
var ErrUserAborted = huh.ErrUserAborted

// Entry is a snippet as presented in a picker.
type Entry struct {
	Trigger     string
	Description string
	// Preview is the expanded snippet text.
	Preview string
	// Count is the number of times the snippet has been expanded.
	Count int
}

// Label returns the picker line of the entry.
func (e Entry) Label() string {
	if e.Description == "" {
		return e.Trigger
	}
	return fmt.Sprintf("%s - %s", e.Trigger, e.Description)
}

// SortByUsage sorts entries by usage count in descending order, then by trigger.
func SortByUsage(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Trigger < entries[j].Trigger
	})
}

// UI defines the interface for user interactions.
type UI interface {
	// SelectSnippet asks the user to choose a snippet.
	// It returns the trigger of the selected snippet.
	SelectSnippet(entries []Entry) (string, error)

	// Select asks the user to choose among a list of possible string choices.
	Select(prompt string, choices []string) (string, error)

	// Prompt expects an answer from the user for a given prompt message.
	// The default is returned when the user enters nothing.
	Prompt(prompt, def string) (string, error)
}

// Fuzzy implements the UI interface using a fuzzy finder for selections.
type Fuzzy struct{}

// NewFuzzy creates a new Fuzzy UI instance.
func NewFuzzy() UI {
	return &Fuzzy{}
}

// SelectSnippet implements the UI interface method for selecting a snippet using a fuzzy finder.
// A preview window shows the expansion of the currently selected snippet.
func (u *Fuzzy) SelectSnippet(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no snippets available")
	}

	idx, err := fuzzyfinder.Find(
		entries,
		func(i int) string {
			return fmt.Sprintf("%5d %s", entries[i].Count, entries[i].Label())
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return entries[i].Preview
		}),
	)
	if err != nil {
		if err == fuzzyfinder.ErrAbort {
			return "", ErrUserAborted
		}
		return "", fmt.Errorf("failed to find snippet: %w", err)
	}

	return entries[idx].Trigger, nil
}

// Select implements the UI interface method for selecting from a list of choices using a fuzzy finder.
func (u *Fuzzy) Select(prompt string, choices []string) (string, error) {
	idx, err := fuzzyfinder.Find(
		choices,
		func(i int) string {
			return choices[i]
		},
		fuzzyfinder.WithPromptString(prompt+"> "),
	)
	if err != nil {
		if err == fuzzyfinder.ErrAbort {
			return "", ErrUserAborted
		}
		return "", fmt.Errorf("failed to select choice: %w", err)
	}
	return choices[idx], nil
}

// Prompt implements the UI interface method for prompting the user for input using standard input.
func (u *Fuzzy) Prompt(prompt, def string) (string, error) {
	reader := bufio.NewReader(os.Stdin)
	if def != "" {
		fmt.Printf("%s [%s]> ", prompt, def)
	} else {
		fmt.Printf("%s> ", prompt)
	}
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	input = strings.TrimRight(input, "\r\n")
	if input == "" {
		return def, nil
	}
	return input, nil
}
