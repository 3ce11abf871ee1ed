package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/driquet/ezsnip/internal/highlight"
)

// TerminalUI implements the UI interface using Bubble Tea and Huh
type TerminalUI struct {
	highlighter *highlight.Highlighter
}

// NewTerminalUI creates a new TerminalUI instance. The highlighter colours
// the preview pane and may be nil.
func NewTerminalUI(h *highlight.Highlighter) *TerminalUI {
	return &TerminalUI{highlighter: h}
}

// SelectSnippet displays snippets with preview using a custom Bubble Tea model
func (t *TerminalUI) SelectSnippet(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no snippets available")
	}

	model := newSnippetSelector(entries, t.highlighter)

	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run selection: %w", err)
	}

	result := finalModel.(*snippetSelectorModel)
	if result.cancelled {
		return "", ErrUserAborted
	}

	return result.selectedTrigger, nil
}

// Select uses huh.Form for simple selection
func (t *TerminalUI) Select(prompt string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no choices available")
	}

	var selected string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(prompt).
				Options(huh.NewOptions(choices...)...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}

	return selected, nil
}

// Prompt uses huh.Form for text input, pre-filled with the default
func (t *TerminalUI) Prompt(prompt, def string) (string, error) {
	input := def

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(prompt).
				Value(&input),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	return input, nil
}

// snippetSelectorModel is the Bubble Tea model for snippet selection with preview
type snippetSelectorModel struct {
	entries         []Entry
	highlighter     *highlight.Highlighter
	selectedIndex   int
	selectedTrigger string
	cancelled       bool
	viewport        viewport.Model
	ready           bool
	width           int
	height          int
}

func newSnippetSelector(entries []Entry, h *highlight.Highlighter) *snippetSelectorModel {
	return &snippetSelectorModel{
		entries:     entries,
		highlighter: h,
		viewport:    viewport.New(0, 0),
	}
}

func (m *snippetSelectorModel) Init() tea.Cmd {
	return nil
}

func (m *snippetSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// List on the left, 40% of width
		listWidth := int(float64(msg.Width) * 0.4)
		previewWidth := msg.Width - listWidth - 3

		if previewWidth < 20 {
			previewWidth = 20
		}

		m.viewport.Width = previewWidth
		m.viewport.Height = msg.Height - 4

		if !m.ready {
			m.ready = true
			m.updatePreview()
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if len(m.entries) > 0 {
				m.selectedTrigger = m.entries[m.selectedIndex].Trigger
			}
			return m, tea.Quit

		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.updatePreview()
			}

		case "down", "j":
			if m.selectedIndex < len(m.entries)-1 {
				m.selectedIndex++
				m.updatePreview()
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *snippetSelectorModel) updatePreview() {
	if len(m.entries) == 0 {
		return
	}

	selected := m.entries[m.selectedIndex]
	content := fmt.Sprintf("Trigger: %s\nUsage Count: %d\n\n%s",
		selected.Trigger, selected.Count, m.highlighter.String(selected.Preview))
	m.viewport.SetContent(content)
}

func (m *snippetSelectorModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	selectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Background(lipgloss.Color("57")).
		Bold(true)

	normalStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62"))

	var listItems []string
	listItems = append(listItems, titleStyle.Render("Select Snippet:"), "")

	for i, e := range m.entries {
		line := fmt.Sprintf("  %s (used %d times)", e.Label(), e.Count)
		if i == m.selectedIndex {
			line = selectedStyle.Render("▶ " + line)
		} else {
			line = normalStyle.Render("  " + line)
		}
		listItems = append(listItems, line)
	}

	listWidth := int(float64(m.width) * 0.4)
	if listWidth < 30 {
		listWidth = 30
	}

	listView := lipgloss.NewStyle().
		Width(listWidth).
		Height(m.height - 4).
		Render(strings.Join(listItems, "\n"))

	previewTitle := titleStyle.Render("Preview:")
	previewContent := borderStyle.Render(m.viewport.View())
	preview := lipgloss.JoinVertical(lipgloss.Left, previewTitle, previewContent)

	main := lipgloss.JoinHorizontal(lipgloss.Top, listView, "  ", preview)

	instructions := normalStyle.Render("↑/↓: navigate • enter: select • q/esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left, main, "", instructions)
}
