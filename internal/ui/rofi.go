package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// execCommand builds the rofi process; tests replace it.
var execCommand = exec.Command

// RofiConfig holds configuration specific to the Rofi user interface.
type RofiConfig struct {
	// Path is the command or path to the Rofi executable.
	Path string `toml:"path"`
	// Theme specifies the Rofi theme to use. If empty, Rofi's default theme is used.
	Theme string `toml:"theme,omitempty"`
	// SelectArgs are extra arguments to pass to Rofi when used for selections.
	SelectArgs []string `toml:"select_args,omitempty"`
	// InputArgs are extra arguments to pass to Rofi when used for free-form text input.
	InputArgs []string `toml:"input_args,omitempty"`
}

// RofiUI implements the UI interface using Rofi for user interactions.
type RofiUI struct {
	config RofiConfig
}

// NewRofiUI creates a new RofiUI instance with the given Rofi configuration.
func NewRofiUI(config RofiConfig) UI {
	return &RofiUI{config: config}
}

// runRofi executes a Rofi command with the given arguments and input string.
// It returns the selected string or an error.
func (u *RofiUI) runRofi(prompt string, input string, args []string) (string, error) {
	cmdArgs := []string{"-dmenu"}
	if prompt != "" {
		cmdArgs = append(cmdArgs, "-p", prompt)
	}

	if u.config.Theme != "" {
		cmdArgs = append(cmdArgs, "-theme", u.config.Theme)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := execCommand(u.config.Path, cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Rofi exits with status 1 when the user presses Esc.
		var exitError *exec.ExitError
		if errors.As(err, &exitError) && exitError.ExitCode() == 1 {
			return "", ErrUserAborted
		}
		return "", fmt.Errorf("rofi command failed: %w\nStderr: %s", err, stderr.String())
	}

	selected := strings.TrimSpace(stdout.String())
	// Empty output with something to select from is a cancellation too.
	if selected == "" && input != "" {
		return "", ErrUserAborted
	}

	return selected, nil
}

// SelectSnippet implements the UI interface method for selecting a snippet using Rofi.
func (u *RofiUI) SelectSnippet(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no snippets available")
	}

	var rofiInput strings.Builder
	for _, e := range entries {
		// Format: "  123 trigger - description"
		fmt.Fprintf(&rofiInput, "%5d %s\n", e.Count, e.Label())
	}

	selected, err := u.runRofi("Select Snippet", rofiInput.String(), u.config.SelectArgs)
	if err != nil {
		return "", err
	}

	// Remove the count prefix and the description from the selected line.
	parts := strings.Fields(selected)
	if len(parts) <= 1 {
		return "", fmt.Errorf("incorrect format for the rofi selection")
	}

	trigger := parts[1]
	for _, e := range entries {
		if e.Trigger == trigger {
			return trigger, nil
		}
	}
	return "", fmt.Errorf("selected snippet %q not found in original list", selected)
}

// Select implements the UI interface method for selecting from a list of choices using Rofi.
func (u *RofiUI) Select(prompt string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no choices provided for selection")
	}
	return u.runRofi(prompt, strings.Join(choices, "\n"), u.config.SelectArgs)
}

// Prompt implements the UI interface method for prompting the user for input using Rofi.
// The default is offered as the only line so it can be accepted with Enter.
func (u *RofiUI) Prompt(prompt, def string) (string, error) {
	response, err := u.runRofi(prompt, def, u.config.InputArgs)
	if err != nil {
		return "", err
	}
	return response, nil
}
