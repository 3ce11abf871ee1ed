// Package editor opens text in the user's editor.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// DefaultEditor returns the user's preferred editor.
func DefaultEditor(editor string) string {
	if editor != "" {
		return editor
	}

	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}

	switch runtime.GOOS {
	case "windows":
		return "notepad"
	default:
		return "nano"
	}
}

// Edit opens initialContent in the editor and returns the saved content.
// The pattern names the temporary file, e.g. "ezsnip_*.glsl".
func Edit(editor, pattern, initialContent string) (string, error) {
	filename, err := createTempFile(pattern, initialContent)
	if err != nil {
		return "", err
	}
	defer os.Remove(filename)

	if err := openEditor(editor, filename); err != nil {
		return "", err
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(content), nil
}

// createTempFile creates a temporary file with initial content
func createTempFile(pattern, initialContent string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(initialContent); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write initial content: %w", err)
	}

	return f.Name(), nil
}

// openEditor opens the file in the editor. The editor may carry arguments,
// as in "code --wait".
func openEditor(editor, filename string) error {
	fields := strings.Fields(DefaultEditor(editor))
	if len(fields) == 0 {
		return fmt.Errorf("no editor configured")
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", append(append([]string{"/c"}, fields...), filename)...)
	} else {
		cmd = exec.Command(fields[0], append(fields[1:], filename)...)
	}

	// Connect editor to terminal
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", fields[0], err)
	}
	return nil
}
