// Package library holds the built-in snippet collections and loads user
// snippet files.
package library

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the file extension of snippet files.
const Extension = ".snippets"

// GLSLScope is the scope of the built-in GLSL snippets.
const GLSLScope = "glsl"

//go:embed snippets/glsl.snippets
var glslText string

// GLSLText returns the raw built-in GLSL snippet text.
func GLSLText() string {
	return glslText
}

// Source is a named block of snippet text for one scope.
type Source struct {
	Scope string
	Name  string
	Text  string
}

// Builtin returns the snippet sources shipped with ezsnip. Each call
// returns a new slice.
func Builtin() []Source {
	return []Source{
		{Scope: GLSLScope, Name: GLSLScope + Extension, Text: glslText},
	}
}

// LoadDir reads every snippet file in dir. The scope of a file is its base
// name without extension, so "glsl.snippets" adds to the glsl scope.
// Files are returned in name order.
func LoadDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snippet directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snippet file %s: %w", path, err)
		}
		sources = append(sources, Source{
			Scope: strings.TrimSuffix(name, Extension),
			Name:  path,
			Text:  string(content),
		})
	}

	return sources, nil
}

// LoadFile reads a single snippet file. An empty scope defaults to the
// file's base name.
func LoadFile(path, scope string) (Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read snippet file %s: %w", path, err)
	}
	if scope == "" {
		scope = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Source{Scope: scope, Name: path, Text: string(content)}, nil
}
