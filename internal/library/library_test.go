package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/driquet/ezsnip/internal/snippet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGLSL_Triggers(t *testing.T) {
	defs, err := snippet.Parse(GLSLScope, GLSLText())
	require.NoError(t, err, "built-in GLSL snippets should parse cleanly")

	var triggers []string
	for _, def := range defs {
		triggers = append(triggers, def.Trigger)
	}

	assert.Equal(t, []string{
		"box", "cir", "rot", "sno", "fractal", "turb", "nyan",
		"vc", "vvc", "ft", "iff", "fori", "forf",
		"raymarch", "scene", "constants", "sdfNormal",
	}, triggers)
}

func TestGLSL_Descriptions(t *testing.T) {
	defs, err := snippet.Parse(GLSLScope, GLSLText())
	require.NoError(t, err)

	descriptions := map[string]string{}
	for _, def := range defs {
		descriptions[def.Trigger] = def.Description
	}

	assert.Equal(t, "box", descriptions["box"])
	assert.Equal(t, "fractal noise", descriptions["fractal"])
	assert.Equal(t, "if false", descriptions["iff"])
	assert.Equal(t, "SDF raymarch function template", descriptions["raymarch"])
	assert.Equal(t, "SDF normal func", descriptions["sdfNormal"])
}

func TestBuiltin(t *testing.T) {
	sources := Builtin()
	require.Len(t, sources, 1)
	assert.Equal(t, "glsl", sources[0].Scope)
	assert.Equal(t, GLSLText(), sources[0].Text)

	// Callers cannot change the built-in collection.
	sources[0].Text = ""
	assert.Equal(t, GLSLText(), Builtin()[0].Text)
	assert.NotEmpty(t, GLSLText())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wgsl.snippets"), []byte("snippet fn\n\tfn ${1:name}() {}\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glsl.snippets"), []byte("snippet v4\n\tvec4\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.snippets"), 0750))

	sources, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "glsl", sources[0].Scope)
	assert.Equal(t, filepath.Join(dir, "glsl.snippets"), sources[0].Name)
	assert.Equal(t, "snippet v4\n\tvec4\n", sources[0].Text)
	assert.Equal(t, "wgsl", sources[1].Scope)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mine.snippets")
	require.NoError(t, os.WriteFile(path, []byte("snippet x\n\tx\n"), 0600))

	src, err := LoadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "mine", src.Scope)

	src, err = LoadFile(path, "glsl")
	require.NoError(t, err)
	assert.Equal(t, "glsl", src.Scope)
}
