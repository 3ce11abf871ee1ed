// Package highlight renders GLSL source with ANSI colours.
package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

const (
	// DefaultStyle is the chroma style used when none is configured.
	DefaultStyle = "monokai"

	lexer            = "glsl"
	defaultFormatter = "terminal256"
)

// Highlighter writes syntax highlighted GLSL.
type Highlighter struct {
	// Style is a chroma style name. An empty style disables highlighting.
	Style string
	// Formatter is a chroma formatter name, terminal256 by default.
	Formatter string
}

// New returns a terminal highlighter using style.
func New(style string) *Highlighter {
	return &Highlighter{Style: style, Formatter: defaultFormatter}
}

// Enabled reports whether the highlighter colours its output.
func (h *Highlighter) Enabled() bool {
	return h != nil && h.Style != ""
}

// Write highlights src into w. Without a style src is copied unchanged.
func (h *Highlighter) Write(w io.Writer, src string) error {
	if !h.Enabled() {
		_, err := io.WriteString(w, src)
		return err
	}

	formatter := h.Formatter
	if formatter == "" {
		formatter = defaultFormatter
	}
	return quick.Highlight(w, src, lexer, formatter, h.Style)
}

// String highlights src, falling back to the plain source on error.
func (h *Highlighter) String(src string) string {
	var b strings.Builder
	if err := h.Write(&b, src); err != nil {
		return src
	}
	return b.String()
}
