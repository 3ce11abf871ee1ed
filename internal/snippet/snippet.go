package snippet

import (
	"strconv"
	"strings"
)

// Placeholder is a tab stop inside a snippet body.
type Placeholder struct {
	// Index orders the tab stops. Index 0 is the final cursor position.
	Index int
	// Default is the text inserted when the snippet is expanded.
	Default string
	// Bare is set when the placeholder was written as $N.
	Bare bool
}

// Token is one piece of a snippet body: either literal text or a placeholder.
type Token struct {
	Text        string
	Placeholder *Placeholder
}

// Definition represents a single snippet template.
type Definition struct {
	// Trigger is the word typed to request the snippet. It is unique within a scope.
	Trigger string
	// Description comes from the comment line directly above the snippet.
	Description string
	// Body is the ordered sequence of text and placeholder tokens.
	Body []Token
	// Source names the text the definition was parsed from.
	Source string
	// Line is the line number of the snippet keyword in Source.
	Line int
}

// Placeholders returns the placeholders of the body in order of appearance.
func (d *Definition) Placeholders() []Placeholder {
	var phs []Placeholder
	for _, tok := range d.Body {
		if tok.Placeholder != nil {
			phs = append(phs, *tok.Placeholder)
		}
	}
	return phs
}

// Template rebuilds the body as it would be written in a snippet file,
// without the leading tab of each line.
func (d *Definition) Template() string {
	var b strings.Builder
	for i, tok := range d.Body {
		if tok.Placeholder == nil {
			b.WriteString(escaper.Replace(tok.Text))
			continue
		}
		// $1 followed by a digit would read as a larger index.
		braced := i+1 < len(d.Body) && d.Body[i+1].Placeholder == nil &&
			d.Body[i+1].Text != "" && isDigit(d.Body[i+1].Text[0])
		writePlaceholder(&b, tok.Placeholder, braced)
	}
	return b.String()
}

// Location returns "source:line" for diagnostics.
func (d *Definition) Location() string {
	return d.Source + ":" + strconv.Itoa(d.Line)
}

var (
	escaper        = strings.NewReplacer(`\`, `\\`, `$`, `\$`)
	defaultEscaper = strings.NewReplacer(`\`, `\\`, `}`, `\}`)
)

func writePlaceholder(b *strings.Builder, ph *Placeholder, braced bool) {
	switch {
	case ph.Bare && !braced:
		b.WriteString("$" + strconv.Itoa(ph.Index))
	case ph.Default == "":
		b.WriteString("${" + strconv.Itoa(ph.Index) + "}")
	default:
		b.WriteString("${" + strconv.Itoa(ph.Index) + ":" + defaultEscaper.Replace(ph.Default) + "}")
	}
}
