package snippet

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

const keyword = "snippet"

// FormatError reports a snippet definition that was rejected while parsing.
type FormatError struct {
	Source  string
	Line    int
	Column  int
	Trigger string
	Reason  string
}

func (e *FormatError) Error() string {
	loc := fmt.Sprintf("%s:%d", e.Source, e.Line)
	if e.Column > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Column)
	}
	if e.Trigger == "" {
		return fmt.Sprintf("%s: %s", loc, e.Reason)
	}
	return fmt.Sprintf("%s: snippet %q: %s", loc, e.Trigger, e.Reason)
}

// bodyLine is a body line with its leading tab removed.
type bodyLine struct {
	text string
	line int
}

type pending struct {
	def   *Definition
	lines []bodyLine
}

// Parse reads snippet definitions from text. The source name is only used
// in diagnostics.
//
// Definitions with a malformed placeholder are skipped. Parse always
// returns every definition it could read, together with a FormatError per
// rejected definition combined with multierr.
func Parse(source, text string) ([]*Definition, error) {
	var (
		defs        []*Definition
		errs        []error
		description string
		cur         *pending
	)

	flush := func() {
		if cur == nil {
			return
		}
		def, err := cur.finish()
		if err != nil {
			errs = append(errs, err)
		} else if def != nil {
			defs = append(defs, def)
		}
		cur = nil
	}

	text = strings.ReplaceAll(text, "\r", "")
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1

		switch {
		case strings.HasPrefix(line, "\t"):
			// Indented lines outside a snippet have no owner.
			if cur != nil {
				cur.lines = append(cur.lines, bodyLine{text: line[1:], line: lineNo})
			}

		case line == "":
			if cur != nil {
				cur.lines = append(cur.lines, bodyLine{line: lineNo})
			} else {
				description = ""
			}

		case isSnippetLine(line):
			flush()
			trigger := strings.TrimSpace(line[len(keyword):])
			cur = &pending{def: &Definition{
				Trigger:     trigger,
				Description: description,
				Source:      source,
				Line:        lineNo,
			}}
			description = ""
			if trigger == "" {
				errs = append(errs, &FormatError{Source: source, Line: lineNo, Reason: "missing trigger"})
				// Keep consuming the body so it is not attributed elsewhere.
				cur.def = nil
			}

		case strings.HasPrefix(line, "##"):
			flush()
			description = ""

		case strings.HasPrefix(line, "#"):
			flush()
			description = strings.TrimSpace(strings.TrimLeft(line, "#"))

		default:
			flush()
			description = ""
		}
	}
	flush()

	return defs, multierr.Combine(errs...)
}

func isSnippetLine(line string) bool {
	if !strings.HasPrefix(line, keyword) {
		return false
	}
	rest := line[len(keyword):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// finish tokenizes the collected body lines. It returns a nil definition
// when the snippet header itself was rejected.
func (p *pending) finish() (*Definition, error) {
	if p.def == nil {
		return nil, nil
	}

	lines := p.lines
	for len(lines) > 0 && lines[len(lines)-1].text == "" {
		lines = lines[:len(lines)-1]
	}

	var body []Token
	finalSeen := false
	for i, l := range lines {
		if i > 0 {
			body = appendText(body, "\n")
		}
		toks, err := tokenizeLine(l.text)
		if err != nil {
			err.Source = p.def.Source
			err.Line = l.line
			err.Trigger = p.def.Trigger
			return nil, err
		}
		for _, tok := range toks {
			if tok.Placeholder != nil {
				if tok.Placeholder.Index == 0 {
					if finalSeen {
						return nil, &FormatError{
							Source:  p.def.Source,
							Line:    l.line,
							Trigger: p.def.Trigger,
							Reason:  "more than one final tab stop ($0)",
						}
					}
					finalSeen = true
				}
				body = append(body, tok)
				continue
			}
			body = appendText(body, tok.Text)
		}
	}

	p.def.Body = body
	return p.def, nil
}

// appendText merges consecutive text tokens.
func appendText(body []Token, text string) []Token {
	if n := len(body); n > 0 && body[n-1].Placeholder == nil {
		body[n-1].Text += text
		return body
	}
	return append(body, Token{Text: text})
}

// tokenizeLine splits a single body line into text and placeholder tokens.
// Returned errors only carry the column; the caller fills in the rest.
func tokenizeLine(s string) ([]Token, *FormatError) {
	var (
		toks []Token
		text strings.Builder
	)

	flushText := func() {
		if text.Len() > 0 {
			toks = append(toks, Token{Text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isEscapable(s[i+1]):
			text.WriteByte(s[i+1])
			i += 2

		case c == '$' && i+1 < len(s) && isDigit(s[i+1]):
			j := scanDigits(s, i+1)
			index, err := strconv.Atoi(s[i+1 : j])
			if err != nil {
				return nil, &FormatError{Column: i + 1, Reason: fmt.Sprintf("invalid placeholder index %q", s[i+1:j])}
			}
			flushText()
			toks = append(toks, Token{Placeholder: &Placeholder{Index: index, Bare: true}})
			i = j

		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			ph, next, ferr := scanBraced(s, i)
			if ferr != nil {
				return nil, ferr
			}
			flushText()
			toks = append(toks, Token{Placeholder: ph})
			i = next

		default:
			text.WriteByte(c)
			i++
		}
	}
	flushText()

	return toks, nil
}

// scanBraced parses a ${N} or ${N:default} token starting at s[start].
func scanBraced(s string, start int) (*Placeholder, int, *FormatError) {
	col := start + 1
	j := scanDigits(s, start+2)
	if j == start+2 {
		if end := strings.IndexByte(s[start:], '}'); end < 0 {
			return nil, 0, &FormatError{Column: col, Reason: "unterminated placeholder"}
		}
		return nil, 0, &FormatError{Column: col, Reason: "non-numeric placeholder index"}
	}
	index, err := strconv.Atoi(s[start+2 : j])
	if err != nil {
		return nil, 0, &FormatError{Column: col, Reason: fmt.Sprintf("invalid placeholder index %q", s[start+2:j])}
	}
	if j >= len(s) {
		return nil, 0, &FormatError{Column: col, Reason: "unterminated placeholder"}
	}

	switch s[j] {
	case '}':
		return &Placeholder{Index: index}, j + 1, nil
	case ':':
	default:
		return nil, 0, &FormatError{Column: col, Reason: "non-numeric placeholder index"}
	}

	// Whitespace after the colon separates, it is not part of the default.
	k := j + 1
	for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
		k++
	}

	var def strings.Builder
	for ; k < len(s); k++ {
		switch {
		case s[k] == '\\' && k+1 < len(s) && isEscapable(s[k+1]):
			def.WriteByte(s[k+1])
			k++
		case s[k] == '}':
			return &Placeholder{Index: index, Default: def.String()}, k + 1, nil
		default:
			def.WriteByte(s[k])
		}
	}
	return nil, 0, &FormatError{Column: col, Reason: "unterminated placeholder"}
}

func scanDigits(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isEscapable(c byte) bool {
	return c == '$' || c == '}' || c == '\\'
}
