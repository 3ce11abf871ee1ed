package snippet

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParse(t *testing.T) {
	text := "## Section\n" +
		"# a vector\n" +
		"snippet vc\n" +
		"\tvec2\n" +
		"#loop\n" +
		"snippet fori\n" +
		"\tfor (int i = 0; i < ${1:int}; i++) {\n" +
		"\t\t${2}\n" +
		"\t}$0\n" +
		"##\n" +
		"snippet nodesc\n" +
		"\tx\n"

	defs, err := Parse("test", text)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "vc", defs[0].Trigger)
	assert.Equal(t, "a vector", defs[0].Description)
	assert.Equal(t, 3, defs[0].Line)
	assert.Equal(t, []Token{{Text: "vec2"}}, defs[0].Body)

	assert.Equal(t, "fori", defs[1].Trigger)
	assert.Equal(t, "loop", defs[1].Description)
	assert.Equal(t, []Token{
		{Text: "for (int i = 0; i < "},
		{Placeholder: &Placeholder{Index: 1, Default: "int"}},
		{Text: "; i++) {\n\t"},
		{Placeholder: &Placeholder{Index: 2}},
		{Text: "\n}"},
		{Placeholder: &Placeholder{Index: 0, Bare: true}},
	}, defs[1].Body)

	assert.Equal(t, "nodesc", defs[2].Trigger)
	assert.Empty(t, defs[2].Description)
}

func TestParse_SectionDescriptionIgnored(t *testing.T) {
	defs, err := Parse("test", "## Shapes\nsnippet box\n\tbox\n")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Empty(t, defs[0].Description, "section headers are not descriptions")
}

func TestParse_SeparatorOnly(t *testing.T) {
	for name, text := range map[string]string{
		"lone separator":   "##",
		"separator lines":  "##\n##\n",
		"empty input":      "",
		"comment only":     "# nothing here\n",
		"orphan body line": "\tstray\n",
	} {
		t.Run(name, func(t *testing.T) {
			defs, err := Parse("test", text)
			require.NoError(t, err)
			assert.Empty(t, defs)
		})
	}
}

func TestParse_BodyLines(t *testing.T) {
	text := "snippet blk\n" +
		"\tfirst\n" +
		"\n" +
		"\t\tindented\n" +
		"\t\n" +
		"\n"

	defs, err := Parse("test", text)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "first\n\n\tindented", defs[0].Body[0].Text)
}

func TestParse_Escapes(t *testing.T) {
	defs, err := Parse("test", "snippet esc\n\tcost \\$5 ${1:a\\}b} $x \\n\n")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, []Token{
		{Text: "cost $5 "},
		{Placeholder: &Placeholder{Index: 1, Default: "a}b"}},
		{Text: " $x \\n"},
	}, defs[0].Body)
}

func TestParse_FormatErrors(t *testing.T) {
	for name, test := range map[string]struct {
		body   string
		reason string
		column int
	}{
		"unterminated brace": {
			body:   "\tfoo(${1:vec2)",
			reason: "unterminated placeholder",
			column: 5,
		},
		"unterminated empty": {
			body:   "\t${",
			reason: "unterminated placeholder",
			column: 1,
		},
		"non-numeric index": {
			body:   "\t${x:vec2}",
			reason: "non-numeric placeholder index",
			column: 1,
		},
		"trailing garbage in index": {
			body:   "\t${1x}",
			reason: "non-numeric placeholder index",
			column: 1,
		},
		"overflowing index": {
			body:   "\t$99999999999999999999999",
			reason: `invalid placeholder index "99999999999999999999999"`,
			column: 1,
		},
	} {
		t.Run(name, func(t *testing.T) {
			text := "snippet good1\n\tok\n" +
				"snippet bad\n" + test.body + "\n" +
				"snippet good2\n\tok\n"

			defs, err := Parse("test", text)
			require.Error(t, err)

			// The malformed definition is skipped, the others survive.
			require.Len(t, defs, 2)
			assert.Equal(t, "good1", defs[0].Trigger)
			assert.Equal(t, "good2", defs[1].Trigger)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, "test", fe.Source)
			assert.Equal(t, 4, fe.Line)
			assert.Equal(t, test.column, fe.Column)
			assert.Equal(t, "bad", fe.Trigger)
			assert.Equal(t, test.reason, fe.Reason)
		})
	}
}

func TestParse_DuplicateFinalStop(t *testing.T) {
	_, err := Parse("test", "snippet two\n\t$0\n\t${0:end}\n")
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Line)
	assert.Contains(t, fe.Error(), "final tab stop")
}

func TestParse_MissingTrigger(t *testing.T) {
	defs, err := Parse("test", "snippet\n\tbody\nsnippet ok\n\tfine\n")
	require.Error(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "ok", defs[0].Trigger)
	assert.EqualError(t, err, "test:1: missing trigger")
}

func TestParse_CollectsEveryError(t *testing.T) {
	text := "snippet a\n\t${\nsnippet b\n\t${y}\nsnippet c\n\tc\n"
	defs, err := Parse("test", text)
	require.Len(t, defs, 1)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestFormatError_Error(t *testing.T) {
	err := &FormatError{Source: "glsl", Line: 4, Column: 7, Trigger: "box", Reason: "unterminated placeholder"}
	assert.Equal(t, `glsl:4:7: snippet "box": unterminated placeholder`, err.Error())
}

func TestDefinition_Template(t *testing.T) {
	text := "snippet t\n\tf(${1:a\\}}, $2, ${3}) \\$ {\n\t}\n"
	defs, err := Parse("test", text)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	tmpl := defs[0].Template()
	assert.Equal(t, "f(${1:a\\}}, $2, ${3}) \\$ {\n}", tmpl)

	// The rebuilt template parses back to the same body.
	again, err := Parse("test", "snippet t\n\t"+strings.ReplaceAll(tmpl, "\n", "\n\t")+"\n")
	require.NoError(t, err)
	assert.Equal(t, defs[0].Body, again[0].Body)
}

func TestDefinition_Placeholders(t *testing.T) {
	defs, err := Parse("test", "snippet t\n\t${1:x} $1 ${2}\n")
	require.NoError(t, err)
	assert.Equal(t, []Placeholder{
		{Index: 1, Default: "x"},
		{Index: 1, Bare: true},
		{Index: 2},
	}, defs[0].Placeholders())
}

func TestDefinition_TemplateBareBeforeDigit(t *testing.T) {
	def := &Definition{Body: []Token{
		{Placeholder: &Placeholder{Index: 1, Bare: true}},
		{Text: "2"},
	}}
	assert.Equal(t, "${1}2", def.Template())
}

func TestParse_DefaultLeadingWhitespace(t *testing.T) {
	defs, err := Parse("test", "snippet box\n\tf(${5: float}, ${6:\tint }, ${7: })\n")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, []Placeholder{
		{Index: 5, Default: "float"},
		{Index: 6, Default: "int "},
		{Index: 7},
	}, defs[0].Placeholders())
}
