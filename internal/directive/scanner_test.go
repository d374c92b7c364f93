package directive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func scanAll(t *testing.T, text string) []Invocation {
	t.Helper()
	sc := NewScanner(text)
	var out []Invocation
	for {
		inv, ok, err := sc.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, inv)
	}
}

func TestScannerFindsKnownDirectives(t *testing.T) {
	text := "Title \\meta{title}\n\n\\rel.code{l}{Cap {x}}{a.py}{1-2}{}{doc}\n\\textbf{no} \\metadata{no}\n"
	invs := scanAll(t, text)
	require.Len(t, invs, 2)

	require.Equal(t, Meta, invs[0].Name)
	require.Equal(t, []string{"title"}, invs[0].Args)
	require.Equal(t, 1, invs[0].Line)
	require.Equal(t, `\meta{title}`, text[invs[0].Start:invs[0].End])

	require.Equal(t, RelCode, invs[1].Name)
	require.Equal(t, []string{"l", "Cap {x}", "a.py", "1-2", "", "doc"}, invs[1].Args)
	require.Equal(t, 3, invs[1].Line)
}

func TestScannerArgumentsAcrossLines(t *testing.T) {
	invs := scanAll(t, "\\definition{thm}\n  {pyth}\n  {a^2 + b^2 = c^2}")
	require.Len(t, invs, 1)
	require.Equal(t, []string{"thm", "pyth", "a^2 + b^2 = c^2"}, invs[0].Args)
}

func TestScannerEscapedBraces(t *testing.T) {
	invs := scanAll(t, `\meta{a\}b}`)
	require.Len(t, invs, 1)
	require.Equal(t, `a\}b`, invs[0].Args[0])
}

func TestScannerMalformed(t *testing.T) {
	cases := map[string]struct {
		text string
		line int
	}{
		"no group":      {text: "\\meta x", line: 1},
		"trailing dot":  {text: "see \\meta.", line: 1},
		"unbalanced":    {text: "x\n\ny \\meta{abc", line: 3},
		"missing group": {text: "\\rel.code{a}{b} text", line: 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sc := NewScanner(tc.text)
			_, ok, err := sc.Next()
			require.False(t, ok)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryDirective))
			ce, _ := errors.AsClassified(err)
			require.Equal(t, tc.line, ce.Context()["line"])

			_, ok, err = sc.Next()
			require.False(t, ok)
			require.NoError(t, err)
		})
	}
}

func TestReplaceInlineAndBlock(t *testing.T) {
	out, err := Replace("a \\meta{title} b", func(inv Invocation) (string, error) {
		return strings.ToUpper(inv.Args[0]), nil
	})
	require.NoError(t, err)
	require.Equal(t, "a TITLE b", out)

	out, err = Replace("Intro\n\\rel.input{x.md}\nOutro", func(Invocation) (string, error) {
		return "\nBODY\n", nil
	})
	require.NoError(t, err)
	require.Equal(t, "Intro\n\nBODY\n\nOutro", out)

	out, err = Replace("\\rel.input{x.md}", func(Invocation) (string, error) {
		return "BODY", nil
	})
	require.NoError(t, err)
	require.Equal(t, "BODY\n", out)
}

func TestReplaceDoesNotRescanOutput(t *testing.T) {
	calls := 0
	out, err := Replace("\\meta{a}", func(Invocation) (string, error) {
		calls++
		return "\\meta{b}", nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "\\meta{b}", out)
}

func TestReplacePropagatesHandlerError(t *testing.T) {
	boom := errors.LabelError("boom").Build()
	_, err := Replace("x \\def.ref{a}", func(Invocation) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
}
