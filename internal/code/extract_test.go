package code

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

const fiveLines = "a\nb\nc\nd\ne\n"

const twoLabels = `# start a
1
# end a
2
# start b
3
# end b
`

func TestExtractLineRange(t *testing.T) {
	got, err := Extract(fiveLines, Request{Lines: "2-3", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "b\nc", got)

	got, err = Extract(fiveLines, Request{Lines: "1,4-5", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "a\nd\ne", got)
}

func TestExtractAllLinesWhenNoSelection(t *testing.T) {
	got, err := Extract("\n\nx\n\n\n\ny\n\n", Request{Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "x\n\ny", got)
}

func TestExtractSingleLabel(t *testing.T) {
	src := `x = 0
# start a
y = 1
# end a
z = 2  # +a
w = 3
`
	got, err := Extract(src, Request{Labels: "a", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "y = 1\nz = 2", got)
}

func TestExtractTwoLabels(t *testing.T) {
	got, err := Extract(twoLabels, Request{Labels: "a,b", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "1\n3", got)
}

func TestExtractForceExclude(t *testing.T) {
	src := `# start a
keep
drop  # -a
keep2
# end a
`
	got, err := Extract(src, Request{Labels: "a", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "keep\nkeep2", got)
}

func TestExtractKeepsMarkersOfOtherLabels(t *testing.T) {
	src := `# start a
one
# start b
two
# end b
# end a
`
	got, err := Extract(src, Request{Labels: "a", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "one\n# start b\ntwo\n# end b", got)
}

func TestExtractKeepsMarkerLikeComments(t *testing.T) {
	src := "for x in y:\n    go(x)  # end loop\n# start timer\n"
	got, err := Extract(src, Request{Args: "comments,format", Language: Python})
	require.NoError(t, err)
	require.Equal(t, strings.TrimSuffix(src, "\n"), got)

	got, err = Extract("t = now()  // start timer\n", Request{Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "t = now()  // start timer", got)
}

func TestExtractIntersectAndUnion(t *testing.T) {
	// Intersect: line 2 of the label-selected lines ["1", "3"].
	got, err := Extract(twoLabels, Request{Labels: "a,b", Lines: "2", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "3", got)

	// Union: file line 4 ("2") joins the label-selected lines.
	got, err = Extract(twoLabels, Request{Labels: "a,b", Lines: "4", Args: "union", Language: Plain})
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3", got)

	_, err = Extract(twoLabels, Request{Labels: "a,b", Lines: "3", Language: Plain})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryCode))
}

func TestExtractErrors(t *testing.T) {
	cases := map[string]struct {
		text string
		req  Request
	}{
		"empty file":          {text: "  \n", req: Request{}},
		"reversed range":      {text: fiveLines, req: Request{Lines: "3-1"}},
		"zero line":           {text: fiveLines, req: Request{Lines: "0"}},
		"garbage line":        {text: fiveLines, req: Request{Lines: "x"}},
		"beyond file":         {text: fiveLines, req: Request{Lines: "4-9"}},
		"duplicate label":     {text: twoLabels, req: Request{Labels: "a,a"}},
		"empty label":         {text: twoLabels, req: Request{Labels: "a,"}},
		"missing label":       {text: twoLabels, req: Request{Labels: "zz"}},
		"unknown argument":    {text: fiveLines, req: Request{Args: "shiny"}},
		"label started twice": {text: "# start a\nx\n# start a\ny\n# end a\n", req: Request{Labels: "a"}},
		"end without start":   {text: "x\n# end a\n", req: Request{Labels: "a"}},
		"label never ended":   {text: "# start a\nx\n", req: Request{Labels: "a"}},
		"blank selection":     {text: "a\n\nb\n", req: Request{Lines: "2"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(tc.text, tc.req)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryCode), "got %v", err)
		})
	}
}

func TestParseLines(t *testing.T) {
	spec, err := ParseLines("6, 1-3,2")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 6}, spec.Indices())
	require.Equal(t, 6, spec.Max())
	require.True(t, spec.Contains(2))
	require.False(t, spec.Contains(4))

	spec, err = ParseLines("")
	require.NoError(t, err)
	require.Nil(t, spec)
}

func TestParseArgs(t *testing.T) {
	a, err := ParseArgs("doc, comments,union")
	require.NoError(t, err)
	require.Equal(t, Args{KeepDoc: true, KeepComments: true, Union: true}, a)
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, "python", DetectLanguage("src/x.py").Fence)
	require.Equal(t, "go", DetectLanguage("main.GO").Fence)
	require.Equal(t, "java", DetectLanguage("A.java").Fence)
	require.Equal(t, []string{"--"}, DetectLanguage("q.sql").Comments)
	require.Equal(t, "", DetectLanguage("notes.unknown").Fence)
	require.Equal(t, allComments, DetectLanguage("data.json").Comments)
}

func TestPythonPostProcessing(t *testing.T) {
	src := `def add(a: int, b: int = 2) -> int:
    """Add numbers."""
    # sum them
    return a + b  # done
`
	got, err := Extract(src, Request{Language: Python})
	require.NoError(t, err)
	require.Equal(t, "def add(a, b = 2):\n    return a + b", got)

	got, err = Extract(src, Request{Language: Python, Args: "doc,comments,hints"})
	require.NoError(t, err)
	require.Equal(t, strings.TrimSuffix(src, "\n"), got)
}

func TestPythonVariableAnnotations(t *testing.T) {
	src := "x: int = 5\ny: str\nprint(x)\n"
	got, err := Extract(src, Request{Language: Python})
	require.NoError(t, err)
	require.Equal(t, "x = 5\nprint(x)", got)
}

func TestPythonKeepsHashInStrings(t *testing.T) {
	src := "s = \"# not a comment\"  # a comment\n"
	got, err := Extract(src, Request{Language: Python})
	require.NoError(t, err)
	require.Equal(t, `s = "# not a comment"`, got)
}

func TestPythonDedentAndLabels(t *testing.T) {
	src := `class A:
    def f(self):
        # start body
        x = 1
        return x
        # end body
`
	got, err := Extract(src, Request{Language: Python, Labels: "body"})
	require.NoError(t, err)
	require.Equal(t, "x = 1\nreturn x", got)
}

func TestPythonWrapsLongLines(t *testing.T) {
	src := "result = compute(alpha_value, beta_value, gamma_value, delta_value, epsilon_value, zeta_value)\n"
	got, err := Extract(src, Request{Language: Python})
	require.NoError(t, err)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		require.LessOrEqual(t, len(l), wrapWidth)
	}
	require.True(t, strings.HasPrefix(lines[1], strings.Repeat(" ", len("result = compute("))))
	require.Equal(t, strings.Join(strings.Fields(src), " "), strings.Join(strings.Fields(got), " "))

	got, err = Extract(src, Request{Language: Python, Args: "format"})
	require.NoError(t, err)
	require.Equal(t, strings.TrimSuffix(src, "\n"), got)
}

func TestGoPostProcessing(t *testing.T) {
	src := "// Add adds.\nfunc Add(a, b int) int {\n\treturn a + b // sum\n}\n"
	got, err := Extract(src, Request{Language: Go})
	require.NoError(t, err)
	require.Equal(t, "func Add(a, b int) int {\n\treturn a + b\n}", got)

	got, err = Extract(src, Request{Language: Go, Args: "comments"})
	require.NoError(t, err)
	require.Contains(t, got, "// Add adds.")
}

func TestCLikeCommentStripping(t *testing.T) {
	src := "/* header */\nString s = \"http://x\"; // c\nint a/*x*/b;\n"
	got, err := Extract(src, Request{Language: DetectLanguage("A.java")})
	require.NoError(t, err)
	require.Equal(t, "String s = \"http://x\";\nint a b;", got)
}
