package code

import (
	"sort"
	"strings"
)

// wrapWidth is the column limit used when reformatting Python listings.
const wrapWidth = 74

type pyTokKind int

const (
	pyName pyTokKind = iota
	pyNumber
	pyString
	pyOp
)

type pyToken struct {
	kind       pyTokKind
	text       string
	start, end int
	// depth is the bracket depth around the token. Brackets carry the depth
	// outside of themselves so an opener and its closer share a depth.
	depth int
}

// pyLogical is a logical line: physical lines joined by open brackets or
// backslash continuations. start and end are byte offsets covering whole
// physical lines including the trailing newline.
type pyLogical struct {
	start, end int
	tokens     []pyToken
}

type pyComment struct {
	start, end int
	lineStart  int
}

var pyOps2 = []string{"->", ":=", "**", "//", "==", "!=", "<=", ">=", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@="}

var pyKeywords = map[string]bool{
	"if": true, "elif": true, "else": true, "for": true, "while": true, "try": true,
	"except": true, "finally": true, "with": true, "def": true, "class": true,
	"lambda": true, "return": true, "match": true, "case": true, "async": true,
	"await": true, "yield": true, "del": true, "pass": true, "raise": true,
	"global": true, "nonlocal": true, "import": true, "from": true, "assert": true,
}

func lexPython(src string) ([]pyLogical, []pyComment) {
	var (
		logicals  []pyLogical
		comments  []pyComment
		cur       []pyToken
		depth     int
		continued bool
		lineStart int
		logStart  int
	)
	emit := func(kind pyTokKind, start, end int) {
		cur = append(cur, pyToken{kind: kind, text: src[start:end], start: start, end: end, depth: depth})
	}
	afterString := func(start, end int) {
		if nl := strings.LastIndexByte(src[start:end], '\n'); nl >= 0 {
			lineStart = start + nl + 1
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			i++
			if depth == 0 && !continued {
				logicals = append(logicals, pyLogical{start: logStart, end: i, tokens: cur})
				cur = nil
				logStart = i
			}
			continued = false
			lineStart = i
		case c == '\\' && i+1 < len(src) && src[i+1] == '\n':
			continued = true
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			end := len(src)
			if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
				end = i + j
			}
			comments = append(comments, pyComment{start: i, end: end, lineStart: lineStart})
			i = end
		case c == '"' || c == '\'':
			end := scanPyString(src, i)
			emit(pyString, i, end)
			afterString(i, end)
			i = end
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			if j < len(src) && (src[j] == '"' || src[j] == '\'') && isStringPrefix(src[i:j]) {
				end := scanPyString(src, j)
				emit(pyString, i, end)
				afterString(i, end)
				i = end
				continue
			}
			emit(pyName, i, j)
			i = j
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i + 1
			for j < len(src) && (isIdentChar(src[j]) || src[j] == '.') {
				j++
			}
			emit(pyNumber, i, j)
			i = j
		default:
			n := 1
			for _, op := range pyOps2 {
				if strings.HasPrefix(src[i:], op) {
					n = 2
					break
				}
			}
			switch c {
			case '(', '[', '{':
				emit(pyOp, i, i+1)
				depth++
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
				emit(pyOp, i, i+1)
			default:
				emit(pyOp, i, i+n)
			}
			i += n
		}
	}
	if logStart < len(src) || len(cur) > 0 {
		logicals = append(logicals, pyLogical{start: logStart, end: len(src), tokens: cur})
	}
	return logicals, comments
}

func scanPyString(src string, i int) int {
	q := src[i]
	triple := strings.HasPrefix(src[i:], strings.Repeat(string(q), 3))
	j := i + 1
	if triple {
		j = i + 3
	}
	for j < len(src) {
		switch {
		case src[j] == '\\':
			j += 2
			continue
		case triple && strings.HasPrefix(src[j:], strings.Repeat(string(q), 3)):
			return j + 3
		case !triple && src[j] == q:
			return j + 1
		case !triple && src[j] == '\n':
			return j
		}
		j++
	}
	return len(src)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

type span struct{ start, end int }

// processPython strips comments, docstrings and type hints unless asked to
// keep them and, unless verbatim output is requested, re-indents and wraps
// the listing.
func processPython(lines []string, args Args) []string {
	src := strings.Join(lines, "\n") + "\n"
	logicals, comments := lexPython(src)

	var cuts []span
	if !args.KeepComments {
		cuts = append(cuts, commentSpans(src, comments)...)
	}
	if !args.KeepDoc {
		cuts = append(cuts, docstringSpans(logicals)...)
	}
	if !args.KeepHints {
		cuts = append(cuts, hintSpans(logicals)...)
	}
	out := normalizeEmpty(splitLines(applyCuts(src, cuts)))
	if args.Verbatim {
		return out
	}
	out = dedent(out)
	wrapped := make([]string, 0, len(out))
	for _, l := range out {
		wrapped = append(wrapped, wrapPython(l)...)
	}
	return wrapped
}

func commentSpans(src string, comments []pyComment) []span {
	cuts := make([]span, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(src[c.lineStart:c.start]) == "" {
			end := c.end
			if end < len(src) {
				end++
			}
			cuts = append(cuts, span{c.lineStart, end})
			continue
		}
		start := c.start
		for start > c.lineStart && (src[start-1] == ' ' || src[start-1] == '\t') {
			start--
		}
		cuts = append(cuts, span{start, c.end})
	}
	return cuts
}

func isBlockHeader(toks []pyToken) bool {
	if len(toks) < 2 {
		return false
	}
	last := toks[len(toks)-1]
	if last.kind != pyOp || last.text != ":" || last.depth != 0 {
		return false
	}
	first := toks[0].text
	if first == "async" && toks[1].text == "def" {
		return true
	}
	return toks[0].kind == pyName && (first == "def" || first == "class")
}

func docstringSpans(logicals []pyLogical) []span {
	var cuts []span
	first, afterHeader := true, false
	for _, l := range logicals {
		if len(l.tokens) == 0 {
			continue
		}
		onlyStrings := true
		for _, t := range l.tokens {
			if t.kind != pyString {
				onlyStrings = false
				break
			}
		}
		if onlyStrings && (first || afterHeader) {
			cuts = append(cuts, span{l.start, l.end})
		}
		first = false
		afterHeader = isBlockHeader(l.tokens)
	}
	return cuts
}

func hintSpans(logicals []pyLogical) []span {
	var cuts []span
	for _, l := range logicals {
		toks := l.tokens
		if len(toks) == 0 {
			continue
		}
		if toks[0].text == "def" || (toks[0].text == "async" && len(toks) > 1 && toks[1].text == "def") {
			cuts = append(cuts, signatureHints(toks)...)
			continue
		}
		if c, ok := annotationSpan(l); ok {
			cuts = append(cuts, c)
		}
	}
	return cuts
}

// signatureHints returns the parameter and return annotations of a def.
func signatureHints(toks []pyToken) []span {
	open := -1
	for i, t := range toks {
		if t.text == "(" && t.depth == 0 {
			open = i
			break
		}
	}
	if open < 0 {
		return nil
	}
	var cuts []span
	annStart, annEnd := -1, -1
	seenEq, seenLambda := false, false
	flush := func() {
		if annStart >= 0 && annEnd > annStart {
			cuts = append(cuts, span{annStart, annEnd})
		}
		annStart, annEnd = -1, -1
	}

	closing := -1
	for i := open + 1; i < len(toks); i++ {
		t := toks[i]
		if t.text == ")" && t.depth == 0 {
			closing = i
			break
		}
		if t.depth == 1 && t.kind == pyOp {
			switch t.text {
			case ",":
				flush()
				seenEq, seenLambda = false, false
				continue
			case "=":
				flush()
				seenEq = true
				continue
			case ":":
				if !seenEq && !seenLambda && annStart < 0 {
					annStart = t.start
					continue
				}
			}
		}
		if t.depth == 1 && t.kind == pyName && t.text == "lambda" {
			seenLambda = true
		}
		if annStart >= 0 {
			annEnd = t.end
		}
	}
	flush()
	if closing < 0 {
		return cuts
	}
	if closing+1 < len(toks) && toks[closing+1].text == "->" {
		for j := closing + 2; j < len(toks); j++ {
			if toks[j].text == ":" && toks[j].depth == 0 {
				cuts = append(cuts, span{toks[closing].end, toks[j].start})
				break
			}
		}
	}
	return cuts
}

// annotationSpan handles statements like "x: int = 1" and "self.y: str".
func annotationSpan(l pyLogical) (span, bool) {
	toks := l.tokens
	if toks[0].kind != pyName || pyKeywords[toks[0].text] {
		return span{}, false
	}
	k := 1
	for k+1 < len(toks) && toks[k].text == "." && toks[k+1].kind == pyName {
		k += 2
	}
	if k+1 >= len(toks) || toks[k].kind != pyOp || toks[k].text != ":" {
		return span{}, false
	}
	for j := k + 1; j < len(toks); j++ {
		if toks[j].kind == pyOp && toks[j].text == "=" && toks[j].depth == 0 {
			if j == k+1 {
				return span{}, false
			}
			return span{toks[k].start, toks[j-1].end}, true
		}
	}
	return span{l.start, l.end}, true
}

func applyCuts(src string, cuts []span) string {
	if len(cuts) == 0 {
		return src
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].start < cuts[j].start })
	var b strings.Builder
	pos := 0
	for _, c := range cuts {
		if c.end <= pos {
			continue
		}
		if c.start > pos {
			b.WriteString(src[pos:c.start])
		}
		pos = c.end
	}
	b.WriteString(src[pos:])
	return b.String()
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// wrapPython breaks lines longer than wrapWidth after commas inside brackets
// and aligns continuation lines with the opening bracket.
func wrapPython(line string) []string {
	var out []string
	var stack []int
	for len(line) > wrapWidth {
		cut, indent, next := pyBreakPoint(line, stack)
		if cut < 0 {
			break
		}
		out = append(out, strings.TrimRight(line[:cut], " "))
		line = strings.Repeat(" ", indent) + strings.TrimLeft(line[cut:], " ")
		stack = next
	}
	return append(out, line)
}

func pyBreakPoint(line string, inherited []int) (int, int, []int) {
	stack := append([]int(nil), inherited...)
	best, bestIndent := -1, 0
	var bestStack []int
	var quote byte
	for i := 0; i < len(line) && i < wrapWidth; i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			if strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)) {
				return best, bestIndent, bestStack
			}
			quote = c
		case '#':
			return best, bestIndent, bestStack
		case '(', '[', '{':
			stack = append(stack, i)
		case ')', ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ',':
			if len(stack) > 0 && i+1 < len(line) {
				best, bestIndent = i+1, stack[len(stack)-1]+1
				bestStack = append([]int(nil), stack...)
			}
		}
	}
	return best, bestIndent, bestStack
}
