package code

import (
	"go/format"
	"strings"
)

// processCLike strips comments from brace languages. Go listings are also
// run through gofmt when they parse as a declaration or statement list.
func processCLike(lines []string, lang Language, args Args) []string {
	src := strings.Join(lines, "\n") + "\n"
	if !args.KeepComments {
		src = stripCComments(src, lang.Fence == "go" || lang.Fence == "javascript" || lang.Fence == "typescript")
	}
	out := normalizeEmpty(splitLines(src))
	if args.Verbatim {
		return out
	}
	if lang.Fence == "go" {
		if formatted, err := format.Source([]byte(strings.Join(out, "\n") + "\n")); err == nil {
			out = normalizeEmpty(splitLines(string(formatted)))
		}
	}
	return dedent(out)
}

// stripCComments removes line and block comments outside of string and
// character literals. Lines that held only a comment are removed entirely.
func stripCComments(src string, backquotes bool) string {
	var b strings.Builder
	lineStart := 0 // offset in b of the current output line
	i := 0
	onlySpace := func() bool { return strings.TrimSpace(b.String()[lineStart:]) == "" }
	dropLine := func() {
		s := b.String()[:lineStart]
		b.Reset()
		b.WriteString(s)
	}
	trimTrailing := func() {
		s := b.String()
		t := strings.TrimRight(s[lineStart:], " \t")
		b.Reset()
		b.WriteString(s[:lineStart] + t)
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			b.WriteByte(c)
			i++
			lineStart = b.Len()
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			if onlySpace() {
				dropLine()
				i += end + 1
				continue
			}
			trimTrailing()
			i += end
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			stop := len(src)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			rest := src[stop:]
			nl := strings.IndexByte(rest, '\n')
			tail := rest
			if nl >= 0 {
				tail = rest[:nl]
			}
			if onlySpace() && strings.TrimSpace(tail) == "" {
				dropLine()
				i = stop + len(tail)
				if nl >= 0 {
					i++
				}
				continue
			}
			// Keep the line count of code surrounding a multi-line comment.
			for range strings.Count(src[i:stop], "\n") {
				trimTrailing()
				b.WriteByte('\n')
				lineStart = b.Len()
			}
			if out := b.String(); len(out) > lineStart && !isSpace(out[len(out)-1]) && len(rest) > 0 && !isSpace(rest[0]) {
				b.WriteByte(' ')
			}
			i = stop
		case c == '"' || (c == '`' && backquotes):
			end := scanCString(src, i, c)
			b.WriteString(src[i:end])
			i = end
		case c == '\'':
			end := scanCChar(src, i)
			b.WriteString(src[i:end])
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' }

func scanCString(src string, i int, q byte) int {
	for j := i + 1; j < len(src); j++ {
		switch {
		case src[j] == '\\' && q != '`':
			j++
		case src[j] == q:
			return j + 1
		case src[j] == '\n' && q != '`':
			return j
		}
	}
	return len(src)
}

// scanCChar treats a quote as a character literal only when it closes on the
// same line within a few bytes, so Rust lifetimes pass through untouched.
func scanCChar(src string, i int) int {
	for j := i + 1; j < len(src) && j < i+12; j++ {
		switch src[j] {
		case '\\':
			j++
		case '\'':
			return j + 1
		case '\n':
			return i + 1
		}
	}
	return i + 1
}
