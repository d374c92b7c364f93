package directive

import (
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

type state int

const (
	stateScanning state = iota
	stateName
	stateArgs
	stateDone
)

// Scanner walks text and yields the invocations of known directives in
// order. Backslash sequences that do not name a known directive are left
// alone.
type Scanner struct {
	text  string
	pos   int
	line  int
	state state

	cur Invocation
}

// NewScanner creates a scanner over text.
func NewScanner(text string) *Scanner {
	return &Scanner{text: text, line: 1}
}

// Next returns the next invocation. ok is false once the text is exhausted.
func (s *Scanner) Next() (inv Invocation, ok bool, err error) {
	for {
		switch s.state {
		case stateDone:
			return Invocation{}, false, nil

		case stateScanning:
			i := strings.IndexByte(s.text[s.pos:], '\\')
			if i < 0 {
				s.advance(len(s.text))
				s.state = stateDone
				continue
			}
			s.advance(s.pos + i)
			s.cur = Invocation{Start: s.pos, Line: s.line}
			s.state = stateName

		case stateName:
			name, end := readName(s.text, s.pos+1)
			spec, known := known[name]
			if !known {
				s.pos++
				s.state = stateScanning
				continue
			}
			if end >= len(s.text) || s.text[end] != '{' {
				return Invocation{}, false, s.fail("directive without arguments", name)
			}
			s.cur.Name = spec.Name
			s.advance(end)
			s.state = stateArgs

		case stateArgs:
			spec := known[s.cur.Name]
			for len(s.cur.Args) < spec.Args {
				start := skipSpace(s.text, s.pos)
				if start >= len(s.text) || s.text[start] != '{' {
					return Invocation{}, false, s.fail("missing argument group", s.cur.Name)
				}
				end, ok := matchBrace(s.text, start)
				if !ok {
					return Invocation{}, false, s.fail("unbalanced braces", s.cur.Name)
				}
				s.cur.Args = append(s.cur.Args, s.text[start+1:end])
				s.advance(end + 1)
			}
			s.cur.End = s.pos
			s.state = stateScanning
			return s.cur, true, nil
		}
	}
}

// advance moves to offset to, counting newlines on the way.
func (s *Scanner) advance(to int) {
	if to > s.pos {
		s.line += strings.Count(s.text[s.pos:to], "\n")
		s.pos = to
	}
}

func (s *Scanner) fail(msg, name string) error {
	s.state = stateDone
	return errors.DirectiveError(msg).WithContext("directive", name).WithContext("line", s.cur.Line).Build()
}

// readName reads a dotted identifier such as "rel.input" starting at i. A dot
// only belongs to the name when a letter follows it.
func readName(text string, i int) (string, int) {
	j := i
	for j < len(text) {
		c := text[j]
		switch {
		case isLetter(c) || (j > i && isDigit(c)):
			j++
		case c == '.' && j > i && j+1 < len(text) && isLetter(text[j+1]):
			j++
		default:
			return text[i:j], j
		}
	}
	return text[i:j], j
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i++
	}
	return i
}

// matchBrace returns the offset of the brace closing the one at open.
// Backslash-escaped braces do not count.
func matchBrace(text string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if i+1 < len(text) && (text[i+1] == '{' || text[i+1] == '}') {
				i++
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
