package code

import (
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// LineRange is an inclusive, 1-based range of lines.
type LineRange struct {
	From, To int
}

// LineSpec is the parsed form of a line selection such as "1-3,6".
type LineSpec []LineRange

// ParseLines parses a comma separated list of single lines and inclusive ranges.
// An empty spec selects nothing and is reported as a nil LineSpec.
func ParseLines(spec string) (LineSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	var out LineSpec
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.CodeError("empty element in line selection").WithContext("lines", spec).Build()
		}
		from, to, isRange := strings.Cut(part, "-")
		a, err := parseLineNumber(from, spec)
		if err != nil {
			return nil, err
		}
		b := a
		if isRange {
			if b, err = parseLineNumber(to, spec); err != nil {
				return nil, err
			}
			if b < a {
				return nil, errors.CodeError("reversed line range").WithContext("lines", spec).WithContext("range", part).Build()
			}
		}
		out = append(out, LineRange{From: a, To: b})
	}
	return out, nil
}

func parseLineNumber(s, spec string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.CodeError("invalid line number").WithCause(err).WithContext("lines", spec).Build()
	}
	if n < 1 {
		return 0, errors.CodeError("line numbers start at 1").WithContext("lines", spec).Build()
	}
	return n, nil
}

// Contains reports whether line n (1-based) is selected.
func (s LineSpec) Contains(n int) bool {
	for _, r := range s {
		if n >= r.From && n <= r.To {
			return true
		}
	}
	return false
}

// Max returns the highest selected line number.
func (s LineSpec) Max() int {
	m := 0
	for _, r := range s {
		if r.To > m {
			m = r.To
		}
	}
	return m
}

// Indices returns the selected line numbers, unique and in ascending order.
func (s LineSpec) Indices() []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range s {
		for i := r.From; i <= r.To; i++ {
			if _, ok := seen[i]; !ok {
				seen[i] = struct{}{}
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

// ParseLabels parses a comma separated label list. Labels must be unique and non-empty.
func ParseLabels(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, l := range strings.Split(spec, ",") {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, errors.CodeError("empty label in label selection").WithContext("labels", spec).Build()
		}
		if !labelName.MatchString(l) {
			return nil, errors.CodeError("invalid label name").WithContext("labels", spec).WithContext("label", l).Build()
		}
		if _, dup := seen[l]; dup {
			return nil, errors.CodeError("duplicate label in label selection").WithContext("labels", spec).WithContext("label", l).Build()
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

// Args are the rendering options of a code directive.
type Args struct {
	KeepDoc      bool // "doc": keep docstrings
	KeepComments bool // "comments": keep comments
	KeepHints    bool // "hints": keep type hints
	Verbatim     bool // "format": keep the original formatting
	Union        bool // "union": line and label selections are unioned
}

// ParseArgs parses the comma separated argument list of a code directive.
func ParseArgs(spec string) (Args, error) {
	var a Args
	for _, arg := range strings.Split(spec, ",") {
		switch strings.TrimSpace(arg) {
		case "":
		case "doc":
			a.KeepDoc = true
		case "comments":
			a.KeepComments = true
		case "hints":
			a.KeepHints = true
		case "format":
			a.Verbatim = true
		case "union":
			a.Union = true
		default:
			return Args{}, errors.CodeError("unknown code argument").WithContext("args", spec).WithContext("arg", strings.TrimSpace(arg)).Build()
		}
	}
	return a, nil
}
