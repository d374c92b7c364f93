package code

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

var labelName = regexp.MustCompile(`^[A-Za-z_][\w.:-]*$`)

type markerKind string

const (
	markStart   markerKind = "start"
	markEnd     markerKind = "end"
	markInclude markerKind = "+"
	markExclude markerKind = "-"
)

type marker struct {
	kind  markerKind
	label string
}

// markerScanner recognises selection markers of the requested labels at the
// end of a line, e.g. "x = 1  # start a" or "y = 2  // -a". Comments that
// merely look like markers of other labels are left alone.
type markerScanner struct {
	re *regexp.Regexp
}

func newMarkerScanner(comments, labels []string) markerScanner {
	if len(labels) == 0 || len(comments) == 0 {
		return markerScanner{}
	}
	quote := func(in []string) string {
		out := make([]string, 0, len(in))
		for _, v := range in {
			out = append(out, regexp.QuoteMeta(v))
		}
		return strings.Join(out, "|")
	}
	expr := `(?:^|\s)(?:` + quote(comments) + `)\s*(?:(start|end)\s+|([+-]))(` + quote(labels) + `)\s*$`
	return markerScanner{re: regexp.MustCompile(expr)}
}

// strip removes all trailing markers from text and returns the remaining
// text together with the markers in left-to-right order.
func (s markerScanner) strip(text string) (string, []marker) {
	if s.re == nil {
		return text, nil
	}
	var found []marker
	for {
		m := s.re.FindStringSubmatchIndex(text)
		if m == nil {
			break
		}
		kind := markerKind(submatch(text, m, 1))
		if kind == "" {
			kind = markerKind(submatch(text, m, 2))
		}
		found = append(found, marker{kind: kind, label: submatch(text, m, 3)})
		text = strings.TrimRight(text[:m[0]], " \t")
	}
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return text, found
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

// sourceLine is one physical line of the input after marker stripping.
type sourceLine struct {
	num      int
	text     string
	selected bool
}

// scanLines strips the markers of the requested labels from every line and
// evaluates the label selection. Lines that held nothing but such markers are
// dropped. When labels is empty every
// line is selected. The second result is the number of physical lines.
func scanLines(text string, labels []string, comments []string) ([]sourceLine, int, error) {
	requested := make(map[string]bool, len(labels))
	for _, l := range labels {
		requested[l] = true
	}
	contributed := make(map[string]bool, len(labels))
	active := make(map[string]bool)
	scanner := newMarkerScanner(comments, labels)

	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	out := make([]sourceLine, 0, len(raw))
	for i, line := range raw {
		num := i + 1
		stripped, markers := scanner.strip(strings.TrimRight(line, " \t"))

		// Start and end lines themselves are excluded, so the decision for
		// this line works on a copy of the active set.
		current := make(map[string]bool, len(active))
		for l := range active {
			current[l] = true
		}
		for _, mk := range markers {
			if !requested[mk.label] {
				continue
			}
			switch mk.kind {
			case markStart:
				if active[mk.label] {
					return nil, 0, markerError("label started twice", mk.label, num)
				}
				active[mk.label] = true
			case markEnd:
				if !active[mk.label] {
					return nil, 0, markerError("label ended without being started", mk.label, num)
				}
				delete(active, mk.label)
				delete(current, mk.label)
			case markInclude:
				if current[mk.label] {
					return nil, 0, markerError("line already included for label", mk.label, num)
				}
				current[mk.label] = true
			case markExclude:
				if !current[mk.label] {
					return nil, 0, markerError("line already excluded for label", mk.label, num)
				}
				delete(current, mk.label)
			}
		}

		if len(markers) > 0 && strings.TrimSpace(stripped) == "" {
			continue
		}
		selected := len(labels) == 0 || len(current) > 0
		for l := range current {
			contributed[l] = true
		}
		out = append(out, sourceLine{num: num, text: stripped, selected: selected})
	}

	for _, l := range labels {
		if active[l] {
			return nil, 0, errors.CodeError("label not ended before end of file").WithContext("label", l).Build()
		}
		if !contributed[l] {
			return nil, 0, errors.CodeError("label selects no lines").WithContext("label", l).Build()
		}
	}
	return out, len(raw), nil
}

func markerError(msg, label string, line int) error {
	return errors.CodeError(msg).WithContext("label", label).WithContext("line", line).Build()
}

// combine applies the line selection to the scanned lines.
//
// In the default intersect mode the line numbers index the label-selected
// lines. In union mode a line is kept when it is label-selected or its
// original file line number is listed.
func combine(lines []sourceLine, sel LineSpec, haveLabels, union bool, totalLines int) ([]string, error) {
	if union && haveLabels {
		if sel.Max() > totalLines {
			return nil, errors.CodeError("line selection exceeds file").
				WithContext("max_line", sel.Max()).WithContext("file_lines", totalLines).Build()
		}
		var out []string
		for _, l := range lines {
			if l.selected || sel.Contains(l.num) {
				out = append(out, l.text)
			}
		}
		return out, nil
	}

	var candidates []string
	for _, l := range lines {
		if l.selected {
			candidates = append(candidates, l.text)
		}
	}
	if sel == nil {
		return candidates, nil
	}
	if !haveLabels {
		// Without labels the line numbers refer to the file itself, including
		// marker-only lines that were dropped.
		if sel.Max() > totalLines {
			return nil, errors.CodeError("line selection exceeds file").
				WithContext("max_line", sel.Max()).WithContext("file_lines", totalLines).Build()
		}
		var out []string
		for _, l := range lines {
			if sel.Contains(l.num) {
				out = append(out, l.text)
			}
		}
		return out, nil
	}
	if sel.Max() > len(candidates) {
		return nil, errors.CodeError("line selection exceeds label selection").
			WithContext("max_line", sel.Max()).WithContext("selected_lines", len(candidates)).Build()
	}
	out := make([]string, 0, len(candidates))
	for _, idx := range sel.Indices() {
		out = append(out, candidates[idx-1])
	}
	return out, nil
}

// normalizeEmpty removes leading and trailing empty lines and collapses runs
// of empty lines into one.
func normalizeEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if len(out) == 0 {
				continue
			}
			blank = true
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, l)
	}
	return out
}

// dedent strips the longest whitespace prefix common to all non-empty lines.
func dedent(lines []string) []string {
	prefix := ""
	first := true
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		ws := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if first {
			prefix, first = ws, false
			continue
		}
		for !strings.HasPrefix(ws, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimPrefix(l, prefix)
	}
	return out
}
