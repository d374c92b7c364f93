// Package code extracts listings from source files: line and label
// selection followed by language specific clean-up.
package code

import (
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Request describes one listing to extract.
type Request struct {
	Lines    string   // e.g. "1-3,6"; empty selects all lines
	Labels   string   // e.g. "a,b"; empty disables label selection
	Args     string   // e.g. "doc,comments"
	Language Language // zero value means Plain
}

// Extract selects and post-processes lines of text.
func Extract(text string, req Request) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.CodeError("source file is empty").Build()
	}
	sel, err := ParseLines(req.Lines)
	if err != nil {
		return "", err
	}
	labels, err := ParseLabels(req.Labels)
	if err != nil {
		return "", err
	}
	args, err := ParseArgs(req.Args)
	if err != nil {
		return "", err
	}
	lang := req.Language
	if len(lang.Comments) == 0 {
		lang.Comments = allComments
	}

	scanned, total, err := scanLines(text, labels, lang.Comments)
	if err != nil {
		return "", err
	}
	selected, err := combine(scanned, sel, len(labels) > 0, args.Union, total)
	if err != nil {
		return "", err
	}
	out := normalizeEmpty(selected)
	if len(out) == 0 {
		return "", errors.CodeError("selection is empty").
			WithContext("lines", req.Lines).WithContext("labels", req.Labels).Build()
	}

	switch lang.family {
	case familyPython:
		out = processPython(out, args)
	case familyCLike:
		out = processCLike(out, lang, args)
	case familyPlain:
	}
	if len(out) == 0 || (len(out) == 1 && strings.TrimSpace(out[0]) == "") {
		return "", errors.CodeError("listing is empty after post-processing").
			WithContext("lines", req.Lines).WithContext("labels", req.Labels).Build()
	}
	return strings.Join(out, "\n"), nil
}
