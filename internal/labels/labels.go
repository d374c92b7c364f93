// Package labels numbers figures, listings, definitions and the pandoc-crossref
// attributes found in a document, one registry per language pass.
package labels

import (
	"fmt"
	"regexp"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Built-in kinds. Any other kind is a definition type such as "theorem".
const (
	KindFigure   = "fig"
	KindListing  = "lst"
	KindSection  = "sec"
	KindEquation = "eq"
	KindTable    = "tbl"
)

// DefinitionAnchor is the anchor prefix shared by all definition types.
const DefinitionAnchor = "def"

var defaultTitles = map[string]string{
	KindFigure:   "Figure",
	KindListing:  "Listing",
	KindSection:  "Section",
	KindEquation: "Equation",
	KindTable:    "Table",
}

var (
	keyPattern    = regexp.MustCompile(`^[\w.:-]+$`)
	nativePattern = regexp.MustCompile(`\{#(sec|eq|tbl):([\w.:-]+)[^}]*\}`)
)

// IsBuiltin reports whether kind is one of the cross-reference kinds rather
// than a definition type.
func IsBuiltin(kind string) bool {
	_, ok := defaultTitles[kind]
	return ok
}

// Entry is a numbered label.
type Entry struct {
	Kind   string `yaml:"kind"`
	Key    string `yaml:"key"`
	Number int    `yaml:"number"`
	Lang   string `yaml:"lang,omitempty"`
}

// Anchor returns the id the label is emitted under, e.g. "fig:arch".
func (e Entry) Anchor() string {
	if IsBuiltin(e.Kind) {
		return e.Kind + ":" + e.Key
	}
	return DefinitionAnchor + ":" + e.Key
}

// Ref is a resolved reference to a label.
type Ref struct {
	Entry
	Title string
}

// String renders the reference as a markdown link.
func (r Ref) String() string {
	return fmt.Sprintf("[%s %d](#%s)", r.Title, r.Number, r.Anchor())
}

// Registry assigns sequence numbers per kind in definition order.
type Registry struct {
	lang     string
	counters map[string]int
	entries  []Entry
	index    map[string]int
	defs     map[string]int
	titles   map[string]string
}

// New creates an empty registry for one language pass.
func New(lang string) *Registry {
	return &Registry{
		lang:     lang,
		counters: make(map[string]int),
		index:    make(map[string]int),
		defs:     make(map[string]int),
		titles:   make(map[string]string),
	}
}

// SetTitle overrides the display title of a kind.
func (r *Registry) SetTitle(kind, title string) {
	if title != "" {
		r.titles[kind] = title
	}
}

// Title returns the display title of a kind. Definition types without an
// explicit title are capitalised.
func (r *Registry) Title(kind string) string {
	if t, ok := r.titles[kind]; ok {
		return t
	}
	if t, ok := defaultTitles[kind]; ok {
		return t
	}
	return cases.Title(language.Und).String(kind)
}

// Define registers key under kind and returns its sequence number.
func (r *Registry) Define(kind, key string) (int, error) {
	if kind == "" || !keyPattern.MatchString(kind) {
		return 0, errors.LabelError("invalid label kind").WithContext("kind", kind).WithContext("key", key).Build()
	}
	if !keyPattern.MatchString(key) {
		return 0, errors.LabelError("invalid label key").WithContext("kind", kind).WithContext("key", key).Build()
	}
	if _, dup := r.index[indexKey(kind, key)]; dup {
		return 0, errors.LabelError("duplicate label").WithContext("kind", kind).WithContext("key", key).Build()
	}
	builtin := IsBuiltin(kind)
	if !builtin {
		if prev, dup := r.defs[key]; dup {
			return 0, errors.LabelError("duplicate definition label").
				WithContext("kind", kind).WithContext("key", key).
				WithContext("defined_as", r.entries[prev].Kind).Build()
		}
	}
	r.counters[kind]++
	n := r.counters[kind]
	r.entries = append(r.entries, Entry{Kind: kind, Key: key, Number: n, Lang: r.lang})
	r.index[indexKey(kind, key)] = len(r.entries) - 1
	if !builtin {
		r.defs[key] = len(r.entries) - 1
	}
	return n, nil
}

// Reference resolves a label of a known kind.
func (r *Registry) Reference(kind, key string) (Ref, error) {
	i, ok := r.index[indexKey(kind, key)]
	if !ok {
		return Ref{}, errors.LabelError("undefined label").WithContext("kind", kind).WithContext("key", key).Build()
	}
	e := r.entries[i]
	return Ref{Entry: e, Title: r.Title(e.Kind)}, nil
}

// Lookup finds a definition by key regardless of its type.
func (r *Registry) Lookup(key string) (Ref, error) {
	i, ok := r.defs[key]
	if !ok {
		return Ref{}, errors.LabelError("undefined definition").WithContext("key", key).Build()
	}
	e := r.entries[i]
	return Ref{Entry: e, Title: r.Title(e.Kind)}, nil
}

// Entries returns all labels in definition order.
func (r *Registry) Entries() []Entry {
	return slices.Clone(r.entries)
}

// ScanNative registers the section, equation and table attributes of text
// in document order.
func (r *Registry) ScanNative(text string) error {
	for _, m := range nativePattern.FindAllStringSubmatch(text, -1) {
		if _, err := r.Define(m[1], m[2]); err != nil {
			return err
		}
	}
	return nil
}

// Table maps kind to key to number.
func (r *Registry) Table() map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, e := range r.entries {
		if out[e.Kind] == nil {
			out[e.Kind] = make(map[string]int)
		}
		out[e.Kind][e.Key] = e.Number
	}
	return out
}

func indexKey(kind, key string) string { return kind + "\x00" + key }
