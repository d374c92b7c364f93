package metadata

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
)

// Recognised keys.
const (
	KeyLanguages    = "langs"
	KeyRepositories = "repos"
	KeyTitle        = "title"
	KeyAuthor       = "author"
	KeyKeywords     = "keywords"
	KeyDate         = "date"
	KeyBibliography = "bibliography"
	KeyCSL          = "csl"
	KeyWebsiteOuter = "website_outer"
	KeyWebsiteBody  = "website_body"
)

// Repository is an entry of the repos list.
type Repository struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// Store holds the default layer and one layer per language. Within a layer
// the first value written for a key wins.
type Store struct {
	mu    sync.RWMutex
	base  Layer
	langs map[string]Layer
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{base: Layer{}, langs: make(map[string]Layer)}
}

// SetBase replaces the default layer.
func (s *Store) SetBase(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = Layer(deepCloneMap(l))
}

// Merge adds keys of l that are not set yet to the layer of language id.
// An empty id merges into the default layer.
func (s *Store) Merge(id string, l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		mergeFirstWins(s.base, l)
		return
	}
	dst, ok := s.langs[id]
	if !ok {
		dst = Layer{}
		s.langs[id] = dst
	}
	mergeFirstWins(dst, l)
}

// Layer returns a copy of the layer of language id.
func (s *Store) Layer(id string) Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == "" {
		return clone(s.base)
	}
	return clone(s.langs[id])
}

func mergeFirstWins(dst, src Layer) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = deepClone(v)
			continue
		}
		em, eok := asMap(existing)
		sm, sok := asMap(v)
		if eok && sok {
			mergeFirstWins(em, sm)
			dst[k] = em
		}
	}
}

func asMap(v any) (Layer, bool) {
	switch m := v.(type) {
	case Layer:
		return m, true
	case map[string]any:
		return Layer(m), true
	}
	return nil, false
}

func deepClone(v any) any {
	switch x := v.(type) {
	case Layer:
		return Layer(deepCloneMap(x))
	case map[string]any:
		return deepCloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepClone(e)
		}
		return out
	}
	return v
}

func deepCloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepClone(v)
	}
	return out
}

func clone(l Layer) Layer {
	out := make(Layer, len(l))
	maps.Copy(out, l)
	return out
}

// Get looks key up in the language layer, then in the default layer. Dotted
// keys descend into nested maps.
func (s *Store) Get(id, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id != "" {
		if v, ok := lookup(s.langs[id], key); ok {
			return v, true
		}
	}
	return lookup(s.base, key)
}

func lookup(l Layer, key string) (any, bool) {
	if l == nil {
		return nil, false
	}
	if v, ok := l[key]; ok {
		return v, true
	}
	parts := strings.Split(key, ".")
	var cur any = l
	for _, p := range parts {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns a scalar or list value formatted as text.
func (s *Store) String(id, key string) (string, error) {
	v, ok := s.Get(id, key)
	if !ok {
		return "", errors.MetadataError("unknown metadata key").WithContext("key", key).WithContext("lang", id).Build()
	}
	str, ok := Format(v)
	if !ok {
		return "", errors.MetadataError("metadata value is not a scalar").WithContext("key", key).WithContext("lang", id).Build()
	}
	return str, nil
}

// Format renders scalar values and lists of scalars.
func Format(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case time.Time:
		return x.Format(time.DateOnly), true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(x), true
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			p, ok := Format(e)
			if !ok {
				return "", false
			}
			parts = append(parts, p)
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

// decode converts a generic YAML value into a typed one.
func decode(v any, out any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, out)
}

// Languages returns the languages declared in the default layer.
func (s *Store) Languages() ([]lang.Descriptor, error) {
	s.mu.RLock()
	v, ok := s.base[KeyLanguages]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var decl []lang.Descriptor
	if err := decode(v, &decl); err != nil {
		return nil, errors.MetadataError("invalid language list").WithCause(err).WithContext("key", KeyLanguages).Build()
	}
	seen := make(map[string]bool, len(decl))
	out := make([]lang.Descriptor, 0, len(decl))
	for _, d := range decl {
		if strings.TrimSpace(d.ID) == "" {
			return nil, errors.MetadataError("language without id").WithContext("key", KeyLanguages).Build()
		}
		if seen[d.ID] {
			return nil, errors.MetadataError("duplicate language").WithContext("lang", d.ID).Build()
		}
		seen[d.ID] = true
		out = append(out, lang.NewDescriptor(d.ID, d.Name))
	}
	return out, nil
}

// Repositories returns the declared repositories for language id. Entries of
// the language layer override entries of the default layer with the same id.
func (s *Store) Repositories(id string) ([]Repository, error) {
	s.mu.RLock()
	baseV := s.base[KeyRepositories]
	var langV any
	if id != "" && s.langs[id] != nil {
		langV = s.langs[id][KeyRepositories]
	}
	s.mu.RUnlock()

	var base, override []Repository
	if baseV != nil {
		if err := decode(baseV, &base); err != nil {
			return nil, errors.MetadataError("invalid repository list").WithCause(err).Build()
		}
	}
	if langV != nil {
		if err := decode(langV, &override); err != nil {
			return nil, errors.MetadataError("invalid repository list").WithCause(err).WithContext("lang", id).Build()
		}
	}

	index := make(map[string]int)
	var out []Repository
	for _, r := range append(base, override...) {
		if r.ID == "" || r.URL == "" {
			return nil, errors.MetadataError("repository needs id and url").WithContext("id", r.ID).Build()
		}
		if i, ok := index[r.ID]; ok {
			out[i] = r
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out, nil
}

// DefinitionTitle returns the display title of a definition type, taken from
// the "<type>Title" key or derived from the type name.
func (s *Store) DefinitionTitle(id, typ string) string {
	if v, ok := s.Get(id, typ+"Title"); ok {
		if str, ok := Format(v); ok && str != "" {
			return str
		}
	}
	return cases.Title(language.Und).String(typ)
}
