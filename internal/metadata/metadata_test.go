package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
)

func TestParseBlockDelimiters(t *testing.T) {
	l, found, err := ParseBlock("\n---\ntitle: Book\nauthor: Ann\n...\n\n# Text\n")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Book", l["title"])

	l, found, err = ParseBlock("---\ntitle: Other\n---\nbody\n")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Other", l["title"])

	_, found, err = ParseBlock("# No metadata\n")
	require.NoError(t, err)
	require.False(t, found)
}

func TestParseBlockDropsMetaLines(t *testing.T) {
	l, found, err := ParseBlock("---\ntitle: Book\nsubtitle: \\meta{title} again\n...\n")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, Layer{"title": "Book"}, l)
}

func TestParseBlockInvalidYAML(t *testing.T) {
	_, _, err := ParseBlock("---\ntitle: [unclosed\n...\n")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryMetadata))
}

func TestStoreLayering(t *testing.T) {
	s := NewStore()
	s.SetBase(Layer{"title": "Book", "nested": map[string]any{"a": "1"}})
	s.Merge("de", Layer{"title": "Buch"})
	s.Merge("de", Layer{"title": "ignored", "extra": 3})
	s.Merge("", Layer{"title": "ignored", "nested": map[string]any{"a": "x", "b": "2"}})

	v, ok := s.Get("de", "title")
	require.True(t, ok)
	require.Equal(t, "Buch", v)

	v, ok = s.Get("en", "title")
	require.True(t, ok)
	require.Equal(t, "Book", v)

	str, err := s.String("de", "nested.a")
	require.NoError(t, err)
	require.Equal(t, "1", str)
	str, err = s.String("de", "nested.b")
	require.NoError(t, err)
	require.Equal(t, "2", str)
	str, err = s.String("de", "extra")
	require.NoError(t, err)
	require.Equal(t, "3", str)

	_, err = s.String("en", "missing")
	require.True(t, errors.HasCategory(err, errors.CategoryMetadata))
	_, err = s.String("en", "nested")
	require.True(t, errors.HasCategory(err, errors.CategoryMetadata))
}

func TestLanguagesAndRepositories(t *testing.T) {
	l, _, err := ParseBlock(`---
langs:
  - id: en
    name: English
  - id: de
repos:
  - id: bp
    url: https://github.com/example/bp.git
  - id: other
    url: https://github.com/example/other.git
...
`)
	require.NoError(t, err)
	s := NewStore()
	s.SetBase(l)
	s.Merge("de", Layer{"repos": []any{map[string]any{"id": "bp", "url": "https://github.com/example/bp-de.git"}}})

	langs, err := s.Languages()
	require.NoError(t, err)
	require.Len(t, langs, 2)
	require.Equal(t, "English", langs[0].Name)
	require.Equal(t, "de", langs[1].ID)
	require.Equal(t, "Deutsch", langs[1].Name)
	require.Equal(t, "de_DE", langs[1].Locale)

	repos, err := s.Repositories("en")
	require.NoError(t, err)
	require.Equal(t, []Repository{
		{ID: "bp", URL: "https://github.com/example/bp.git"},
		{ID: "other", URL: "https://github.com/example/other.git"},
	}, repos)

	repos, err = s.Repositories("de")
	require.NoError(t, err)
	require.Equal(t, "https://github.com/example/bp-de.git", repos[0].URL)
	require.Len(t, repos, 2)
}

func TestDefinitionTitle(t *testing.T) {
	s := NewStore()
	s.Merge("de", Layer{"theoremTitle": "Satz"})
	require.Equal(t, "Satz", s.DefinitionTitle("de", "theorem"))
	require.Equal(t, "Theorem", s.DefinitionTitle("en", "theorem"))
}

func TestLoadInitialResolvesFirstInputOnly(t *testing.T) {
	root := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o600))
	}
	write("book.md", "\\rel.input{meta.md}\n\n\\rel.input{missing.md}\n")
	write("meta.md", "---\ntitle: Plain\n...\n")
	write("meta_de.md", "---\ntitle: Deutsch\n...\n")

	r, err := pathres.New(root)
	require.NoError(t, err)
	rootDoc := filepath.Join(r.Root(), "book.md")

	l, err := LoadInitial(r, rootDoc, lang.Context{})
	require.NoError(t, err)
	require.Equal(t, "Plain", l["title"])

	de := lang.NewContext(lang.NewDescriptor("de", ""), 2)
	l, err = LoadInitial(r, rootDoc, de)
	require.NoError(t, err)
	require.Equal(t, "Deutsch", l["title"])
}
