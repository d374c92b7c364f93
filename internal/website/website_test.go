package website

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func meta(values map[string]string) MetaFunc {
	return func(key string) (string, error) {
		v, ok := values[key]
		if !ok {
			return "", errors.MetadataError("unknown metadata key").WithContext("key", key).Build()
		}
		return v, nil
	}
}

func TestRenderSubstitutesBodyAndFiles(t *testing.T) {
	page := Page{
		Outer: "<html><title>\\meta{title}</title>\n{body}\n</html>",
		Body:  "# \\meta{title}\n\nFiles:\n\n<div id=\"files\">placeholder</div>\n",
		Languages: []Language{
			{ID: "en", Name: "English", Files: []File{{Path: "en/book.md", Size: 1536}}},
		},
		Meta: meta(map[string]string{"title": "My Book"}),
	}

	got, err := Render(page)
	require.NoError(t, err)
	require.Contains(t, got, "<title>My Book</title>")
	require.Contains(t, got, "<h1>My Book</h1>")
	require.Contains(t, got, `<ul class="downloads"><li class="download"><span class="file"><a href="en/book.md">book.md</a>&nbsp;<span class="size">(1.5&nbsp;KiB)</span></span>`)
	require.Contains(t, got, "markdown</a></code> source of the book")
	require.NotContains(t, got, "placeholder")
	require.NotContains(t, got, `class="langs"`)
}

func TestFileListGroupsLanguages(t *testing.T) {
	got := FileList([]Language{
		{ID: "en", Name: "English", Files: []File{{Path: "en/book.pdf", Size: 10}}},
		{ID: "de", Name: "Deutsch", Files: []File{{Path: "de/book.pdf", Size: 10}}},
	})
	require.True(t, strings.HasPrefix(got, `<ul class="langs"><li class="lang"><span class="lang-name">English</span>`))
	require.Contains(t, got, "f&uuml;r das Lesen am PC")
	require.Contains(t, got, "most suitable for reading on a PC")
	require.True(t, strings.HasSuffix(got, "</ul></li></ul>"))
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(Page{Outer: `<div id="files">never closed`})
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = Render(Page{Outer: `\rel.input{x.md}`})
	require.True(t, errors.HasCategory(err, errors.CategoryDirective))

	_, err = Render(Page{Outer: `\meta{missing}`, Meta: meta(nil)})
	require.True(t, errors.HasCategory(err, errors.CategoryMetadata))
}

func TestFileSuffix(t *testing.T) {
	require.Equal(t, "tar.xz", File{Path: "en/book.tar.xz"}.Suffix())
	require.Equal(t, "md", File{Path: "en/book.md"}.Suffix())
	require.Equal(t, "", File{Path: "en/README"}.Suffix())
}

func TestCollectAndBuild(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "en", "img"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "en", "book.md"), []byte("# Book\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "en", "img", "a.png"), []byte("png"), 0o600))

	langs, err := Collect(out, []Language{{ID: "en", Name: "English"}})
	require.NoError(t, err)
	require.Equal(t, []File{{Path: "en/book.md", Size: 7}, {Path: "en/img/a.png", Size: 3}}, langs[0].Files)

	target, err := Build(out, Page{Outer: `<body><div id="files"></div></body>`, Languages: langs})
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(data), `<a href="en/img/a.png">a.png</a>`)

	_, err = Build(out, Page{Outer: "again"})
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}
