package expand

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
	"git.home.luguber.info/inful/bookbuilder/internal/repocache"
)

var buildTime = time.Date(2024, 3, 1, 14, 5, 0, 0, time.FixedZone("CET", 3600))

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

type fixture struct {
	root  string
	store *metadata.Store
	repos *repocache.Cache
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	return &fixture{root: root, store: metadata.NewStore()}
}

func (f *fixture) expand(t *testing.T, lc lang.Context) (*Result, error) {
	t.Helper()
	r, err := pathres.New(f.root)
	require.NoError(t, err)
	e := New(Options{
		Resolver:     r,
		Metadata:     f.store,
		Repositories: f.repos,
		Language:     lc,
		Now:          buildTime,
	})
	return e.Expand(context.Background(), filepath.Join(f.root, "book.md"))
}

func english() lang.Context { return lang.NewContext(lang.NewDescriptor("en", ""), 1) }

func TestExpandInlinesNestedInputs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md":         "# Book\n\n\\rel.input{chapters/one.md}\n\nThe end.\n",
		"chapters/one.md": "One starts.\n\n\\rel.input{two.md}\n",
		"chapters/two.md": "Two.\n",
	})

	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Equal(t, "# Book\n\nOne starts.\n\nTwo.\n\nThe end.\n", res.Text)
	require.NotContains(t, res.Text, `\rel`)
	require.Equal(t, "en", res.Lang)

	files := res.Root.Files()
	require.Len(t, files, 3)
	require.Equal(t, filepath.Join(f.root, "chapters", "two.md"), res.Root.Children[0].Children[0].Path)
	require.Equal(t, 2, res.Root.Children[0].Children[0].Depth)

	tree := res.Root.Tree(filepath.Base).Print()
	require.Contains(t, tree, "book.md")
	require.Contains(t, tree, "two.md")
}

func TestExpandDetectsCycles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"self", map[string]string{"book.md": "\\rel.input{book.md}\n"}},
		{"two", map[string]string{
			"book.md": "\\rel.input{a.md}\n",
			"a.md":    "\\rel.input{book.md}\n",
		}},
		{"three", map[string]string{
			"book.md":  "\\rel.input{a.md}\n",
			"a.md":     "\\rel.input{sub/b.md}\n",
			"sub/b.md": "\\rel.input{../a.md}\n",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.files)
			_, err := f.expand(t, english())
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryInclusion), err.Error())
		})
	}
}

func TestRepeatedInclusionIsNotACycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md": "\\rel.input{a.md}\n\n\\rel.input{a.md}\n",
		"a.md":    "A\n",
	})
	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Equal(t, "A\n\nA\n", res.Text)
}

func TestErrorsCarryLocation(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md": "# Book\n\nText\n\\rel.input{missing.md}\n",
	})
	_, err := f.expand(t, english())
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryPath, ce.Category())
	require.Equal(t, "book.md", ce.Context()["file"])
	require.Equal(t, 4, ce.Context()["line"])
	require.Equal(t, "rel.input", ce.Context()["directive"])
	require.Equal(t, "en", ce.Context()["lang"])
}

func TestLocalCodeListing(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md":  "Intro\n\\rel.code{l1}{Hello}{src/x.py}{2}{}{}\nOutro\n",
		"src/x.py": "x = 1\ny = 2\n",
	})
	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Equal(t, "Intro\n\nListing: Hello.\n\n```{#lst:l1 .python .numberLines}\ny = 2\n```\n\nOutro\n", res.Text)
	require.Equal(t, map[string]int{"l1": 1}, res.Labels.Table()["lst"])
}

func TestDuplicateListingLabel(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md": "\\rel.code{l}{A}{x.txt}{}{}{}\n\n\\relative.code{l}{B}{x.txt}{}{}{}\n",
		"x.txt":   "hello\n",
	})
	_, err := f.expand(t, english())
	require.True(t, errors.HasCategory(err, errors.CategoryLabel))
}

type staticFetcher struct{ snap git.Snapshot }

func (s staticFetcher) Fetch(context.Context, string, string) (git.Snapshot, error) { return s.snap, nil }

func TestGitCodeListingLinksSource(t *testing.T) {
	repoDir := t.TempDir()
	writeFiles(t, repoDir, map[string]string{"pkg/main.go": "package main\n\nfunc main() {}\n"})
	f := newFixture(t, map[string]string{
		"book.md": "\\git.code{lib}{main}{Entry point!}{pkg/main.go}{3}{}{}\n",
	})
	f.repos = repocache.New(staticFetcher{git.Snapshot{Root: repoDir, URL: "git@github.com:acme/lib.git", Commit: "abc123"}},
		[]repocache.Reference{{Mnemonic: "lib", URL: "https://github.com/acme/lib"}})

	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Contains(t, res.Text, "Listing: Entry point! ([src](https://github.com/acme/lib/blob/abc123/pkg/main.go))\n\n```{#lst:main .go .numberLines}\nfunc main() {}\n```")
}

func TestGitCodeUnknownRepository(t *testing.T) {
	f := newFixture(t, map[string]string{"book.md": "\\git.code{nope}{m}{c}{a.go}{}{}{}\n"})
	f.repos = repocache.New(staticFetcher{}, nil)
	_, err := f.expand(t, english())
	require.True(t, errors.HasCategory(err, errors.CategoryRepository))
}

func TestFigureRecordsResources(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md":       "\\rel.figure{arch}{The architecture}{img/arch.svgz}{width=80%}\n\n\\rel.figure{logo}{Logo}{img/logo.png}{}\n",
		"img/arch.svgz": "compressed",
		"img/logo.png":  "png",
	})
	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Contains(t, res.Text, "![The architecture](img/arch.svg){#fig:arch width=80%}")
	require.Contains(t, res.Text, "![Logo](img/logo.png){#fig:logo}")
	require.Equal(t, []Resource{
		{Source: filepath.Join(f.root, "img", "arch.svgz"), Target: "img/arch.svg", Decompress: true},
		{Source: filepath.Join(f.root, "img", "logo.png"), Target: "img/logo.png"},
	}, res.Resources)
	require.Equal(t, map[string]int{"arch": 1, "logo": 2}, res.Labels.Table()["fig"])
}

func TestDefinitionsAndForwardReferences(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md": "---\ntheoremTitle: Satz\n...\n\nSee \\def.ref{pyth}.\n\n" +
			"\\definition{theorem}{pyth}{$a^2+b^2=c^2$}\n\n\\definition{lemma}{small}{Trivial.}\n",
	})
	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Contains(t, res.Text, "See [Satz 1](#def:pyth).")
	require.Contains(t, res.Text, "[**Satz 1**]{#def:pyth}: $a^2+b^2=c^2$")
	require.Contains(t, res.Text, "[**Lemma 1**]{#def:small}: Trivial.")
}

func TestUndefinedReference(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md":         "# Book\n\n\\rel.input{chapters/one.md}\n",
		"chapters/one.md": "\\definition{def}{known}{Known.}\n\nSee \\def.ref{known}.\n\nSee \\def.ref{ghost}.\n",
	})
	_, err := f.expand(t, english())
	require.True(t, errors.HasCategory(err, errors.CategoryLabel))

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "chapters/one.md", ce.Context()["file"])
	require.Equal(t, 5, ce.Context()["line"])
	require.Equal(t, "def.ref", ce.Context()["directive"])
	require.Equal(t, "en", ce.Context()["lang"])
	require.Equal(t, "ghost", ce.Context()["key"])
}

func TestNativeLabelsAreRegistered(t *testing.T) {
	f := newFixture(t, map[string]string{"book.md": "# Intro {#sec:intro}\n\n$$x$$ {#eq:x}\n"})
	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.Equal(t, 1, res.Labels.Table()["sec"]["intro"])
	require.Equal(t, 1, res.Labels.Table()["eq"]["x"])
}

func TestMetaValues(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md": "---\ntitle: \\meta{lang} ignored\nauthor: Jane\n...\n\n" +
			"\\meta{author}|\\meta{date}|\\meta{year}|\\meta{time}|\\meta{lang}|\\meta{locale}|\\meta{lang.name}\n",
	})
	f.store.SetBase(metadata.Layer{"title": "Base"})
	res, err := f.expand(t, lang.NewContext(lang.NewDescriptor("de", ""), 2))
	require.NoError(t, err)
	require.Contains(t, res.Text, "Jane|2024-03-01|2024|2024-03-01 14:05 UTC+0100|de|de_DE|Deutsch\n")

	title, err := f.store.String("de", "title")
	require.NoError(t, err)
	require.Equal(t, "Base", title)
}

func TestMetaErrors(t *testing.T) {
	for _, key := range []string{"unknown", "repo.name"} {
		t.Run(key, func(t *testing.T) {
			f := newFixture(t, map[string]string{"book.md": "\\meta{" + key + "}\n"})
			_, err := f.expand(t, english())
			require.True(t, errors.HasCategory(err, errors.CategoryMetadata), "%v", err)
		})
	}
}

func initCheckout(t *testing.T, root string) string {
	t.Helper()
	repo, err := gogit.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	hash, err := wt.Commit("book", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.org", When: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"https://github.com/acme/book.git"}})
	require.NoError(t, err)
	return hash.String()
}

func TestRepositoryMetaInsideCheckout(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md":  "\\meta{repo.name} \\meta{repo.url} \\meta{repo.date}\n\n\\rel.code{x}{X}{src/x.sh}{}{}{}\n",
		"src/x.sh": "echo hi\n",
	})
	commit := initCheckout(t, f.root)

	res, err := f.expand(t, english())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.Text, "acme/book https://github.com/acme/book 2024-05-01 12:00 UTC+0000\n"))
	require.Contains(t, res.Text, "Listing: X. ([src](https://github.com/acme/book/blob/"+commit+"/src/x.sh))")
}

func TestLanguagePassesNumberIndependently(t *testing.T) {
	f := newFixture(t, map[string]string{
		"book.md":       "\\rel.input{chapter.md}\n",
		"chapter.md":    "\\definition{theorem}{a}{A}\n\n\\definition{theorem}{b}{B}\n\n\\def.ref{b}\n",
		"chapter_de.md": "\\definition{theorem}{b}{B}\n\n\\def.ref{b}\n",
	})
	en, err := f.expand(t, lang.NewContext(lang.NewDescriptor("en", ""), 2))
	require.NoError(t, err)
	de, err := f.expand(t, lang.NewContext(lang.NewDescriptor("de", ""), 2))
	require.NoError(t, err)

	require.Equal(t, 2, en.Labels.Table()["theorem"]["b"])
	require.Equal(t, 1, de.Labels.Table()["theorem"]["b"])
	require.Contains(t, en.Text, "[Theorem 2](#def:b)")
	require.Contains(t, de.Text, "[Theorem 1](#def:b)")
}
