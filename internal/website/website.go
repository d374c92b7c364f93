// Package website renders the index page that links to the generated books.
package website

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/bookbuilder/internal/directive"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/markdown"
)

// Markers in the outer template.
const (
	BodyTag       = "{body}"
	FilesTagOpen  = `<div id="files">`
	FilesTagClose = "</div>"
)

// IndexName is the file name of the generated page.
const IndexName = "index.html"

// File is one generated file offered for download.
type File struct {
	// Path is relative to the output directory, slash separated.
	Path string
	Size int64
}

// Suffix returns the file name suffix without the leading dot, e.g. "md"
// or "tar.xz".
func (f File) Suffix() string {
	base := path.Base(f.Path)
	if strings.HasSuffix(base, ".tar.xz") {
		return "tar.xz"
	}
	return strings.TrimPrefix(path.Ext(base), ".")
}

// Language groups the files of one language pass.
type Language struct {
	ID    string
	Name  string
	Files []File
}

// MetaFunc answers \meta{key} in the templates.
type MetaFunc func(key string) (string, error)

// Page holds the inputs of one website build.
type Page struct {
	// Outer is the HTML template.
	Outer string
	// Body is Markdown spliced into Outer at {body}.
	Body      string
	Languages []Language
	Meta      MetaFunc
}

// Render produces the final HTML.
func Render(p Page) (string, error) {
	out := p.Outer
	if i := strings.Index(out, BodyTag); i >= 0 {
		rendered, err := markdown.RenderHTML([]byte(strings.TrimSpace(p.Body)), markdown.Options{GFM: true, Unsafe: true})
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out[:i]) + "\n" + strings.TrimSpace(string(rendered)) + "\n" + strings.TrimSpace(out[i+len(BodyTag):])
	}

	if open := strings.Index(out, FilesTagOpen); open >= 0 {
		end := strings.Index(out[open+len(FilesTagOpen):], FilesTagClose)
		if end < 0 {
			return "", errors.NewError(errors.CategoryValidation, "website template opens the file list but never closes it").
				WithContext("tag", FilesTagOpen).Build()
		}
		end += open + len(FilesTagOpen) + len(FilesTagClose)
		out = strings.TrimSpace(out[:open]) + FileList(p.Languages) + strings.TrimSpace(out[end:])
	}

	return expandMeta(out, p.Meta)
}

func expandMeta(text string, meta MetaFunc) (string, error) {
	return directive.Replace(text, func(inv directive.Invocation) (string, error) {
		if inv.Name != directive.Meta {
			return "", errors.DirectiveError("only \\meta is allowed in website templates").
				WithContext("directive", inv.Name).WithContext("line", inv.Line).Build()
		}
		if meta == nil {
			return "", errors.MetadataError("no metadata available").WithContext("key", inv.Args[0]).Build()
		}
		return meta(inv.Args[0])
	})
}

// FileList renders the download list. A second level groups the files by
// language when there is more than one language.
func FileList(langs []Language) string {
	var b strings.Builder
	nested := len(langs) > 1
	if nested {
		b.WriteString(`<ul class="langs">`)
	}
	for _, l := range langs {
		if nested {
			fmt.Fprintf(&b, `<li class="lang"><span class="lang-name">%s</span>`, html.EscapeString(l.Name))
		}
		b.WriteString(`<ul class="downloads">`)
		descs := descriptions(l.ID)
		for _, f := range l.Files {
			size := strings.ReplaceAll(humanize.IBytes(uint64(max(f.Size, 0))), " ", "&nbsp;")
			fmt.Fprintf(&b, `<li class="download"><span class="file"><a href="%s">%s</a>&nbsp;<span class="size">(%s)</span></span>`,
				html.EscapeString(f.Path), html.EscapeString(path.Base(f.Path)), size)
			if d, ok := descs[f.Suffix()]; ok {
				fmt.Fprintf(&b, `<br><span class="desc">%s</span>`, d)
			}
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
		if nested {
			b.WriteString("</li>")
		}
	}
	if nested {
		b.WriteString("</ul>")
	}
	return b.String()
}

// Build renders the page and writes it to <outDir>/index.html. An existing
// index is never overwritten.
func Build(outDir string, p Page) (string, error) {
	target := filepath.Join(outDir, IndexName)
	if _, err := os.Stat(target); err == nil {
		return "", errors.FileSystemError("website already exists").WithContext("path", target).Build()
	}
	page, err := Render(p)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, []byte(strings.TrimSpace(page)+"\n"), 0o600); err != nil {
		return "", errors.FileSystemError("cannot write website").WithCause(err).WithContext("path", target).Build()
	}
	slog.Info("Website written", logfields.Path(target), slog.Int("languages", len(p.Languages)))
	return target, nil
}

// Collect lists the regular files below outDir/<lang> for every language.
// The website itself and the slash separated paths in skip are left out.
func Collect(outDir string, langs []Language, skip ...string) ([]Language, error) {
	out := make([]Language, 0, len(langs))
	for _, l := range langs {
		dir := filepath.Join(outDir, l.ID)
		err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(outDir, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == IndexName || slices.Contains(skip, rel) {
				return nil
			}
			l.Files = append(l.Files, File{Path: rel, Size: info.Size()})
			return nil
		})
		if err != nil {
			return nil, errors.FileSystemError("cannot list generated files").WithCause(err).WithContext("path", dir).Build()
		}
		out = append(out, l)
	}
	return out, nil
}
