package build

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbuilder/internal/expand"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/manifest"
	"git.home.luguber.info/inful/bookbuilder/internal/markdown"
	"git.home.luguber.info/inful/bookbuilder/internal/observability"
)

// LabelsFile holds the label table of one language next to its document.
const LabelsFile = "labels.yaml"

// LanguageResult describes the files written by one language pass.
type LanguageResult struct {
	Lang lang.Descriptor
	// Dir is the absolute output directory of the language.
	Dir string
	// Document is the path of the expanded document relative to the output directory.
	Document    string
	Fingerprint string
	Sources     []string
	Labels      int
	Resources   []string
}

func (l LanguageResult) manifestEntry() manifest.Language {
	return manifest.Language{
		ID:          l.Lang.ID,
		Name:        l.Lang.Name,
		Locale:      l.Lang.Locale,
		Document:    l.Document,
		Fingerprint: l.Fingerprint,
		Sources:     l.Sources,
		Labels:      l.Labels,
		Resources:   l.Resources,
	}
}

// pass expands the book for language d and writes its outputs below out.
// Whatever a failing pass already wrote is removed again.
func (sess *session) pass(ctx context.Context, d lang.Descriptor, out string) (res LanguageResult, err error) {
	res = LanguageResult{Lang: d, Dir: filepath.Join(out, d.ID)}
	defer func() {
		if err != nil {
			discard(ctx, d, res.Dir, sess.name)
		}
	}()
	rootPath, err := sess.rootFor(d)
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryPath, "cannot resolve root document").WithContext("lang", d.ID).Build()
	}
	result, err := sess.expander(d).Expand(ctx, rootPath)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(res.Dir, 0o750); err != nil {
		return res, errors.FileSystemError("cannot create language directory").WithCause(err).WithContext("path", res.Dir).Build()
	}
	docPath := filepath.Join(res.Dir, sess.name+".md")
	if err := os.WriteFile(docPath, []byte(result.Text), 0o600); err != nil {
		return res, errors.FileSystemError("cannot write document").WithCause(err).WithContext("path", docPath).Build()
	}
	if err := writeLabels(filepath.Join(res.Dir, LabelsFile), result); err != nil {
		return res, err
	}
	for _, r := range result.Resources {
		if err := copyResource(r, res.Dir); err != nil {
			return res, err
		}
		res.Resources = append(res.Resources, r.Target)
	}
	warnBrokenLinks(ctx, result.Text, res.Dir)

	rel, _ := filepath.Rel(out, docPath)
	res.Document = filepath.ToSlash(rel)
	res.Fingerprint = manifest.Fingerprint(result.Text)
	for _, f := range result.Root.Files() {
		res.Sources = append(res.Sources, sess.relative(f))
	}
	res.Labels = len(result.Labels.Entries())
	observability.InfoContext(ctx, "Document written", logfields.Name(sess.name), logfields.Path(docPath),
		slog.Int("sources", len(res.Sources)), slog.Int("labels", res.Labels))
	return res, nil
}

// discard removes the outputs of a failed pass. Without a language id the
// pass shares the output root, so only its document and label table go.
func discard(ctx context.Context, d lang.Descriptor, dir, name string) {
	targets := []string{dir}
	if d.ID == "" {
		targets = []string{filepath.Join(dir, name+".md"), filepath.Join(dir, LabelsFile)}
	}
	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			observability.WarnContext(ctx, "Cannot remove output of failed pass", logfields.Path(t), logfields.Error(err))
		}
	}
}

func writeLabels(target string, result *expand.Result) error {
	data, err := yaml.Marshal(result.Labels.Table())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot encode label table").Build()
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return errors.FileSystemError("cannot write label table").WithCause(err).WithContext("path", target).Build()
	}
	return nil
}

// copyResource copies r to dir/<target>, decompressing gzip sources.
func copyResource(r expand.Resource, dir string) error {
	target := filepath.Join(dir, filepath.FromSlash(r.Target))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.FileSystemError("cannot create resource directory").WithCause(err).WithContext("path", target).Build()
	}
	src, err := os.Open(r.Source)
	if err != nil {
		return errors.FileSystemError("cannot open resource").WithCause(err).WithContext("path", r.Source).Build()
	}
	defer func() { _ = src.Close() }()

	var in io.Reader = src
	if r.Decompress {
		zr, err := gzip.NewReader(src)
		if err != nil {
			return errors.FileSystemError("cannot decompress resource").WithCause(err).WithContext("path", r.Source).Build()
		}
		defer func() { _ = zr.Close() }()
		in = zr
	}

	dst, err := os.Create(target)
	if err != nil {
		return errors.FileSystemError("cannot create resource").WithCause(err).WithContext("path", target).Build()
	}
	if _, err := io.Copy(dst, in); err != nil {
		_ = dst.Close()
		return errors.FileSystemError("cannot copy resource").WithCause(err).WithContext("path", r.Source).Build()
	}
	if err := dst.Close(); err != nil {
		return errors.FileSystemError("cannot write resource").WithCause(err).WithContext("path", target).Build()
	}
	return nil
}

// warnBrokenLinks logs local link targets that do not exist next to the
// written document. Links are not rewritten.
func warnBrokenLinks(ctx context.Context, text, dir string) {
	dests, err := markdown.LocalDestinations([]byte(text))
	if err != nil {
		observability.WarnContext(ctx, "Cannot parse document links", logfields.Error(err))
		return
	}
	var missing []string
	for _, d := range dests {
		clean := path.Clean(d)
		if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
			missing = append(missing, d)
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err != nil {
			missing = append(missing, d)
		}
	}
	sort.Strings(missing)
	for _, m := range missing {
		observability.WarnContext(ctx, "Link target not found in output", logfields.Path(m))
	}
}
