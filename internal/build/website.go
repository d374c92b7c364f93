package build

import (
	"context"
	"os"
	"path"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/manifest"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
	"git.home.luguber.info/inful/bookbuilder/internal/observability"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
	"git.home.luguber.info/inful/bookbuilder/internal/website"
)

// buildWebsite writes index.html when the default metadata names an outer
// template. It returns the page path, or "" when no website is configured.
func (sess *session) buildWebsite(ctx context.Context, out string, langs []LanguageResult) (string, error) {
	outer, err := sess.websiteFile(metadata.KeyWebsiteOuter)
	if err != nil || outer == "" {
		return "", err
	}
	body, err := sess.websiteFile(metadata.KeyWebsiteBody)
	if err != nil {
		return "", err
	}

	page := website.Page{Outer: outer, Body: body}
	var listed []website.Language
	skip := []string{manifest.FileName}
	for _, l := range langs {
		listed = append(listed, website.Language{ID: l.Lang.ID, Name: l.Lang.Name})
		skip = append(skip, path.Join(l.Lang.ID, LabelsFile))
	}
	if page.Languages, err = website.Collect(out, listed, skip...); err != nil {
		return "", err
	}
	page.Meta = sess.expander(sess.langs[0]).Meta

	observability.DebugContext(ctx, "Rendering website")
	return website.Build(out, page)
}

// websiteFile reads the template named by key, "" when the key is unset.
func (sess *session) websiteFile(key string) (string, error) {
	v, ok := sess.store.Get("", key)
	if !ok {
		return "", nil
	}
	name, ok := metadata.Format(v)
	if !ok || name == "" {
		return "", errors.MetadataError("website template must be a path").WithContext("key", key).Build()
	}
	p, err := pathres.ResolveInside(sess.root, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", errors.FileSystemError("cannot read website template").WithCause(err).WithContext("path", p).Build()
	}
	return string(data), nil
}
