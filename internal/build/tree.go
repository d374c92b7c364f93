package build

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/expand"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
)

// Preview is a language pass that was expanded but not written.
type Preview struct {
	*expand.Result
	// BookRoot is the absolute book root.
	BookRoot string
}

// Name returns p relative to the book root, for display.
func (p *Preview) Name(path string) string {
	rel, err := filepath.Rel(p.BookRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// Expand runs a single language pass without writing anything. An empty
// langID selects the first declared language.
func (s *Service) Expand(ctx context.Context, cfg *config.Config, langID string) (*Preview, error) {
	sess, err := s.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	d, err := sess.language(langID)
	if err != nil {
		return nil, err
	}
	rootPath, err := sess.rootFor(d)
	if err != nil {
		return nil, err
	}
	result, err := sess.expander(d).Expand(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	return &Preview{Result: result, BookRoot: sess.root}, nil
}

func (sess *session) language(id string) (lang.Descriptor, error) {
	if id == "" {
		return sess.langs[0], nil
	}
	for _, d := range sess.langs {
		if d.ID == id {
			return d, nil
		}
	}
	return lang.Descriptor{}, errors.ValidationError("language is not declared").WithContext("lang", id).Build()
}
