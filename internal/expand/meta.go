package expand

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
)

// Synthetic metadata keys answered by the expander itself.
const (
	MetaTime       = "time"
	MetaDate       = "date"
	MetaYear       = "year"
	MetaLang       = "lang"
	MetaLocale     = "locale"
	MetaLangName   = "lang.name"
	MetaRepoName   = "repo.name"
	MetaRepoURL    = "repo.url"
	MetaRepoCommit = "repo.commit"
	MetaRepoDate   = "repo.date"
)

const timeLayout = "2006-01-02 15:04"

// FormatTime renders t the way \meta{time} does, e.g. "2024-03-01 14:05 UTC+0100".
func FormatTime(t time.Time) string {
	return t.Format(timeLayout) + " UTC" + t.Format("-0700")
}

// Meta answers \meta{key} outside a document, e.g. for website templates.
func (e *Expander) Meta(key string) (string, error) { return e.meta(key) }

// meta handles \meta{key}.
func (e *Expander) meta(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.MetadataError("empty metadata key").Build()
	}
	if v, ok, err := e.synthetic(key); ok || err != nil {
		return v, err
	}
	return e.opts.Metadata.String(e.opts.Language.ID(), key)
}

func (e *Expander) synthetic(key string) (string, bool, error) {
	lc := e.opts.Language
	switch key {
	case MetaTime:
		return FormatTime(e.opts.Now), true, nil
	case MetaDate:
		return e.opts.Now.Format(time.DateOnly), true, nil
	case MetaYear:
		return e.opts.Now.Format("2006"), true, nil
	case MetaLang, MetaLocale, MetaLangName:
		if lc.ID() == "" {
			return "", true, errors.MetadataError("no language is active").WithContext("key", key).Build()
		}
		switch key {
		case MetaLang:
			return lc.ID(), true, nil
		case MetaLocale:
			return lc.Active.Locale, true, nil
		default:
			return lc.Active.Name, true, nil
		}
	case MetaRepoName, MetaRepoURL, MetaRepoCommit, MetaRepoDate:
		snap, err := e.checkoutOf()
		if err != nil {
			return "", true, err
		}
		return repoField(snap, key), true, nil
	}
	return "", false, nil
}

func repoField(snap git.Snapshot, key string) string {
	switch key {
	case MetaRepoName:
		return snap.Name()
	case MetaRepoURL:
		return snap.BaseURL()
	case MetaRepoCommit:
		return snap.Commit
	default:
		return FormatTime(snap.Date)
	}
}
