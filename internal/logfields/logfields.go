package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyLang       = "lang"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyDirective  = "directive"
	KeyLine       = "line"
	KeyDepth      = "depth"
	KeyRepo       = "repository"
	KeyURL        = "url"
	KeyName       = "name"
	KeyCommit     = "commit"
	KeyLabel      = "label"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Lang(id string) slog.Attr         { return slog.String(KeyLang, id) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Directive(name string) slog.Attr  { return slog.String(KeyDirective, name) }
func Line(n int) slog.Attr             { return slog.Int(KeyLine, n) }
func Depth(n int) slog.Attr            { return slog.Int(KeyDepth, n) }
func Repository(r string) slog.Attr    { return slog.String(KeyRepo, r) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func Commit(c string) slog.Attr        { return slog.String(KeyCommit, c) }
func Label(l string) slog.Attr         { return slog.String(KeyLabel, l) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Since(start time.Time) slog.Attr  { return DurationMS(float64(time.Since(start).Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
