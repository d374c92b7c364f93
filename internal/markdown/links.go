package markdown

import (
	"net/url"
	"strings"
)

// Options controls how Markdown is parsed and rendered.
type Options struct {
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
	// Unsafe keeps raw HTML in rendered output.
	Unsafe bool
}

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// IsLocal reports whether the destination points at a file next to the
// document rather than at a URL or an anchor.
func (l Link) IsLocal() bool {
	d := strings.TrimSpace(l.Destination)
	if d == "" || strings.HasPrefix(d, "#") || strings.HasPrefix(d, "//") {
		return false
	}
	u, err := url.Parse(d)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// Path returns the destination without query or fragment.
func (l Link) Path() string {
	d := strings.TrimSpace(l.Destination)
	if i := strings.IndexAny(d, "?#"); i >= 0 {
		d = d[:i]
	}
	if p, err := url.PathUnescape(d); err == nil {
		return p
	}
	return d
}
