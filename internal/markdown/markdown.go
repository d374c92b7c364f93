// Package markdown wraps goldmark for the two things the build needs from a
// Markdown parser: rendering website bodies and listing link destinations.
package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func newGoldmark(opts Options) goldmark.Markdown {
	var gopts []goldmark.Option
	if opts.GFM {
		gopts = append(gopts, goldmark.WithExtensions(extension.GFM))
	}
	if opts.Unsafe {
		gopts = append(gopts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return goldmark.New(gopts...)
}

// RenderHTML converts a Markdown body to an HTML fragment.
func RenderHTML(body []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := newGoldmark(opts).Convert(body, &buf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryBuild, "cannot render markdown").Build()
	}
	return buf.Bytes(), nil
}

// ExtractLinks parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte, opts Options) ([]Link, error) {
	md := newGoldmark(opts)
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Reference-style links arrive here already resolved.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not in the AST.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links, nil
}

// LocalDestinations returns the distinct file paths the body links to, in
// order of first appearance.
func LocalDestinations(body []byte) ([]string, error) {
	links, err := ExtractLinks(body, Options{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		if !l.IsLocal() {
			continue
		}
		p := l.Path()
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
