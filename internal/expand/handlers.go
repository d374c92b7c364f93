package expand

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/code"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/labels"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
)

func (e *Expander) input(ctx context.Context, raw string, node *Node) (string, error) {
	path, err := e.opts.Resolver.Resolve(node.Dir, raw, e.opts.Language)
	if err != nil {
		return "", err
	}
	child, text, err := e.expandFile(ctx, path, node.Depth+1)
	if err != nil {
		return "", err
	}
	node.Children = append(node.Children, child)
	return text, nil
}

// localCode handles \rel.code{label}{caption}{path}{lines}{labels}{args}.
func (e *Expander) localCode(args []string, node *Node) (string, error) {
	path, err := e.opts.Resolver.Resolve(node.Dir, args[2], e.opts.Language)
	if err != nil {
		return "", err
	}
	url := ""
	if snap, ok := e.projectCheckout(); ok {
		url = snap.FileURL(path)
	}
	return e.listing(path, url, args[0], args[1], args[3], args[4], args[5])
}

// gitCode handles \git.code{repo}{label}{caption}{path}{lines}{labels}{args}.
func (e *Expander) gitCode(ctx context.Context, args []string, _ *Node) (string, error) {
	if e.opts.Repositories == nil {
		return "", errors.RepositoryError("no repositories declared").
			WithContext("repository", strings.TrimSpace(args[0])).Build()
	}
	snap, err := e.opts.Repositories.GetFor(ctx, strings.TrimSpace(args[0]), e.opts.Language.ID())
	if err != nil {
		return "", err
	}
	path, err := pathres.ResolveInside(snap.Root, args[3])
	if err != nil {
		return "", err
	}
	return e.listing(path, snap.FileURL(path), args[1], args[2], args[4], args[5], args[6])
}

func (e *Expander) listing(path, url, label, caption, lines, lbls, args string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.FileSystemError("cannot read listing source").WithCause(err).WithContext("path", path).Build()
	}
	lang := code.DetectLanguage(path)
	body, err := code.Extract(string(raw), code.Request{Lines: lines, Labels: lbls, Args: args, Language: lang})
	if err != nil {
		ce, ok := errors.AsClassified(err)
		if ok {
			return "", ce.WithContextDefault("path", e.rel(path))
		}
		return "", err
	}
	label = strings.TrimSpace(label)
	if _, err := e.registry.Define(labels.KindListing, label); err != nil {
		return "", err
	}

	caption = strings.TrimSpace(caption)
	if caption != "" && !strings.ContainsAny(caption[len(caption)-1:], ".!?") {
		caption += "."
	}
	if url != "" {
		caption += " ([src](" + url + "))"
	}
	var b strings.Builder
	b.WriteString("Listing: ")
	b.WriteString(strings.TrimSpace(caption))
	b.WriteString("\n\n```{#")
	b.WriteString(labels.KindListing + ":" + label)
	if lang.Fence != "" {
		b.WriteString(" ." + lang.Fence)
	}
	b.WriteString(" .numberLines}\n")
	b.WriteString(body)
	b.WriteString("\n```")
	return b.String(), nil
}

// figure handles \rel.figure{label}{caption}{path}{args}.
func (e *Expander) figure(args []string, node *Node) (string, error) {
	path, err := e.opts.Resolver.Resolve(node.Dir, args[2], e.opts.Language)
	if err != nil {
		return "", err
	}
	target, err := e.opts.Resolver.Relative(path)
	if err != nil {
		return "", err
	}
	decompress := false
	if strings.EqualFold(filepath.Ext(target), ".svgz") {
		target = strings.TrimSuffix(target, filepath.Ext(target)) + ".svg"
		decompress = true
	}
	label := strings.TrimSpace(args[0])
	if _, err := e.registry.Define(labels.KindFigure, label); err != nil {
		return "", err
	}
	if !e.seenRes[target] {
		e.seenRes[target] = true
		e.res = append(e.res, Resource{Source: path, Target: target, Decompress: decompress})
	}

	attrs := "#" + labels.KindFigure + ":" + label
	if extra := strings.TrimSpace(args[3]); extra != "" {
		attrs += " " + extra
	}
	return "![" + strings.TrimSpace(args[1]) + "](" + target + "){" + attrs + "}", nil
}

// definition handles \definition{type}{label}{body}.
func (e *Expander) definition(args []string) (string, error) {
	typ := strings.TrimSpace(args[0])
	label := strings.TrimSpace(args[1])
	if typ == "" || labels.IsBuiltin(typ) {
		return "", errors.LabelError("invalid definition type").WithContext("kind", typ).WithContext("key", label).Build()
	}
	e.registry.SetTitle(typ, e.opts.Metadata.DefinitionTitle(e.opts.Language.ID(), typ))
	n, err := e.registry.Define(typ, label)
	if err != nil {
		return "", err
	}
	entry := labels.Entry{Kind: typ, Key: label, Number: n}
	return "[**" + e.registry.Title(typ) + " " + strconv.Itoa(n) + "**]{#" + entry.Anchor() + "}: " + strings.TrimSpace(args[2]), nil
}

func (e *Expander) definitionRef(label string, node *Node, line int) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errors.LabelError("empty definition reference").Build()
	}
	return e.refMarker(label, node.Path, line), nil
}

// checkoutOf is used by the repo.* meta keys.
func (e *Expander) checkoutOf() (git.Snapshot, error) {
	snap, ok := e.projectCheckout()
	if !ok {
		return git.Snapshot{}, errors.MetadataError("project is not inside a git checkout").
			WithContext("root", e.opts.Resolver.Root()).Build()
	}
	return snap, nil
}
