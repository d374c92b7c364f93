// Package expand turns a root markdown document and everything it includes
// into a single document for one language, replacing every directive.
package expand

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/directive"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/labels"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
	"git.home.luguber.info/inful/bookbuilder/internal/repocache"
)

// Options wire an Expander to the shared services of a build.
type Options struct {
	Resolver *pathres.Resolver
	Metadata *metadata.Store
	// Repositories serves \git.code; nil means no repository is declared.
	Repositories *repocache.Cache
	Language     lang.Context
	Recorder     metrics.Recorder
	// Now is the build start time used by \meta{date} and friends.
	Now time.Time
}

// Resource is a file referenced by the document that must be copied next to it.
type Resource struct {
	Source string
	// Target is the slash separated path the document refers to.
	Target string
	// Decompress is set for gzip compressed sources such as .svgz.
	Decompress bool
}

// Result is the outcome of one language pass.
type Result struct {
	Lang      string
	Text      string
	Root      *Node
	Labels    *labels.Registry
	Resources []Resource
}

// Expander performs one language pass. It is not safe for concurrent use;
// every pass gets its own.
type Expander struct {
	opts     Options
	registry *labels.Registry
	chain    []string
	res      []Resource
	seenRes  map[string]bool
	refs     []pendingRef

	checkout     git.Snapshot
	hasCheckout  bool
	checkoutDone bool
}

// New creates an expander for one pass.
func New(opts Options) *Expander {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Metadata == nil {
		opts.Metadata = metadata.NewStore()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Expander{
		opts:     opts,
		registry: labels.New(opts.Language.ID()),
		seenRes:  make(map[string]bool),
	}
}

// Expand expands rootPath and everything it includes.
func (e *Expander) Expand(ctx context.Context, rootPath string) (*Result, error) {
	start := time.Now()
	root, text, err := e.expandFile(ctx, rootPath, 0)
	if err == nil {
		text, err = e.resolveReferences(text)
	}
	if err == nil {
		err = e.registry.ScanNative(text)
	}
	e.opts.Recorder.ObservePassDuration(e.opts.Language.ID(), time.Since(start), err == nil)
	if err != nil {
		return nil, e.withLang(err)
	}
	slog.Debug("Language pass expanded", logfields.Lang(e.opts.Language.ID()), logfields.Since(start))
	return &Result{
		Lang:      e.opts.Language.ID(),
		Text:      text,
		Root:      root,
		Labels:    e.registry,
		Resources: slices.Clone(e.res),
	}, nil
}

func (e *Expander) withLang(err error) error {
	ce, ok := errors.AsClassified(err)
	if !ok {
		return errors.WrapError(err, errors.CategoryInternal, "expansion failed").
			WithContext("lang", e.opts.Language.ID()).Build()
	}
	return ce.WithContextDefault("lang", e.opts.Language.ID())
}

// expandFile reads, registers and expands one document.
func (e *Expander) expandFile(ctx context.Context, path string, depth int) (*Node, string, error) {
	if slices.Contains(e.chain, path) {
		cycle := make([]string, 0, len(e.chain)+1)
		for _, p := range append(slices.Clone(e.chain), path) {
			cycle = append(cycle, e.rel(p))
		}
		return nil, "", errors.InclusionError("inclusion cycle").
			WithContext("file", e.rel(path)).
			WithContext("chain", strings.Join(cycle, " -> ")).Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryBuild, "expansion cancelled").Build()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.FileSystemError("cannot read document").WithCause(err).WithContext("file", e.rel(path)).Build()
	}
	text := string(raw)
	if layer, found, err := metadata.ParseBlock(text); err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryMetadata, "invalid metadata block").
			WithContext("file", e.rel(path)).Build()
	} else if found {
		e.opts.Metadata.Merge(e.opts.Language.ID(), layer)
	}

	slog.Debug("Expanding document", logfields.Path(e.rel(path)), logfields.Depth(depth), logfields.Lang(e.opts.Language.ID()))
	node := &Node{Path: path, Dir: pathres.Dir(path), Depth: depth}
	e.chain = append(e.chain, path)
	defer func() { e.chain = e.chain[:len(e.chain)-1] }()

	out, err := e.expandText(ctx, text, node, 0)
	if err != nil {
		return nil, "", err
	}
	return node, out, nil
}

// expandText replaces the directives of text, which belongs to node. lineBase
// is added to line numbers so errors in arguments point into the file.
func (e *Expander) expandText(ctx context.Context, text string, node *Node, lineBase int) (string, error) {
	return directive.Replace(text, func(inv directive.Invocation) (string, error) {
		line := lineBase + inv.Line
		args := make([]string, len(inv.Args))
		for i, a := range inv.Args {
			expanded, err := e.expandText(ctx, a, node, line-1)
			if err != nil {
				return "", err
			}
			args[i] = expanded
		}
		out, err := e.dispatch(ctx, inv.Name, args, node, line)
		if err != nil {
			slog.Debug("Directive failed", logfields.Directive(inv.Name), logfields.File(e.rel(node.Path)),
				logfields.Line(line), logfields.Error(err))
			return "", e.annotate(err, node.Path, inv.Name, line)
		}
		e.opts.Recorder.IncDirective(inv.Name)
		return out, nil
	})
}

func (e *Expander) annotate(err error, file, name string, line int) error {
	ce, ok := errors.AsClassified(err)
	if !ok {
		ce = errors.WrapError(err, errors.CategoryInternal, "directive failed").Build()
	}
	return ce.WithContextDefault(logfields.KeyFile, e.rel(file)).
		WithContextDefault(logfields.KeyLine, line).
		WithContextDefault(logfields.KeyDirective, name)
}

func (e *Expander) dispatch(ctx context.Context, name string, args []string, node *Node, line int) (string, error) {
	switch name {
	case directive.RelInput:
		return e.input(ctx, args[0], node)
	case directive.RelCode, directive.RelativeCode:
		return e.localCode(args, node)
	case directive.GitCode:
		return e.gitCode(ctx, args, node)
	case directive.RelFigure:
		return e.figure(args, node)
	case directive.Definition:
		return e.definition(args)
	case directive.DefinitionRef:
		return e.definitionRef(args[0], node, line)
	case directive.Meta:
		return e.meta(args[0])
	}
	return "", errors.DirectiveError("unsupported directive").WithContext("directive", name).Build()
}

func (e *Expander) rel(path string) string {
	if e.opts.Resolver == nil {
		return path
	}
	if r, err := e.opts.Resolver.Relative(path); err == nil {
		return r
	}
	return path
}

// projectCheckout returns the checkout holding the project root, if any.
func (e *Expander) projectCheckout() (git.Snapshot, bool) {
	if !e.checkoutDone {
		e.checkoutDone = true
		snap, ok, err := git.Detect(e.opts.Resolver.Root())
		if err != nil {
			slog.Warn("Cannot inspect project checkout", logfields.Path(e.opts.Resolver.Root()), logfields.Error(err))
		}
		e.checkout, e.hasCheckout = snap, ok && err == nil
	}
	return e.checkout, e.hasCheckout
}

// pendingRef is a \def.ref waiting for the whole tree to be expanded.
type pendingRef struct {
	label string
	file  string
	line  int
}

var refPlaceholder = regexp.MustCompile("\uE000([0-9]+)\uE001")

// refMarker records a reference and returns the placeholder standing in for it.
func (e *Expander) refMarker(label, file string, line int) string {
	e.refs = append(e.refs, pendingRef{label: label, file: file, line: line})
	return "\uE000" + strconv.Itoa(len(e.refs)-1) + "\uE001"
}

// resolveReferences replaces the \def.ref markers once all definitions are
// known. An undefined label is reported at the directive that used it.
func (e *Expander) resolveReferences(text string) (string, error) {
	var firstErr error
	out := refPlaceholder.ReplaceAllStringFunc(text, func(m string) string {
		idx, _ := strconv.Atoi(refPlaceholder.FindStringSubmatch(m)[1])
		ref := e.refs[idx]
		entry, err := e.registry.Lookup(ref.label)
		if err != nil {
			if firstErr == nil {
				slog.Debug("Undefined reference", logfields.Label(ref.label), logfields.File(e.rel(ref.file)), logfields.Line(ref.line))
				firstErr = e.annotate(err, ref.file, directive.DefinitionRef, ref.line)
			}
			return m
		}
		return entry.String()
	})
	return out, firstErr
}
