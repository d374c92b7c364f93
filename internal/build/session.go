package build

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/expand"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/observability"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
	"git.home.luguber.info/inful/bookbuilder/internal/repocache"
	"git.home.luguber.info/inful/bookbuilder/internal/workspace"
)

// fetcherFactory creates the repository fetcher once the workspace exists.
type fetcherFactory func(workspaceDir string, cfg *config.Config) repocache.Fetcher

func gitFetcher(workspaceDir string, cfg *config.Config) repocache.Fetcher {
	return repocache.GitFetcher{Client: git.NewClient(workspaceDir, git.Options{
		Depth:  cfg.Git.Depth,
		Auth:   cfg.Git.GitAuth(),
		Policy: cfg.Git.RetryPolicy(),
	})}
}

// WithFetcher replaces the go-git fetcher, e.g. with a local fake in tests.
func (s *Service) WithFetcher(f repocache.Fetcher) *Service {
	if f != nil {
		s.fetcher = func(string, *config.Config) repocache.Fetcher { return f }
	}
	return s
}

// session holds the state shared by the language passes of one build.
type session struct {
	cfg      *config.Config
	root     string
	input    string
	name     string
	resolver *pathres.Resolver
	store    *metadata.Store
	langs    []lang.Descriptor
	cache    *repocache.Cache
	ws       *workspace.Manager
	recorder metrics.Recorder
	now      time.Time
}

// open loads the initial metadata of every language and declares the
// repositories they reference.
func (s *Service) open(ctx context.Context, cfg *config.Config) (*session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	input, err := filepath.Abs(cfg.Input)
	if err != nil {
		return nil, errors.ConfigError("invalid input path").WithCause(err).WithContext("path", cfg.Input).Build()
	}
	rootDir := cfg.Root
	if rootDir == "" {
		rootDir = filepath.Dir(input)
	}
	resolver, err := pathres.New(rootDir)
	if err != nil {
		return nil, err
	}
	if !pathres.Contains(resolver.Root(), input) {
		return nil, errors.PathError("input document lies outside the root").
			WithContext("path", input).WithContext("root", resolver.Root()).Build()
	}
	name := cfg.Name
	if name == "" {
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	sess := &session{
		cfg:      cfg,
		root:     resolver.Root(),
		input:    input,
		name:     name,
		resolver: resolver,
		store:    metadata.NewStore(),
		recorder: s.recorder,
		now:      s.now(),
	}

	base, err := metadata.LoadInitial(resolver, input, lang.Context{})
	if err != nil {
		return nil, err
	}
	sess.store.SetBase(base)
	langs, err := sess.store.Languages()
	if err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		sess.langs = []lang.Descriptor{{}}
	} else {
		sess.langs = langs
	}
	for _, d := range langs {
		layer, err := metadata.LoadInitial(resolver, input, sess.context(d))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryMetadata, "cannot load language metadata").WithContext("lang", d.ID).Build()
		}
		sess.store.Merge(d.ID, layer)
	}

	refs, err := sess.references()
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		sess.cache = repocache.New(nil, nil)
		return sess, nil
	}

	if cfg.Workspace.Persistent {
		sess.ws = workspace.NewPersistentManager(cfg.Workspace.Dir, "")
	} else {
		sess.ws = workspace.NewManager(cfg.Workspace.Dir)
	}
	if err := sess.ws.Create(); err != nil {
		return nil, err
	}
	sess.cache = repocache.New(s.fetcher(sess.ws.Path(), cfg), refs).WithRecorder(s.recorder)
	observability.DebugContext(ctx, "Repositories declared", logfields.Path(sess.ws.Path()))
	return sess, nil
}

// references merges the repository lists of all languages into one
// reference per mnemonic. Languages that map a mnemonic to another URL get
// an override.
func (sess *session) references() ([]repocache.Reference, error) {
	base, err := sess.store.Repositories("")
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(base))
	refs := make([]repocache.Reference, 0, len(base))
	for _, r := range base {
		index[r.ID] = len(refs)
		refs = append(refs, repocache.Reference{Mnemonic: r.ID, URL: r.URL, Overrides: map[string]string{}})
	}
	for _, d := range sess.langs {
		if d.ID == "" {
			continue
		}
		repos, err := sess.store.Repositories(d.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			i, ok := index[r.ID]
			if !ok {
				index[r.ID] = len(refs)
				refs = append(refs, repocache.Reference{Mnemonic: r.ID, Overrides: map[string]string{d.ID: r.URL}})
				continue
			}
			if r.URL != refs[i].URL {
				refs[i].Overrides[d.ID] = r.URL
			}
		}
	}
	return refs, nil
}

func (sess *session) context(d lang.Descriptor) lang.Context {
	if d.ID == "" {
		return lang.Context{}
	}
	return lang.NewContext(d, len(sess.langs))
}

func (sess *session) expander(d lang.Descriptor) *expand.Expander {
	return expand.New(expand.Options{
		Resolver:     sess.resolver,
		Metadata:     sess.store,
		Repositories: sess.cache,
		Language:     sess.context(d),
		Recorder:     sess.recorder,
		Now:          sess.now,
	})
}

// rootFor returns the root document of language d, preferring a
// language-suffixed variant.
func (sess *session) rootFor(d lang.Descriptor) (string, error) {
	return sess.resolver.Resolve(filepath.Dir(sess.input), filepath.Base(sess.input), sess.context(d))
}

func (sess *session) relative(path string) string {
	rel, err := sess.resolver.Relative(path)
	if err != nil {
		return path
	}
	return rel
}

func (sess *session) close() {
	if sess.ws == nil {
		return
	}
	if err := sess.ws.Cleanup(); err != nil {
		observability.WarnContext(context.Background(), "Workspace cleanup failed", logfields.Error(err))
	}
}
