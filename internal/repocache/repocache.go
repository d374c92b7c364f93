// Package repocache fetches each declared repository at most once per build.
package repocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
)

// Reference declares a repository under a mnemonic. Overrides replace the
// URL for individual languages.
type Reference struct {
	Mnemonic  string
	URL       string
	Overrides map[string]string
}

// Fetcher produces a snapshot of a repository.
type Fetcher interface {
	Fetch(ctx context.Context, mnemonic, url string) (git.Snapshot, error)
}

type entry struct {
	mnemonic, url string

	once sync.Once
	snap git.Snapshot
	err  error
}

// Cache maps (mnemonic, url) to a snapshot. It is safe for concurrent use.
type Cache struct {
	fetcher  Fetcher
	recorder metrics.Recorder

	mu      sync.Mutex
	refs    map[string]Reference
	entries map[string]*entry
}

// New creates a cache over the declared references.
func New(fetcher Fetcher, refs []Reference) *Cache {
	c := &Cache{
		fetcher:  fetcher,
		recorder: metrics.NoopRecorder{},
		refs:     make(map[string]Reference, len(refs)),
		entries:  make(map[string]*entry),
	}
	for _, r := range refs {
		c.refs[r.Mnemonic] = r
	}
	return c
}

// WithRecorder sets the metrics recorder.
func (c *Cache) WithRecorder(r metrics.Recorder) *Cache {
	if r != nil {
		c.recorder = r
	}
	return c
}

// Get returns the snapshot of the repository's default URL.
func (c *Cache) Get(ctx context.Context, mnemonic string) (git.Snapshot, error) {
	return c.GetFor(ctx, mnemonic, "")
}

// GetFor returns the snapshot for language id, honouring per-language URL
// overrides. The first caller for a (mnemonic, url) pair fetches; everyone
// else waits for and shares that result, including a failure.
func (c *Cache) GetFor(ctx context.Context, mnemonic, lang string) (git.Snapshot, error) {
	c.mu.Lock()
	ref, ok := c.refs[mnemonic]
	if !ok {
		c.mu.Unlock()
		return git.Snapshot{}, errors.RepositoryError("undeclared repository").
			WithContext("repository", mnemonic).Build()
	}
	url := ref.URL
	if o, ok := ref.Overrides[lang]; ok && o != "" {
		url = o
	}
	key := mnemonic + "\x00" + url
	e, ok := c.entries[key]
	if !ok {
		e = &entry{mnemonic: mnemonic, url: url}
		c.entries[key] = e
	}
	c.mu.Unlock()

	fetched := false
	e.once.Do(func() {
		fetched = true
		start := time.Now()
		slog.Info("Fetching repository", logfields.Repository(mnemonic), logfields.URL(url), logfields.Lang(lang))
		e.snap, e.err = c.fetcher.Fetch(ctx, mnemonic, url)
		c.recorder.ObserveFetch(mnemonic, time.Since(start), e.err == nil)
		if e.err != nil {
			e.err = errors.WrapError(e.err, errors.CategoryRepository, "cannot fetch repository").
				Fatal().WithContext("repository", mnemonic).WithContext("url", url).Build()
		}
	})
	if !fetched && e.err == nil {
		c.recorder.IncCacheHit(mnemonic)
	}
	return e.snap, e.err
}

// Snapshot records one fetched repository.
type Snapshot struct {
	Mnemonic string `yaml:"id"`
	git.Snapshot `yaml:",inline"`
}

// Snapshots lists the successfully fetched repositories ordered by mnemonic and URL.
func (c *Cache) Snapshots() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Snapshot
	for _, e := range c.entries {
		if e.err != nil || e.snap.Commit == "" {
			continue
		}
		snap := e.snap
		if snap.URL == "" {
			snap.URL = e.url
		}
		out = append(out, Snapshot{Mnemonic: e.mnemonic, Snapshot: snap})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mnemonic != out[j].Mnemonic {
			return out[i].Mnemonic < out[j].Mnemonic
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// GitFetcher clones repositories with a git client.
type GitFetcher struct {
	Client *git.Client
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Fetch clones url into a directory derived from the mnemonic and URL.
func (f GitFetcher) Fetch(ctx context.Context, mnemonic, url string) (git.Snapshot, error) {
	sum := sha256.Sum256([]byte(url))
	dir := unsafeChars.ReplaceAllString(mnemonic, "_") + "-" + hex.EncodeToString(sum[:4])
	return f.Client.Clone(ctx, dir, url)
}
