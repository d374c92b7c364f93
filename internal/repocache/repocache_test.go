package repocache

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
)

type countingFetcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, mnemonic, url string) (git.Snapshot, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return git.Snapshot{}, f.err
	}
	return git.Snapshot{Root: "/ws/" + mnemonic, URL: url, Commit: "c0ffee" + mnemonic}, nil
}

func TestGetFetchesOncePerMnemonic(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, []Reference{{Mnemonic: "bp", URL: "https://github.com/u/bp.git"}})

	first, err := c.Get(context.Background(), "bp")
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "bp")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int32(1), f.calls.Load())
}

func TestConcurrentCallersShareOneFetch(t *testing.T) {
	f := &countingFetcher{delay: 20 * time.Millisecond}
	c := New(f, []Reference{{Mnemonic: "bp", URL: "https://github.com/u/bp.git"}})

	var wg sync.WaitGroup
	results := make([]git.Snapshot, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.GetFor(context.Background(), "bp", []string{"en", "de"}[i%2])
			require.NoError(t, err)
			results[i] = snap
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), f.calls.Load())
	for _, r := range results {
		require.Equal(t, results[0], r)
	}
}

func TestLanguageOverrideFetchesSeparately(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, []Reference{{
		Mnemonic:  "bp",
		URL:       "https://github.com/u/bp.git",
		Overrides: map[string]string{"de": "https://github.com/u/bp-de.git"},
	}})

	en, err := c.GetFor(context.Background(), "bp", "en")
	require.NoError(t, err)
	de, err := c.GetFor(context.Background(), "bp", "de")
	require.NoError(t, err)
	require.NotEqual(t, en.URL, de.URL)
	require.Equal(t, int32(2), f.calls.Load())

	snaps := c.Snapshots()
	require.Len(t, snaps, 2)
	require.Equal(t, "bp", snaps[0].Mnemonic)
	require.Equal(t, "https://github.com/u/bp-de.git", snaps[0].URL)
}

func TestUndeclaredMnemonic(t *testing.T) {
	c := New(&countingFetcher{}, nil)
	_, err := c.Get(context.Background(), "nope")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryRepository))
}

func TestFailureIsCachedAndFatal(t *testing.T) {
	f := &countingFetcher{err: stderrors.New("boom")}
	c := New(f, []Reference{{Mnemonic: "bp", URL: "https://example.org/bp.git"}})

	_, err := c.Get(context.Background(), "bp")
	require.Error(t, err)
	_, err = c.Get(context.Background(), "bp")
	require.Error(t, err)
	require.Equal(t, int32(1), f.calls.Load())

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryRepository, ce.Category())
	require.True(t, ce.IsFatal())
	require.Empty(t, c.Snapshots())
}
