package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/retry"
)

// initRepo creates a repository with one commit and returns its path and commit id.
func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "x.py"), []byte("print(1)\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("src/x.py")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.org", When: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:owner/sample.git"}})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestCloneLocalRepository(t *testing.T) {
	src, commit := initRepo(t)
	ws := t.TempDir()
	c := NewClient(ws, Options{Depth: -1, Policy: retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 0)})

	snap, err := c.Clone(context.Background(), "sample", src)
	require.NoError(t, err)
	require.Equal(t, commit, snap.Commit)
	require.Equal(t, filepath.Join(ws, "sample"), snap.Root)
	require.Equal(t, 2024, snap.Date.Year())
	require.FileExists(t, filepath.Join(snap.Root, "src", "x.py"))
}

func TestCloneMissingRepositoryFails(t *testing.T) {
	c := NewClient(t.TempDir(), Options{Depth: -1, Policy: retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 1)})
	_, err := c.Clone(context.Background(), "nope", filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestDetectCheckout(t *testing.T) {
	src, commit := initRepo(t)

	snap, ok, err := Detect(filepath.Join(src, "src"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, commit, snap.Commit)
	require.Equal(t, "owner/sample", snap.Name())
	require.Equal(t, "https://github.com/owner/sample/blob/"+commit+"/src/x.py", snap.FileURL(filepath.Join(snap.Root, "src", "x.py")))

	_, ok, err = Detect(t.TempDir())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthMethod(t *testing.T) {
	m, err := (*Auth)(nil).method()
	require.NoError(t, err)
	require.Nil(t, m)

	m, err = (&Auth{Type: AuthToken, Token: "t"}).method()
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = (&Auth{Type: AuthBasic, Username: "u"}).method()
	require.Error(t, err)
	_, err = (&Auth{Type: "weird"}).method()
	require.Error(t, err)
}
