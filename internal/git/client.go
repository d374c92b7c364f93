package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/retry"
)

// Options configure clones.
type Options struct {
	// Depth of the clone; 0 means 1, a negative value clones the full history.
	Depth  int
	Auth   *Auth
	Policy retry.Policy
}

// Client clones repositories below a workspace directory.
type Client struct {
	workspaceDir string
	opts         Options
}

// NewClient creates a Git client with the specified workspace directory.
func NewClient(workspaceDir string, opts Options) *Client {
	return &Client{workspaceDir: workspaceDir, opts: opts}
}

// Clone clones url into the workspace sub-directory dir and returns the
// snapshot of its HEAD. Transient failures are retried according to the
// client's policy.
func (c *Client) Clone(ctx context.Context, dir, url string) (Snapshot, error) {
	return c.withRetry(ctx, "clone", url, func() (Snapshot, error) { return c.cloneOnce(ctx, dir, url) })
}

func (c *Client) cloneOnce(ctx context.Context, dir, url string) (Snapshot, error) {
	repoPath := filepath.Join(c.workspaceDir, dir)
	slog.Debug("Cloning repository", logfields.URL(url), logfields.Path(repoPath))
	if err := os.RemoveAll(repoPath); err != nil {
		return Snapshot{}, errors.FileSystemError("failed to remove existing directory").
			WithCause(err).WithContext("path", repoPath).Build()
	}

	opts := &git.CloneOptions{URL: url, SingleBranch: true}
	switch {
	case c.opts.Depth == 0:
		opts.Depth = 1
	case c.opts.Depth > 0:
		opts.Depth = c.opts.Depth
	}
	auth, err := c.opts.Auth.method()
	if err != nil {
		return Snapshot{}, err
	}
	opts.Auth = auth

	repository, err := git.PlainCloneContext(ctx, repoPath, false, opts)
	if err != nil {
		return Snapshot{}, ClassifyGitError(classifyCloneError(url, err), "clone", url)
	}
	snap, err := snapshotOf(repository, repoPath, url)
	if err != nil {
		return Snapshot{}, ClassifyGitError(err, "head", url)
	}
	slog.Info("Repository cloned successfully", logfields.URL(url), logfields.Commit(snap.ShortCommit()), logfields.Path(repoPath))
	return snap, nil
}
