package git

import (
	stderrors "errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Snapshot is a checked out repository at a fixed commit.
type Snapshot struct {
	Root   string    `yaml:"root"`
	URL    string    `yaml:"url"`
	Commit string    `yaml:"commit"`
	Date   time.Time `yaml:"date"`
}

// ShortCommit returns the first eight characters of the commit id.
func (s Snapshot) ShortCommit() string {
	if len(s.Commit) > 8 {
		return s.Commit[:8]
	}
	return s.Commit
}

// BaseURL returns the browsable https URL of the repository.
func (s Snapshot) BaseURL() string { return BaseURL(s.URL) }

// Name returns "owner/name".
func (s Snapshot) Name() string { return RepoName(s.URL) }

// FileURL links path, absolute or relative to Root, at the snapshot commit.
// It returns "" when path is outside the snapshot or the URL is unknown.
func (s Snapshot) FileURL(path string) string {
	if s.URL == "" || s.Commit == "" {
		return ""
	}
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(s.Root, path)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return ""
		}
		rel = r
	}
	return MakeURL(s.URL, s.Commit, filepath.ToSlash(rel))
}

func snapshotOf(repo *git.Repository, root, url string) (Snapshot, error) {
	head, err := repo.Head()
	if err != nil {
		return Snapshot{}, err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Root:   root,
		URL:    url,
		Commit: head.Hash().String(),
		Date:   commit.Committer.When.UTC(),
	}, nil
}

// Detect finds the checkout containing the directory path. ok is false when path is not
// inside a git work tree.
func Detect(path string) (snap Snapshot, ok bool, err error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, ClassifyGitError(err, "open", path)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Snapshot{}, false, ClassifyGitError(err, "worktree", path)
	}
	root := wt.Filesystem.Root()

	url := ""
	if remote, rerr := repo.Remote("origin"); rerr == nil && len(remote.Config().URLs) > 0 {
		url = remote.Config().URLs[0]
	}
	snap, err = snapshotOf(repo, root, url)
	if err != nil {
		return Snapshot{}, false, errors.GitError("cannot read HEAD of checkout").
			WithCause(err).WithContext("path", root).Build()
	}
	return snap, true, nil
}
