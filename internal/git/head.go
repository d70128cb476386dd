package git

import (
	"errors"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// Revision identifies the checked-out commit of a working tree.
type Revision struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty"`
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Commit) > 8 {
		return r.Commit[:8]
	}
	return r.Commit
}

// ErrNotRepository is returned when dir is not inside a git working tree.
var ErrNotRepository = errors.New("not a git repository")

// ReadRevision opens the repository containing dir (searching parent
// directories for .git) and returns its HEAD revision.
func ReadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, err
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Empty repository: no commit yet.
			return Revision{}, nil
		}
		return Revision{}, err
	}
	rev := Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}
	if wt, err := repo.Worktree(); err == nil {
		if st, err := wt.Status(); err == nil {
			rev.Dirty = !st.IsClean()
		}
	}
	return rev, nil
}

// Lookup is ReadRevision that logs and swallows failures, for callers that
// treat the revision as optional metadata.
func Lookup(dir string) Revision {
	rev, err := ReadRevision(dir)
	if err != nil {
		if !errors.Is(err, ErrNotRepository) {
			slog.Warn("Cannot read git revision", logfields.Path(dir), logfields.Error(err))
		}
		return Revision{}
	}
	return rev
}
