package git

import (
	"context"
	"errors"
	"strings"

	"github.com/zhubert/gitgate/exec"
	"github.com/zhubert/gitgate/repo"
)

// nothingToCommit lists git's messages for a commit with no changes.
var nothingToCommit = []string{
	"nothing to commit",
	"nothing added to commit",
	"no changes added to commit",
}

// IsNothingToCommit reports whether err is a commit failure caused only by
// there being nothing to commit.
func IsNothingToCommit(err error) bool {
	var failed *exec.FailedError
	if !errors.As(err, &failed) {
		return false
	}
	out := failed.Result.Stdout + "\n" + failed.Result.Stderr
	for _, s := range nothingToCommit {
		if strings.Contains(out, s) {
			return true
		}
	}
	return false
}

// Add stages the given paths. An empty list stages the whole tree (".").
// Paths follow "--" so none can be parsed as an option.
func (s *Service) Add(ctx context.Context, rc *repo.Context, files []string) (*exec.Result, error) {
	if len(files) == 0 {
		files = []string{"."}
	}
	args := append([]string{"add", "--"}, files...)
	return s.run(ctx, rc, AddTimeout, args...)
}

// AddAll stages every change including deletions and untracked files.
func (s *Service) AddAll(ctx context.Context, rc *repo.Context) (*exec.Result, error) {
	return s.run(ctx, rc, AddTimeout, "add", "-A")
}

// Commit records staged changes with the given message.
func (s *Service) Commit(ctx context.Context, rc *repo.Context, message string) (*exec.Result, error) {
	return s.run(ctx, rc, CommitTimeout, "commit", "-m", message)
}
