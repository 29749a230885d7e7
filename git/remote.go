package git

import (
	"context"

	"github.com/zhubert/gitgate/exec"
	"github.com/zhubert/gitgate/repo"
)

// PushArgs returns the argument vector for pushing the context's local
// branch to its remote branch: push [flags...] <remote> <local>:<remote>.
func PushArgs(rc *repo.Context) []string {
	args := make([]string, 0, len(rc.PushFlags)+3)
	args = append(args, "push")
	args = append(args, rc.PushFlags...)
	return append(args, rc.RemoteName, rc.Refspec())
}

// Push pushes the context's branch mapping with its configured flags.
func (s *Service) Push(ctx context.Context, rc *repo.Context) (*exec.Result, error) {
	return s.run(ctx, rc, PushTimeout, PushArgs(rc)...)
}

// Pull fetches and merges the context's pull source branch.
func (s *Service) Pull(ctx context.Context, rc *repo.Context) (*exec.Result, error) {
	return s.run(ctx, rc, PullTimeout, "pull", rc.RemoteName, rc.PullSourceBranch)
}
