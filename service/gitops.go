package service

import (
	"context"
	"slices"
)

// Status reports the working tree status of a context.
func (s *Service) Status(ctx context.Context, args RepoArgs) (*StatusResult, error) {
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	status, err := s.git.Status(ctx, st.rc)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Repo: st.rc.Name, Status: status}, nil
}

func (s *Service) Diff(ctx context.Context, args DiffArgs) (*DiffResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	diff, err := s.git.Diff(ctx, st.rc, args.Staged, args.Files)
	if err != nil {
		return nil, err
	}
	return &DiffResult{
		Staged: args.Staged,
		Files:  orEmpty(args.Files),
		Diff:   diff,
		Empty:  diff == "",
	}, nil
}

// Add stages files, or the whole tree when none are given.
func (s *Service) Add(ctx context.Context, args AddArgs) (*AddResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	files := args.Files
	if len(files) == 0 {
		files = []string{"."}
	}
	res, err := s.git.Add(ctx, st.rc, files)
	if err != nil {
		return nil, err
	}
	st.log.Info("files staged", "files", files)
	return &AddResult{Success: true, Files: slices.Clone(files), Output: combinedOutput(res.Stdout, res.Stderr)}, nil
}

func (s *Service) Log(ctx context.Context, args LogArgs) (*LogResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	commits, err := s.git.Log(ctx, st.rc, intOr(args.Limit, DefaultLogLimit), args.Oneline)
	if err != nil {
		return nil, err
	}
	commits = orEmpty(commits)
	return &LogResult{Commits: commits, Count: len(commits)}, nil
}

// Pull merges the context's pull source branch from its remote.
func (s *Service) Pull(ctx context.Context, args RepoArgs) (*PullResult, error) {
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	rc := st.rc
	res, err := s.git.Pull(ctx, rc)
	if err != nil {
		st.log.Error("pull failed", "error", err)
		return nil, err
	}
	st.log.Info("pull complete", "remote", rc.RemoteName, "branch", rc.PullSourceBranch)
	return &PullResult{
		Success: true,
		Remote:  rc.RemoteName,
		Branch:  rc.PullSourceBranch,
		Output:  combinedOutput(res.Stdout, res.Stderr),
	}, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
