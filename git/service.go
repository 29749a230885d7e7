package git

import (
	"context"
	"time"

	"github.com/zhubert/gitgate/exec"
	"github.com/zhubert/gitgate/repo"
)

// Default subprocess timeouts per operation class.
const (
	StatusTimeout = 30 * time.Second
	DiffTimeout   = 30 * time.Second
	LogTimeout    = 30 * time.Second
	AddTimeout    = 60 * time.Second
	CommitTimeout = 60 * time.Second
	PushTimeout   = 300 * time.Second
	PullTimeout   = 300 * time.Second
)

// Service provides git operations with explicit dependency injection.
// Each Service holds its own executor, so tests can substitute a
// MockExecutor and inspect the exact argument vectors.
type Service struct {
	executor exec.CommandExecutor
}

// NewService creates a new Service with the real executor.
func NewService() *Service {
	return &Service{executor: exec.NewRealExecutor()}
}

// NewServiceWithExecutor creates a new Service with a custom executor.
// This is primarily used for testing where a mock executor is needed.
func NewServiceWithExecutor(e exec.CommandExecutor) *Service {
	return &Service{executor: e}
}

// run executes git in the context's working directory with its environment
// overlay.
func (s *Service) run(ctx context.Context, rc *repo.Context, timeout time.Duration, args ...string) (*exec.Result, error) {
	return s.executor.Execute(ctx, exec.Command{
		Dir:     rc.WorkingDirectory,
		Name:    "git",
		Args:    args,
		Env:     rc.Env,
		Timeout: timeout,
	})
}
