package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/zhubert/gitgate/journal"
	"github.com/zhubert/gitgate/logger"
	"github.com/zhubert/gitgate/paths"
)

// PushHistory returns the push history of a context, most recent first.
func (s *Service) PushHistory(_ context.Context, args RepoArgs) (*PushHistoryResult, error) {
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	history := orEmpty(st.store.Pushes())
	return &PushHistoryResult{History: history, Total: len(history)}, nil
}

// OperationLogs returns a page of the journaled exchanges, newest first.
// In multi-instance mode an omitted repo selects the protocol-level journal.
func (s *Service) OperationLogs(_ context.Context, args OperationLogsArgs) (*OperationLogsResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	store := s.base
	if args.Repo != "" || !s.router.Multi() {
		st, err := s.state(args.Repo)
		if err != nil {
			return nil, err
		}
		store = st.store
	}

	limit := intOr(args.Limit, DefaultOperationsLimit)
	offset := intOr(args.Offset, 0)
	ops, total := store.Operations(offset, limit)
	ops = orEmpty(ops)
	return &OperationLogsResult{
		Operations: ops,
		Total:      total,
		Offset:     offset,
		Limit:      limit,
		HasMore:    offset+len(ops) < total,
	}, nil
}

// SetLogDir moves every journal to dir, writing the current in-memory state
// there. Only available when no log directory was configured at startup.
func (s *Service) SetLogDir(_ context.Context, args SetLogDirArgs) (*SetLogDirResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	if s.logDirPreset {
		return nil, invalidArgument("log directory was configured at startup and cannot be changed")
	}

	raw := strings.TrimSpace(args.LogDir)
	if raw != "~" && !strings.HasPrefix(raw, "~/") && !filepath.IsAbs(raw) {
		return nil, invalidArgument("log_dir must be an absolute path or start with ~/")
	}
	dir, err := paths.ExpandHome(raw)
	if err != nil {
		return nil, invalidArgument("log_dir: %v", err)
	}
	dir = filepath.Clean(dir)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, store := range s.stores() {
		if err := store.SetDir(dir); err != nil {
			return nil, fmt.Errorf("failed to move journal %q: %w", store.Namespace(), err)
		}
	}
	prev := s.logDir
	s.logDir = dir
	logger.WithComponent("service").Info("journal directory changed", "dir", dir, "previous", prev)

	files := lo.FlatMap(s.stores(), func(st *journal.Store, _ int) []string { return st.Paths() })
	return &SetLogDirResult{Success: true, LogDir: dir, Previous: prev, Files: files}, nil
}
