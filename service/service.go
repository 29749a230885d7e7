// Package service holds gitgate's application state and implements every
// tool operation on top of the repository router, the journal and git.
//
// A Service is an explicit value owned by the RPC server; there are no
// package-level singletons, so tests construct one directly.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/zhubert/gitgate/git"
	"github.com/zhubert/gitgate/journal"
	"github.com/zhubert/gitgate/logger"
	"github.com/zhubert/gitgate/repo"
	"github.com/zhubert/gitgate/review"
)

// Tool names, before any configured prefix is applied.
const (
	ToolGitPush           = "git_push"
	ToolGitPull           = "git_pull"
	ToolGetPushHistory    = "get_push_history"
	ToolGetOperationLogs  = "get_operation_logs"
	ToolSaveChanges       = "save_changes"
	ToolGetPendingChanges = "get_pending_changes"
	ToolGitStatus         = "git_status"
	ToolGitDiff           = "git_diff"
	ToolGitAdd            = "git_add"
	ToolGitLog            = "git_log"
	ToolSetLogDir         = "set_log_dir"
)

// Options configures a Service.
type Options struct {
	Router *repo.Router
	Git    *git.Service
	Prefix string
	// LogDir is the preconfigured journal directory. When empty the journal
	// lives in memory and set_log_dir is offered.
	LogDir string
}

// contextState is the mutable state of one repository context.
type contextState struct {
	rc    *repo.Context
	store *journal.Store
	gate  *review.Gate
	log   *slog.Logger
}

// Service implements the tool operations.
type Service struct {
	router       *repo.Router
	git          *git.Service
	prefix       string
	logDirPreset bool

	// base journals protocol-level exchanges. In single-instance mode it is
	// also the store of the only context.
	base   *journal.Store
	states map[string]*contextState

	mu     sync.Mutex // serializes set_log_dir
	logDir string
}

// New creates a Service and loads the journal of every context.
func New(opts Options) (*Service, error) {
	if opts.Router == nil {
		return nil, errors.New("router is required")
	}
	if opts.Git == nil {
		opts.Git = git.NewService()
	}

	s := &Service{
		router:       opts.Router,
		git:          opts.Git,
		prefix:       opts.Prefix,
		logDirPreset: opts.LogDir != "",
		logDir:       opts.LogDir,
		states:       make(map[string]*contextState),
	}

	contexts := opts.Router.Contexts()
	if !opts.Router.Multi() {
		rc := contexts[0]
		store, err := journal.NewStore(opts.LogDir, journal.Namespace(opts.Prefix, rc.Name))
		if err != nil {
			return nil, err
		}
		s.base = store
		s.states[rc.Name] = newContextState(rc, store)
		return s, nil
	}

	base, err := journal.NewStore(opts.LogDir, journal.Namespace(opts.Prefix, ""))
	if err != nil {
		return nil, err
	}
	s.base = base
	for _, rc := range contexts {
		store, err := journal.NewStore(opts.LogDir, journal.Namespace(opts.Prefix, rc.Name))
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", rc.Name, err)
		}
		s.states[rc.Name] = newContextState(rc, store)
	}
	return s, nil
}

func newContextState(rc *repo.Context, store *journal.Store) *contextState {
	return &contextState{
		rc:    rc,
		store: store,
		gate:  &review.Gate{},
		log:   logger.WithRepo(rc.Name).With("component", "service"),
	}
}

// state resolves a caller-supplied repository name.
func (s *Service) state(name string) (*contextState, error) {
	rc, err := s.router.Resolve(name)
	if err != nil {
		if errors.Is(err, repo.ErrRepositoryRequired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return nil, err
	}
	return s.states[rc.Name], nil
}

// Router returns the repository router.
func (s *Service) Router() *repo.Router {
	return s.router
}

// Prefix returns the configured tool name prefix.
func (s *Service) Prefix() string {
	return s.prefix
}

// ToolName applies the configured prefix to a tool name.
func (s *Service) ToolName(tool string) string {
	if s.prefix == "" {
		return tool
	}
	return s.prefix + "_" + tool
}

// LogDirPreset reports whether the journal directory was configured at
// startup, in which case set_log_dir is not offered.
func (s *Service) LogDirPreset() bool {
	return s.logDirPreset
}

// LogDir returns the current journal directory, or "" when in memory.
func (s *Service) LogDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logDir
}

// Journal returns the store an exchange for repoName should be recorded in:
// the context's store when the name resolves, otherwise the base store.
func (s *Service) Journal(repoName string) *journal.Store {
	if repoName == "" && s.router.Multi() {
		return s.base
	}
	rc, err := s.router.Resolve(repoName)
	if err != nil {
		return s.base
	}
	return s.states[rc.Name].store
}

// ContextStatus summarizes one context for the status snapshot.
type ContextStatus struct {
	Repo             string `json:"repo"`
	WorkingDirectory string `json:"working_directory"`
	PendingChanges   int    `json:"pending_changes"`
	Reviewed         bool   `json:"reviewed"`
}

// Snapshot is the live status advertised alongside the tool list.
type Snapshot struct {
	Mode     string          `json:"mode"`
	Contexts []ContextStatus `json:"contexts"`
	LogDir   string          `json:"log_dir"`
}

// Snapshot returns the current state of every context.
func (s *Service) Snapshot() Snapshot {
	mode := "single"
	if s.router.Multi() {
		mode = "multi"
	}
	return Snapshot{
		Mode: mode,
		Contexts: lo.Map(s.router.Contexts(), func(rc *repo.Context, _ int) ContextStatus {
			st := s.states[rc.Name]
			return ContextStatus{
				Repo:             rc.Label(),
				WorkingDirectory: rc.WorkingDirectory,
				PendingChanges:   st.store.PendingCount(),
				Reviewed:         st.gate.Reviewed(),
			}
		}),
		LogDir: s.LogDir(),
	}
}

// stores returns every distinct journal store.
func (s *Service) stores() []*journal.Store {
	all := []*journal.Store{s.base}
	for _, rc := range s.router.Contexts() {
		all = append(all, s.states[rc.Name].store)
	}
	return lo.Uniq(all)
}
