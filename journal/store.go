package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/zhubert/gitgate/logger"
)

// Store holds the journal of one namespace. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	dir       string
	namespace string
	now       func() time.Time
	log       *slog.Logger

	pending    []PendingChange // most recent first
	pushes     []PushRecord    // most recent first
	operations []Operation     // oldest first, last MaxOperationsInMemory
}

// NewStore creates a store for namespace and loads any existing files from
// dir. An empty dir keeps the store in memory.
func NewStore(dir, namespace string) (*Store, error) {
	s := &Store{
		dir:       dir,
		namespace: namespace,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.WithComponent("journal").With("namespace", namespace),
	}
	if dir != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the log directory, or "" for a memory-only store.
func (s *Store) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Namespace returns the file suffix of this store.
func (s *Store) Namespace() string {
	return s.namespace
}

func (s *Store) operationsPath() string {
	return filepath.Join(s.dir, "operations"+s.namespace+".log")
}

func (s *Store) pushHistoryPath() string {
	return filepath.Join(s.dir, "push_history"+s.namespace+".json")
}

func (s *Store) pendingPath() string {
	return filepath.Join(s.dir, "pending_changes"+s.namespace+".json")
}

// Paths returns the three journal file paths, or nil for a memory-only store.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir == "" {
		return nil
	}
	return []string{s.operationsPath(), s.pushHistoryPath(), s.pendingPath()}
}

// load reads persisted state. Caller must not hold mu.
func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []PendingChange
	if err := loadJSON(s.pendingPath(), &pending); err != nil {
		return fmt.Errorf("failed to load pending changes: %w", err)
	}
	var pushes []PushRecord
	if err := loadJSON(s.pushHistoryPath(), &pushes); err != nil {
		return fmt.Errorf("failed to load push history: %w", err)
	}
	ops, skipped, err := readLines[Operation](s.operationsPath(), MaxOperationsInMemory)
	if err != nil {
		return fmt.Errorf("failed to load operation log: %w", err)
	}
	if skipped > 0 {
		s.log.Warn("skipped malformed operation log lines", "count", skipped)
	}

	s.pending = truncate(pending, MaxPendingChangesLimit)
	s.pushes = truncate(pushes, MaxPushHistory)
	s.operations = ops

	s.log.Debug("journal loaded", "dir", s.dir,
		"pending", len(s.pending), "pushes", len(s.pushes), "operations", len(s.operations))
	return nil
}

// SetDir moves a store to dir. State already persisted there for this
// namespace is merged with the in-memory state: entries are deduplicated by
// ID, ordered by timestamp and capped as on load. Only operations missing
// from the target log are appended, so repeated switches never duplicate
// lines. Setting the current directory again is a no-op.
func (s *Store) SetDir(dir string) error {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" && filepath.Clean(s.dir) == dir {
		return nil
	}

	target := &Store{dir: dir, namespace: s.namespace}
	var pending []PendingChange
	if err := loadJSON(target.pendingPath(), &pending); err != nil {
		return fmt.Errorf("failed to load pending changes from %s: %w", dir, err)
	}
	var pushes []PushRecord
	if err := loadJSON(target.pushHistoryPath(), &pushes); err != nil {
		return fmt.Errorf("failed to load push history from %s: %w", dir, err)
	}
	written, err := readIDs(target.operationsPath())
	if err != nil {
		return fmt.Errorf("failed to read operation log in %s: %w", dir, err)
	}
	ops, _, err := readLines[Operation](target.operationsPath(), MaxOperationsInMemory)
	if err != nil {
		return fmt.Errorf("failed to load operation log from %s: %w", dir, err)
	}

	missing := lo.Filter(s.operations, func(op Operation, _ int) bool { return !written[op.ID] })

	prev := s.dir
	prevPending, prevPushes := s.pending, s.pushes
	s.dir = dir
	s.pending = truncate(mergeNewestFirst(s.pending, pending, func(p PendingChange) (string, time.Time) { return p.ID, p.Timestamp }), MaxPendingChangesLimit)
	s.pushes = truncate(mergeNewestFirst(s.pushes, pushes, func(p PushRecord) (string, time.Time) { return p.ID, p.Timestamp }), MaxPushHistory)
	if err := s.persist(); err != nil {
		s.dir, s.pending, s.pushes = prev, prevPending, prevPushes
		return err
	}
	if err := appendLines(s.operationsPath(), missing...); err != nil {
		return fmt.Errorf("failed to write operation log: %w", err)
	}

	merged := lo.Reverse(mergeNewestFirst(lo.Reverse(slices.Clone(s.operations)), lo.Reverse(ops),
		func(op Operation) (string, time.Time) { return op.ID, op.Timestamp }))
	if over := len(merged) - MaxOperationsInMemory; over > 0 {
		merged = merged[over:]
	}
	s.operations = merged

	s.log.Info("log directory set", "dir", dir, "previous", prev,
		"pending", len(s.pending), "pushes", len(s.pushes), "appended", len(missing))
	return nil
}

// mergeNewestFirst combines two newest-first lists, dropping repeated IDs.
// On equal timestamps entries from a come first.
func mergeNewestFirst[T any](a, b []T, key func(T) (string, time.Time)) []T {
	all := lo.UniqBy(append(slices.Clone(a), b...), func(v T) string {
		id, _ := key(v)
		return id
	})
	slices.SortStableFunc(all, func(x, y T) int {
		_, tx := key(x)
		_, ty := key(y)
		return ty.Compare(tx)
	})
	return all
}

// persist rewrites both JSON arrays. Caller must hold mu.
func (s *Store) persist() error {
	if err := s.persistPending(); err != nil {
		return err
	}
	return s.persistPushes()
}

func (s *Store) persistPending() error {
	if s.dir == "" {
		return nil
	}
	if err := saveJSON(s.pendingPath(), nonNil(s.pending)); err != nil {
		return fmt.Errorf("failed to save pending changes: %w", err)
	}
	return nil
}

func (s *Store) persistPushes() error {
	if s.dir == "" {
		return nil
	}
	if err := saveJSON(s.pushHistoryPath(), nonNil(s.pushes)); err != nil {
		return fmt.Errorf("failed to save push history: %w", err)
	}
	return nil
}

// AddPending records a new unreviewed change at the front of the list and
// evicts the oldest entries beyond limit. limit <= 0 uses
// DefaultMaxPendingChanges; larger values are clamped to
// MaxPendingChangesLimit. Returns the stored change and the eviction count.
func (s *Store) AddPending(repoName string, files []string, content string, limit int) (PendingChange, int, error) {
	if limit <= 0 {
		limit = DefaultMaxPendingChanges
	}
	limit = min(limit, MaxPendingChangesLimit)

	pc := PendingChange{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Repo:      repoName,
		Files:     slices.Clone(files),
		Content:   content,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.pending) + 1
	s.pending = truncate(append([]PendingChange{pc}, s.pending...), limit)
	evicted := before - len(s.pending)

	return pc, evicted, s.persistPending()
}

// Pending returns a copy of the pending changes, most recent first.
func (s *Store) Pending() []PendingChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// PendingCount returns the number of pending changes.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// MarkAllReviewed sets reviewed on every pending change. The file is only
// rewritten when something changed.
func (s *Store) MarkAllReviewed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.pending {
		if !s.pending[i].Reviewed {
			s.pending[i].Reviewed = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persistPending()
}

// ClearPending removes every pending change and returns how many there were.
func (s *Store) ClearPending() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.pending)
	s.pending = nil
	return n, s.persistPending()
}

// NewPushRecord returns a record with a fresh ID and timestamp.
func (s *Store) NewPushRecord() PushRecord {
	return PushRecord{ID: uuid.NewString(), Timestamp: s.now()}
}

// AppendPush prepends rec to the push history, evicting beyond MaxPushHistory.
func (s *Store) AppendPush(rec PushRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushes = truncate(append([]PushRecord{rec}, s.pushes...), MaxPushHistory)
	return s.persistPushes()
}

// Pushes returns a copy of the push history, most recent first.
func (s *Store) Pushes() []PushRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pushes)
}

// LastSuccessfulPush returns the most recent successful push.
func (s *Store) LastSuccessfulPush() (PushRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Find(s.pushes, func(p PushRecord) bool { return p.Success })
}

// NewOperation returns an operation with a fresh ID and timestamp.
func (s *Store) NewOperation(method string) Operation {
	return Operation{ID: uuid.NewString(), Timestamp: s.now(), Method: method}
}

// AppendOperation journals op: appended to the log file and kept in memory
// up to MaxOperationsInMemory.
func (s *Store) AppendOperation(op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operations = append(s.operations, op)
	if over := len(s.operations) - MaxOperationsInMemory; over > 0 {
		s.operations = slices.Delete(s.operations, 0, over)
	}
	if s.dir == "" {
		return nil
	}
	if err := appendLines(s.operationsPath(), op); err != nil {
		return fmt.Errorf("failed to append operation log: %w", err)
	}
	return nil
}

// Operations returns a page of the in-memory operation log, newest first,
// and the total number of entries held.
func (s *Store) Operations(offset, limit int) ([]Operation, int) {
	s.mu.Lock()
	newestFirst := lo.Reverse(slices.Clone(s.operations))
	s.mu.Unlock()

	total := len(newestFirst)
	return lo.Slice(newestFirst, offset, offset+limit), total
}

// MarshalResult encodes v for Operation.Result or Params. Values that cannot
// be encoded are recorded as a JSON string describing the failure.
func MarshalResult(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("unencodable result: %v", err))
	}
	return data
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
