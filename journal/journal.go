// Package journal persists gitgate's per-context state: the operation log,
// the push history and the pending-change list.
//
// A Store with no directory keeps everything in memory. With a directory it
// writes three files, each suffixed with the store's namespace:
//
//	operations<ns>.log       JSON Lines, append-only, unbounded on disk
//	push_history<ns>.json    JSON array, most recent first
//	pending_changes<ns>.json JSON array, most recent first
//
// The arrays are rewritten atomically (temp file + rename) on every mutation.
package journal

import (
	"encoding/json"
	"time"

	"github.com/zhubert/gitgate/repo"
)

// Retention caps.
const (
	DefaultMaxPendingChanges = 100
	MaxPendingChangesLimit   = 1000
	MaxPushHistory           = 100
	MaxOperationsInMemory    = 1000
)

// Push stages recorded in PushRecord.Stages.
const (
	StageBlocked    = "blocked"
	StageStaging    = "staging"
	StageCommitting = "committing"
	StagePushing    = "pushing"
	StageDone       = "done"
	StageFailed     = "failed"
)

// PendingChange is a caller-recorded description of in-progress edits
// awaiting review before push.
type PendingChange struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Repo      string    `json:"repo,omitempty"`
	Files     []string  `json:"files"`
	Content   string    `json:"content"`
	Reviewed  bool      `json:"reviewed"`
}

// PushRecord is one push attempt, including attempts blocked by the review gate.
type PushRecord struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Context     repo.Context `json:"context"`
	Message     string       `json:"message"`
	Success     bool         `json:"success"`
	Error       string       `json:"error,omitempty"`
	ExitCode    *int         `json:"exit_code,omitempty"`
	Stages      []string     `json:"stages"`
	DuplicateOf string       `json:"duplicate_of,omitempty"`
}

// OperationError is the error half of a journaled exchange.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Operation is one journaled request/response exchange.
type Operation struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Method    string          `json:"method"`
	Tool      string          `json:"tool,omitempty"`
	Repo      string          `json:"repo,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *OperationError `json:"error,omitempty"`
}

// Namespace builds the file suffix for a prefix and context name:
// "-<prefix>-<name>", with either part omitted when empty.
func Namespace(prefix, name string) string {
	ns := ""
	if prefix != "" {
		ns += "-" + prefix
	}
	if name != "" {
		ns += "-" + name
	}
	return ns
}
