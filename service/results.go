package service

import (
	"github.com/zhubert/gitgate/git"
	"github.com/zhubert/gitgate/journal"
)

type SaveChangesResult struct {
	Success             bool                  `json:"success"`
	Change              journal.PendingChange `json:"change"`
	PendingChangesCount int                   `json:"pending_changes_count"`
	Evicted             int                   `json:"evicted"`
}

type PendingChangesResult struct {
	Changes  []journal.PendingChange `json:"changes"`
	Total    int                     `json:"total"`
	Offset   int                     `json:"offset"`
	Limit    int                     `json:"limit"`
	HasMore  bool                    `json:"has_more"`
	Reviewed bool                    `json:"reviewed"`
	Note     string                  `json:"note"`
}

// PushResult is returned by a push whose push step succeeded.
type PushResult struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	Remote            string   `json:"remote"`
	LocalBranch       string   `json:"local_branch"`
	RemoteBranch      string   `json:"remote_branch"`
	Staged            bool     `json:"staged"`
	Committed         bool     `json:"committed"`
	CommitNote        string   `json:"commit_note,omitempty"`
	Output            string   `json:"output"`
	ClearedChanges    int      `json:"cleared_changes"`
	ReviewStatusReset bool     `json:"review_status_reset"`
	HistoryID         string   `json:"history_id"`
	DuplicateOf       string   `json:"duplicate_of,omitempty"`
	Stages            []string `json:"stages"`
}

type PullResult struct {
	Success bool   `json:"success"`
	Remote  string `json:"remote"`
	Branch  string `json:"branch"`
	Output  string `json:"output"`
}

type StatusResult struct {
	Repo string `json:"repo,omitempty"`
	*git.Status
}

type DiffResult struct {
	Staged bool     `json:"staged"`
	Files  []string `json:"files"`
	Diff   string   `json:"diff"`
	Empty  bool     `json:"empty"`
}

type AddResult struct {
	Success bool     `json:"success"`
	Files   []string `json:"files"`
	Output  string   `json:"output"`
}

type LogResult struct {
	Commits []git.Commit `json:"commits"`
	Count   int          `json:"count"`
}

type PushHistoryResult struct {
	History []journal.PushRecord `json:"history"`
	Total   int                  `json:"total"`
}

type OperationLogsResult struct {
	Operations []journal.Operation `json:"operations"`
	Total      int                 `json:"total"`
	Offset     int                 `json:"offset"`
	Limit      int                 `json:"limit"`
	HasMore    bool                `json:"has_more"`
}

type SetLogDirResult struct {
	Success  bool     `json:"success"`
	LogDir   string   `json:"log_dir"`
	Previous string   `json:"previous,omitempty"`
	Files    []string `json:"files"`
}
