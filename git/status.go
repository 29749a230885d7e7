package git

import (
	"context"
	"strings"

	"github.com/zhubert/gitgate/repo"
)

// FileStatus is one entry of `git status --porcelain`.
type FileStatus struct {
	Path     string `json:"path"`
	OrigPath string `json:"orig_path,omitempty"` // source path of a rename or copy
	Index    string `json:"index"`              // staged status: M, A, D, R, C, U, ? or " "
	Worktree string `json:"worktree"`           // unstaged status
}

// Staged reports whether the entry has changes in the index.
func (f FileStatus) Staged() bool {
	return f.Index != " " && f.Index != "?" && f.Index != "!"
}

// Untracked reports whether the entry is an untracked file.
func (f FileStatus) Untracked() bool {
	return f.Index == "?"
}

// Status is the parsed working tree status of a repository.
type Status struct {
	Branch   string       `json:"branch,omitempty"`
	Upstream string       `json:"upstream,omitempty"`
	Files    []FileStatus `json:"files"`
	Clean    bool         `json:"clean"`
	Raw      string       `json:"raw"`
}

// HasStaged reports whether anything is already staged for commit.
func (s *Status) HasStaged() bool {
	for _, f := range s.Files {
		if f.Staged() {
			return true
		}
	}
	return false
}

// Status runs `git status --porcelain --branch` and parses the result.
func (s *Service) Status(ctx context.Context, rc *repo.Context) (*Status, error) {
	res, err := s.run(ctx, rc, StatusTimeout, "status", "--porcelain", "--branch")
	if err != nil {
		return nil, err
	}
	return ParseStatus(res.Stdout), nil
}

// ParseStatus parses porcelain v1 output, with or without the "## " branch
// header line.
func ParseStatus(output string) *Status {
	status := &Status{Files: []FileStatus{}, Raw: output}

	// Only trim trailing whitespace - leading space is significant in porcelain format
	// (e.g., " M file.go" means modified in worktree, the leading space is part of status)
	for line := range strings.SplitSeq(strings.TrimRight(output, "\n\r\t "), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if header, ok := strings.CutPrefix(line, "## "); ok {
			status.Branch, status.Upstream = parseBranchHeader(header)
			continue
		}
		if len(line) < 4 {
			continue
		}
		fs := FileStatus{
			Index:    line[0:1],
			Worktree: line[1:2],
			Path:     unquote(line[3:]),
		}
		if from, to, ok := strings.Cut(fs.Path, " -> "); ok {
			fs.OrigPath, fs.Path = unquote(from), unquote(to)
		}
		status.Files = append(status.Files, fs)
	}

	status.Clean = len(status.Files) == 0
	return status
}

// parseBranchHeader splits "main...origin/main [ahead 1]" into branch and upstream.
func parseBranchHeader(header string) (branch, upstream string) {
	header, _, _ = strings.Cut(header, " [")
	if rest, ok := strings.CutPrefix(header, "No commits yet on "); ok {
		return rest, ""
	}
	branch, upstream, _ = strings.Cut(header, "...")
	return branch, upstream
}

// unquote strips the C-style quotes git adds around unusual paths.
func unquote(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		p = p[1 : len(p)-1]
		p = strings.ReplaceAll(p, `\"`, `"`)
		p = strings.ReplaceAll(p, `\\`, `\`)
	}
	return p
}
