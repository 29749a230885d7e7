package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/zhubert/gitgate/repo"
)

// Field and record separators for the machine-readable log format.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
	logFormat = "--pretty=format:%H%x1f%an%x1f%ae%x1f%aI%x1f%s%x1e"
)

// Commit is one parsed log entry. Oneline entries carry only Hash and Subject.
type Commit struct {
	Hash    string `json:"hash"`
	Author  string `json:"author,omitempty"`
	Email   string `json:"email,omitempty"`
	Date    string `json:"date,omitempty"`
	Subject string `json:"subject"`
}

// Diff returns the diff of the working tree, or of the index when staged is
// true, optionally limited to files.
func (s *Service) Diff(ctx context.Context, rc *repo.Context, staged bool, files []string) (string, error) {
	// --no-ext-diff ensures output goes to stdout even if external diff is configured
	args := []string{"diff", "--no-ext-diff"}
	if staged {
		args = append(args, "--cached")
	}
	if len(files) > 0 {
		args = append(args, "--")
		args = append(args, files...)
	}
	res, err := s.run(ctx, rc, DiffTimeout, args...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Log returns the most recent limit commits of the current branch.
func (s *Service) Log(ctx context.Context, rc *repo.Context, limit int, oneline bool) ([]Commit, error) {
	args := []string{"log", "-n", strconv.Itoa(limit)}
	if oneline {
		args = append(args, "--oneline", "--no-decorate")
	} else {
		args = append(args, logFormat)
	}
	res, err := s.run(ctx, rc, LogTimeout, args...)
	if err != nil {
		return nil, err
	}
	if oneline {
		return ParseOneline(res.Stdout), nil
	}
	return ParseLog(res.Stdout), nil
}

// ParseLog parses output produced with logFormat.
func ParseLog(output string) []Commit {
	commits := []Commit{}
	for record := range strings.SplitSeq(output, recordSep) {
		record = strings.Trim(record, "\r\n")
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 5)
		if len(fields) < 5 {
			continue
		}
		commits = append(commits, Commit{
			Hash:    fields[0],
			Author:  fields[1],
			Email:   fields[2],
			Date:    fields[3],
			Subject: fields[4],
		})
	}
	return commits
}

// ParseOneline parses `git log --oneline` output.
func ParseOneline(output string) []Commit {
	commits := []Commit{}
	for line := range strings.SplitSeq(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hash, subject, _ := strings.Cut(line, " ")
		commits = append(commits, Commit{Hash: hash, Subject: subject})
	}
	return commits
}
