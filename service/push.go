package service

import (
	"context"
	"strings"

	"github.com/zhubert/gitgate/git"
	"github.com/zhubert/gitgate/journal"
	"github.com/zhubert/gitgate/review"
)

// Push runs the review-gated push workflow: stage, commit, push.
//
// When unreviewed changes are pending it returns review.Guidance and runs no
// git command. Otherwise staging and commit failures are logged and the push
// is still attempted; only a failing push step returns an error (*PushError).
// The gate is closed after every attempt that gets past it, and the pending
// list is cleared only when the push succeeds. Every call, blocked or not,
// appends a push history entry.
//
// The returned value is *PushResult on success or review.Guidance when blocked.
func (s *Service) Push(ctx context.Context, args PushArgs) (any, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}
	rc := st.rc
	log := st.log.With("op", "push")

	rec := st.store.NewPushRecord()
	rec.Context = *rc
	rec.Message = args.Message
	if last, ok := st.store.LastSuccessfulPush(); ok && last.Message == args.Message {
		rec.DuplicateOf = last.ID
		log.Warn("push message matches the last successful push", "duplicate_of", last.ID)
	}

	pending := st.store.PendingCount()
	if err := st.gate.Check(pending); err != nil {
		rec.Error = review.CodeChangesNotReviewed
		rec.Stages = []string{journal.StageBlocked}
		s.recordPush(st, rec)
		log.Info("push blocked", "pending", pending)
		return review.NotReviewed(pending, s.ToolName(ToolGetPendingChanges), s.ToolName(ToolGitPush), rc.Language), nil
	}
	defer st.gate.Reset()

	// Staging
	rec.Stages = append(rec.Stages, journal.StageStaging)
	staged := false
	status, err := s.git.Status(ctx, rc)
	switch {
	case err != nil:
		log.Warn("status failed, staging everything", "error", err)
	case status.HasStaged():
		staged = true
	}
	if !staged {
		if _, err := s.git.AddAll(ctx, rc); err != nil {
			log.Warn("staging failed, continuing", "error", err)
		} else {
			staged = true
		}
	}

	// Committing
	rec.Stages = append(rec.Stages, journal.StageCommitting)
	committed := false
	commitNote := ""
	if _, err := s.git.Commit(ctx, rc, args.Message); err != nil {
		if git.IsNothingToCommit(err) {
			commitNote = "nothing to commit, pushing existing commits"
			log.Info("nothing to commit")
		} else {
			commitNote = "commit failed: " + err.Error()
			log.Warn("commit failed, continuing", "error", err)
		}
	} else {
		committed = true
	}

	// Pushing
	rec.Stages = append(rec.Stages, journal.StagePushing)
	res, err := s.git.Push(ctx, rc)
	if err != nil {
		rec.Stages = append(rec.Stages, journal.StageFailed)
		rec.Error = err.Error()
		out, ok := commandResult(err)
		if ok {
			code := out.ExitCode
			rec.ExitCode = &code
		}
		s.recordPush(st, rec)
		log.Error("push failed", "error", err)
		return nil, &PushError{Repo: rc.Name, HistoryID: rec.ID, Result: out, Err: err}
	}

	cleared, err := st.store.ClearPending()
	if err != nil {
		log.Warn("failed to persist cleared pending changes", "error", err)
	}
	rec.Success = true
	rec.Stages = append(rec.Stages, journal.StageDone)
	s.recordPush(st, rec)
	log.Info("push complete", "remote", rc.RemoteName, "refspec", rc.Refspec(), "cleared", cleared)

	return &PushResult{
		Success:           true,
		Message:           args.Message,
		Remote:            rc.RemoteName,
		LocalBranch:       rc.LocalBranch,
		RemoteBranch:      rc.RemoteBranch,
		Staged:            staged,
		Committed:         committed,
		CommitNote:        commitNote,
		Output:            combinedOutput(res.Stdout, res.Stderr),
		ClearedChanges:    cleared,
		ReviewStatusReset: true,
		HistoryID:         rec.ID,
		DuplicateOf:       rec.DuplicateOf,
		Stages:            rec.Stages,
	}, nil
}

// recordPush appends rec to the history. A persistence failure is logged
// and never changes the outcome of the push.
func (s *Service) recordPush(st *contextState, rec journal.PushRecord) {
	if err := st.store.AppendPush(rec); err != nil {
		st.log.Warn("failed to persist push history", "id", rec.ID, "error", err)
	}
}

// combinedOutput joins stdout and stderr. git push reports progress on stderr.
func combinedOutput(stdout, stderr string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{stdout, stderr} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
