package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/zhubert/gitgate/journal"
)

const reviewNote = "Reading pending changes marks them as reviewed and allows the next push."

// SaveChanges records a pending change for later review. It does not touch
// the review gate.
func (s *Service) SaveChanges(_ context.Context, args SaveChangesArgs) (*SaveChangesResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}

	pc, evicted, err := st.store.AddPending(st.rc.Name, args.Files, args.Content, intOr(args.Limit, 0))
	if err != nil {
		return nil, err
	}
	count := st.store.PendingCount()
	st.log.Info("pending change saved", "id", pc.ID, "files", len(pc.Files), "pending", count, "evicted", evicted)

	return &SaveChangesResult{
		Success:             true,
		Change:              pc,
		PendingChangesCount: count,
		Evicted:             evicted,
	}, nil
}

// GetPendingChanges returns a page of pending changes. As a side effect it
// opens the review gate and marks every pending change reviewed.
func (s *Service) GetPendingChanges(_ context.Context, args PendingChangesArgs) (*PendingChangesResult, error) {
	if err := check(args); err != nil {
		return nil, err
	}
	st, err := s.state(args.Repo)
	if err != nil {
		return nil, err
	}

	if err := st.store.MarkAllReviewed(); err != nil {
		return nil, fmt.Errorf("failed to mark changes reviewed: %w", err)
	}
	st.gate.MarkReviewed()

	limit := intOr(args.Limit, DefaultPendingLimit)
	offset := intOr(args.Offset, 0)
	all := st.store.Pending()
	page := lo.Slice(all, offset, offset+limit)
	if page == nil {
		page = []journal.PendingChange{}
	}

	st.log.Info("pending changes reviewed", "total", len(all), "returned", len(page))

	return &PendingChangesResult{
		Changes:  page,
		Total:    len(all),
		Offset:   offset,
		Limit:    limit,
		HasMore:  offset+len(page) < len(all),
		Reviewed: true,
		Note:     reviewNote,
	}, nil
}
