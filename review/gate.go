// Package review implements the review-before-push gate.
//
// A Gate is a latch per repository context. Reading the pending changes
// (get_pending_changes) opens it; every push attempt that gets past the gate
// closes it again, whatever the outcome. While it is closed and unreviewed
// changes exist, pushes are refused with guidance instead of an error.
package review

import (
	"errors"
	"sync"
	"time"
)

// CodeChangesNotReviewed identifies the soft block in results.
const CodeChangesNotReviewed = "CHANGES_NOT_REVIEWED"

// ErrChangesNotReviewed is returned by Check when a push must be blocked.
var ErrChangesNotReviewed = errors.New("pending changes have not been reviewed")

// Gate tracks whether pending changes have been reviewed since the last
// push attempt.
type Gate struct {
	mu         sync.Mutex
	reviewed   bool
	reviewedAt time.Time
}

// MarkReviewed opens the gate.
func (g *Gate) MarkReviewed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reviewed = true
	g.reviewedAt = time.Now().UTC()
}

// Reset closes the gate. Called after every push attempt.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reviewed = false
	g.reviewedAt = time.Time{}
}

// Reviewed reports whether the gate is open.
func (g *Gate) Reviewed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reviewed
}

// ReviewedAt returns when the gate was last opened, or the zero time.
func (g *Gate) ReviewedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reviewedAt
}

// Check returns ErrChangesNotReviewed when there are pending changes and the
// gate is closed. With nothing pending a push may always proceed.
func (g *Gate) Check(pending int) error {
	if pending > 0 && !g.Reviewed() {
		return ErrChangesNotReviewed
	}
	return nil
}
