package service

import (
	"errors"
	"fmt"

	"github.com/zhubert/gitgate/exec"
)

// Error codes reported in results and error data.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodePushFailed      = "PUSH_FAILED"
)

// ErrInvalidArgument wraps every argument validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// PushError is returned when the push step itself fails. Staging and commit
// failures never produce it.
type PushError struct {
	Repo      string
	HistoryID string
	Result    exec.Result
	Err       error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push failed: %v", e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// ErrorCode implements the coded error contract used by the RPC layer.
func (e *PushError) ErrorCode() string { return CodePushFailed }

// commandResult extracts the captured output from an executor error.
func commandResult(err error) (exec.Result, bool) {
	var failed *exec.FailedError
	if errors.As(err, &failed) {
		return failed.Result, true
	}
	var timeout *exec.TimeoutError
	if errors.As(err, &timeout) {
		return timeout.Result, true
	}
	return exec.Result{}, false
}
