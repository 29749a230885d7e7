package exec

import (
	"fmt"
	"strings"
	"time"
)

// Error codes reported to callers for command failures.
const (
	CodeCommandTimeout = "COMMAND_TIMEOUT"
	CodeCommandFailed  = "COMMAND_FAILED"
	CodeSpawnError     = "SPAWN_ERROR"
)

// TimeoutError is returned when a command exceeds its timeout and is killed.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Result  Result // output captured before the process was killed
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Command, e.Timeout)
}

// ErrorCode implements the coded error contract used by the RPC layer.
func (e *TimeoutError) ErrorCode() string { return CodeCommandTimeout }

// FailedError is returned when a command exits with a nonzero status.
type FailedError struct {
	Command string
	Result  Result
}

func (e *FailedError) Error() string {
	detail := strings.TrimSpace(e.Result.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Result.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("%s failed with exit code %d", e.Command, e.Result.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Command, e.Result.ExitCode, detail)
}

func (e *FailedError) ErrorCode() string { return CodeCommandFailed }

// SpawnError is returned when the process could not be started at all
// (missing binary, bad working directory, permissions).
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) ErrorCode() string { return CodeSpawnError }
