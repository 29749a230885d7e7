// Package exec abstracts subprocess execution for testability.
// Production code uses RealExecutor, which spawns the binary directly (never
// through a shell), while tests inject a MockExecutor that returns
// pre-recorded responses.
package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/zhubert/gitgate/logger"
)

// waitDelay bounds how long Wait blocks on inherited pipes after the process
// has been killed (e.g. a credential helper still holding stdout open).
const waitDelay = 2 * time.Second

// Command describes a single subprocess invocation. Args are passed to the
// binary verbatim.
type Command struct {
	Dir     string
	Name    string
	Args    []string
	Env     []string      // KEY=VALUE entries layered over the inherited environment
	Timeout time.Duration // zero means only the caller's context applies
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the captured output of a finished command.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Execute runs the command to completion. A nil error means exit code 0;
	// otherwise the error is a *TimeoutError, *FailedError, *SpawnError, or
	// the caller's context error.
	Execute(ctx context.Context, cmd Command) (*Result, error)
}

// RealExecutor executes commands using os/exec.
type RealExecutor struct {
	log *slog.Logger
}

// NewRealExecutor returns a new RealExecutor that streams subprocess output
// to the diagnostic logger.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{log: logger.WithComponent("exec")}
}

// Execute runs the command, streaming stdout/stderr line by line to the
// diagnostic log while buffering the full text for the result.
func (e *RealExecutor) Execute(ctx context.Context, c Command) (*Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLog := newLineLogger(e.log, c.Name, "stdout")
	stderrLog := newLineLogger(e.log, c.Name, "stderr")
	cmd.Stdout = io.MultiWriter(&stdoutBuf, stdoutLog)
	cmd.Stderr = io.MultiWriter(&stderrBuf, stderrLog)

	e.log.Debug("running command", "dir", c.Dir, "cmd", c.String(), "timeout", c.Timeout)
	start := time.Now()
	err := cmd.Run()
	stdoutLog.Flush()
	stderrLog.Flush()

	res := &Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		e.log.Debug("command finished", "cmd", c.Name, "duration", time.Since(start))
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			e.log.Warn("command timed out", "cmd", c.String(), "timeout", c.Timeout)
			return res, &TimeoutError{Command: c.String(), Timeout: c.Timeout, Result: *res}
		}
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		e.log.Debug("command failed", "cmd", c.String(), "exitCode", res.ExitCode)
		return res, &FailedError{Command: c.String(), Result: *res}
	}

	e.log.Error("failed to spawn command", "cmd", c.Name, "dir", c.Dir, "error", err)
	return nil, &SpawnError{Command: c.String(), Err: err}
}

// lineLogger forwards complete lines written to it to a logger at debug level.
type lineLogger struct {
	log    *slog.Logger
	name   string
	stream string
	mu     sync.Mutex
	buf    []byte
}

func newLineLogger(log *slog.Logger, name, stream string) *lineLogger {
	return &lineLogger{log: log, name: name, stream: stream}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.emit(l.buf[:i])
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) > 0 {
		l.emit(l.buf)
		l.buf = nil
	}
}

func (l *lineLogger) emit(line []byte) {
	text := strings.TrimRight(string(line), "\r")
	if text == "" {
		return
	}
	l.log.Debug("output", "cmd", l.name, "stream", l.stream, "line", text)
}

var _ CommandExecutor = (*RealExecutor)(nil)
