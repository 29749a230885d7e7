package mcp

import (
	"errors"

	"github.com/zhubert/gitgate/exec"
	"github.com/zhubert/gitgate/repo"
	"github.com/zhubert/gitgate/service"
)

// Values of ErrorData.Code not defined by another package.
const (
	DataCodeRepositoryNotFound = "REPOSITORY_NOT_FOUND"
	DataCodeInternal           = "INTERNAL"
)

// ErrorData is the data member of every error the server returns for a
// failed tool call. Command failures carry the captured output.
type ErrorData struct {
	Code      string `json:"code"`
	Repo      string `json:"repo,omitempty"`
	HistoryID string `json:"history_id,omitempty"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
}

func withResult(d ErrorData, r exec.Result) ErrorData {
	d.Stdout = r.Stdout
	d.Stderr = r.Stderr
	code := r.ExitCode
	d.ExitCode = &code
	return d
}

// codedError is implemented by the command and push errors. ErrorCode
// names the failure in data.code and selects the JSON-RPC code.
type codedError interface {
	error
	ErrorCode() string
}

var rpcCodes = map[string]int{
	exec.CodeCommandFailed:  CodeCommandFailed,
	exec.CodeCommandTimeout: CodeCommandTimeout,
	exec.CodeSpawnError:     CodeSpawnError,
	service.CodePushFailed:  CodePushFailed,
}

// rpcErrorFrom maps a domain error to its JSON-RPC envelope. The outermost
// coded error in the chain decides the code, so a PushError wins over the
// command error it wraps.
func rpcErrorFrom(err error) *RPCError {
	msg := err.Error()

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return &RPCError{Code: CodeInvalidParams, Message: msg, Data: ErrorData{Code: service.CodeInvalidArgument}}
	case errors.Is(err, repo.ErrRepositoryNotFound):
		return &RPCError{Code: CodeRepositoryNotFound, Message: msg, Data: ErrorData{Code: DataCodeRepositoryNotFound}}
	}

	var coded codedError
	if !errors.As(err, &coded) {
		return &RPCError{Code: CodeInternalError, Message: msg, Data: ErrorData{Code: DataCodeInternal}}
	}
	code, ok := rpcCodes[coded.ErrorCode()]
	if !ok {
		code = CodeInternalError
	}
	return &RPCError{Code: code, Message: msg, Data: errorData(coded)}
}

// errorData builds the data member, attaching captured command output.
func errorData(coded codedError) ErrorData {
	data := ErrorData{Code: coded.ErrorCode()}
	switch e := coded.(type) {
	case *service.PushError:
		data.Repo = e.Repo
		data.HistoryID = e.HistoryID
		var spawn *exec.SpawnError
		if !errors.As(e, &spawn) {
			data = withResult(data, e.Result)
		}
	case *exec.FailedError:
		data = withResult(data, e.Result)
	case *exec.TimeoutError:
		data.Stdout = e.Result.Stdout
		data.Stderr = e.Result.Stderr
	}
	return data
}
