package exec

import (
	"context"
	"slices"
	"sync"
)

// MockResponse defines the response for a mocked command. A nonzero ExitCode
// without Err produces a *FailedError, mirroring RealExecutor.
type MockResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// CommandMatcher is a function that determines if a command matches.
type CommandMatcher func(dir, name string, args []string) bool

// MockRule defines a matching rule and its response.
type MockRule struct {
	Match    CommandMatcher
	Response MockResponse
}

// MockExecutor returns pre-recorded responses for commands and records every
// invocation (including Env and Timeout) for verification.
// Commands are matched in order of rule registration.
type MockExecutor struct {
	mu       sync.RWMutex
	rules    []MockRule
	calls    []Command
	fallback CommandExecutor
}

// NewMockExecutor creates a new MockExecutor.
// If fallback is provided, unmatched commands will be delegated to it;
// otherwise they succeed with empty output.
func NewMockExecutor(fallback CommandExecutor) *MockExecutor {
	return &MockExecutor{fallback: fallback}
}

// AddRule adds a matching rule with its response.
func (e *MockExecutor) AddRule(match CommandMatcher, response MockResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, MockRule{Match: match, Response: response})
}

// AddExactMatch adds a rule that matches a specific command exactly.
func (e *MockExecutor) AddExactMatch(name string, args []string, response MockResponse) {
	e.AddRule(func(dir, n string, a []string) bool {
		return n == name && slices.Equal(a, args)
	}, response)
}

// AddPrefixMatch adds a rule that matches commands starting with specific args.
func (e *MockExecutor) AddPrefixMatch(name string, prefixArgs []string, response MockResponse) {
	e.AddRule(func(dir, n string, a []string) bool {
		if n != name || len(a) < len(prefixArgs) {
			return false
		}
		return slices.Equal(a[:len(prefixArgs)], prefixArgs)
	}, response)
}

// GetCalls returns all recorded command invocations.
func (e *MockExecutor) GetCalls() []Command {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.calls)
}

// CallsWithPrefix returns recorded invocations of name whose args start with prefixArgs.
func (e *MockExecutor) CallsWithPrefix(name string, prefixArgs ...string) []Command {
	var out []Command
	for _, c := range e.GetCalls() {
		if c.Name == name && len(c.Args) >= len(prefixArgs) && slices.Equal(c.Args[:len(prefixArgs)], prefixArgs) {
			out = append(out, c)
		}
	}
	return out
}

// ClearCalls clears the recorded command invocations.
func (e *MockExecutor) ClearCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *MockExecutor) findMatch(dir, name string, args []string) *MockResponse {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rule := range e.rules {
		if rule.Match(dir, name, args) {
			resp := rule.Response
			return &resp
		}
	}
	return nil
}

// Execute returns the response of the first matching rule.
func (e *MockExecutor) Execute(ctx context.Context, c Command) (*Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	e.mu.Unlock()

	resp := e.findMatch(c.Dir, c.Name, c.Args)
	if resp == nil {
		if e.fallback != nil {
			return e.fallback.Execute(ctx, c)
		}
		return &Result{}, nil
	}

	res := &Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, &FailedError{Command: c.String(), Result: *res}
	}
	return res, nil
}

var _ CommandExecutor = (*MockExecutor)(nil)
