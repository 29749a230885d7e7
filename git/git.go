// Package git runs the git operations exposed by gitgate against a
// repository context.
//
// The package is organized into focused modules:
//   - service.go: Service struct, constructor, timeouts
//   - status.go: porcelain status parsing
//   - commit.go: staging and committing
//   - remote.go: push and pull
//   - history.go: diff and log
//
// Only git's text output is parsed; nothing here reimplements git itself.
package git
