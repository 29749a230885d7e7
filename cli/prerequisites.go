// Package cli checks the external tools gitgate needs at runtime.
package cli

import (
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/zhubert/gitgate/exec"
)

// VersionTimeout bounds each version check.
const VersionTimeout = 10 * time.Second

// Prerequisite represents a required CLI tool
type Prerequisite struct {
	Name        string // Command name (e.g., "git")
	Required    bool   // Whether the tool is required to run the app
	Description string // Human-readable description
	InstallURL  string // URL for installation instructions
	VersionArgs []string
}

// DefaultPrerequisites returns the list of CLI tools needed by gitgate
func DefaultPrerequisites() []Prerequisite {
	return []Prerequisite{
		{
			Name:        "git",
			Required:    true,
			Description: "Git version control",
			InstallURL:  "https://git-scm.com/downloads",
			VersionArgs: []string{"--version"},
		},
	}
}

// CheckResult contains the result of checking a prerequisite
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string // Path to the executable if found
	Version      string // Version string if available
	Error        error
}

// Checker looks tools up in PATH and asks for their versions through an
// executor.
type Checker struct {
	executor exec.CommandExecutor
	lookPath func(string) (string, error)
}

// NewChecker creates a Checker. A nil executor uses the real one.
func NewChecker(e exec.CommandExecutor) *Checker {
	if e == nil {
		e = exec.NewRealExecutor()
	}
	return &Checker{executor: e, lookPath: osexec.LookPath}
}

// Check verifies that a CLI tool is available in PATH
func (c *Checker) Check(ctx context.Context, prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path, err := c.lookPath(prereq.Name)
	if err != nil {
		result.Error = fmt.Errorf("%s not found in PATH", prereq.Name)
		return result
	}

	result.Found = true
	result.Path = path
	result.Version = c.version(ctx, prereq)
	return result
}

// CheckAll verifies all prerequisites and returns results
func (c *Checker) CheckAll(ctx context.Context, prereqs []Prerequisite) []CheckResult {
	results := make([]CheckResult, len(prereqs))
	for i, prereq := range prereqs {
		results[i] = c.Check(ctx, prereq)
	}
	return results
}

// ValidateRequired returns an error describing every required tool that
// was not found.
func ValidateRequired(results []CheckResult) error {
	var missing []string

	for _, r := range results {
		if !r.Prerequisite.Required || r.Found {
			continue
		}
		missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
			r.Prerequisite.Name, r.Prerequisite.Description, r.Prerequisite.InstallURL))
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required CLI tools:\n%s", strings.Join(missing, "\n"))
	}

	return nil
}

// version returns the first line of the tool's version output, or "".
func (c *Checker) version(ctx context.Context, prereq Prerequisite) string {
	if len(prereq.VersionArgs) == 0 {
		return ""
	}
	res, err := c.executor.Execute(ctx, exec.Command{
		Name:    prereq.Name,
		Args:    prereq.VersionArgs,
		Timeout: VersionTimeout,
	})
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(res.Stdout, "\n")
	line = strings.TrimSpace(line)
	// Limit length to avoid overly long version strings
	if len(line) > 100 {
		line = line[:100] + "..."
	}
	return line
}

// FormatCheckResults formats check results for display
func FormatCheckResults(results []CheckResult) string {
	var sb strings.Builder

	sb.WriteString("CLI Prerequisites:\n")
	for _, r := range results {
		status := "✓"
		if !r.Found {
			if r.Prerequisite.Required {
				status = "✗"
			} else {
				status = "○"
			}
		}

		fmt.Fprintf(&sb, "  %s %s", status, r.Prerequisite.Name)
		if r.Found && r.Version != "" {
			fmt.Fprintf(&sb, " (%s)", r.Version)
		} else if !r.Found {
			if r.Prerequisite.Required {
				sb.WriteString(" [REQUIRED]")
			} else {
				sb.WriteString(" [optional]")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
