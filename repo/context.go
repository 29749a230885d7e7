// Package repo models repository contexts and resolves caller-supplied
// repository names to them.
package repo

import (
	"fmt"
	"strings"
)

// Default branch mapping used when a context leaves fields unset.
const (
	DefaultRemote   = "origin"
	DefaultBranch   = "main"
	DefaultLanguage = "en"
)

// Context is the resolved configuration an operation runs against.
// A Context is immutable once the router has been built.
type Context struct {
	Name             string   `json:"name,omitempty"`
	WorkingDirectory string   `json:"working_directory"`
	RemoteName       string   `json:"remote_name"`
	LocalBranch      string   `json:"local_branch"`
	RemoteBranch     string   `json:"remote_branch"`
	PullSourceBranch string   `json:"pull_source_branch"`
	PushFlags        []string `json:"push_flags,omitempty"`
	Language         string   `json:"language,omitempty"`

	// Env holds KEY=VALUE entries (proxy settings) layered over the process
	// environment of every git subprocess. Not serialized: it may carry
	// credentials embedded in proxy URLs.
	Env []string `json:"-"`
}

// Label returns the context name, or "default" for the unnamed context.
func (c *Context) Label() string {
	if c.Name == "" {
		return "default"
	}
	return c.Name
}

// Refspec returns the "<local>:<remote>" argument passed to git push.
func (c *Context) Refspec() string {
	return c.LocalBranch + ":" + c.RemoteBranch
}

// Normalize fills unset branch mapping fields with their defaults.
// The pull source defaults to the remote branch.
func (c *Context) Normalize() {
	if c.RemoteName == "" {
		c.RemoteName = DefaultRemote
	}
	if c.LocalBranch == "" {
		c.LocalBranch = DefaultBranch
	}
	if c.RemoteBranch == "" {
		c.RemoteBranch = c.LocalBranch
	}
	if c.PullSourceBranch == "" {
		c.PullSourceBranch = c.RemoteBranch
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
}

// Validate checks the fields git is invoked with. Push flags are passed to
// git verbatim, so each must be a single option token.
func (c *Context) Validate() error {
	if c.WorkingDirectory == "" {
		return fmt.Errorf("repository %s: working directory is required", c.Label())
	}
	for _, f := range c.PushFlags {
		if !strings.HasPrefix(f, "-") {
			return fmt.Errorf("repository %s: push flag %q must start with '-'", c.Label(), f)
		}
		if strings.ContainsAny(f, " \t\r\n") {
			return fmt.Errorf("repository %s: push flag %q must not contain whitespace", c.Label(), f)
		}
	}
	for _, b := range []string{c.RemoteName, c.LocalBranch, c.RemoteBranch, c.PullSourceBranch} {
		if strings.HasPrefix(b, "-") {
			return fmt.Errorf("repository %s: %q is not a valid remote or branch name", c.Label(), b)
		}
	}
	return nil
}
