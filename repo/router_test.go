package repo

import (
	"errors"
	"strings"
	"testing"
)

func TestNewSingle_Defaults(t *testing.T) {
	r, err := NewSingle(Context{WorkingDirectory: "/work"})
	if err != nil {
		t.Fatalf("NewSingle: %v", err)
	}
	if r.Multi() {
		t.Error("expected single-instance router")
	}

	c, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.RemoteName != "origin" {
		t.Errorf("RemoteName = %q, want origin", c.RemoteName)
	}
	if c.LocalBranch != "main" || c.RemoteBranch != "main" || c.PullSourceBranch != "main" {
		t.Errorf("unexpected branch mapping: %+v", c)
	}
	if c.Language != "en" {
		t.Errorf("Language = %q, want en", c.Language)
	}
}

func TestNewSingle_IgnoresName(t *testing.T) {
	r, err := NewSingle(Context{Name: "api", WorkingDirectory: "/work"})
	if err != nil {
		t.Fatalf("NewSingle: %v", err)
	}

	for _, name := range []string{"", "api", "something-else"} {
		c, err := r.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if c.WorkingDirectory != "/work" {
			t.Errorf("Resolve(%q) returned %q", name, c.WorkingDirectory)
		}
	}
}

func TestNormalize_PullSourceFollowsRemoteBranch(t *testing.T) {
	c := Context{WorkingDirectory: "/w", LocalBranch: "dev", RemoteBranch: "release"}
	c.Normalize()
	if c.PullSourceBranch != "release" {
		t.Errorf("PullSourceBranch = %q, want release", c.PullSourceBranch)
	}
	if got := c.Refspec(); got != "dev:release" {
		t.Errorf("Refspec = %q, want dev:release", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ctx     Context
		wantErr string
	}{
		{"ok", Context{WorkingDirectory: "/w", PushFlags: []string{"--force-with-lease", "-u"}}, ""},
		{"missing dir", Context{}, "working directory"},
		{"flag without dash", Context{WorkingDirectory: "/w", PushFlags: []string{"force"}}, "must start with"},
		{"flag with space", Context{WorkingDirectory: "/w", PushFlags: []string{"--push-option=a b"}}, "whitespace"},
		{"branch looks like option", Context{WorkingDirectory: "/w", RemoteBranch: "--delete"}, "not a valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.ctx
			c.Normalize()
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewMulti(t *testing.T) {
	r, err := NewMulti([]Context{
		{Name: "web-app", WorkingDirectory: "/repos/web"},
		{Name: "api", WorkingDirectory: "/repos/api", RemoteName: "upstream"},
	})
	if err != nil {
		t.Fatalf("NewMulti: %v", err)
	}
	if !r.Multi() {
		t.Error("expected multi-instance router")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "web-app" || names[1] != "api" {
		t.Errorf("Names() = %v, want [web-app api]", names)
	}

	c, err := r.Resolve("api")
	if err != nil {
		t.Fatalf("Resolve(api): %v", err)
	}
	if c.WorkingDirectory != "/repos/api" || c.RemoteName != "upstream" {
		t.Errorf("unexpected context: %+v", c)
	}
}

func TestNewMulti_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contexts []Context
	}{
		{"empty table", nil},
		{"missing name", []Context{{WorkingDirectory: "/w"}}},
		{"duplicate", []Context{{Name: "a", WorkingDirectory: "/a"}, {Name: "a", WorkingDirectory: "/b"}}},
		{"invalid context", []Context{{Name: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMulti(tt.contexts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolve_Multi(t *testing.T) {
	r, err := NewMulti([]Context{
		{Name: "web-app", WorkingDirectory: "/repos/web"},
		{Name: "api", WorkingDirectory: "/repos/api"},
	})
	if err != nil {
		t.Fatalf("NewMulti: %v", err)
	}

	_, err = r.Resolve("unknown")
	if !errors.Is(err, ErrRepositoryNotFound) {
		t.Fatalf("expected ErrRepositoryNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "web-app, api") {
		t.Errorf("expected available names in message, got %q", err.Error())
	}

	_, err = r.Resolve("")
	if !errors.Is(err, ErrRepositoryRequired) {
		t.Fatalf("expected ErrRepositoryRequired, got %v", err)
	}

	// Lookup is exact
	if _, err := r.Resolve("Web-App"); !errors.Is(err, ErrRepositoryNotFound) {
		t.Errorf("expected case-sensitive lookup, got %v", err)
	}
}
