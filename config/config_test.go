package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/zhubert/gitgate/paths"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	paths.Reset()
	t.Cleanup(paths.Reset)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FilePath() != "" {
		t.Errorf("expected no file path, got %q", cfg.FilePath())
	}
	if cfg.RemoteName != "origin" || cfg.LocalBranch != "main" || cfg.Language != "en" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "gitgate.yaml", `
prefix: gg
remote_name: upstream
local_branch: dev
push_flags: ["--force-with-lease"]
log_dir: /var/log/gitgate
proxy:
  https: http://proxy.local:3128
repositories:
  - name: web-app
    working_directory: /repos/web
  - name: api
    working_directory: /repos/api
    remote_branch: release
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FilePath() != p {
		t.Errorf("FilePath = %q, want %q", cfg.FilePath(), p)
	}
	if cfg.Prefix != "gg" || cfg.RemoteName != "upstream" || cfg.LocalBranch != "dev" {
		t.Errorf("unexpected top-level values: %+v", cfg)
	}
	if !cfg.Multi() || len(cfg.Repositories) != 2 {
		t.Fatalf("expected 2 repositories, got %d", len(cfg.Repositories))
	}
	if cfg.Repositories[1].RemoteBranch != "release" {
		t.Errorf("expected api remote_branch release, got %q", cfg.Repositories[1].RemoteBranch)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "gitgate.toml", `
name = "solo"
working_directory = "/repos/solo"
remote_branch = "trunk"

[proxy]
http = "http://proxy.local:8080"
no_proxy = "localhost"
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "solo" || cfg.WorkingDirectory != "/repos/solo" || cfg.RemoteBranch != "trunk" {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.Proxy.HTTP != "http://proxy.local:8080" || cfg.Proxy.NoProxy != "localhost" {
		t.Errorf("unexpected proxy: %+v", cfg.Proxy)
	}
	// Defaults survive for keys the file leaves out
	if cfg.RemoteName != "origin" {
		t.Errorf("RemoteName = %q, want origin", cfg.RemoteName)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	yamlPath := writeFile(t, dir, "bad.yaml", "remote_nmae: origin\n")
	if _, err := Load(yamlPath); err == nil {
		t.Error("expected error for unknown YAML key")
	}

	tomlPath := writeFile(t, dir, "bad.toml", "remote_nmae = \"origin\"\n")
	if _, err := Load(tomlPath); err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("expected unknown keys error for TOML, got %v", err)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.json", "{}")
	_, err := Load(p)
	if err == nil || !strings.Contains(err.Error(), "unsupported config format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RemoteName != "origin" {
		t.Errorf("expected defaults for empty file, got %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.RemoteName = "from-file"

	cfg.ApplyEnv(envMap(map[string]string{
		EnvRemoteName:       "upstream",
		EnvWorkingDirectory: "/env/repo",
		EnvPushFlags:        "--force-with-lease  --no-verify",
		EnvPrefix:           "gg",
		EnvDebug:            "true",
		"https_proxy":       "http://lower.local:1",
		"HTTPS_PROXY":       "http://upper.local:2",
		"NO_PROXY":          "localhost,127.0.0.1",
		EnvLocalBranch:      "",
	}))

	if cfg.RemoteName != "upstream" {
		t.Errorf("RemoteName = %q, want upstream", cfg.RemoteName)
	}
	if cfg.WorkingDirectory != "/env/repo" {
		t.Errorf("WorkingDirectory = %q", cfg.WorkingDirectory)
	}
	if !slices.Equal(cfg.PushFlags, []string{"--force-with-lease", "--no-verify"}) {
		t.Errorf("PushFlags = %v", cfg.PushFlags)
	}
	if !cfg.Debug {
		t.Error("expected Debug to be enabled")
	}
	if cfg.Proxy.HTTPS != "http://upper.local:2" {
		t.Errorf("expected upper-case proxy variable to win, got %q", cfg.Proxy.HTTPS)
	}
	if cfg.Proxy.NoProxy != "localhost,127.0.0.1" {
		t.Errorf("NoProxy = %q", cfg.Proxy.NoProxy)
	}
	// Empty values do not clear lower layers
	if cfg.LocalBranch != "main" {
		t.Errorf("LocalBranch = %q, want main", cfg.LocalBranch)
	}
}

func TestProxyEnv(t *testing.T) {
	p := Proxy{HTTPS: "http://proxy:3128", NoProxy: "localhost"}
	got := p.Env()
	want := []string{
		"HTTPS_PROXY=http://proxy:3128", "https_proxy=http://proxy:3128",
		"NO_PROXY=localhost", "no_proxy=localhost",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Env() = %v, want %v", got, want)
	}

	if env := (Proxy{}).Env(); len(env) != 0 {
		t.Errorf("expected empty overlay, got %v", env)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad prefix", func(c *Config) { c.Prefix = "1bad prefix" }, "prefix"},
		{"bad language", func(c *Config) { c.Language = "xx" }, "language must be one of"},
		{"bad push flag", func(c *Config) { c.PushFlags = []string{"force"} }, "push_flags"},
		{"bad proxy url", func(c *Config) { c.Proxy.HTTPS = "not a url" }, "not a valid URL"},
		{"repo missing dir", func(c *Config) {
			c.Repositories = []Repository{{Name: "web"}}
		}, "repositories[0].working_directory is required"},
		{"duplicate repo names", func(c *Config) {
			c.Repositories = []Repository{
				{Name: "web", WorkingDirectory: "/a"},
				{Name: "web", WorkingDirectory: "/b"},
			}
		}, "unique"},
		{"bad repo name", func(c *Config) {
			c.Repositories = []Repository{{Name: "web app", WorkingDirectory: "/a"}}
		}, "invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
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

func TestRouter_Single(t *testing.T) {
	cfg := Default()
	cfg.Name = "solo"
	cfg.WorkingDirectory = "/repos/solo"
	cfg.Proxy.HTTP = "http://proxy:1"

	r, err := cfg.Router()
	if err != nil {
		t.Fatalf("Router: %v", err)
	}
	if r.Multi() {
		t.Fatal("expected single-instance router")
	}
	c, _ := r.Resolve("")
	if c.Name != "solo" || c.WorkingDirectory != "/repos/solo" {
		t.Errorf("unexpected context: %+v", c)
	}
	if !slices.Contains(c.Env, "HTTP_PROXY=http://proxy:1") {
		t.Errorf("expected proxy overlay, got %v", c.Env)
	}
}

func TestRouter_SingleDefaultsToCwd(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	r, err := Default().Router()
	if err != nil {
		t.Fatalf("Router: %v", err)
	}
	c, _ := r.Resolve("")
	if c.WorkingDirectory != wd {
		t.Errorf("WorkingDirectory = %q, want %q", c.WorkingDirectory, wd)
	}
}

func TestRouter_MultiInheritsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	cfg.RemoteName = "upstream"
	cfg.PushFlags = []string{"--no-verify"}
	cfg.Repositories = []Repository{
		{Name: "web-app", WorkingDirectory: "~/repos/web"},
		{Name: "api", WorkingDirectory: "/repos/api", RemoteName: "origin", PushFlags: []string{"-u"}},
	}

	r, err := cfg.Router()
	if err != nil {
		t.Fatalf("Router: %v", err)
	}

	web, err := r.Resolve("web-app")
	if err != nil {
		t.Fatalf("Resolve(web-app): %v", err)
	}
	if web.WorkingDirectory != filepath.Join(home, "repos", "web") {
		t.Errorf("expected ~ expansion, got %q", web.WorkingDirectory)
	}
	if web.RemoteName != "upstream" || !slices.Equal(web.PushFlags, []string{"--no-verify"}) {
		t.Errorf("expected inherited settings, got %+v", web)
	}

	api, _ := r.Resolve("api")
	if api.RemoteName != "origin" || !slices.Equal(api.PushFlags, []string{"-u"}) {
		t.Errorf("expected per-repo overrides, got %+v", api)
	}
}
