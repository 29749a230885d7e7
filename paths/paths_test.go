package paths

import (
	"os"
	"path/filepath"
	"testing"
)

// setupTestHome creates a temp directory, sets HOME to it, and resets the path cache.
func setupTestHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	Reset()
	t.Cleanup(Reset)
	return tmpDir
}

func TestFreshInstallNoXDG(t *testing.T) {
	home := setupTestHome(t)
	expected := filepath.Join(home, ".gitgate")

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != expected {
		t.Errorf("ConfigDir = %q, want %q", configDir, expected)
	}

	stateDir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if stateDir != expected {
		t.Errorf("StateDir = %q, want %q", stateDir, expected)
	}

	if !IsFlatLayout() {
		t.Error("IsFlatLayout should be true for fresh install without XDG")
	}
}

func TestFlatDirTakesPrecedenceOverXDG(t *testing.T) {
	home := setupTestHome(t)
	flatDir := filepath.Join(home, ".gitgate")
	if err := os.MkdirAll(flatDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != flatDir {
		t.Errorf("ConfigDir = %q, want %q (flat dir should take precedence)", configDir, flatDir)
	}
	if !IsFlatLayout() {
		t.Error("IsFlatLayout should be true when ~/.gitgate/ exists")
	}
}

func TestXDGPartialVars(t *testing.T) {
	home := setupTestHome(t)

	xdgConfig := filepath.Join(home, "my-config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "gitgate"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q", configDir, want)
	}

	stateDir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if want := filepath.Join(home, ".local", "state", "gitgate"); stateDir != want {
		t.Errorf("StateDir = %q, want %q", stateDir, want)
	}

	if IsFlatLayout() {
		t.Error("IsFlatLayout should be false when using XDG")
	}
}

func TestDerivedPaths(t *testing.T) {
	home := setupTestHome(t)
	xdgConfig := filepath.Join(home, ".config")
	xdgState := filepath.Join(home, ".local", "state")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	t.Setenv("XDG_STATE_HOME", xdgState)
	Reset()

	cfgPath, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath: %v", err)
	}
	if want := filepath.Join(xdgConfig, "gitgate", "config.yaml"); cfgPath != want {
		t.Errorf("ConfigFilePath = %q, want %q", cfgPath, want)
	}

	logsDir, err := LogsDir()
	if err != nil {
		t.Fatalf("LogsDir: %v", err)
	}
	if want := filepath.Join(xdgState, "gitgate", "logs"); logsDir != want {
		t.Errorf("LogsDir = %q, want %q", logsDir, want)
	}

	logPath, err := DefaultLogPath()
	if err != nil {
		t.Fatalf("DefaultLogPath: %v", err)
	}
	if want := filepath.Join(logsDir, "gitgate.log"); logPath != want {
		t.Errorf("DefaultLogPath = %q, want %q", logPath, want)
	}
}

func TestConfigFilePath_PrefersExistingTOML(t *testing.T) {
	home := setupTestHome(t)
	dir := filepath.Join(home, ".gitgate")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	tomlPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(tomlPath, []byte("remote_name = \"origin\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath: %v", err)
	}
	if got != tomlPath {
		t.Errorf("ConfigFilePath = %q, want %q", got, tomlPath)
	}

	// Once config.yaml exists it wins
	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("remote_name: origin\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, _ = ConfigFilePath()
	if got != yamlPath {
		t.Errorf("ConfigFilePath = %q, want %q", got, yamlPath)
	}
}

func TestResetClearsCache(t *testing.T) {
	home := setupTestHome(t)

	dir1, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(home, ".gitgate"); dir1 != want {
		t.Errorf("ConfigDir = %q, want %q", dir1, want)
	}

	xdgConfig := filepath.Join(home, "new-config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	Reset()

	dir2, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir after reset: %v", err)
	}
	if want := filepath.Join(xdgConfig, "gitgate"); dir2 != want {
		t.Errorf("ConfigDir after reset = %q, want %q", dir2, want)
	}
}

func TestFlatFileNotDir(t *testing.T) {
	home := setupTestHome(t)
	// ~/.gitgate as a file must not be treated as the flat layout
	if err := os.WriteFile(filepath.Join(home, ".gitgate"), []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	xdgConfig := filepath.Join(home, ".config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "gitgate"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q", configDir, want)
	}
}

func TestExpandHome(t *testing.T) {
	home := setupTestHome(t)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/repos/web", filepath.Join(home, "repos", "web")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~other/path", "~other/path"},
	}

	for _, tt := range tests {
		got, err := ExpandHome(tt.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
