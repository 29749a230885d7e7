// Package config loads gitgate's startup configuration.
//
// Values are layered: built-in defaults, then a YAML or TOML file, then
// GITGATE_* and standard proxy environment variables. Command-line flags are
// applied on top by the caller before Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zhubert/gitgate/paths"
	"github.com/zhubert/gitgate/repo"
)

// Proxy holds proxy settings injected into every git subprocess.
type Proxy struct {
	HTTP    string `yaml:"http" toml:"http" validate:"omitempty,url"`
	HTTPS   string `yaml:"https" toml:"https" validate:"omitempty,url"`
	All     string `yaml:"all" toml:"all" validate:"omitempty,url"`
	NoProxy string `yaml:"no_proxy" toml:"no_proxy"`
}

// Repository is one entry of the multi-instance context table. Unset branch
// mapping fields inherit the top-level values.
type Repository struct {
	Name             string   `yaml:"name" toml:"name" validate:"required,reponame"`
	WorkingDirectory string   `yaml:"working_directory" toml:"working_directory" validate:"required"`
	RemoteName       string   `yaml:"remote_name" toml:"remote_name"`
	LocalBranch      string   `yaml:"local_branch" toml:"local_branch"`
	RemoteBranch     string   `yaml:"remote_branch" toml:"remote_branch"`
	PullSourceBranch string   `yaml:"pull_source_branch" toml:"pull_source_branch"`
	PushFlags        []string `yaml:"push_flags" toml:"push_flags" validate:"dive,pushflag"`
	Language         string   `yaml:"language" toml:"language" validate:"omitempty,oneof=en zh"`
}

// Config holds the gitgate configuration
type Config struct {
	// Single-instance context; also the defaults for Repositories entries.
	Name             string   `yaml:"name" toml:"name" validate:"omitempty,reponame"`
	WorkingDirectory string   `yaml:"working_directory" toml:"working_directory"`
	RemoteName       string   `yaml:"remote_name" toml:"remote_name"`
	LocalBranch      string   `yaml:"local_branch" toml:"local_branch"`
	RemoteBranch     string   `yaml:"remote_branch" toml:"remote_branch"`
	PullSourceBranch string   `yaml:"pull_source_branch" toml:"pull_source_branch"`
	PushFlags        []string `yaml:"push_flags" toml:"push_flags" validate:"dive,pushflag"`
	Language         string   `yaml:"language" toml:"language" validate:"omitempty,oneof=en zh"`

	// Prefix is prepended to every tool name as "<prefix>_<tool>".
	Prefix string `yaml:"prefix" toml:"prefix" validate:"omitempty,toolprefix"`
	// LogDir holds the operation journal. Empty means in-memory until set_log_dir.
	LogDir string `yaml:"log_dir" toml:"log_dir"`
	// LogFile receives diagnostics; empty means stderr.
	LogFile string `yaml:"log_file" toml:"log_file"`
	Debug   bool   `yaml:"debug" toml:"debug"`

	Proxy        Proxy        `yaml:"proxy" toml:"proxy"`
	Repositories []Repository `yaml:"repositories" toml:"repositories" validate:"unique=Name,dive"`

	filePath string
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		RemoteName:  repo.DefaultRemote,
		LocalBranch: repo.DefaultBranch,
		Language:    repo.DefaultLanguage,
	}
}

// FilePath returns the file the config was loaded from, or "" if none.
func (c *Config) FilePath() string {
	return c.filePath
}

// Multi reports whether a repository table is configured.
func (c *Config) Multi() bool {
	return len(c.Repositories) > 0
}

// Load reads the config file at path over the defaults. An empty path uses
// the default location, where a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := paths.ConfigFilePath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	path, err := paths.ExpandHome(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.filePath = path
	return cfg, nil
}

// decode unmarshals data into cfg, choosing the format by file extension.
// Unknown keys are rejected so typos don't silently fall back to defaults.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
}
