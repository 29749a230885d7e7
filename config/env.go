package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig           = "GITGATE_CONFIG"
	EnvWorkingDirectory = "GITGATE_WORKING_DIRECTORY"
	EnvName             = "GITGATE_NAME"
	EnvPrefix           = "GITGATE_PREFIX"
	EnvRemoteName       = "GITGATE_REMOTE_NAME"
	EnvLocalBranch      = "GITGATE_LOCAL_BRANCH"
	EnvRemoteBranch     = "GITGATE_REMOTE_BRANCH"
	EnvPullSource       = "GITGATE_PULL_SOURCE_BRANCH"
	EnvPushFlags        = "GITGATE_PUSH_FLAGS"
	EnvLanguage         = "GITGATE_LANGUAGE"
	EnvLogDir           = "GITGATE_LOG_DIR"
	EnvLogFile          = "GITGATE_LOG_FILE"
	EnvDebug            = "GITGATE_DEBUG"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables onto the config. Proxy settings
// are taken from the conventional HTTP_PROXY family, upper case first.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvWorkingDirectory, &c.WorkingDirectory)
	str(EnvName, &c.Name)
	str(EnvPrefix, &c.Prefix)
	str(EnvRemoteName, &c.RemoteName)
	str(EnvLocalBranch, &c.LocalBranch)
	str(EnvRemoteBranch, &c.RemoteBranch)
	str(EnvPullSource, &c.PullSourceBranch)
	str(EnvLanguage, &c.Language)
	str(EnvLogDir, &c.LogDir)
	str(EnvLogFile, &c.LogFile)

	if v, ok := lookup(EnvPushFlags); ok && v != "" {
		c.PushFlags = strings.Fields(v)
	}
	if v, ok := lookup(EnvDebug); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}

	proxy := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	proxy(&c.Proxy.HTTP, "HTTP_PROXY", "http_proxy")
	proxy(&c.Proxy.HTTPS, "HTTPS_PROXY", "https_proxy")
	proxy(&c.Proxy.All, "ALL_PROXY", "all_proxy")
	proxy(&c.Proxy.NoProxy, "NO_PROXY", "no_proxy")
}

// Env returns the KEY=VALUE overlay for git subprocesses. Both spellings are
// set since git and its helpers disagree on which one they read.
func (p Proxy) Env() []string {
	var env []string
	add := func(upper, value string) {
		if value == "" {
			return
		}
		env = append(env, upper+"="+value, strings.ToLower(upper)+"="+value)
	}
	add("HTTP_PROXY", p.HTTP)
	add("HTTPS_PROXY", p.HTTPS)
	add("ALL_PROXY", p.All)
	add("NO_PROXY", p.NoProxy)
	return env
}
