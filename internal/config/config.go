// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the API key and the history DSN go to
// the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finbridge/cli/internal/bridge/runner"
	"finbridge/cli/internal/workspace"
	"finbridge/cli/internal/xdg"
)

// Environment overrides.
const (
	EnvRoot    = "FINBRIDGE_ROOT"
	EnvTimeout = "FINBRIDGE_TIMEOUT"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel    string          `json:"log_level"`
	Concurrency int             `json:"concurrency"`
	Workspace   WorkspaceConfig `json:"workspace"`
	Worker      WorkerConfig    `json:"worker"`
}

// WorkspaceConfig controls how the workspace root is found.
type WorkspaceConfig struct {
	// Root skips discovery when set.
	Root        string `json:"root,omitempty"`
	UIModuleDir string `json:"ui_module_dir"`
	EngineDir   string `json:"engine_dir"`
	SharedDir   string `json:"shared_dir"`
}

// WorkerConfig controls how the worker process is invoked.
type WorkerConfig struct {
	EntryScript    string            `json:"entry_script"`
	SelfTestScript string            `json:"selftest_script"`
	Interpreters   map[string]string `json:"interpreters"`
	// TimeoutSeconds bounds one worker run; 0 disables the limit.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	l := workspace.DefaultLayout()
	return Config{
		LogLevel:    "info",
		Concurrency: 2,
		Workspace: WorkspaceConfig{
			UIModuleDir: l.UIModuleDir,
			EngineDir:   l.EngineDir,
			SharedDir:   l.SharedDir,
		},
		Worker: WorkerConfig{
			EntryScript:    "api_entry.py",
			SelfTestScript: "selftest.py",
			Interpreters:   runner.DefaultInterpreters(),
			TimeoutSeconds: 600,
		},
	}
}

// Keys accepted by Set.
var Keys = []string{
	"log_level",
	"concurrency",
	"workspace.root",
	"worker.entry_script",
	"worker.selftest_script",
	"worker.timeout",
}

// Path returns the config file location, creating its directory if needed.
func Path() (string, error) { return path() }

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
// Fields absent from the file keep their defaults, and environment overrides
// are applied last.
func Load() (Config, error) {
	c, err := LoadFile()
	if err != nil {
		return c, err
	}
	return c.withEnv(), nil
}

// LoadFile reads the config file without environment overrides, for callers
// that modify and Save it.
func LoadFile() (Config, error) {
	c := Default()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c.normalize(), nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Layout returns the workspace layout described by the config.
func (c Config) Layout() workspace.Layout {
	l := workspace.DefaultLayout()
	l.UIModuleDir = c.Workspace.UIModuleDir
	if c.Workspace.EngineDir != "" {
		l.EngineDir = c.Workspace.EngineDir
	}
	if c.Workspace.SharedDir != "" {
		l.SharedDir = c.Workspace.SharedDir
	}
	if c.Worker.EntryScript != "" {
		l.Marker = c.Worker.EntryScript
	}
	return l
}

// Timeout returns the worker time limit; zero means unlimited.
func (c Config) Timeout() time.Duration {
	if c.Worker.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Worker.TimeoutSeconds) * time.Second
}

// normalize repairs values a hand-edited file may have emptied.
func (c Config) normalize() Config {
	d := Default()
	if c.Concurrency < 1 {
		c.Concurrency = d.Concurrency
	}
	if strings.TrimSpace(c.Worker.EntryScript) == "" {
		c.Worker.EntryScript = d.Worker.EntryScript
	}
	if strings.TrimSpace(c.Worker.SelfTestScript) == "" {
		c.Worker.SelfTestScript = d.Worker.SelfTestScript
	}
	if c.Worker.Interpreters == nil {
		c.Worker.Interpreters = d.Worker.Interpreters
	}
	return c
}

// Set changes the setting named key. worker.timeout takes whole seconds or a
// duration such as "90s"; 0 disables the limit. An empty workspace.root turns
// discovery back on.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("log_level must be debug, info, warn or error, got %q", value)
		}
	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("concurrency must be a positive integer, got %q", value)
		}
		c.Concurrency = n
	case "workspace.root":
		c.Workspace.Root = value
	case "worker.entry_script", "worker.selftest_script":
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		if key == "worker.entry_script" {
			c.Worker.EntryScript = value
		} else {
			c.Worker.SelfTestScript = value
		}
	case "worker.timeout":
		secs, ok := parseTimeout(value)
		if !ok {
			return fmt.Errorf("worker.timeout must be seconds or a duration, got %q", value)
		}
		c.Worker.TimeoutSeconds = secs
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// parseTimeout accepts whole seconds or a Go duration and returns seconds.
func parseTimeout(v string) (int, bool) {
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return secs, true
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return ceilSeconds(d), true
	}
	return 0, false
}

// ceilSeconds rounds d up to whole seconds so a positive limit never becomes 0,
// which would mean unlimited.
func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func (c Config) withEnv() Config {
	if root := strings.TrimSpace(os.Getenv(EnvRoot)); root != "" {
		c.Workspace.Root = root
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if secs, ok := parseTimeout(v); ok {
			c.Worker.TimeoutSeconds = secs
		}
	}
	return c
}
