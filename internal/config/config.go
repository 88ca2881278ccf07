package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxDepth is the recursion bound used when none is configured.
const DefaultMaxDepth = 3

// DefaultEnvName is the directory name given to newly created environments.
const DefaultEnvName = "myenv"

type Config struct {
	Theme         string   `yaml:"theme"`
	LogLevel      string   `yaml:"log_level"`
	SearchPaths   []string `yaml:"search_paths"`
	MaxDepth      int      `yaml:"max_depth"`
	Python        string   `yaml:"python"`
	EnvName       string   `yaml:"env_name"`
	Editor        string   `yaml:"editor"`
	FileManager   string   `yaml:"file_manager"`
	CreateTimeout Duration `yaml:"create_timeout"`
}

// Duration is a time.Duration that reads Go duration strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// LookPathFunc is the function signature for looking up executables.
type LookPathFunc func(name string) (string, error)

func DefaultConfig() Config {
	return Config{
		Theme:         "mocha",
		LogLevel:      "info",
		MaxDepth:      DefaultMaxDepth,
		EnvName:       DefaultEnvName,
		Editor:        "code",
		CreateTimeout: Duration(10 * time.Minute),
	}
}

func Load() (Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFromDir loads config.yaml from dir.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

// LoadFrom reads configPath. A missing file yields the defaults.
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
	}

	if cfg.Theme == "" {
		cfg.Theme = "mocha"
	}
	if cfg.EnvName == "" {
		cfg.EnvName = DefaultEnvName
	}
	if cfg.Editor == "" {
		cfg.Editor = "code"
	}

	return cfg, cfg.Validate()
}

// Validate rejects values that no operation can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth))
	}
	if c.CreateTimeout < 0 {
		errs = append(errs, fmt.Errorf("create_timeout must not be negative"))
	}
	if strings.ContainsAny(c.EnvName, `/\`) || c.EnvName == "." || c.EnvName == ".." {
		errs = append(errs, fmt.Errorf("env_name must be a plain directory name, got %q", c.EnvName))
	}
	return errors.Join(errs...)
}

// Timeout returns the creation timeout; zero means no bound.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.CreateTimeout)
}

// ResolveSearchPaths expands a leading ~ in each search path.
func (c *Config) ResolveSearchPaths() []string {
	paths := make([]string, 0, len(c.SearchPaths))
	for _, p := range c.SearchPaths {
		paths = append(paths, ExpandHome(p))
	}
	return paths
}

// DetectedPython returns the environment tool to invoke.
func (c *Config) DetectedPython() string {
	return c.DetectedPythonWith(runtime.GOOS, exec.LookPath)
}

// DetectedPythonWith returns the configured tool, or the platform default:
// "python" on Windows and "python3" elsewhere. When the default is missing
// from PATH the other name is tried before giving up on detection.
func (c *Config) DetectedPythonWith(goos string, lookPath LookPathFunc) string {
	if c.Python != "" {
		return ExpandHome(c.Python)
	}

	primary, fallback := "python3", "python"
	if goos == "windows" {
		primary, fallback = "python", "python3"
	}
	if _, err := lookPath(primary); err == nil {
		return primary
	}
	if _, err := lookPath(fallback); err == nil {
		return fallback
	}
	return primary
}

// DetectedFileManager returns the configured file manager or the platform default.
func (c *Config) DetectedFileManager(goos string) string {
	if c.FileManager != "" {
		return c.FileManager
	}
	switch goos {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// DataDir returns the directory for logs and lock files. An explicit
// configDir wins; otherwise ~/.config/venvscout (or $XDG_CONFIG_HOME).
func DataDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	return filepath.Dir(getConfigPath())
}

func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "venvscout", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "venvscout", "config.yaml")
	}

	return filepath.Join(home, ".config", "venvscout", "config.yaml")
}
