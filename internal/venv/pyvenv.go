// pattern: Functional Core

package venv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig is the parsed content of an environment's pyvenv.cfg.
type EnvConfig struct {
	Home                      string            `json:"home,omitempty"`
	Version                   string            `json:"version,omitempty"`
	IncludeSystemSitePackages bool              `json:"include_system_site_packages"`
	Executable                string            `json:"executable,omitempty"`
	Command                   string            `json:"command,omitempty"`
	Values                    map[string]string `json:"values,omitempty"`
}

// ReadConfig parses <envPath>/pyvenv.cfg.
func ReadConfig(envPath string) (EnvConfig, error) {
	f, err := os.Open(filepath.Join(envPath, MarkerFile))
	if err != nil {
		return EnvConfig{}, err
	}
	defer f.Close()
	cfg, err := ParseConfig(f)
	if err != nil {
		return EnvConfig{}, fmt.Errorf("parse %s: %w", f.Name(), err)
	}
	return cfg, nil
}

// ParseConfig reads "key = value" lines. Keys are case-insensitive; lines
// without '=' and '#' comments are ignored. The version comes from
// "version", "version_info" or "python" depending on which tool wrote it.
func ParseConfig(r io.Reader) (EnvConfig, error) {
	cfg := EnvConfig{Values: make(map[string]string)}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		cfg.Values[key] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return EnvConfig{}, err
	}

	cfg.Home = cfg.Values["home"]
	cfg.Executable = cfg.Values["executable"]
	cfg.Command = cfg.Values["command"]
	cfg.IncludeSystemSitePackages = strings.EqualFold(cfg.Values["include-system-site-packages"], "true")
	for _, k := range []string{"version", "version_info", "python"} {
		if v := cfg.Values[k]; v != "" {
			cfg.Version = v
			break
		}
	}
	return cfg, nil
}
