package venv

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	in := `home = /usr/local/bin
include-system-site-packages = TRUE
version = 3.11.4
executable = /usr/local/bin/python3.11
command = /usr/local/bin/python3 -m venv /work/demo/myenv
# comment
garbage line
`
	cfg, err := ParseConfig(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Home != "/usr/local/bin" {
		t.Errorf("Home = %q", cfg.Home)
	}
	if !cfg.IncludeSystemSitePackages {
		t.Error("IncludeSystemSitePackages should be true")
	}
	if cfg.Version != "3.11.4" {
		t.Errorf("Version = %q", cfg.Version)
	}
	if cfg.Command != "/usr/local/bin/python3 -m venv /work/demo/myenv" {
		t.Errorf("Command = %q", cfg.Command)
	}
	if len(cfg.Values) != 5 {
		t.Errorf("Values has %d keys, want 5", len(cfg.Values))
	}
}

func TestParseConfig_VersionInfo(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("home = /x\nimplementation = CPython\nversion_info = 3.13.0\nuv = 0.4.0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != "3.13.0" {
		t.Errorf("Version = %q", cfg.Version)
	}
}

func TestReadConfig_Missing(t *testing.T) {
	if _, err := ReadConfig(filepath.Join(t.TempDir(), "nothing")); err == nil {
		t.Fatal("expected error for missing pyvenv.cfg")
	}
}
