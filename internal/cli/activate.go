// pattern: Imperative Shell
package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"venvscout/internal/process"
	"venvscout/internal/venv"
)

func activateCommand(e *appEnv) *Command {
	return &Command{
		Name:    "activate",
		Summary: "Run an environment's activation script",
		Usage:   "Usage: venvscout activate <environment-path>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("expected one environment path")
			}
			script, err := venv.NewActivator(e.runner, "").Activate(e.ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(e.Stdout, e.styles.SuccessStyle().Render("activation script ran: "+script))
			fmt.Fprintln(e.Stderr, e.styles.MutedStyle().Render("the activation only applies to its own shell; use \"venvscout shell\" to work inside the environment"))
			return nil
		},
	}
}

func shellCommand(e *appEnv) *Command {
	return &Command{
		Name:    "shell",
		Summary: "Start an interactive shell with an environment activated",
		Usage:   "Usage: venvscout shell <environment-path>\n\nThe shell is $SHELL (default /bin/sh). Exit it to return.",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("expected one environment path")
			}
			fmt.Fprintln(e.Stderr, e.styles.AccentStyle().Render("entering "+args[0]+" (exit the shell to return)"))

			code, err := venv.NewActivator(e.runner, "").Shell(e.ctx, args[0], e.Stdin, e.Stdout)
			if errors.Is(err, process.ErrNoPTY) {
				return fmt.Errorf("interactive shells are not supported on %s", runtime.GOOS)
			}
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}

func infoCommand(e *appEnv) *Command {
	return &Command{
		Name:    "info",
		Summary: "Show details from an environment's pyvenv.cfg",
		Usage:   "Usage: venvscout info <environment-path>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("expected one environment path")
			}
			cfg, err := venv.ReadConfig(args[0])
			if err != nil {
				return err
			}

			title := e.styles.TitleStyle()
			key := e.styles.MutedStyle()
			fmt.Fprintln(e.Stdout, title.Render(args[0]))

			row := func(k, v string) {
				if v != "" {
					fmt.Fprintf(e.Stdout, "  %s %s\n", key.Render(fmt.Sprintf("%-14s", k)), v)
				}
			}
			row("version", cfg.Version)
			row("home", cfg.Home)
			row("executable", cfg.Executable)
			row("system-site", fmt.Sprintf("%t", cfg.IncludeSystemSitePackages))
			row("command", cfg.Command)

			known := []string{"home", "version", "version_info", "python", "include-system-site-packages", "executable", "command"}
			var extra []string
			for k := range cfg.Values {
				if !slices.Contains(known, k) {
					extra = append(extra, k)
				}
			}
			slices.Sort(extra)
			for _, k := range extra {
				row(k, cfg.Values[k])
			}

			script := venv.ActivationScript(args[0], runtime.GOOS)
			status := e.styles.SuccessStyle().Render("present")
			if _, err := os.Stat(script); err != nil {
				status = e.styles.WarnStyle().Render("missing")
			}
			row("activate", strings.Join([]string{script, status}, " "))
			return nil
		},
	}
}
