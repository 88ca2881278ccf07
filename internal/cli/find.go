// pattern: Imperative Shell
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"
	flag "github.com/spf13/pflag"

	"venvscout/internal/discovery"
	"venvscout/internal/events"
	"venvscout/internal/venv"
)

const findUsage = "Usage: venvscout find [root] [-d/--depth N] [--json] [-f/--filter PATTERN] [--details] [-l/--log]"

type findOptions struct {
	depth   int
	json    bool
	filter  string
	details bool
	log     bool
}

func findCommand(e *appEnv) *Command {
	return &Command{
		Name:    "find",
		Summary: "Find virtual environments below a folder",
		Usage:   findUsage + "\n\nWithout a root, every configured search path is scanned.",
		Run: func(args []string) error {
			fs := flag.NewFlagSet("find", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			var opts findOptions
			fs.IntVarP(&opts.depth, "depth", "d", e.Config.MaxDepth, "maximum folder depth below the root")
			fs.BoolVar(&opts.json, "json", false, "print results as JSON")
			fs.StringVarP(&opts.filter, "filter", "f", "", "fuzzy-match project names")
			fs.BoolVar(&opts.details, "details", false, "read pyvenv.cfg of each environment")
			fs.BoolVarP(&opts.log, "log", "l", false, "print scan log lines to stderr")
			if err := fs.Parse(args); err != nil {
				return usagef("%v", err)
			}
			if opts.depth < 0 {
				return usagef("%v", venv.ErrInvalidDepth)
			}

			switch fs.NArg() {
			case 0:
				roots := e.Config.ResolveSearchPaths()
				if len(roots) == 0 {
					return usagef("no root given and no search_paths configured")
				}
				return runFindAll(e, roots, opts)
			case 1:
				return runFind(e, fs.Arg(0), opts)
			default:
				return usagef("too many arguments")
			}
		},
	}
}

// runFind scans a single root through a Session, rendering its events.
func runFind(e *appEnv, root string, opts findOptions) error {
	sess := e.newSession(nil)
	defer sess.Close()

	var bar *progressLine
	if e.terminal() && !opts.json {
		bar = newProgressLine(e.Stderr, e.styles)
	}

	task := sess.StartScan(e.ctx, root, opts.depth)
	for msg := range task.Events() {
		switch m := msg.(type) {
		case events.ScanProgressMsg:
			if bar != nil {
				bar.Update(m.Progress)
			}
		case events.LogLineMsg:
			if opts.log {
				if bar != nil {
					bar.Clear()
				}
				fmt.Fprintln(e.Stderr, e.styles.MutedStyle().Render(m.Text))
			}
		}
	}
	if bar != nil {
		bar.Clear()
	}

	envs, err := task.Wait()
	if err != nil {
		return err
	}
	if err := e.ctx.Err(); err != nil {
		return err
	}

	return printEnvironments(e, envs, opts)
}

// runFindAll scans every root in turn and prints the combined list.
func runFindAll(e *appEnv, roots []string, opts findOptions) error {
	scanner := discovery.NewScanner(venv.NewFinder(e.logger("finder")))

	var bar *progressLine
	if e.terminal() && !opts.json {
		bar = newProgressLine(e.Stderr, e.styles)
	}
	rep := venv.ReporterFuncs{
		OnProgress: func(p venv.Progress) {
			if bar != nil {
				bar.Update(p)
			}
		},
		OnLogLine: func(text string) {
			if opts.log {
				if bar != nil {
					bar.Clear()
				}
				fmt.Fprintln(e.Stderr, e.styles.MutedStyle().Render(text))
			}
		},
	}

	results := scanner.ScanAll(e.ctx, roots, opts.depth, rep)
	if bar != nil {
		bar.Clear()
	}
	if err := e.ctx.Err(); err != nil {
		return err
	}

	var envs []venv.DiscoveredEnvironment
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(e.Stderr, "%s %s: %v\n", e.styles.WarnStyle().Render("skipped"), r.Root, r.Err)
			continue
		}
		envs = append(envs, r.Environments...)
	}
	return printEnvironments(e, envs, opts)
}

// filterEnvironments keeps environments whose project name fuzzy-matches
// pattern, best match first.
func filterEnvironments(envs []venv.DiscoveredEnvironment, pattern string) []venv.DiscoveredEnvironment {
	if strings.TrimSpace(pattern) == "" {
		return envs
	}
	names := make([]string, len(envs))
	for i, env := range envs {
		names[i] = env.ProjectName
	}
	matches := fuzzy.Find(pattern, names)
	out := make([]venv.DiscoveredEnvironment, 0, len(matches))
	for _, m := range matches {
		out = append(out, envs[m.Index])
	}
	return out
}

func printEnvironments(e *appEnv, envs []venv.DiscoveredEnvironment, opts findOptions) error {
	envs = filterEnvironments(envs, opts.filter)
	if opts.details {
		for i := range envs {
			if cfg, err := venv.ReadConfig(envs[i].Path); err == nil {
				envs[i].Config = &cfg
			}
		}
	}

	if opts.json {
		if envs == nil {
			envs = []venv.DiscoveredEnvironment{}
		}
		enc := json.NewEncoder(e.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(envs)
	}

	nameWidth := 0
	for _, env := range envs {
		nameWidth = max(nameWidth, len(env.ProjectName))
	}
	for _, env := range envs {
		name := fmt.Sprintf("%-*s", nameWidth, env.ProjectName)
		path := env.Path
		if e.Width > 0 {
			path = TruncatePath(path, e.Width-nameWidth-2)
		}
		line := e.styles.ProjectStyle().Render(name) + "  " + e.styles.PathStyle().Render(path)
		if env.Config != nil && env.Config.Version != "" {
			line += "  " + e.styles.AccentStyle().Render("python "+env.Config.Version)
		}
		fmt.Fprintln(e.Stdout, line)
	}

	noun := "environments"
	if len(envs) == 1 {
		noun = "environment"
	}
	fmt.Fprintln(e.Stderr, e.styles.MutedStyle().Render(fmt.Sprintf("%d %s found", len(envs), noun)))
	return nil
}
