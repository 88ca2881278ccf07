// pattern: Functional Core
package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// Group represents a group of related commands.
type Group struct {
	Name     string
	Summary  string
	Commands map[string]*Command
}

// App represents the top-level CLI application with groups and ungrouped commands.
type App struct {
	groups   map[string]*Group
	commands map[string]*Command
	order    []string
	version  string
	options  string
	stderr   io.Writer
}

// UsageError reports bad arguments; Execute prints the command usage for it.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// ExitError carries a specific exit code, such as that of an interactive
// shell, without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// NewApp creates a new CLI application with the given version.
// Help and errors are written to stderr.
func NewApp(version string, stderr io.Writer) *App {
	return &App{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		version:  version,
		stderr:   stderr,
	}
}

// SetOptions sets the global flag usage listed at the end of the help text.
func (a *App) SetOptions(usage string) {
	a.options = usage
}

// AddGroup creates and registers a new command group.
func (a *App) AddGroup(name, summary string) *Group {
	g := &Group{
		Name:     name,
		Summary:  summary,
		Commands: make(map[string]*Command),
	}
	a.groups[name] = g
	a.order = append(a.order, name)
	return g
}

// AddCommand registers an ungrouped (top-level) command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
	a.order = append(a.order, cmd.Name)
}

// AddCommand registers a command in the group.
func (g *Group) AddCommand(cmd *Command) {
	g.Commands[cmd.Name] = cmd
}

// Execute dispatches the CLI arguments to the appropriate command and
// returns the process exit code.
func (a *App) Execute(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		a.PrintHelp(a.stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmdName := args[0]

	// Check for ungrouped command
	if cmd, ok := a.commands[cmdName]; ok {
		return a.run(cmd, args[1:])
	}

	// Check for group
	if group, ok := a.groups[cmdName]; ok {
		// Group with no subcommand, "help", or --help/-h
		if len(args) < 2 || args[1] == "help" || args[1] == "--help" || args[1] == "-h" {
			group.PrintHelp(a.stderr)
			if len(args) < 2 {
				return 2
			}
			return 0
		}

		if cmd, ok := group.Commands[args[1]]; ok {
			return a.run(cmd, args[2:])
		}

		// Unknown command in group
		group.PrintHelp(a.stderr)
		return 2
	}

	// Unknown command
	fmt.Fprintf(a.stderr, "Error: unknown command %q\n\n", cmdName)
	a.PrintHelp(a.stderr)
	return 2
}

// run executes cmd and maps its error to an exit code.
func (a *App) run(cmd *Command, args []string) int {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--help" || arg == "-h" {
			fmt.Fprintf(a.stderr, "%s\n", cmd.Usage)
			return 0
		}
	}

	err := cmd.Run(args)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(a.stderr, "Error: %s\n%s\n", usageErr.Msg, cmd.Usage)
		return 2
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return 1
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: venvscout [options] <command>\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range a.order {
		if cmd, ok := a.commands[name]; ok {
			fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
		}
		if group, ok := a.groups[name]; ok {
			fmt.Fprintf(w, "  %-10s %s\n", group.Name, group.Summary)
		}
	}
	fmt.Fprintf(w, "\nUse \"venvscout <command> --help\" for command details.\n\n")
	fmt.Fprintf(w, "Options:\n%s", a.options)
}

// PrintHelp prints help for a specific group.
func (g *Group) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: venvscout %s <command>\n\n", g.Name)
	fmt.Fprintf(w, "Commands:\n")
	// Sort command names for deterministic output
	names := slices.Sorted(maps.Keys(g.Commands))
	for _, name := range names {
		cmd := g.Commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\nUse \"venvscout %s <command> --help\" for command details.\n", g.Name)
}
