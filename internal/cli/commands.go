// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/x/term"

	"venvscout/internal/config"
	"venvscout/internal/logging"
	"venvscout/internal/process"
	"venvscout/internal/session"
	"venvscout/internal/venv"
)

// Deps is everything the commands need from the outside world.
type Deps struct {
	Config    config.Config
	ConfigDir string
	Logs      logging.LoggerProvider
	Stdin     *os.File
	Stdout    io.Writer
	Stderr    io.Writer

	// Terminal reports whether stderr is an interactive terminal. Progress
	// bars are drawn only when it returns true.
	Terminal func() bool
	// Width is the terminal width used for truncating paths; 0 disables it.
	Width int
}

// StderrTerminal reports whether os.Stderr is a terminal and its width.
func StderrTerminal() (bool, int) {
	fd := os.Stderr.Fd()
	if !term.IsTerminal(fd) {
		return false, 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return true, 0
	}
	return true, w
}

// appEnv bundles Deps with the objects built from them.
type appEnv struct {
	Deps
	ctx    context.Context
	styles *Styles
	runner *process.Runner
}

func (e *appEnv) logger(scope string) *logging.ScopedLogger {
	if e.Logs == nil {
		return logging.NopLogger()
	}
	return e.Logs.For(scope)
}

func (e *appEnv) terminal() bool {
	return e.Terminal != nil && e.Terminal()
}

func (e *appEnv) dataDir() string {
	return config.DataDir(e.ConfigDir)
}

func (e *appEnv) newSession(creator *venv.Creator) *session.Session {
	return session.New(venv.NewFinder(e.logger("finder")), creator, e.logger("session"))
}

func (e *appEnv) newCreator(python, envName string) *venv.Creator {
	cfg := e.Config
	if python == "" {
		python = cfg.DetectedPython()
	}
	if envName == "" {
		envName = cfg.EnvName
	}
	return venv.NewCreator(venv.CreatorConfig{
		Python:  python,
		EnvName: envName,
		Timeout: cfg.Timeout(),
		LockDir: e.dataDir(),
	}, e.runner, e.logger("creator"))
}

func (e *appEnv) newOpener() *venv.Opener {
	return venv.NewOpener(e.runner, e.Config.DetectedFileManager(runtime.GOOS), e.Config.Editor)
}

// BuildApp creates and configures the CLI application with all commands and groups.
// ctx is cancelled on interrupt and stops long-running commands.
func BuildApp(ctx context.Context, version string, deps Deps) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}

	e := &appEnv{
		Deps:   deps,
		ctx:    ctx,
		styles: NewStyles(deps.Config.Theme),
	}
	e.runner = process.NewRunner(e.logger("process"))

	app := NewApp(version, deps.Stderr)

	app.AddCommand(findCommand(e))
	app.AddCommand(createCommand(e))
	app.AddCommand(activateCommand(e))
	app.AddCommand(shellCommand(e))
	app.AddCommand(infoCommand(e))

	openGroup := app.AddGroup("open", "Open a project folder in another program")
	registerOpenCommands(openGroup, e)

	app.AddCommand(watchCommand(e))

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: venvscout version",
		Run: func(args []string) error {
			fmt.Fprintln(e.Stdout, version)
			return nil
		},
	})

	return app
}
