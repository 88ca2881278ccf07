// pattern: Imperative Shell
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"venvscout/internal/events"
	"venvscout/internal/venv"
)

const createUsage = "Usage: venvscout create <parent-folder> <project-name> [--python PATH] [--env-name NAME]"

func createCommand(e *appEnv) *Command {
	return &Command{
		Name:    "create",
		Summary: "Create a project folder with a new virtual environment",
		Usage:   createUsage,
		Run: func(args []string) error {
			fs := flag.NewFlagSet("create", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			python := fs.String("python", "", "Python interpreter to run (default: from config or PATH)")
			envName := fs.String("env-name", "", "environment folder name inside the project")
			if err := fs.Parse(args); err != nil {
				return usagef("%v", err)
			}
			if fs.NArg() != 2 {
				return usagef("expected a parent folder and a project name")
			}

			sess := e.newSession(e.newCreator(*python, *envName))
			defer sess.Close()

			task := sess.StartCreate(e.ctx, fs.Arg(0), fs.Arg(1))
			for msg := range task.Events() {
				if m, ok := msg.(events.LogLineMsg); ok {
					fmt.Fprintln(e.Stderr, e.styles.MutedStyle().Render(m.Text))
				}
			}

			res, err := task.Wait()
			if err != nil {
				var procErr *venv.ExternalProcessError
				if errors.As(err, &procErr) && strings.TrimSpace(procErr.Stderr) != "" {
					fmt.Fprintln(e.Stderr, e.styles.ErrorStyle().Render("environment tool output:"))
					fmt.Fprintln(e.Stderr, indent(StripANSI(procErr.Stderr), "  "))
				}
				return err
			}

			fmt.Fprintln(e.Stdout, e.styles.SuccessStyle().Render(res.Message))
			fmt.Fprintln(e.Stdout, e.styles.PathStyle().Render("project: "+res.ProjectPath))
			return nil
		},
	}
}
