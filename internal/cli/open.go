// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
)

// registerOpenCommands registers the open command group commands.
// Both commands open the folder containing the given path.
func registerOpenCommands(group *Group, e *appEnv) {
	opener := e.newOpener()

	group.AddCommand(openCommand(e, "explorer", "Open the containing folder in the file manager", opener.Explorer))
	group.AddCommand(openCommand(e, "editor", "Open the containing folder in the code editor", opener.Editor))
}

func openCommand(e *appEnv, name, summary string, open func(context.Context, string) (string, error)) *Command {
	return &Command{
		Name:    name,
		Summary: summary,
		Usage:   fmt.Sprintf("Usage: venvscout open %s <environment-path>", name),
		Run: func(args []string) error {
			if len(args) != 1 {
				return usagef("expected one environment path")
			}
			dir, err := open(e.ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(e.Stdout, e.styles.SuccessStyle().Render("opened "+dir))
			return nil
		},
	}
}
