// pattern: Imperative Shell
package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"venvscout/internal/instance"
	"venvscout/internal/session"
	"venvscout/internal/watch"
)

const watchUsage = "Usage: venvscout watch <root> [-d/--depth N] [--debounce 300ms] [--poll 5s] [--status]"

func watchCommand(e *appEnv) *Command {
	return &Command{
		Name:    "watch",
		Summary: "Rescan a folder whenever environments appear or disappear",
		Usage:   watchUsage + "\n\nOnly one watcher may run per root; --status reports whether one is running.\nSymlinked folders are followed like find does. Stop it with Ctrl-C.",
		Run: func(args []string) error {
			fs := flag.NewFlagSet("watch", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			depth := fs.IntP("depth", "d", e.Config.MaxDepth, "maximum folder depth below the root")
			debounce := fs.Duration("debounce", watch.DefaultDebounce, "quiet period before rescanning")
			poll := fs.Duration("poll", watch.DefaultPollInterval, "polling safeguard interval")
			status := fs.Bool("status", false, "report whether a watcher is running for root and exit")
			if err := fs.Parse(args); err != nil {
				return usagef("%v", err)
			}
			if fs.NArg() != 1 {
				return usagef("expected one root folder")
			}
			root := fs.Arg(0)

			if *status {
				held, err := instance.Held(e.dataDir(), watchLockName(root))
				if err != nil {
					return err
				}
				if held {
					fmt.Fprintln(e.Stdout, e.styles.SuccessStyle().Render("watcher running for "+root))
				} else {
					fmt.Fprintln(e.Stdout, e.styles.MutedStyle().Render("no watcher running for "+root))
				}
				return nil
			}

			fl, err := instance.Lock(e.dataDir(), watchLockName(root))
			if errors.Is(err, instance.ErrLocked) {
				return fmt.Errorf("another watcher is already running for %s", root)
			}
			if err != nil {
				return err
			}
			defer instance.Release(fl)

			sess := e.newSession(nil)
			defer sess.Close()

			w, err := watch.New(root, watch.Options{MaxDepth: *depth, Debounce: *debounce, PollInterval: *poll}, sess, e.logger("watch"))
			if err != nil {
				return err
			}

			fmt.Fprintln(e.Stderr, e.styles.AccentStyle().Render("watching "+root+" (Ctrl-C to stop)"))

			var mu sync.Mutex
			var wg sync.WaitGroup
			err = w.Run(e.ctx, func(task *session.ScanTask) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					envs, err := task.Wait()
					if errors.Is(err, context.Canceled) {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					stamp := e.styles.MutedStyle().Render("[" + time.Now().Format("15:04:05") + "]")
					if err != nil {
						fmt.Fprintf(e.Stderr, "%s %s\n", stamp, e.styles.ErrorStyle().Render(err.Error()))
						return
					}
					fmt.Fprintf(e.Stdout, "%s %s\n", stamp, e.styles.TitleStyle().Render(fmt.Sprintf("%d environments under %s", len(envs), root)))
					for _, env := range envs {
						fmt.Fprintf(e.Stdout, "  %s  %s\n", e.styles.ProjectStyle().Render(env.ProjectName), e.styles.PathStyle().Render(env.Path))
					}
				}()
			})
			wg.Wait()

			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// watchLockName identifies the watcher for root by its resolved path.
func watchLockName(root string) string {
	path, err := filepath.Abs(root)
	if err != nil {
		path = root
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	sum := sha256.Sum256([]byte(path))
	return "watch-" + hex.EncodeToString(sum[:8])
}
