//go:build !windows

// pattern: Imperative Shell

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/creack/pty"
)

// ErrNoPTY is returned when a pseudo-terminal could not be allocated.
var ErrNoPTY = errors.New("pseudo-terminal unavailable")

// Interactive runs cmd attached to a pseudo-terminal, wiring stdin and out
// to it until the program exits. When stdin is a terminal it is switched to
// raw mode for the duration and window size changes are forwarded.
// It returns the program's exit code.
func (r *Runner) Interactive(ctx context.Context, cmd Command, stdin *os.File, out io.Writer) (int, error) {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(c.Environ(), cmd.Env...)

	ptmx, err := pty.Start(c)
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrNoPTY, err)
	}
	defer func() { _ = ptmx.Close() }()

	r.logger.Info("interactive process started", "process", cmd.Name, "command", cmd.String())

	if fd := stdin.Fd(); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err == nil {
			defer func() { _ = term.Restore(fd, state) }()
		}

		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		defer func() {
			signal.Stop(winch)
			close(winch)
		}()
		go func() {
			for range winch {
				_ = pty.InheritSize(stdin, ptmx)
			}
		}()
		winch <- syscall.SIGWINCH
	}

	go func() { _, _ = io.Copy(ptmx, stdin) }()
	// Reading the master returns EIO once the child side closes.
	_, _ = io.Copy(out, ptmx)

	err = c.Wait()
	if err == nil {
		r.logger.Info("interactive process exited", "process", cmd.Name)
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.logger.Info("interactive process exited", "process", cmd.Name, "exit_code", exitErr.ExitCode())
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
