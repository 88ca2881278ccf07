package process

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNoPTY is returned when a pseudo-terminal could not be allocated.
var ErrNoPTY = errors.New("pseudo-terminal unavailable")

// Interactive is not supported on Windows.
func (r *Runner) Interactive(_ context.Context, _ Command, _ *os.File, _ io.Writer) (int, error) {
	return -1, ErrNoPTY
}
