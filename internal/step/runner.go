package step

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/pipewright/pipewright/internal/config"
)

// ExecRunner runs commands via the OS, streaming output to the parent
// process.
type ExecRunner struct{}

// Run executes the command in dir with the given environment. A non-zero
// exit is returned as an error.
func (ExecRunner) Run(ctx context.Context, dir string, env []string, cmd config.Command) error {
	if cmd.Empty() {
		return fmt.Errorf("empty command")
	}
	c := exec.CommandContext(ctx, cmd.Program(), cmd.Args()...)
	c.Dir = dir
	c.Env = env
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w", cmd.Program(), err)
	}
	return nil
}
