// Package lookup runs the external tools the bot depends on: the port
// CLI for package metadata and date(1) for a user's local time.
package lookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Runner executes an external program and captures its standard output.
// A non-zero exit is reported through exitCode with a nil error; err is
// reserved for failures to start, timeouts and cancellation.
type Runner interface {
	Run(ctx context.Context, executable string, args, env []string) (stdout string, exitCode int, err error)
}

// ExecRunner runs programs with os/exec, bounded by Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, executable string, args, env []string) (string, int, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Stdout = &stdout
	cmd.WaitDelay = time.Second
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", -1, fmt.Errorf("%s: %w", executable, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return "", -1, fmt.Errorf("%s: %w", executable, err)
	}
	return stdout.String(), 0, nil
}
