package verify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/ppiankov/dyadt/internal/model"
)

// stderrTail bounds how much of a failing command's stderr ends up in a report
const stderrTail = 512

// CommandRunner spawns a process and reports how it exited.
// A non-zero exit is not an error; errors mean the process could not be run.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string) (CommandResult, error)
}

// CommandResult describes a finished process
type CommandResult struct {
	ExitCode int
	Stderr   string
}

// ExecRunner runs commands with os/exec, inheriting the caller's environment
// unless Env is set.
type ExecRunner struct {
	Dir string
	Env []string
}

// Run executes command with args and waits for it to exit
func (r ExecRunner) Run(ctx context.Context, command string, args []string) (CommandResult, error) {
	//nolint:gosec // G204: running the claimed command is the point
	cmd := exec.CommandContext(ctx, command, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stderr: tail(stderr.String(), stderrTail)}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

func (e *Evaluator) checkCommand(ctx context.Context, ev model.CommandSucceeds) model.Finding {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, ev.Command); err != nil {
			return model.Errored("wait to spawn %s: %v", ev.Command, err)
		}
	}

	res, err := e.runner.Run(ctx, ev.Command, ev.Args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// A killed process exits non-zero; that observes nothing about the claim
		return model.Errored("command %s interrupted: %v", ev.Command, ctxErr)
	}
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return model.Unverifiable("command not found: %s", ev.Command)
		case errors.Is(err, fs.ErrPermission):
			return model.Unverifiable("command not executable: %s: %v", ev.Command, err)
		default:
			return model.Errored("spawn %s: %v", ev.Command, err)
		}
	}

	if res.ExitCode != ev.ExpectedExitCode {
		if res.Stderr != "" {
			return model.Refuted("command exited with code %d, expected %d: %s", res.ExitCode, ev.ExpectedExitCode, res.Stderr)
		}
		return model.Refuted("command exited with code %d, expected %d", res.ExitCode, ev.ExpectedExitCode)
	}
	return model.Confirmed("command exited with code %d", res.ExitCode)
}

// tail keeps the last n bytes of s, trimmed of surrounding whitespace
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + strings.TrimSpace(s[len(s)-n:])
}
