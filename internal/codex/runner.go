package codex

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined joins stdout and stderr the way a terminal would show them.
func (o Output) Combined() string {
	return o.Stdout + "\n" + o.Stderr
}

// Runner executes the Codex CLI. A non-zero exit is reported through
// Output.ExitCode; the error is reserved for processes that could not start or
// were stopped by ctx.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

type ExecRunner struct{}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "LANG="+envOr("LANG", "C.UTF-8"), "LC_ALL="+envOr("LC_ALL", "C.UTF-8"))

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
