// Package agent invokes the external MPIE analysis process and captures its
// output.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Result holds the outcome of one agent invocation.
type Result struct {
	ExitCode int
	Output   string // combined stdout and stderr, verbatim
}

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (output []byte, exitCode int, err error)
}

// ExecRunner is the default implementation using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its combined output and exit code.
// A non-zero exit is reported through exitCode, not err; err is reserved
// for failures to spawn at all.
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, exitErr.ExitCode(), nil
		}
		return output, -1, err
	}
	return output, 0, nil
}

// Runner spawns one analysis process per call. It holds no shared mutable
// state, so concurrent calls with independent input files are safe. The
// call blocks until the process exits; callers impose timeouts through ctx.
type Runner struct {
	Executable  string // path to the analyzer, e.g. <snapshot>/analyze.py
	Interpreter string // optional interpreter to run Executable with
	Command     CommandRunner
}

// Run invokes the analyzer against the dataset at inputPath, appending
// --data <inputPath> to args, and captures stdout and stderr merged into
// one stream (the agent interleaves diagnostics with report text). The
// runner's only job is faithful capture: a non-zero exit is returned in
// the Result, never as an error.
func (r *Runner) Run(ctx context.Context, inputPath string, args ...string) (*Result, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("dataset not readable: %w", err)
	}

	name := r.Executable
	argv := append([]string{}, args...)
	if r.Interpreter != "" {
		name = r.Interpreter
		argv = append([]string{r.Executable}, argv...)
	}
	argv = append(argv, "--data", inputPath)

	command := r.Command
	if command == nil {
		command = ExecRunner{}
	}

	output, exitCode, err := command.Run(ctx, name, argv)
	if err != nil {
		return nil, fmt.Errorf("failed to start analyzer: %w", err)
	}

	return &Result{ExitCode: exitCode, Output: string(output)}, nil
}
