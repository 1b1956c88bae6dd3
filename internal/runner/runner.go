// Package runner starts the external tools deployctl delegates to. Arguments
// are always handed to the process as a discrete argv, never through a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
)

type CommandRunner interface {
	// Run streams the command output to the configured writers.
	Run(ctx context.Context, dir, name string, args ...string) error
	// RunOutput captures and returns the command stdout.
	RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

type ExecRunner struct {
	stdout io.Writer
	stderr io.Writer
	env    []string
}

func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &ExecRunner{
		stdout: stdout,
		stderr: stderr,
		env:    os.Environ(),
	}
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	command := exec.CommandContext(ctx, name, args...)
	command.Env = r.env
	command.Dir = dir
	command.Stdout = r.stdout
	command.Stderr = r.stderr

	slog.DebugContext(ctx, "running external command", "args", command.Args, "dir", dir)

	if err := command.Run(); err != nil {
		return newCommandError(name, args, "", err)
	}

	return nil
}

func (r *ExecRunner) RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	command := exec.CommandContext(ctx, name, args...)
	command.Env = r.env
	command.Dir = dir
	command.Stdout = &stdout
	command.Stderr = &stderr

	slog.DebugContext(ctx, "running external command with captured output", "args", command.Args, "dir", dir)

	if err := command.Run(); err != nil {
		return stdout.Bytes(), newCommandError(name, args, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}

func newCommandError(name string, args []string, stderr string, err error) *lib.CommandError {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &lib.CommandError{
		Name:     name,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}

// DryRunRunner prints every command line to out instead of executing it.
// Captured output is always empty.
type DryRunRunner struct {
	out io.Writer
}

func NewDryRunRunner(out io.Writer) *DryRunRunner {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunRunner{out}
}

func (r *DryRunRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	slog.DebugContext(ctx, "dry run: skipping command", "args", append([]string{name}, args...), "dir", dir)

	line := commandLine(name, args)
	if dir != "" {
		line = fmt.Sprintf("(cd %s && %s)", quoteArg(dir), line)
	}
	if _, err := fmt.Fprintf(r.out, "+ %s\n", line); err != nil {
		return fmt.Errorf("writing dry run output: %w", err)
	}
	return nil
}

func commandLine(name string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, quoteArg(name))
	for _, arg := range args {
		quoted = append(quoted, quoteArg(arg))
	}
	return strings.Join(quoted, " ")
}

// quoteArg quotes arguments that would not survive a copy-paste into a shell.
func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n'\"$`\\;&|<>*?") {
		return strconv.Quote(arg)
	}
	return arg
}

func (r *DryRunRunner) RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return nil, r.Run(ctx, dir, name, args...)
}
