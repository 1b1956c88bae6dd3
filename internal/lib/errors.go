package lib

import (
	"errors"
	"fmt"
	"strings"
)

var (
	BadUserInputError         = errors.New("bad user input")
	MissingConfigurationError = errors.New("missing configuration")
	InvalidServiceNameError   = errors.New("invalid service name")
)

// CommandError is returned when an external tool exits unsuccessfully.
// ExitCode is -1 when the process could not be started at all.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", strings.Join(append([]string{e.Name}, e.Args...), " "), e.ExitCode)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(e.Stderr))
	}
	if e.Err != nil && e.ExitCode < 0 {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCodeFromError returns the exit code the process should terminate with
// for the given error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return 0
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}

	return 1
}
