package factories

import (
	"io"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
)

// SharedServicesLocator carries what every task of one invocation shares.
type SharedServicesLocator struct {
	Config *config.Config
	Runner runner.CommandRunner
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer
}

func NewSharedServicesLocator(config *config.Config, runner runner.CommandRunner, dryRun bool, stdout, stderr io.Writer) *SharedServicesLocator {
	return &SharedServicesLocator{
		config,
		runner,
		dryRun,
		stdout,
		stderr,
	}
}

func (l *SharedServicesLocator) WithConfig(config *config.Config) *SharedServicesLocator {
	return &SharedServicesLocator{
		config,
		l.Runner,
		l.DryRun,
		l.Stdout,
		l.Stderr,
	}
}
