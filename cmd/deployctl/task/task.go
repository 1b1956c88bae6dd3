// Package task holds the deployctl commands. Every command loads the
// configuration it needs first, so a missing variable fails before any
// external tool is started.
package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/factories"
	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/AnotherFullstackDev/deployctl/internal/placeholders"
	"github.com/AnotherFullstackDev/deployctl/internal/placeholders/git"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
	"github.com/spf13/cobra"
)

const DefaultConfigFile = "./deployctl.yaml"

// Options are the global flags shared by all tasks.
type Options struct {
	ConfigPath  string
	Environment string
	DryRun      bool

	// Runner replaces the process runner when set.
	Runner runner.CommandRunner
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) source() (*config.Source, error) {
	path := o.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking default config file: %w", err)
		}
	}

	var (
		source *config.Source
		err    error
	)
	if path == "" {
		source = config.NewSource()
	} else {
		source, err = config.NewSourceFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if o.Environment != "" {
		source, err = source.WithEnvironment(o.Environment)
		if err != nil {
			return nil, fmt.Errorf("loading environment specific config: %w", err)
		}
	}

	return source, nil
}

func (o *Options) runner() runner.CommandRunner {
	if o.Runner != nil {
		return o.Runner
	}
	if o.DryRun {
		return runner.NewDryRunRunner(o.Stdout)
	}
	return runner.NewExecRunner(o.Stdout, o.Stderr)
}

// Locator loads the configuration enforcing required on top of the project
// and returns the services shared by the task.
func (o *Options) Locator(ctx context.Context, required ...string) (*factories.SharedServicesLocator, error) {
	source, err := o.source()
	if err != nil {
		return nil, err
	}

	// Git placeholders are resolved against the build context.
	buildContext, err := source.Lookup(lib.BuildContextEnv, config.DefaultBuildContext)
	if err != nil {
		return nil, err
	}
	gitInfo, err := git.NewRepositoryInfoService(buildContext)
	if err != nil {
		slog.DebugContext(ctx, "git placeholders are unavailable", "path", buildContext, "error", err)
		gitInfo = git.Unavailable(err)
	}

	cfg, err := config.Load(source, placeholders.NewService(gitInfo), required...)
	if err != nil {
		return nil, err
	}

	return factories.NewSharedServicesLocator(cfg, o.runner(), o.DryRun, o.Stdout, o.Stderr), nil
}

func NewTaskCmds(opts *Options) []*cobra.Command {
	return []*cobra.Command{
		newProvisionRegistryCmd(opts),
		newBuildAndPushCmd(opts),
		newDeployCmd(opts),
		newReleaseCmd(opts),
		newConfigCmd(opts),
	}
}
