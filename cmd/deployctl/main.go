package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AnotherFullstackDev/deployctl/cmd/deployctl/task"
	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newRootCmd(opts *task.Options) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "deployctl",
		Short:         "Deployctl provisions Artifact Registry, builds and pushes images and deploys them to Cloud Run.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Stdout == nil {
				opts.Stdout = cmd.OutOrStdout()
			}
			if opts.Stderr == nil {
				opts.Stderr = cmd.ErrOrStderr()
			}
			return setupLogger(cmd.ErrOrStderr(), logLevel)
		},
	}

	defaultLogLevel := os.Getenv(lib.LogLevelEnv)
	if defaultLogLevel == "" {
		defaultLogLevel = "info"
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", os.Getenv(lib.ConfigFileEnv), "Path to a YAML config file (default "+task.DefaultConfigFile+" if present)")
	flags.StringVar(&opts.Environment, "env", "", "Apply the overrides declared under environments.<env> in the config file")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Log the external commands instead of running them")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(task.NewTaskCmds(opts)...)

	return rootCmd
}

func setupLogger(w io.Writer, level string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w - unknown log level '%s'", lib.BadUserInputError, level)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           parsed,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(logger))

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(&task.Options{}).ExecuteContext(ctx)
	stop()

	if err != nil {
		slog.Error("deployctl failed", "error", err)
	}
	os.Exit(lib.ExitCodeFromError(err))
}
