package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/factories"
	"github.com/spf13/cobra"
)

func deploy(ctx context.Context, serviceFactory *factories.ServiceFactory) error {
	provider, closeProvider, err := serviceFactory.NewCloudProvider(ctx)
	if err != nil {
		return fmt.Errorf("getting cloud provider: %w", err)
	}
	defer func() {
		if err := closeProvider(); err != nil {
			slog.WarnContext(ctx, "closing cloud provider", "error", err)
		}
	}()

	if err := provider.DeployServiceFromImage(ctx, serviceFactory.NewRegistry()); err != nil {
		return fmt.Errorf("deploying service: %w", err)
	}
	return nil
}

func newDeployCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the pushed image to Cloud Run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			locator, err := opts.Locator(ctx, config.DeployRequirements...)
			if err != nil {
				return err
			}

			return deploy(ctx, factories.NewServiceFactory(locator))
		},
	}
}
