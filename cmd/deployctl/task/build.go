package task

import (
	"context"
	"fmt"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/factories"
	"github.com/spf13/cobra"
)

func buildAndPush(ctx context.Context, serviceFactory *factories.ServiceFactory) error {
	if err := serviceFactory.NewImageService().BuildAndPush(ctx); err != nil {
		return fmt.Errorf("building and pushing image: %w", err)
	}
	return nil
}

func newBuildAndPushCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "build-and-push",
		Short: "Build the container image and push it to Artifact Registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			locator, err := opts.Locator(ctx, config.BuildRequirements...)
			if err != nil {
				return err
			}

			return buildAndPush(ctx, factories.NewServiceFactory(locator))
		},
	}
}
