package task

import (
	"log/slog"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/factories"
	"github.com/spf13/cobra"
)

func newReleaseCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Provision the registry, build and push the image, then deploy it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			locator, err := opts.Locator(ctx, config.ReleaseRequirements...)
			if err != nil {
				return err
			}
			serviceFactory := factories.NewServiceFactory(locator)

			if err := provisionRegistry(ctx, serviceFactory); err != nil {
				return err
			}
			if err := buildAndPush(ctx, serviceFactory); err != nil {
				return err
			}
			if err := deploy(ctx, serviceFactory); err != nil {
				return err
			}

			slog.InfoContext(ctx, "release finished", "service", locator.Config.ServiceName)
			return nil
		},
	}
}
