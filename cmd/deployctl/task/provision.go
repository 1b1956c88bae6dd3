package task

import (
	"context"
	"fmt"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/factories"
	"github.com/spf13/cobra"
)

func provisionRegistry(ctx context.Context, serviceFactory *factories.ServiceFactory) error {
	if err := serviceFactory.NewRegistryProvisioner().ProvisionRegistry(ctx); err != nil {
		return fmt.Errorf("provisioning registry: %w", err)
	}
	return nil
}

func newProvisionRegistryCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "provision-registry",
		Short: "Create the Artifact Registry repository if missing and grant the writer role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			locator, err := opts.Locator(ctx, config.ProvisionRequirements...)
			if err != nil {
				return err
			}

			return provisionRegistry(ctx, factories.NewServiceFactory(locator))
		},
	}
}
