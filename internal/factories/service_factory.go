package factories

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/AnotherFullstackDev/deployctl/internal/clouds"
	"github.com/AnotherFullstackDev/deployctl/internal/clouds/gcp"
	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/container_image"
	"github.com/AnotherFullstackDev/deployctl/internal/container_image/registry"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
)

type ServiceFactory struct {
	config *config.Config
	runner runner.CommandRunner
	dryRun bool
	stdout io.Writer
	stderr io.Writer
}

func NewServiceFactory(locator *SharedServicesLocator) *ServiceFactory {
	return &ServiceFactory{
		config: locator.Config,
		runner: locator.Runner,
		dryRun: locator.DryRun,
		stdout: locator.Stdout,
		stderr: locator.Stderr,
	}
}

func (f *ServiceFactory) NewRegistry() *registry.GcpArtifactRegistry {
	return registry.NewGcpArtifactRegistry(registry.GcpArtifactRegistryConfig{
		Project:    f.config.ProjectID,
		Region:     f.config.Region,
		Repository: f.config.Repository,
		ImageName:  f.config.ImageName,
		Tag:        f.config.ImageTag,
	})
}

func (f *ServiceFactory) NewImageService() *container_image.Service {
	return container_image.NewService(f.config, f.NewRegistry(), f.runner, f.dryRun, f.stdout, f.stderr)
}

func (f *ServiceFactory) NewRegistryProvisioner() clouds.RegistryProvisioner {
	return gcp.NewArtifactRegistryProvisioner(f.config, f.runner)
}

// NewCloudProvider returns the deployer selected by DEPLOY_STRATEGY. The
// returned close function releases API clients and is never nil.
func (f *ServiceFactory) NewCloudProvider(ctx context.Context) (clouds.CloudProvider, func() error, error) {
	noop := func() error { return nil }

	switch f.config.DeployStrategy {
	case config.DeployStrategyAPI:
		if f.dryRun {
			slog.InfoContext(ctx, "dry run: Cloud Run API deploys are logged through the gcloud equivalent")
			return gcp.NewCloudRunCliProvider(f.config, f.runner), noop, nil
		}

		slog.InfoContext(ctx, "loading Cloud Run API provider", "service", f.config.ServiceName)
		provider, err := gcp.NewCloudRunProvider(ctx, f.config)
		if err != nil {
			return nil, noop, fmt.Errorf("creating Cloud Run API provider: %w", err)
		}
		return provider, provider.Close, nil
	case config.DeployStrategyGcloud, "":
		return gcp.NewCloudRunCliProvider(f.config, f.runner), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported deploy strategy '%s'", f.config.DeployStrategy)
	}
}
