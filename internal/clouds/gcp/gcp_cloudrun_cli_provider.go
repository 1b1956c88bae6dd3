package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AnotherFullstackDev/deployctl/internal/clouds"
	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
)

// CloudRunCliProvider deploys through `gcloud run deploy`, which creates the
// service when it does not exist yet.
type CloudRunCliProvider struct {
	config CloudRunConfig
	gcloud string
	runner runner.CommandRunner
}

func NewCloudRunCliProvider(cfg *config.Config, runner runner.CommandRunner) *CloudRunCliProvider {
	return &CloudRunCliProvider{
		config: CloudRunConfigFromConfig(cfg),
		gcloud: cfg.GcloudBinary,
		runner: runner,
	}
}

func (p *CloudRunCliProvider) DeployArgs(imageRef string) []string {
	authFlag := "--allow-unauthenticated"
	if !p.config.AllowUnauthenticated {
		authFlag = "--no-allow-unauthenticated"
	}

	return []string{
		"run", "deploy", p.config.ServiceName,
		"--image=" + imageRef,
		"--platform=managed",
		"--region=" + p.config.Region,
		"--project=" + p.config.ProjectID,
		authFlag,
	}
}

func (p *CloudRunCliProvider) DeployServiceFromImage(ctx context.Context, registry clouds.ImageRegistry) error {
	if err := config.ValidateServiceName(p.config.ServiceName); err != nil {
		return err
	}

	imageRef, err := registry.GetImageRef()
	if err != nil {
		return fmt.Errorf("getting image reference for service %s: %w", p.config.ServiceName, err)
	}
	if imageRef == "" {
		return fmt.Errorf("image reference is empty for service %s", p.config.ServiceName)
	}

	slog.InfoContext(ctx, "deploying image to Cloud Run",
		"service", p.config.ServiceName,
		"image", imageRef,
		"region", p.config.Region)

	if err := p.runner.Run(ctx, "", p.gcloud, p.DeployArgs(imageRef)...); err != nil {
		return fmt.Errorf("deploying Cloud Run service %s: %w", p.config.ServiceName, err)
	}

	slog.InfoContext(ctx, "Cloud Run service deployed", "service", p.config.ServiceName, "image", imageRef)
	return nil
}
