package factories

import (
	"context"
	"testing"

	"github.com/AnotherFullstackDev/deployctl/internal/clouds/gcp"
	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/runner/runnertest"
	"github.com/stretchr/testify/require"
)

func TestServiceFactory(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cfg := &config.Config{
		ProjectID:      "demo",
		Region:         "europe-west1",
		Repository:     "samples",
		ImageName:      "svc",
		ImageTag:       "v1",
		ServiceName:    "svc-prod",
		DeployStrategy: config.DeployStrategyGcloud,
		GcloudBinary:   "gcloud",
	}
	locator := NewSharedServicesLocator(cfg, runnertest.NewRecorder(), false, nil, nil)

	t.Run("must build the registry from configuration", func(t *testing.T) {
		ref, err := NewServiceFactory(locator).NewRegistry().GetImageRef()
		r.NoError(err)
		r.Equal("europe-west1-docker.pkg.dev/demo/samples/svc:v1", ref)
	})

	t.Run("must pick the gcloud deployer by default", func(t *testing.T) {
		provider, closeFn, err := NewServiceFactory(locator).NewCloudProvider(ctx)
		r.NoError(err)
		r.NoError(closeFn())
		r.IsType(&gcp.CloudRunCliProvider{}, provider)
	})

	t.Run("must not open API clients in dry run", func(t *testing.T) {
		apiCfg := *cfg
		apiCfg.DeployStrategy = config.DeployStrategyAPI
		dryLocator := NewSharedServicesLocator(&apiCfg, runnertest.NewRecorder(), true, nil, nil)

		provider, _, err := NewServiceFactory(dryLocator).NewCloudProvider(ctx)
		r.NoError(err)
		r.IsType(&gcp.CloudRunCliProvider{}, provider)
	})

	t.Run("must swap the configuration", func(t *testing.T) {
		other := *cfg
		other.ImageTag = "v2"

		ref, err := NewServiceFactory(locator.WithConfig(&other)).NewRegistry().GetImageRef()
		r.NoError(err)
		r.Equal("europe-west1-docker.pkg.dev/demo/samples/svc:v2", ref)
	})
}
