package gcp

import (
	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/lib"
)

func testConfig() *config.Config {
	return &config.Config{
		ProjectID:             "demo",
		Region:                "europe-west1",
		Repository:            "samples",
		ImageName:             "svc",
		ImageTag:              "v1",
		ServiceName:           "svc-prod",
		RegistryPrincipal:     "dev@example.com",
		RepositoryDescription: config.DefaultRepositoryDescription,
		RegistryWriterRole:    config.DefaultRegistryWriterRole,
		GrantFailurePolicy:    config.GrantFailurePolicyWarn,
		BuildContext:          ".",
		Platform:              lib.PlatformLinuxAmd64,
		PushStrategy:          config.PushStrategyDocker,
		DeployStrategy:        config.DeployStrategyGcloud,
		AllowUnauthenticated:  true,
		DockerBinary:          "docker",
		GcloudBinary:          "gcloud",
	}
}

type staticImageRegistry struct {
	ref string
	err error
}

func (s staticImageRegistry) GetImageRef() (string, error) {
	return s.ref, s.err
}
