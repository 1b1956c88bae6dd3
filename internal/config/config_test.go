package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/stretchr/testify/require"
)

var allVariables = []string{
	lib.ProjectEnv, lib.RegionEnv, lib.RepositoryEnv, lib.ImageNameEnv, lib.ImageTagEnv,
	lib.ServiceNameEnv, lib.RegistryPrincipalEnv, lib.RepositoryDescriptionEnv, lib.RegistryWriterRoleEnv,
	lib.GrantFailurePolicyEnv, lib.BuildContextEnv, lib.DockerfileEnv, lib.BuildPlatformEnv,
	lib.PushStrategyEnv, lib.DeployStrategyEnv, lib.AllowUnauthenticatedEnv, lib.DockerBinaryEnv, lib.GcloudBinaryEnv,
}

type staticResolver map[string]string

func (s staticResolver) ResolvePlaceholders(input string) (string, error) {
	if resolved, ok := s[input]; ok {
		return resolved, nil
	}
	return input, nil
}

type failingResolver struct{}

func (failingResolver) ResolvePlaceholders(string) (string, error) {
	return "", errors.New("not a git repository")
}

func TestLoad(t *testing.T) {
	r := require.New(t)
	clearEnv(t, allVariables...)

	t.Run("must apply defaults to optional variables", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")

		cfg, err := Load(NewSource(), nil, BuildRequirements...)
		r.NoError(err)
		r.Equal("p", cfg.ProjectID)
		r.Equal(DefaultRegion, cfg.Region)
		r.Equal(DefaultRepository, cfg.Repository)
		r.Equal(DefaultImageName, cfg.ImageName)
		r.Equal(DefaultImageTag, cfg.ImageTag)
		r.Equal(GrantFailurePolicyWarn, cfg.GrantFailurePolicy)
		r.Equal(lib.PlatformLinuxAmd64, cfg.Platform)
		r.Equal(PushStrategyDocker, cfg.PushStrategy)
		r.Equal(DeployStrategyGcloud, cfg.DeployStrategy)
		r.True(cfg.AllowUnauthenticated)
		r.Equal("gcloud", cfg.GcloudBinary)
		r.Equal("docker", cfg.DockerBinary)
	})

	t.Run("must fail without project", func(t *testing.T) {
		_, err := Load(NewSource(), nil, BuildRequirements...)
		r.ErrorIs(err, lib.MissingConfigurationError)
		r.Contains(err.Error(), lib.ProjectEnv)
	})

	t.Run("must report every missing task requirement", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")

		_, err := Load(NewSource(), nil, ReleaseRequirements...)
		r.ErrorIs(err, lib.MissingConfigurationError)
		r.Contains(err.Error(), lib.ServiceNameEnv)
		r.Contains(err.Error(), lib.RegistryPrincipalEnv)
	})

	t.Run("must not require the service name for builds", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.ServiceNameEnv, "Not Valid")

		cfg, err := Load(NewSource(), nil, BuildRequirements...)
		r.NoError(err)
		r.Equal("Not Valid", cfg.ServiceName)
	})

	t.Run("must validate service name when deploying", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.ServiceNameEnv, "-bad")

		_, err := Load(NewSource(), nil, DeployRequirements...)
		r.ErrorIs(err, lib.InvalidServiceNameError)
	})

	t.Run("must reject unknown strategies", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.PushStrategyEnv, "carrier-pigeon")
		t.Setenv(lib.GrantFailurePolicyEnv, "ignore")

		_, err := Load(NewSource(), nil)
		r.ErrorIs(err, lib.BadUserInputError)
		r.Contains(err.Error(), "PUSH_STRATEGY must be one of [docker remote]")
		r.Contains(err.Error(), "GRANT_FAILURE_POLICY must be one of [warn fail]")
	})

	t.Run("must accept disabling the build platform", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.BuildPlatformEnv, "none")

		cfg, err := Load(NewSource(), nil)
		r.NoError(err)
		r.Equal(lib.PlatformNone, cfg.Platform)
	})

	t.Run("must reject unknown build platforms", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.BuildPlatformEnv, "windows/amd64")

		_, err := Load(NewSource(), nil)
		r.ErrorIs(err, lib.BadUserInputError)
		r.Contains(err.Error(), "BUILD_PLATFORM must be one of [linux/amd64 linux/arm64 none]")
	})

	t.Run("must reject non boolean flags", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.AllowUnauthenticatedEnv, "maybe")

		_, err := Load(NewSource(), nil)
		r.ErrorIs(err, lib.BadUserInputError)
	})

	t.Run("must resolve placeholders in the image tag", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")
		t.Setenv(lib.ImageTagEnv, "{{ git.commit }}")

		cfg, err := Load(NewSource(), staticResolver{"{{ git.commit }}": "56b1898"})
		r.NoError(err)
		r.Equal("56b1898", cfg.ImageTag)
	})

	t.Run("must surface placeholder errors", func(t *testing.T) {
		t.Setenv(lib.ProjectEnv, "p")

		_, err := Load(NewSource(), failingResolver{})
		r.ErrorContains(err, "not a git repository")
	})

	t.Run("must read the file source", func(t *testing.T) {
		src, err := NewSourceFromReader(configToReader(configYAML))
		r.NoError(err)
		prod, err := src.WithEnvironment("prod")
		r.NoError(err)

		cfg, err := Load(prod, nil, DeployRequirements...)
		r.NoError(err)
		r.Equal("demo", cfg.ProjectID)
		r.Equal("europe-west1", cfg.Region)
		r.Equal("samples", cfg.Repository)
		r.Equal("svc", cfg.ImageName)
		r.Equal("v1", cfg.ImageTag)
		r.Equal("svc-prod", cfg.ServiceName)
	})
}

func TestValidateServiceName(t *testing.T) {
	r := require.New(t)

	valid := []string{"my-service-1", "a", "svc-prod", strings.Repeat("a", 63)}
	for _, name := range valid {
		r.NoError(ValidateServiceName(name), name)
	}

	invalid := []string{"-bad", "bad-", "Bad", "my_service", "", "svc.prod", strings.Repeat("a", 64)}
	for _, name := range invalid {
		err := ValidateServiceName(name)
		r.ErrorIs(err, lib.InvalidServiceNameError, name)
	}
}
