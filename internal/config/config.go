package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
)

const (
	DefaultRegion                = "us-central1"
	DefaultRepository            = "containers"
	DefaultImageName             = "app"
	DefaultImageTag              = "latest"
	DefaultRepositoryDescription = "Docker repo for backend microservices"
	DefaultRegistryWriterRole    = "roles/artifactregistry.writer"
	DefaultBuildContext          = "."
	DefaultDockerBinary          = "docker"
	DefaultGcloudBinary          = "gcloud"
)

type GrantFailurePolicy string

const (
	GrantFailurePolicyWarn GrantFailurePolicy = "warn"
	GrantFailurePolicyFail GrantFailurePolicy = "fail"
)

type PushStrategy string

const (
	// PushStrategyDocker shells out to `docker push`.
	PushStrategyDocker PushStrategy = "docker"
	// PushStrategyRemote reads the image from the local daemon and writes it
	// to the registry in-process.
	PushStrategyRemote PushStrategy = "remote"
)

type DeployStrategy string

const (
	DeployStrategyGcloud DeployStrategy = "gcloud"
	DeployStrategyAPI    DeployStrategy = "api"
)

type Config struct {
	ProjectID             string             `yaml:"google_cloud_project" validate:"required"`
	Region                string             `yaml:"region" validate:"required"`
	Repository            string             `yaml:"repository" validate:"required"`
	ImageName             string             `yaml:"image_name" validate:"required"`
	ImageTag              string             `yaml:"image_tag" validate:"required"`
	ServiceName           string             `yaml:"service_name,omitempty"`
	RegistryPrincipal     string             `yaml:"artifact_registry_user,omitempty"`
	RepositoryDescription string             `yaml:"repository_description"`
	RegistryWriterRole    string             `yaml:"registry_writer_role" validate:"required"`
	GrantFailurePolicy    GrantFailurePolicy `yaml:"grant_failure_policy" validate:"oneof=warn fail"`
	BuildContext          string             `yaml:"build_context" validate:"required"`
	Dockerfile            string             `yaml:"dockerfile,omitempty"`
	Platform              lib.Platform       `yaml:"build_platform" validate:"oneof=linux/amd64 linux/arm64 none"`
	PushStrategy          PushStrategy       `yaml:"push_strategy" validate:"oneof=docker remote"`
	DeployStrategy        DeployStrategy     `yaml:"deploy_strategy" validate:"oneof=gcloud api"`
	AllowUnauthenticated  bool               `yaml:"allow_unauthenticated"`
	DockerBinary          string             `yaml:"docker_bin" validate:"required"`
	GcloudBinary          string             `yaml:"gcloud_bin" validate:"required"`
}

type PlaceholdersResolver interface {
	ResolvePlaceholders(input string) (string, error)
}

// Requirements of the individual tasks on top of the project, which every
// task needs.
var (
	ProvisionRequirements = []string{lib.RegistryPrincipalEnv}
	BuildRequirements     = []string{}
	DeployRequirements    = []string{lib.ServiceNameEnv}
	ReleaseRequirements   = []string{lib.RegistryPrincipalEnv, lib.ServiceNameEnv}
)

type loader struct {
	source   *Source
	required map[string]struct{}
	errs     []error
}

func (l *loader) get(name string, fallback string) string {
	if _, ok := l.required[name]; ok {
		value, err := l.source.Lookup(name)
		if err != nil {
			l.errs = append(l.errs, err)
		}
		return value
	}

	value, err := l.source.Lookup(name, fallback)
	if err != nil {
		l.errs = append(l.errs, err)
	}
	return value
}

func (l *loader) getBool(name string, fallback bool) bool {
	raw := l.get(name, strconv.FormatBool(fallback))
	value, err := strconv.ParseBool(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%w - %s must be a boolean, got '%s'", lib.BadUserInputError, name, raw))
		return fallback
	}
	return value
}

// Load reads every variable once and returns the configuration shared by all
// tasks of the process. Variables listed in required (and the project, which
// is always required) must be present. No external command is run.
func Load(source *Source, resolver PlaceholdersResolver, required ...string) (*Config, error) {
	l := &loader{
		source:   source,
		required: map[string]struct{}{lib.ProjectEnv: {}},
	}
	for _, name := range required {
		l.required[name] = struct{}{}
	}

	cfg := &Config{
		ProjectID:             l.get(lib.ProjectEnv, ""),
		Region:                l.get(lib.RegionEnv, DefaultRegion),
		Repository:            l.get(lib.RepositoryEnv, DefaultRepository),
		ImageName:             l.get(lib.ImageNameEnv, DefaultImageName),
		ImageTag:              l.get(lib.ImageTagEnv, DefaultImageTag),
		ServiceName:           l.get(lib.ServiceNameEnv, ""),
		RegistryPrincipal:     l.get(lib.RegistryPrincipalEnv, ""),
		RepositoryDescription: l.get(lib.RepositoryDescriptionEnv, DefaultRepositoryDescription),
		RegistryWriterRole:    l.get(lib.RegistryWriterRoleEnv, DefaultRegistryWriterRole),
		GrantFailurePolicy:    GrantFailurePolicy(l.get(lib.GrantFailurePolicyEnv, string(GrantFailurePolicyWarn))),
		BuildContext:          l.get(lib.BuildContextEnv, DefaultBuildContext),
		Dockerfile:            l.get(lib.DockerfileEnv, ""),
		Platform:              lib.Platform(l.get(lib.BuildPlatformEnv, string(lib.PlatformLinuxAmd64))),
		PushStrategy:          PushStrategy(l.get(lib.PushStrategyEnv, string(PushStrategyDocker))),
		DeployStrategy:        DeployStrategy(l.get(lib.DeployStrategyEnv, string(DeployStrategyGcloud))),
		AllowUnauthenticated:  l.getBool(lib.AllowUnauthenticatedEnv, true),
		DockerBinary:          l.get(lib.DockerBinaryEnv, DefaultDockerBinary),
		GcloudBinary:          l.get(lib.GcloudBinaryEnv, DefaultGcloudBinary),
	}
	if len(l.errs) > 0 {
		return nil, fmt.Errorf("loading configuration: %w", errors.Join(l.errs...))
	}

	if resolver != nil {
		tag, err := resolver.ResolvePlaceholders(cfg.ImageTag)
		if err != nil {
			return nil, fmt.Errorf("resolving placeholders in %s '%s': %w", lib.ImageTagEnv, cfg.ImageTag, err)
		}
		cfg.ImageTag = tag
	}

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	if _, ok := l.required[lib.ServiceNameEnv]; ok {
		if err := ValidateServiceName(cfg.ServiceName); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
