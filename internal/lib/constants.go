package lib

import "fmt"

const (
	EnvKeyPrefix = "DEPLOYCTL"
)

var (
	LogLevelEnv   = fmt.Sprintf("%s_%s", EnvKeyPrefix, "LOG_LEVEL")
	ConfigFileEnv = fmt.Sprintf("%s_%s", EnvKeyPrefix, "CONFIG")
)

// Variables read by the deployment tasks. Names match the ones the existing
// task runner scripts already export, so both can share one .env file.
const (
	ProjectEnv               = "GOOGLE_CLOUD_PROJECT"
	RegionEnv                = "REGION"
	RepositoryEnv            = "REPOSITORY"
	ImageNameEnv             = "IMAGE_NAME"
	ImageTagEnv              = "IMAGE_TAG"
	ServiceNameEnv           = "SERVICE_NAME"
	RegistryPrincipalEnv     = "ARTIFACT_REGISTRY_USER"
	RepositoryDescriptionEnv = "REPOSITORY_DESCRIPTION"
	RegistryWriterRoleEnv    = "REGISTRY_WRITER_ROLE"
	GrantFailurePolicyEnv    = "GRANT_FAILURE_POLICY"
	BuildContextEnv          = "BUILD_CONTEXT"
	DockerfileEnv            = "DOCKERFILE"
	BuildPlatformEnv         = "BUILD_PLATFORM"
	PushStrategyEnv          = "PUSH_STRATEGY"
	DeployStrategyEnv        = "DEPLOY_STRATEGY"
	AllowUnauthenticatedEnv  = "ALLOW_UNAUTHENTICATED"
	DockerBinaryEnv          = "DOCKER_BIN"
	GcloudBinaryEnv          = "GCLOUD_BIN"
)
