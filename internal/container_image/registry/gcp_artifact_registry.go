package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/google"
)

const ArtifactRegistryDockerHost = "docker.pkg.dev"

// ArtifactRegistryImageRef builds <region>-docker.pkg.dev/<project>/<repository>/<image>:<tag>.
// Components are not validated here, see GcpArtifactRegistry.GetImageRef.
func ArtifactRegistryImageRef(project, region, repository, imageName, tag string) string {
	return fmt.Sprintf("%s-%s/%s/%s/%s:%s", region, ArtifactRegistryDockerHost, project, repository, imageName, tag)
}

// ArtifactRegistryHost returns the docker host serving repositories of the region.
func ArtifactRegistryHost(region string) string {
	return fmt.Sprintf("%s-%s", region, ArtifactRegistryDockerHost)
}

type GcpArtifactRegistryConfig struct {
	Project    string
	Region     string
	Repository string
	ImageName  string
	Tag        string
}

type GcpArtifactRegistry struct {
	config GcpArtifactRegistryConfig
}

func NewGcpArtifactRegistry(config GcpArtifactRegistryConfig) *GcpArtifactRegistry {
	return &GcpArtifactRegistry{config}
}

func (r *GcpArtifactRegistry) GetKeychain() authn.Keychain {
	// google.Keychain automatically handles:
	// 1. Application Default Credentials (ADC) via GOOGLE_APPLICATION_CREDENTIALS env var
	// 2. gcloud CLI credentials (fallback)
	// 3. Compute Engine/GKE/Cloud Run service account credentials
	return google.Keychain
}

func (r *GcpArtifactRegistry) GetImageRef() (string, error) {
	imageID := ArtifactRegistryImageRef(r.config.Project, r.config.Region, r.config.Repository, r.config.ImageName, r.config.Tag)
	return validateArtifactRegistryFormat(imageID)
}

// validateArtifactRegistryFormat validates format: <region>-docker.pkg.dev/<project>/<repository>/<image>:<tag>
// The image may be nested, e.g. team/svc.
func validateArtifactRegistryFormat(imageID string) (string, error) {
	parts := strings.Split(imageID, "/")
	// Expected: [<region>-docker.pkg.dev, <project>, <repository>, <image path...>, <image>:<tag>]
	if len(parts) < 4 {
		return "", fmt.Errorf("%w - invalid Artifact Registry image format: %s, expected format: <region>-docker.pkg.dev/<project>/<repository>/<image>:<tag>", lib.BadUserInputError, imageID)
	}
	slog.Debug("split Artifact Registry image into parts", "parts", parts)

	registryHost := parts[0]
	if !strings.HasSuffix(registryHost, "-"+ArtifactRegistryDockerHost) || registryHost == "-"+ArtifactRegistryDockerHost {
		return "", fmt.Errorf("%w - invalid Artifact Registry host: %s, expected format: <region>-docker.pkg.dev", lib.BadUserInputError, registryHost)
	}
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			return "", fmt.Errorf("%w - invalid Artifact Registry image format: %s, empty path segment", lib.BadUserInputError, imageID)
		}
	}

	imageAndTag := parts[len(parts)-1]
	tagParts := strings.SplitN(imageAndTag, ":", 2)
	if len(tagParts) != 2 || tagParts[0] == "" || tagParts[1] == "" {
		return "", fmt.Errorf("%w - invalid Artifact Registry image format: %s, missing image name or tag", lib.BadUserInputError, imageID)
	}
	slog.Debug("split into image and tag parts", "image_tag_parts", tagParts)

	// Catches characters a registry would refuse, e.g. uppercase repositories or spaces in tags.
	if _, err := name.NewTag(imageID, name.StrictValidation); err != nil {
		return "", fmt.Errorf("%w - invalid Artifact Registry image reference %s: %w", lib.BadUserInputError, imageID, err)
	}

	return imageID, nil
}
