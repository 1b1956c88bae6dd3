package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
)

// ArtifactRegistryProvisioner makes sure the docker repository exists and the
// configured principal may push to it.
type ArtifactRegistryProvisioner struct {
	config  *config.Config
	runner  runner.CommandRunner
	grantor *IAMGrantor
}

func NewArtifactRegistryProvisioner(cfg *config.Config, runner runner.CommandRunner) *ArtifactRegistryProvisioner {
	return &ArtifactRegistryProvisioner{
		config:  cfg,
		runner:  runner,
		grantor: NewIAMGrantor(cfg, runner),
	}
}

func (p *ArtifactRegistryProvisioner) ProvisionRegistry(ctx context.Context) error {
	if _, err := p.EnsureRepository(ctx); err != nil {
		return err
	}

	return p.grantor.GrantRegistryWriter(ctx)
}

type listedRepository struct {
	// Full resource name: projects/<project>/locations/<region>/repositories/<name>
	Name string `json:"name"`
}

// EnsureRepository creates the repository unless the listing already contains
// it. Returns true when a create command was issued. A failing listing is
// treated as "not found"; the create call then reports the real problem.
func (p *ArtifactRegistryProvisioner) EnsureRepository(ctx context.Context) (bool, error) {
	slog.InfoContext(ctx, "checking Artifact Registry repository",
		"repository", p.config.Repository,
		"region", p.config.Region,
		"project", p.config.ProjectID)

	exists, err := p.repositoryExists(ctx)
	if err != nil {
		slog.WarnContext(ctx, "listing Artifact Registry repositories failed, assuming the repository is missing",
			"repository", p.config.Repository,
			"error", err)
	}
	if exists {
		slog.InfoContext(ctx, "Artifact Registry repository already exists", "repository", p.config.Repository)
		return false, nil
	}

	slog.InfoContext(ctx, "Artifact Registry repository not found, creating it", "repository", p.config.Repository)

	args := []string{
		"artifacts", "repositories", "create", p.config.Repository,
		"--repository-format=docker",
		"--location=" + p.config.Region,
		"--project=" + p.config.ProjectID,
		"--description=" + p.config.RepositoryDescription,
	}
	if err := p.runner.Run(ctx, "", p.config.GcloudBinary, args...); err != nil {
		return false, fmt.Errorf("creating Artifact Registry repository %s: %w", p.config.Repository, err)
	}

	return true, nil
}

func (p *ArtifactRegistryProvisioner) repositoryExists(ctx context.Context) (bool, error) {
	out, err := p.runner.RunOutput(ctx, "", p.config.GcloudBinary,
		"artifacts", "repositories", "list",
		"--location="+p.config.Region,
		"--project="+p.config.ProjectID,
		"--filter=name:"+p.config.Repository,
		"--format=json",
	)
	if err != nil {
		return false, fmt.Errorf("listing repositories: %w", err)
	}

	names, err := parseRepositoryNames(out)
	if err != nil {
		return false, err
	}
	slog.DebugContext(ctx, "listed Artifact Registry repositories", "repositories", names)

	for _, n := range names {
		if n == p.config.Repository {
			return true, nil
		}
	}

	return false, nil
}

// parseRepositoryNames extracts the short repository names from the JSON
// listing printed by `gcloud artifacts repositories list --format=json`.
func parseRepositoryNames(out []byte) ([]string, error) {
	if strings.TrimSpace(string(out)) == "" {
		return nil, nil
	}

	var repositories []listedRepository
	if err := json.Unmarshal(out, &repositories); err != nil {
		return nil, fmt.Errorf("parsing repositories listing: %w", err)
	}

	names := make([]string, 0, len(repositories))
	for _, repo := range repositories {
		if repo.Name == "" {
			continue
		}
		names = append(names, path.Base(repo.Name))
	}

	return names, nil
}
