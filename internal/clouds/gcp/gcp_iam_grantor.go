package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
)

var memberTypePrefixes = []string{"user:", "serviceAccount:", "group:", "domain:", "principal:", "principalSet:"}

type IAMGrantor struct {
	config *config.Config
	runner runner.CommandRunner
}

func NewIAMGrantor(cfg *config.Config, runner runner.CommandRunner) *IAMGrantor {
	return &IAMGrantor{cfg, runner}
}

// Member returns the IAM member for principal. Bare identities are treated as
// user accounts.
func Member(principal string) string {
	for _, prefix := range memberTypePrefixes {
		if strings.HasPrefix(principal, prefix) {
			return principal
		}
	}
	return "user:" + principal
}

// GrantRegistryWriter binds the registry writer role to the configured
// principal. The binding is not checked beforehand, the policy API already
// treats duplicates as no-ops. With the "warn" policy a failure is logged and
// swallowed.
func (g *IAMGrantor) GrantRegistryWriter(ctx context.Context) error {
	member := Member(g.config.RegistryPrincipal)

	slog.InfoContext(ctx, "granting Artifact Registry push permissions",
		"member", member,
		"role", g.config.RegistryWriterRole,
		"project", g.config.ProjectID)

	err := g.runner.Run(ctx, "", g.config.GcloudBinary,
		"projects", "add-iam-policy-binding", g.config.ProjectID,
		"--member="+member,
		"--role="+g.config.RegistryWriterRole,
	)
	if err == nil {
		return nil
	}

	if g.config.GrantFailurePolicy == config.GrantFailurePolicyFail {
		return fmt.Errorf("granting %s to %s: %w", g.config.RegistryWriterRole, member, err)
	}

	slog.WarnContext(ctx, "granting permissions failed, continuing",
		"member", member,
		"role", g.config.RegistryWriterRole,
		"error", err)
	return nil
}
