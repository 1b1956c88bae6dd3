package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	iampb "cloud.google.com/go/iam/apiv1/iampb"
	run "cloud.google.com/go/run/apiv2"
	runpb "cloud.google.com/go/run/apiv2/runpb"
	"github.com/AnotherFullstackDev/deployctl/internal/clouds"
	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	deployTimeout = 15 * time.Minute

	invokerRole  = "roles/run.invoker"
	publicMember = "allUsers"
)

var errServiceNotFound = errors.New("cloud run service not found")

// cloudRunServices is the part of the Cloud Run Admin API the provider needs.
// Mutating calls block until their long-running operation completes.
type cloudRunServices interface {
	GetService(ctx context.Context, name string) (*runpb.Service, error)
	CreateService(ctx context.Context, parent, serviceID string, service *runpb.Service) (*runpb.Service, error)
	UpdateService(ctx context.Context, service *runpb.Service) (*runpb.Service, error)
	// SetUnauthenticatedAccess grants or revokes the invoker role of allUsers,
	// leaving the other bindings of the service policy untouched.
	SetUnauthenticatedAccess(ctx context.Context, name string, allow bool) error
	Close() error
}

// CloudRunProvider deploys through the Cloud Run Admin API using Application
// Default Credentials instead of the gcloud CLI.
type CloudRunProvider struct {
	config CloudRunConfig
	client cloudRunServices
}

func NewCloudRunProvider(ctx context.Context, cfg *config.Config) (*CloudRunProvider, error) {
	runConfig := CloudRunConfigFromConfig(cfg)
	if err := config.ValidateServiceName(runConfig.ServiceName); err != nil {
		return nil, err
	}
	if runConfig.ProjectID == "" {
		return nil, fmt.Errorf("%w - Cloud Run project ID is required", lib.BadUserInputError)
	}
	if runConfig.Region == "" {
		return nil, fmt.Errorf("%w - Cloud Run region is required", lib.BadUserInputError)
	}

	client, err := run.NewServicesClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Cloud Run services client: %w", err)
	}

	return newCloudRunProvider(runConfig, &apiServicesClient{client}), nil
}

func newCloudRunProvider(config CloudRunConfig, client cloudRunServices) *CloudRunProvider {
	return &CloudRunProvider{config: config, client: client}
}

func (p *CloudRunProvider) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", p.config.ProjectID, p.config.Region)
}

func (p *CloudRunProvider) serviceName() string {
	return fmt.Sprintf("%s/services/%s", p.parent(), p.config.ServiceName)
}

// DeployServiceFromImage swaps the image of the first container of an existing
// service, keeping the rest of its configuration. Missing services are created
// with a single container running the image. Public access follows
// AllowUnauthenticated in both cases, as `gcloud run deploy` does.
func (p *CloudRunProvider) DeployServiceFromImage(ctx context.Context, registry clouds.ImageRegistry) error {
	imageRef, err := registry.GetImageRef()
	if err != nil {
		return fmt.Errorf("getting image reference for service %s: %w", p.config.ServiceName, err)
	}
	if imageRef == "" {
		return fmt.Errorf("image reference is empty for service %s", p.config.ServiceName)
	}

	serviceName := p.serviceName()

	waitCtx, cancel := context.WithTimeout(ctx, deployTimeout)
	defer cancel()

	slog.DebugContext(ctx, "fetching current Cloud Run service configuration", "service", serviceName)

	service, err := p.client.GetService(ctx, serviceName)
	if errors.Is(err, errServiceNotFound) {
		return p.createService(waitCtx, imageRef)
	}
	if err != nil {
		return fmt.Errorf("getting Cloud Run service %s: %w", serviceName, err)
	}

	if service.Template == nil {
		return fmt.Errorf("%w - Cloud Run service %s has no template configured", lib.BadUserInputError, serviceName)
	}
	if len(service.Template.Containers) == 0 {
		return fmt.Errorf("%w - Cloud Run service %s has no containers configured", lib.BadUserInputError, serviceName)
	}

	slog.InfoContext(ctx, "updating Cloud Run service image",
		"service", p.config.ServiceName,
		"from", service.Template.Containers[0].Image,
		"to", imageRef)

	service.Template.Containers[0].Image = imageRef

	updated, err := p.client.UpdateService(waitCtx, service)
	if err != nil {
		return fmt.Errorf("updating Cloud Run service %s: %w", serviceName, err)
	}

	if err := p.client.SetUnauthenticatedAccess(waitCtx, serviceName, p.config.AllowUnauthenticated); err != nil {
		return fmt.Errorf("setting unauthenticated access of Cloud Run service %s: %w", p.config.ServiceName, err)
	}

	slog.InfoContext(ctx, "Cloud Run service deployment completed",
		"service", p.config.ServiceName,
		"image", imageRef,
		"uri", updated.GetUri())

	return nil
}

func (p *CloudRunProvider) createService(ctx context.Context, imageRef string) error {
	slog.InfoContext(ctx, "Cloud Run service not found, creating it",
		"service", p.config.ServiceName,
		"image", imageRef)

	created, err := p.client.CreateService(ctx, p.parent(), p.config.ServiceName, &runpb.Service{
		Template: &runpb.RevisionTemplate{
			Containers: []*runpb.Container{{Image: imageRef}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating Cloud Run service %s: %w", p.config.ServiceName, err)
	}

	if p.config.AllowUnauthenticated {
		if err := p.client.SetUnauthenticatedAccess(ctx, p.serviceName(), true); err != nil {
			return fmt.Errorf("allowing unauthenticated access to Cloud Run service %s: %w", p.config.ServiceName, err)
		}
	}

	slog.InfoContext(ctx, "Cloud Run service created",
		"service", p.config.ServiceName,
		"image", imageRef,
		"uri", created.GetUri())

	return nil
}

// Close closes the Cloud Run client connection
func (p *CloudRunProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

type apiServicesClient struct {
	client *run.ServicesClient
}

func (c *apiServicesClient) GetService(ctx context.Context, name string) (*runpb.Service, error) {
	service, err := c.client.GetService(ctx, &runpb.GetServiceRequest{Name: name})
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", errServiceNotFound, name)
	}
	return service, err
}

func (c *apiServicesClient) CreateService(ctx context.Context, parent, serviceID string, service *runpb.Service) (*runpb.Service, error) {
	op, err := c.client.CreateService(ctx, &runpb.CreateServiceRequest{
		Parent:    parent,
		ServiceId: serviceID,
		Service:   service,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "waiting for Cloud Run service creation to complete", "service", serviceID)
	return op.Wait(ctx)
}

func (c *apiServicesClient) UpdateService(ctx context.Context, service *runpb.Service) (*runpb.Service, error) {
	op, err := c.client.UpdateService(ctx, &runpb.UpdateServiceRequest{Service: service})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "waiting for Cloud Run service deployment to complete", "service", service.GetName())
	return op.Wait(ctx)
}

func (c *apiServicesClient) SetUnauthenticatedAccess(ctx context.Context, name string, allow bool) error {
	policy, err := c.client.GetIamPolicy(ctx, &iampb.GetIamPolicyRequest{Resource: name})
	if err != nil {
		return fmt.Errorf("getting IAM policy: %w", err)
	}
	if !setPublicInvoker(policy, allow) {
		return nil
	}

	slog.InfoContext(ctx, "updating Cloud Run invoker policy", "service", name, "allow_unauthenticated", allow)

	// The policy carries the etag it was read with, concurrent edits fail instead of being overwritten.
	if _, err := c.client.SetIamPolicy(ctx, &iampb.SetIamPolicyRequest{Resource: name, Policy: policy}); err != nil {
		return fmt.Errorf("setting IAM policy: %w", err)
	}
	return nil
}

// setPublicInvoker adds or removes allUsers from the invoker binding of policy
// and reports whether the policy changed.
func setPublicInvoker(policy *iampb.Policy, allow bool) bool {
	var invoker *iampb.Binding
	for _, binding := range policy.Bindings {
		if binding.Role == invokerRole && binding.Condition == nil {
			invoker = binding
			break
		}
	}

	if allow {
		if invoker == nil {
			policy.Bindings = append(policy.Bindings, &iampb.Binding{Role: invokerRole, Members: []string{publicMember}})
			return true
		}
		if slices.Contains(invoker.Members, publicMember) {
			return false
		}
		invoker.Members = append(invoker.Members, publicMember)
		return true
	}

	if invoker == nil || !slices.Contains(invoker.Members, publicMember) {
		return false
	}
	invoker.Members = slices.DeleteFunc(invoker.Members, func(m string) bool { return m == publicMember })
	if len(invoker.Members) == 0 {
		policy.Bindings = slices.DeleteFunc(policy.Bindings, func(b *iampb.Binding) bool { return b == invoker })
	}
	return true
}

func (c *apiServicesClient) Close() error {
	return c.client.Close()
}
