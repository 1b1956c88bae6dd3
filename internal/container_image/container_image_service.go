package container_image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/AnotherFullstackDev/deployctl/internal/config"
	"github.com/AnotherFullstackDev/deployctl/internal/container_image/registry"
	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/AnotherFullstackDev/deployctl/internal/runner"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/daemon"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"golang.org/x/term"
)

type Service struct {
	config   *config.Config
	registry registry.Registry
	runner   runner.CommandRunner
	dryRun   bool
	stdout   io.Writer
	stderr   io.Writer
}

// NewService creates the image service. stdout and stderr receive the push
// progress of the remote strategy and default to the process streams.
func NewService(cfg *config.Config, registry registry.Registry, runner runner.CommandRunner, dryRun bool, stdout, stderr io.Writer) *Service {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Service{
		config:   cfg,
		registry: registry,
		runner:   runner,
		dryRun:   dryRun,
		stdout:   stdout,
		stderr:   stderr,
	}
}

func (s *Service) GetRegistry() registry.Registry {
	return s.registry
}

func (s *Service) imageRef() (string, error) {
	ref, err := s.registry.GetImageRef()
	if err != nil {
		return "", fmt.Errorf("getting image reference from registry: %w", err)
	}
	if ref == "" {
		return "", fmt.Errorf("container registry returned empty image reference")
	}
	return ref, nil
}

// BuildArgs returns the docker build argv (without the binary) for ref.
func (s *Service) BuildArgs(ref string) []string {
	args := []string{"build", "-t", ref}
	if s.config.Platform != "" && s.config.Platform != lib.PlatformNone {
		args = append(args, "--platform", string(s.config.Platform))
	}
	if s.config.Dockerfile != "" {
		args = append(args, "-f", s.config.Dockerfile)
	}
	return append(args, s.config.BuildContext)
}

func (s *Service) BuildImage(ctx context.Context) error {
	ref, err := s.imageRef()
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "building container image", "image", ref, "context", s.config.BuildContext, "platform", s.config.Platform)

	if err := s.runner.Run(ctx, "", s.config.DockerBinary, s.BuildArgs(ref)...); err != nil {
		return fmt.Errorf("running image build command: %w", err)
	}

	return nil
}

func (s *Service) PushImage(ctx context.Context) error {
	ref, err := s.imageRef()
	if err != nil {
		return err
	}

	switch s.config.PushStrategy {
	case config.PushStrategyRemote:
		if s.dryRun {
			slog.InfoContext(ctx, "dry run: skipping remote image push", "image", ref)
			return nil
		}
		return s.pushViaRemote(ctx, ref)
	default:
		return s.pushViaDocker(ctx, ref)
	}
}

func (s *Service) pushViaDocker(ctx context.Context, ref string) error {
	slog.InfoContext(ctx, "pushing image to Artifact Registry", "image", ref)

	if err := s.runner.Run(ctx, "", s.config.DockerBinary, "push", ref); err != nil {
		return fmt.Errorf("running image push command: %w", err)
	}

	slog.InfoContext(ctx, "image pushed successfully", "image", ref)
	return nil
}

// pushViaRemote copies the locally built image from the docker daemon to the
// registry without the docker CLI, authenticating through the registry keychain.
func (s *Service) pushViaRemote(ctx context.Context, ref string) error {
	tag, err := name.NewTag(ref)
	if err != nil {
		return fmt.Errorf("parsing image tag: %w", err)
	}

	image, err := daemon.Image(tag, daemon.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("getting image from local daemon: %w", err)
	}

	imageConfig, err := image.ConfigFile()
	if err != nil {
		return fmt.Errorf("getting image config file: %w", err)
	}

	tty := false
	if f, ok := s.stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tty = true
	}

	progressChan := make(chan v1.Update, 32)
	go s.reportPushProgress(progressChan, tty)

	slog.InfoContext(ctx, "pushing image to remote registry",
		"image", ref,
		"os", imageConfig.OS,
		"architecture", imageConfig.Architecture)

	startTime := time.Now()
	maxUploadJobs := int(math.Min(16, float64(runtime.NumCPU())))
	options := []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(s.registry.GetKeychain()),
		remote.WithProgress(progressChan),
		remote.WithJobs(maxUploadJobs),
	}
	if err := remote.Write(tag, image, options...); err != nil {
		return fmt.Errorf("pushing image to remote registry: %w", err)
	}

	slog.InfoContext(ctx, "image pushed successfully",
		"image", ref,
		"duration", fmt.Sprintf("%f seconds", time.Since(startTime).Seconds()))

	return nil
}

// reportPushProgress prints push updates until remote.Write closes updates.
// Percentages are only printed to a terminal, at most twice a second.
func (s *Service) reportPushProgress(updates <-chan v1.Update, tty bool) {
	var lastUpdateTime time.Time
	for update := range updates {
		if update.Error != nil {
			fmt.Fprintf(s.stderr, "Error: %v\n", update.Error)
			continue
		}
		if !tty || update.Total <= 0 {
			continue
		}
		if time.Since(lastUpdateTime) <= 500*time.Millisecond {
			continue
		}
		lastUpdateTime = time.Now()

		percentage := float64(update.Complete) / float64(update.Total) * 100
		fmt.Fprintf(s.stdout, "Image push: %.2f%% complete\n", percentage)
	}
}

// BuildAndPush builds the image and pushes it. A failed build stops before
// anything is pushed.
func (s *Service) BuildAndPush(ctx context.Context) error {
	if err := s.BuildImage(ctx); err != nil {
		return err
	}
	return s.PushImage(ctx)
}
