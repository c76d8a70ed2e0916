package imagebuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

// Builder executes a recipe against a build context and produces an image.
// Builds are strictly sequential and fail fast: the first failing step aborts
// the whole build, nothing is retried, and no partial image is tagged.
type Builder struct {
	docker DockerClient
}

func NewBuilder(docker DockerClient) *Builder {
	return &Builder{docker: docker}
}

// BuildResult reports a completed build.
type BuildResult struct {
	Tag  string
	Plan *Plan
}

// Build renders the recipe, plans the layer chain against the context, and
// drives docker build. The plan is computed first so a missing manifest
// aborts before the daemon is ever contacted.
func (b *Builder) Build(ctx context.Context, r Recipe, contextDir, tag string) (*BuildResult, error) {
	plan, err := NewPlan(r, contextDir)
	if err != nil {
		return nil, err
	}

	content, err := Render(r)
	if err != nil {
		return nil, err
	}

	if output, err := b.docker.Info(ctx); err != nil {
		return nil, errs.New(errs.CodeInvalidState, "imagebuild", fmt.Sprintf("docker daemon is not running: %s", output), err)
	}

	// The rendered Dockerfile lives outside the context so it never
	// perturbs the source-copy layer digest.
	tmpDir, err := os.MkdirTemp("", "pres-gen-build-*")
	if err != nil {
		return nil, errs.New(errs.CodeIoError, "imagebuild", "failed to create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	dockerfilePath := filepath.Join(tmpDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(content), 0644); err != nil {
		return nil, errs.New(errs.CodeIoError, "imagebuild", "failed to write Dockerfile", err)
	}

	logger.Infof("building docker image with tag %q (%d layers)", tag, len(plan.Layers))
	buildOutput, err := b.docker.Build(ctx, dockerfilePath, tag, contextDir)
	if err != nil {
		return nil, errs.New(errs.CodeImageBuildFailed, "imagebuild",
			fmt.Sprintf("docker build failed for tag %s: %s", tag, buildOutput), err)
	}

	logger.Infof("built docker image %s", tag)
	return &BuildResult{Tag: tag, Plan: plan}, nil
}

// Push pushes a built image to its registry.
func (b *Builder) Push(ctx context.Context, tag string) error {
	output, err := b.docker.Push(ctx, tag)
	if err != nil {
		return errs.New(errs.CodeImagePushFailed, "imagebuild",
			fmt.Sprintf("failed to push %s: %s", tag, output), err)
	}
	return nil
}

// ImageRef assembles the full image reference, prefixing the registry when
// one is configured.
func ImageRef(registry, name, tag string) string {
	if tag == "" {
		tag = "latest"
	}
	ref := name + ":" + tag
	if registry != "" {
		ref = registry + "/" + ref
	}
	return ref
}
