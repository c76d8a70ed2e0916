package imagebuild

import (
	"context"

	"github.com/DrPeryCox/pres-gen-new/pkg/runner"
)

type DockerClient interface {
	Version(ctx context.Context) (string, error)
	Info(ctx context.Context) (string, error)
	Build(ctx context.Context, dockerfilePath, imageTag, contextPath string) (string, error)
	Push(ctx context.Context, imageTag string) (string, error)
}

type DockerCmdRunner struct {
	runner runner.CommandRunner
	bin    string
}

var _ DockerClient = &DockerCmdRunner{}

func NewDockerCmdRunner(r runner.CommandRunner, bin string) DockerClient {
	if bin == "" {
		bin = "docker"
	}
	return &DockerCmdRunner{
		runner: r,
		bin:    bin,
	}
}

func (d *DockerCmdRunner) Info(ctx context.Context) (string, error) {
	return d.runner.RunCommand(ctx, d.bin, "info")
}

func (d *DockerCmdRunner) Version(ctx context.Context) (string, error) {
	return d.runner.RunCommand(ctx, d.bin, "version")
}

func (d *DockerCmdRunner) Build(ctx context.Context, dockerfilePath, imageTag, contextPath string) (string, error) {
	return d.runner.RunCommandStderr(ctx, d.bin, "build", "-q", "-f", dockerfilePath, "-t", imageTag, contextPath)
}

func (d *DockerCmdRunner) Push(ctx context.Context, image string) (string, error) {
	return d.runner.RunCommand(ctx, d.bin, "push", image)
}
