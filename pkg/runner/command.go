package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

// CommandRunner is an interface for executing commands and getting the output/error
type CommandRunner interface {
	RunCommand(ctx context.Context, args ...string) (string, error)
	RunCommandStderr(ctx context.Context, args ...string) (string, error)
}

type DefaultCommandRunner struct{}

var _ CommandRunner = &DefaultCommandRunner{}

func (d *DefaultCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	logger.Debugf("Running command: %s", args)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	logger.Debugf("Command output: %s", string(out))
	return string(out), err
}

// RunCommandStderr runs a command and returns only the stderr output
func (d *DefaultCommandRunner) RunCommandStderr(ctx context.Context, args ...string) (string, error) {
	logger.Debugf("Running command (stderr only): %v", args)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	cmd.Stdout = io.Discard

	if err := cmd.Start(); err != nil {
		return "", err
	}

	stderrBytes, err := io.ReadAll(stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read stderr: %w", err)
	}

	cmdErr := cmd.Wait()

	stderrOutput := string(stderrBytes)
	logger.Debugf("Command stderr output: %s", stderrOutput)

	return stderrOutput, cmdErr
}

// CheckInstalled verifies an executable is reachable through PATH.
func CheckInstalled(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s executable not found in PATH. Please install it or ensure it's available in your PATH", name)
	}
	return nil
}

// FakeCommandRunner records invocations and replays canned output for tests.
type FakeCommandRunner struct {
	Output string
	ErrStr string
	Calls  [][]string
}

var _ CommandRunner = &FakeCommandRunner{}

func (f *FakeCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	f.Calls = append(f.Calls, args)
	if f.ErrStr != "" {
		return f.Output, errors.New(f.ErrStr)
	}
	return f.Output, nil
}

func (f *FakeCommandRunner) RunCommandStderr(ctx context.Context, args ...string) (string, error) {
	f.Calls = append(f.Calls, args)
	if f.ErrStr != "" {
		return f.ErrStr, errors.New(f.ErrStr)
	}
	return f.Output, nil
}
