// Package docker drives the container runtime used to fetch published images.
package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/whitesource/scan-action/internal/errors"
)

// Runtime is the set of container operations the action needs.
type Runtime interface {
	Version(ctx context.Context) (string, error)
	Images(ctx context.Context) (string, error)
	Login(ctx context.Context, registry, username, token string) error
	Pull(ctx context.Context, ref string) error
}

// CLI implements Runtime by shelling out to the docker binary.
type CLI struct {
	dockerPath string
	logger     *logrus.Logger
}

func NewCLI(logger *logrus.Logger) *CLI {
	return &CLI{dockerPath: "docker", logger: logger}
}

func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	c.logger.Debugf("executing: %s %s", c.dockerPath, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.dockerPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		exitCode := ""
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = fmt.Sprintf(" (exit code %d)", exitError.ExitCode())
		}
		return "", fmt.Errorf("docker %s failed%s: %v\n%s", args[0], exitCode, err, stderr.String())
	}
	return string(out), nil
}

func (c *CLI) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "-v")
	if err != nil {
		return "", apperrors.NewExecutionError("docker version", "", err)
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) Images(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "images")
	if err != nil {
		return "", apperrors.NewExecutionError("docker images", "", err)
	}
	return out, nil
}

func (c *CLI) Login(ctx context.Context, registry, username, token string) error {
	c.logger.Debugf("executing: %s login %s -u %s --password-stdin", c.dockerPath, registry, username)
	if err := LoginWithToken(ctx, registry, username, token); err != nil {
		return apperrors.NewAuthenticationError("docker login", registry, err)
	}
	return nil
}

func (c *CLI) Pull(ctx context.Context, ref string) error {
	out, err := c.run(ctx, "pull", ref)
	if err != nil {
		return apperrors.NewExecutionError("docker pull", ref, err)
	}
	c.logger.Debug(strings.TrimSpace(out))
	return nil
}
