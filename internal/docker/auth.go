package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LoginWithToken authenticates to a registry using docker login. The token is
// passed on stdin so it never appears in the process list.
func LoginWithToken(ctx context.Context, registry, username, token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	// Default to Docker Hub if no registry specified
	if registry == "" {
		registry = "docker.io"
	}

	cmd := exec.CommandContext(ctx, "docker", "login", registry, "-u", username, "--password-stdin")
	cmd.Stdin = strings.NewReader(token)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
