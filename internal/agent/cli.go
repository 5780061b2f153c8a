// Package agent builds and runs the WhiteSource unified agent command line.
package agent

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/whitesource/scan-action/internal/errors"
)

const (
	// JarName is where the agent jar is downloaded to, relative to the working directory.
	JarName = "wss-unified-agent.jar"

	maskedValue = "***"
)

// secret flags are masked whenever a command line is logged.
var secretFlags = map[string]bool{
	"-apiKey":       true,
	"-userKey":      true,
	"-productToken": true,
}

// Credentials are the WhiteSource keys passed to every scan.
type Credentials struct {
	DestinationURL string
	APIKey         string
	UserKey        string
}

type CLI struct {
	javaPath string
	jarPath  string
	creds    Credentials
	args     []string
	dryRun   bool
}

func New(jarPath string, creds Credentials, dryRun bool) *CLI {
	return &CLI{
		javaPath: "java",
		jarPath:  jarPath,
		creds:    creds,
		dryRun:   dryRun,
	}
}

func (c *CLI) common(args ...string) []string {
	out := []string{"-jar", c.jarPath}
	out = append(out, args...)
	return append(out,
		"-wss.url", c.creds.DestinationURL,
		"-apiKey", c.creds.APIKey,
		"-noConfig", "true",
		"-generateScanReport", "true",
	)
}

// BuildImageScan targets a single docker image. The agent matches images with
// a regular expression, so image is wrapped in .* on both sides.
func (c *CLI) BuildImageScan(image, project string) *CLI {
	args := c.common()
	args = append(args,
		"-docker.scanImages", "true",
		"-docker.includeSingleScan", ".*"+image+".*",
		"-userKey", c.creds.UserKey,
		"-project", project,
	)
	c.args = args
	return c
}

// BuildDirectoryScan scans the working directory.
func (c *CLI) BuildDirectoryScan(project string) *CLI {
	args := c.common("-d", ".")
	args = append(args,
		"-userKey", c.creds.UserKey,
		"-project", project,
	)
	c.args = args
	return c
}

// WithProductToken appends the product token to an already built command.
func (c *CLI) WithProductToken(token string) *CLI {
	if token != "" {
		c.args = append(c.args, "-productToken", token)
	}
	return c
}

// Args returns a copy of the built argument list.
func (c *CLI) Args() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// String renders the command line with secrets masked.
func (c *CLI) String() string {
	masked := make([]string, 0, len(c.args)+1)
	masked = append(masked, c.javaPath)
	for i, a := range c.args {
		if i > 0 && secretFlags[c.args[i-1]] {
			masked = append(masked, maskedValue)
			continue
		}
		masked = append(masked, a)
	}
	return strings.Join(masked, " ")
}

func (c *CLI) validateCommand() error {
	if len(c.args) == 0 {
		return fmt.Errorf("no command built - call a Build method first")
	}
	return nil
}

// Run executes the agent in dir, streaming its output to out.
func (c *CLI) Run(ctx context.Context, dir string, out io.Writer, logger *logrus.Logger) error {
	if err := c.validateCommand(); err != nil {
		return apperrors.NewExecutionError("run unified agent", "", err)
	}

	if c.dryRun {
		logger.Infof("[DRY RUN] %s", c.String())
		return nil
	}

	logger.Infof("Executing: %s", c.String())

	cmd := exec.CommandContext(ctx, c.javaPath, c.args...)
	cmd.Dir = dir
	cmd.Stdout = out
	var stderr strings.Builder
	cmd.Stderr = io.MultiWriter(out, &stderr)

	if err := cmd.Run(); err != nil {
		exitCode := ""
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = fmt.Sprintf(" (exit code %d)", exitError.ExitCode())
		}
		return apperrors.NewExecutionError("run unified agent", "", fmt.Errorf("java command failed%s: %v\n%s", exitCode, err, stderr.String()))
	}
	return nil
}
