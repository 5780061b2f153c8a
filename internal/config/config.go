// Package config resolves the action inputs into an immutable Config.
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/whitesource/scan-action/internal/event"
)

// Action input names, as declared in action.yml.
const (
	InputDestinationURL   = "ws-destination-url"
	InputAPIKey           = "ws-api-key"
	InputUserKey          = "ws-user-key"
	InputProductKey       = "ws-product-key"
	InputImageName        = "image-name"
	InputFailOnViolations = "fail-on-policy-violations"
	InputPrintScanReport  = "print-scan-report"
	InputDebug            = "actions_step_debug"
	InputGPRToken         = "gpr-token"
	InputAgentURL         = "ws-agent-url"
	InputContainerRuntime = "container-runtime"
	InputWorkingDirectory = "working-directory"
	InputDryRun           = "dry-run"
)

const (
	DefaultAgentURL  = "https://github.com/whitesource/unified-agent-distribution/releases/latest/download/wss-unified-agent.jar"
	DefaultAPIURL    = "https://api.github.com"
	RuntimeCLI       = "cli"
	RuntimeEngine    = "engine"
	minKeyLength     = 20
	productKeyLength = 20
)

// Config is read once at start and never mutated afterwards.
type Config struct {
	DestinationURL string
	APIKey         string
	UserKey        string
	ProductKey     string
	ImageName      string
	GPRToken       string

	FailOnPolicyViolations bool
	PrintScanReport        bool
	Debug                  bool
	DryRun                 bool

	AgentURL         string
	ContainerRuntime string
	WorkingDirectory string

	// Platform provided
	EventName  string
	EventPath  string
	Event      *event.Payload
	Actor      string
	APIURL     string
	OutputFile string
}

// HasImageName is true when the run targets an explicitly named image.
func (c *Config) HasImageName() bool {
	return c.ImageName != ""
}

// HasProductKey mirrors the agent's product token rule: strictly longer than 20.
func (c *Config) HasProductKey() bool {
	return utf8.RuneCountInString(c.ProductKey) > productKeyLength
}

// Validate checks the inputs that must be present for every run. It returns
// an error naming the first invalid input.
func (c *Config) Validate() error {
	if c.DestinationURL == "" {
		return invalid(InputDestinationURL, "is required")
	}
	if !strings.HasPrefix(c.DestinationURL, "http") {
		return invalid(InputDestinationURL, "must start with http")
	}
	if !strings.HasSuffix(c.DestinationURL, "/agent") {
		return invalid(InputDestinationURL, "must end with /agent")
	}
	if utf8.RuneCountInString(c.APIKey) < minKeyLength {
		return invalid(InputAPIKey, fmt.Sprintf("is missing or shorter than %d characters", minKeyLength))
	}
	if utf8.RuneCountInString(c.UserKey) < minKeyLength {
		return invalid(InputUserKey, fmt.Sprintf("is missing or shorter than %d characters", minKeyLength))
	}
	switch c.ContainerRuntime {
	case RuntimeCLI, RuntimeEngine:
	default:
		return invalid(InputContainerRuntime, fmt.Sprintf("must be %q or %q, got %q", RuntimeCLI, RuntimeEngine, c.ContainerRuntime))
	}
	return nil
}
