package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	apperrors "github.com/whitesource/scan-action/internal/errors"
	"github.com/whitesource/scan-action/internal/event"
)

const resolveOp = "resolve inputs"

// platform keys are bound straight to the runner's environment.
var platformEnv = map[string]string{
	"github-event-path": "GITHUB_EVENT_PATH",
	"github-event-name": "GITHUB_EVENT_NAME",
	"github-actor":      "GITHUB_ACTOR",
	"github-api-url":    "GITHUB_API_URL",
	"github-output":     "GITHUB_OUTPUT",
}

var inputs = []string{
	InputDestinationURL,
	InputAPIKey,
	InputUserKey,
	InputProductKey,
	InputImageName,
	InputFailOnViolations,
	InputPrintScanReport,
	InputDebug,
	InputGPRToken,
	InputAgentURL,
	InputContainerRuntime,
	InputWorkingDirectory,
	InputDryRun,
}

// flagNames maps inputs to cobra flags where the two differ.
var flagNames = map[string]string{
	InputDebug: "debug",
}

// EnvName returns the environment variable the runner uses for an action input.
func EnvName(input string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(input, " ", "_"))
}

// ShellEnvName is the underscore-only spelling of EnvName. Shells and .env
// files cannot declare names containing hyphens.
func ShellEnvName(input string) string {
	return strings.ReplaceAll(EnvName(input), "-", "_")
}

// FlagName returns the command line flag bound to an input.
func FlagName(input string) string {
	if f, ok := flagNames[input]; ok {
		return f
	}
	return input
}

// RegisterFlags declares one flag per input so the action can also run locally.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagName(InputDestinationURL), "", "WhiteSource server URL ending in /agent")
	flags.String(FlagName(InputAPIKey), "", "WhiteSource organization API key")
	flags.String(FlagName(InputUserKey), "", "WhiteSource user key")
	flags.String(FlagName(InputProductKey), "", "WhiteSource product token (optional)")
	flags.String(FlagName(InputImageName), "", "Docker image to scan; when empty the registry package event is used")
	flags.Bool(FlagName(InputFailOnViolations), false, "Fail when the scan report contains policy violations")
	flags.Bool(FlagName(InputPrintScanReport), false, "Print the scan report to the log")
	flags.Bool(FlagName(InputDebug), false, "Enable diagnostic output")
	flags.String(FlagName(InputGPRToken), "", "GitHub Packages token used to pull published images")
	flags.String(FlagName(InputAgentURL), DefaultAgentURL, "Unified agent download URL")
	flags.String(FlagName(InputContainerRuntime), RuntimeCLI, "Container runtime: cli or engine")
	flags.String(FlagName(InputWorkingDirectory), "", "Directory the agent runs in (defaults to the current directory)")
	flags.Bool(FlagName(InputDryRun), false, "Build and log the agent command without running anything")
}

// Loader binds inputs from flags and the environment.
type Loader struct {
	v       *viper.Viper
	flags   *pflag.FlagSet
	envFile string
}

// NewLoader creates a loader backed by a fresh viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// WithFlags binds inputs to the given flag set. Changed flags take precedence over env.
func (l *Loader) WithFlags(flags *pflag.FlagSet) *Loader {
	l.flags = flags
	return l
}

// WithEnvFile loads variables from a .env file before reading inputs.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

func (l *Loader) bind() error {
	for _, in := range inputs {
		if err := l.v.BindEnv(in, EnvName(in), ShellEnvName(in)); err != nil {
			return errors.Wrapf(err, "bind %s", in)
		}
		if l.flags == nil {
			continue
		}
		if f := l.flags.Lookup(FlagName(in)); f != nil {
			if err := l.v.BindPFlag(in, f); err != nil {
				return errors.Wrapf(err, "bind flag %s", f.Name)
			}
		}
	}
	for key, env := range platformEnv {
		if err := l.v.BindEnv(key, env); err != nil {
			return errors.Wrapf(err, "bind %s", env)
		}
	}

	l.v.SetDefault(InputAgentURL, DefaultAgentURL)
	l.v.SetDefault(InputContainerRuntime, RuntimeCLI)
	l.v.SetDefault("github-api-url", DefaultAPIURL)
	return nil
}

func (l *Loader) str(key string) string {
	return strings.TrimSpace(l.v.GetString(key))
}

func (l *Loader) flag(key string) bool {
	return l.str(key) == "true"
}

// Load reads, validates and returns the configuration. When no image name is
// configured the registry package event is loaded as well.
func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, apperrors.NewValidationError(resolveOp, "env-file", err)
		}
	}
	if err := l.bind(); err != nil {
		return nil, err
	}

	cfg := &Config{
		DestinationURL:         l.str(InputDestinationURL),
		APIKey:                 l.str(InputAPIKey),
		UserKey:                l.str(InputUserKey),
		ProductKey:             l.str(InputProductKey),
		ImageName:              l.str(InputImageName),
		GPRToken:               l.str(InputGPRToken),
		FailOnPolicyViolations: l.flag(InputFailOnViolations),
		PrintScanReport:        l.flag(InputPrintScanReport),
		Debug:                  l.flag(InputDebug),
		DryRun:                 l.flag(InputDryRun),
		AgentURL:               l.str(InputAgentURL),
		ContainerRuntime:       strings.ToLower(l.str(InputContainerRuntime)),
		EventName:              l.str("github-event-name"),
		EventPath:              l.str("github-event-path"),
		Actor:                  l.str("github-actor"),
		APIURL:                 strings.TrimSuffix(l.str("github-api-url"), "/"),
		OutputFile:             l.str("github-output"),
	}

	wd := l.str(InputWorkingDirectory)
	if wd == "" {
		wd = "."
	}
	abs, err := filepath.Abs(wd)
	if err != nil {
		return nil, apperrors.NewValidationError(resolveOp, InputWorkingDirectory, err)
	}
	cfg.WorkingDirectory = abs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.HasImageName() {
		if cfg.EventPath == "" {
			return nil, invalid(InputImageName, "is empty and GITHUB_EVENT_PATH is not set")
		}
		payload, err := event.Load(cfg.EventPath)
		if err != nil {
			return nil, apperrors.NewValidationError(resolveOp, "event payload", err)
		}
		cfg.Event = payload
	}

	return cfg, nil
}

func invalid(input, msg string) error {
	return apperrors.NewValidationError(resolveOp, input, errors.New(msg))
}
