package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/whitesource/scan-action/internal/action"
	"github.com/whitesource/scan-action/internal/config"
	apperrors "github.com/whitesource/scan-action/internal/errors"
	"github.com/whitesource/scan-action/internal/github"
)

// These variables are set by the build process using ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "ws-scan-action",
	Short: "WhiteSource unified agent scan for GitHub Actions",
	Long: `Runs the WhiteSource unified agent against a Docker image or a published GitHub Packages package.
Inputs are read from INPUT_* environment variables as provided by the Actions runner, or from flags when run locally.`,
	Version:       fmt.Sprintf("Version: %s\nCommit: %s\nBuild Date: %s", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, os.Stdout)
	},
}

func init() {
	config.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Load inputs from a .env file")
}

func newLogger(out io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&github.Formatter{})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func run(cmd *cobra.Command, out io.Writer) error {
	loader := config.NewLoader().WithFlags(cmd.Flags())
	if envFile != "" {
		loader = loader.WithEnvFile(envFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	maskSecrets(out, cfg)

	logger := newLogger(out, cfg.Debug)
	logger.Debugf("ws-scan-action %s (%s)", version, commit)

	deps, cleanup, err := action.DefaultDeps(cfg, logger, out)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = action.New(cfg, deps, logger, out).Run(ctx)
	return err
}

// maskSecrets registers every credential with the runner before anything is logged.
func maskSecrets(out io.Writer, cfg *config.Config) {
	for _, secret := range []string{cfg.APIKey, cfg.UserKey, cfg.ProductKey, cfg.GPRToken} {
		github.AddMask(out, secret)
	}
}

// failureMessage separates policy failures from everything else in the step log.
func failureMessage(err error) string {
	if n, ok := apperrors.IsPolicyViolation(err); ok {
		return fmt.Sprintf("Scan completed: %d policy violations found", n)
	}
	return err.Error()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		newLogger(os.Stdout, false).Error(failureMessage(err))
		os.Exit(1)
	}
}
