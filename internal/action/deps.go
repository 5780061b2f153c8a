package action

import (
	"context"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/whitesource/scan-action/internal/agent"
	"github.com/whitesource/scan-action/internal/config"
	"github.com/whitesource/scan-action/internal/docker"
	"github.com/whitesource/scan-action/internal/download"
	apperrors "github.com/whitesource/scan-action/internal/errors"
	"github.com/whitesource/scan-action/internal/github"
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// IdentityResolver returns the login that owns a registry token.
type IdentityResolver interface {
	Login(ctx context.Context, token string) (string, error)
}

// AgentRunner executes a built agent command in dir.
type AgentRunner interface {
	Run(ctx context.Context, dir string, cli *agent.CLI) error
}

// OutputSetter publishes step outputs.
type OutputSetter interface {
	Set(name, value string) error
}

// DirLister renders a directory listing for diagnostics.
type DirLister interface {
	List(ctx context.Context, dir string) (string, error)
}

// Deps are the collaborators an Action drives.
type Deps struct {
	Runtime           docker.Runtime
	AgentDownloader   Downloader
	PackageDownloader Downloader
	Identity          IdentityResolver
	Runner            AgentRunner
	Outputs           OutputSetter
	Lister            DirLister
}

// DefaultDeps wires the real implementations. The returned func releases the
// container runtime client.
func DefaultDeps(cfg *config.Config, logger *logrus.Logger, out io.Writer) (Deps, func(), error) {
	cleanup := func() {}

	var runtime docker.Runtime
	switch cfg.ContainerRuntime {
	case config.RuntimeEngine:
		engine, err := docker.NewEngine(logger)
		if err != nil {
			return Deps{}, cleanup, err
		}
		runtime = engine
		cleanup = func() { engine.Close() }
	default:
		runtime = docker.NewCLI(logger)
	}

	return Deps{
		Runtime:           runtime,
		AgentDownloader:   download.New(logger, ""),
		PackageDownloader: download.New(logger, cfg.GPRToken),
		Identity:          github.NewClient(cfg.APIURL),
		Runner:            &execRunner{out: out, logger: logger},
		Outputs:           github.NewOutputs(cfg.OutputFile, out),
		Lister:            lsLister{},
	}, cleanup, nil
}

type execRunner struct {
	out    io.Writer
	logger *logrus.Logger
}

func (r *execRunner) Run(ctx context.Context, dir string, cli *agent.CLI) error {
	return cli.Run(ctx, dir, r.out, r.logger)
}

type lsLister struct{}

func (lsLister) List(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "ls", "-alF")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", apperrors.NewExecutionError("ls -alF", dir, err)
	}
	return string(out), nil
}
