// Package action sequences a single scan run: registry preparation, agent
// download and execution, report discovery and output publication.
package action

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/whitesource/scan-action/internal/agent"
	"github.com/whitesource/scan-action/internal/config"
	apperrors "github.com/whitesource/scan-action/internal/errors"
	"github.com/whitesource/scan-action/internal/event"
	"github.com/whitesource/scan-action/internal/report"
	"github.com/whitesource/scan-action/internal/types"
)

const (
	OutputReportFile   = "scan-report-file-path"
	OutputReportFolder = "scan-report-folder-path"
)

type Action struct {
	cfg    *config.Config
	deps   Deps
	logger *logrus.Logger
	out    io.Writer
}

// New returns an Action for a validated configuration. out receives the
// printed scan report.
func New(cfg *config.Config, deps Deps, logger *logrus.Logger, out io.Writer) *Action {
	return &Action{cfg: cfg, deps: deps, logger: logger, out: out}
}

// Run executes every step in order and stops at the first error. A
// PolicyViolationError is returned together with a populated result.
func (a *Action) Run(ctx context.Context) (*types.ScanResult, error) {
	if a.cfg.EventName != "" {
		a.logger.Debugf("event name: %s", a.cfg.EventName)
	}

	target, err := Plan(a.cfg)
	if err != nil {
		return nil, err
	}
	result := &types.ScanResult{Target: target, DryRun: a.cfg.DryRun}

	if err := a.prepare(ctx, target); err != nil {
		return nil, err
	}

	cli := BuildCommand(a.cfg, target)
	a.debugListing(ctx)

	if a.cfg.DryRun {
		if err := a.deps.Runner.Run(ctx, a.cfg.WorkingDirectory, cli); err != nil {
			return nil, err
		}
		return result, nil
	}

	jar := filepath.Join(a.cfg.WorkingDirectory, agent.JarName)
	if err := a.deps.AgentDownloader.Download(ctx, a.cfg.AgentURL, jar); err != nil {
		return nil, errors.Wrap(err, "download unified agent")
	}

	if err := a.deps.Runner.Run(ctx, a.cfg.WorkingDirectory, cli); err != nil {
		return nil, err
	}

	reportPath, err := report.Find(filepath.Join(a.cfg.WorkingDirectory, report.RootDir))
	if err != nil {
		return nil, err
	}
	result.ReportPath = reportPath
	result.FolderPath = report.Folder(reportPath)

	if err := a.publish(result); err != nil {
		return nil, err
	}

	if err := a.printReport(reportPath); err != nil {
		return nil, err
	}

	if err := a.checkViolations(result); err != nil {
		return result, err
	}
	return result, nil
}

func (a *Action) prepare(ctx context.Context, target types.ScanTarget) error {
	switch target.Kind {
	case types.PackageImageScan:
		return a.pullPackageImage(ctx, target)
	case types.PackageFilesScan:
		return a.downloadPackageFiles(ctx, target.Files)
	}
	return nil
}

func (a *Action) pullPackageImage(ctx context.Context, target types.ScanTarget) error {
	if a.cfg.Debug {
		a.debugDocker(ctx)
	}

	if a.cfg.GPRToken == "" {
		return apperrors.NewAuthenticationError("registry login", config.InputGPRToken, fmt.Errorf("gpr-token is required to pull %s", target.PullRef))
	}

	if a.cfg.DryRun {
		a.logger.Infof("[DRY RUN] docker login %s && docker pull %s", event.RegistryHost, target.PullRef)
		return nil
	}

	user, err := a.resolveIdentity(ctx)
	if err != nil {
		return err
	}

	if err := a.deps.Runtime.Login(ctx, event.RegistryHost, user, a.cfg.GPRToken); err != nil {
		return err
	}
	a.logger.Infof("Logged in to %s as %s", event.RegistryHost, user)

	a.logger.Infof("Pulling %s", target.PullRef)
	if err := a.deps.Runtime.Pull(ctx, target.PullRef); err != nil {
		return err
	}

	if a.cfg.Debug {
		a.debugImages(ctx)
	}
	return nil
}

func (a *Action) resolveIdentity(ctx context.Context) (string, error) {
	user, err := a.deps.Identity.Login(ctx, a.cfg.GPRToken)
	if err == nil {
		return user, nil
	}
	if a.cfg.Actor != "" {
		a.logger.Warnf("could not resolve the gpr-token owner (%v); using GITHUB_ACTOR %s", err, a.cfg.Actor)
		return a.cfg.Actor, nil
	}
	return "", apperrors.NewAuthenticationError("resolve registry identity", config.InputGPRToken, err)
}

func (a *Action) downloadPackageFiles(ctx context.Context, files []event.PackageFile) error {
	for _, f := range files {
		dest, err := packageFileDest(a.cfg.WorkingDirectory, f.Name)
		if err != nil {
			return err
		}
		if a.cfg.DryRun {
			a.logger.Infof("[DRY RUN] download %s -> %s", f.DownloadURL, dest)
			continue
		}
		if err := a.deps.PackageDownloader.Download(ctx, f.DownloadURL, dest); err != nil {
			return errors.Wrapf(err, "download package file %s", f.Name)
		}
	}
	return nil
}

// packageFileDest places a package file directly in dir. Names that do not
// reduce to a plain file name are rejected.
func packageFileDest(dir, name string) (string, error) {
	base := filepath.Base(name)
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", apperrors.NewValidationError("download package file", "package_files", fmt.Errorf("invalid file name %q", name))
	}
	return filepath.Join(dir, base), nil
}

func (a *Action) publish(result *types.ScanResult) error {
	a.logger.Infof("Scan report file path: %s", result.ReportPath)
	if err := a.deps.Outputs.Set(OutputReportFile, result.ReportPath); err != nil {
		return errors.Wrapf(err, "set output %s", OutputReportFile)
	}
	if err := a.deps.Outputs.Set(OutputReportFolder, result.FolderPath); err != nil {
		return errors.Wrapf(err, "set output %s", OutputReportFolder)
	}
	return nil
}

func (a *Action) printReport(path string) error {
	if !a.cfg.PrintScanReport {
		return nil
	}
	if path == "" {
		a.logger.Warnf("%s was not found under %s, nothing to print", report.FileName, report.RootDir)
		return nil
	}

	text, err := report.Read(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Scan report:\n%s\n", text)
	return err
}

func (a *Action) checkViolations(result *types.ScanResult) error {
	if !a.cfg.FailOnPolicyViolations || result.ReportPath == "" {
		return nil
	}

	n, err := report.TotalIssues(result.ReportPath)
	if err != nil {
		return err
	}
	result.TotalIssues = n
	result.ViolationsChecked = true

	if n > 0 {
		return &apperrors.PolicyViolationError{Count: n}
	}
	a.logger.Info("Found 0 policy violations")
	return nil
}

func (a *Action) debugDocker(ctx context.Context) {
	if v, err := a.deps.Runtime.Version(ctx); err != nil {
		a.logger.Debugf("docker version unavailable: %v", err)
	} else {
		a.logger.Debugf("Docker version is %s", v)
	}
	a.debugImages(ctx)
}

func (a *Action) debugImages(ctx context.Context) {
	images, err := a.deps.Runtime.Images(ctx)
	if err != nil {
		a.logger.Debugf("docker images unavailable: %v", err)
		return
	}
	a.logger.Debugf("docker images:\n%s", strings.TrimRight(images, "\n"))
}

func (a *Action) debugListing(ctx context.Context) {
	if !a.cfg.Debug {
		return
	}
	listing, err := a.deps.Lister.List(ctx, a.cfg.WorkingDirectory)
	if err != nil {
		a.logger.Debugf("directory listing unavailable: %v", err)
		return
	}
	a.logger.Debugf("working directory %s:\n%s", a.cfg.WorkingDirectory, strings.TrimRight(listing, "\n"))
}
