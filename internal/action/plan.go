package action

import (
	"fmt"

	"github.com/whitesource/scan-action/internal/agent"
	"github.com/whitesource/scan-action/internal/config"
	apperrors "github.com/whitesource/scan-action/internal/errors"
	"github.com/whitesource/scan-action/internal/types"
)

const planOp = "plan scan"

// Plan decides what the run scans. It has no side effects.
func Plan(cfg *config.Config) (types.ScanTarget, error) {
	if cfg.HasImageName() {
		return types.ScanTarget{
			Kind:    types.ImageScan,
			Image:   cfg.ImageName,
			Project: cfg.ImageName,
		}, nil
	}

	if cfg.Event == nil {
		return types.ScanTarget{}, apperrors.NewValidationError(planOp, "event payload", fmt.Errorf("no image-name configured and no registry package event available"))
	}

	pkg := cfg.Event.RegistryPackage
	if pkg.Name == "" || pkg.PackageType == "" {
		return types.ScanTarget{}, apperrors.NewValidationError(planOp, "registry_package", fmt.Errorf("event has no registry package name or type"))
	}
	if cfg.Event.IsDocker() {
		ref, err := cfg.Event.PullReference()
		if err != nil {
			return types.ScanTarget{}, apperrors.NewValidationError(planOp, "registry_package", err)
		}
		return types.ScanTarget{
			Kind:    types.PackageImageScan,
			Image:   pkg.Name,
			Project: pkg.Name,
			PullRef: ref,
		}, nil
	}

	return types.ScanTarget{
		Kind:    types.PackageFilesScan,
		Project: pkg.Name,
		Files:   pkg.PackageVersion.PackageFiles,
	}, nil
}

// BuildCommand turns a target into the agent command line.
func BuildCommand(cfg *config.Config, target types.ScanTarget) *agent.CLI {
	cli := agent.New(agent.JarName, agent.Credentials{
		DestinationURL: cfg.DestinationURL,
		APIKey:         cfg.APIKey,
		UserKey:        cfg.UserKey,
	}, cfg.DryRun)

	switch target.Kind {
	case types.PackageFilesScan:
		cli.BuildDirectoryScan(target.Project)
	default:
		cli.BuildImageScan(target.Image, target.Project)
	}

	if cfg.HasProductKey() {
		cli.WithProductToken(cfg.ProductKey)
	}
	return cli
}
