package types

import "github.com/whitesource/scan-action/internal/event"

type ScanKind string

const (
	// ImageScan scans an image named by the image-name input.
	ImageScan ScanKind = "image"
	// PackageImageScan pulls and scans a docker image published to GitHub Packages.
	PackageImageScan ScanKind = "package-image"
	// PackageFilesScan downloads the files of a published package and scans the directory.
	PackageFilesScan ScanKind = "package-files"
)

// ScanTarget is what a run scans, decided from the inputs and the event payload.
type ScanTarget struct {
	Kind    ScanKind
	Image   string              // image matched by the agent (image scans)
	Project string              // WhiteSource project name
	PullRef string              // registry reference to pull (PackageImageScan)
	Files   []event.PackageFile // files to download (PackageFilesScan)
}

// ScanResult summarises a completed run.
type ScanResult struct {
	Target            ScanTarget
	ReportPath        string
	FolderPath        string
	TotalIssues       int
	ViolationsChecked bool
	DryRun            bool
}
