// Package event reads the registry package event that triggered the workflow.
package event

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-containerregistry/pkg/name"
)

const (
	// RegistryHost is the GitHub Packages docker registry.
	RegistryHost = "docker.pkg.github.com"

	PackageTypeDocker = "docker"
)

type PackageFile struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
}

type PackageVersion struct {
	Version      string        `json:"version"`
	PackageFiles []PackageFile `json:"package_files"`
}

type RegistryPackage struct {
	Name           string         `json:"name"`
	PackageType    string         `json:"package_type"`
	PackageVersion PackageVersion `json:"package_version"`
}

type Repository struct {
	FullName string `json:"full_name"`
}

// Payload is the subset of the registry_package webhook payload the action reads.
type Payload struct {
	Action          string          `json:"action"`
	RegistryPackage RegistryPackage `json:"registry_package"`
	Repository      Repository      `json:"repository"`
}

// Load reads and decodes the event payload at path.
func Load(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read event payload %s", path)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to parse event payload %s", path)
	}
	return &p, nil
}

// IsDocker reports whether the published package is a container image.
func (p *Payload) IsDocker() bool {
	return p.RegistryPackage.PackageType == PackageTypeDocker
}

// PullReference builds <host>/<owner/repo lowercased>/<package>:<version> and
// checks that it parses as an image reference.
func (p *Payload) PullReference() (string, error) {
	pkg := p.RegistryPackage
	if p.Repository.FullName == "" || pkg.Name == "" || pkg.PackageVersion.Version == "" {
		return "", fmt.Errorf("event payload is missing repository.full_name, registry_package.name or package_version.version")
	}

	raw := fmt.Sprintf("%s/%s/%s:%s",
		RegistryHost,
		strings.ToLower(p.Repository.FullName),
		pkg.Name,
		pkg.PackageVersion.Version,
	)

	ref, err := name.ParseReference(raw, name.WeakValidation)
	if err != nil {
		return "", errors.Wrapf(err, "invalid pull reference %s", raw)
	}
	return ref.Name(), nil
}
