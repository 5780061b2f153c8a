package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"

	apperrors "github.com/whitesource/scan-action/internal/errors"
)

// engineAPI is the part of the Docker Engine client used by Engine.
type engineAPI interface {
	ServerVersion(ctx context.Context) (types.Version, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	Close() error
}

// Engine implements Runtime against the Docker Engine API.
type Engine struct {
	api    engineAPI
	logger *logrus.Logger
	auths  map[string]registry.AuthConfig
}

// NewEngine connects using the DOCKER_HOST family of environment variables.
func NewEngine(logger *logrus.Logger) (*Engine, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, apperrors.NewExecutionError("create docker client", "", err)
	}
	return newEngine(cli, logger), nil
}

func newEngine(api engineAPI, logger *logrus.Logger) *Engine {
	return &Engine{api: api, logger: logger, auths: map[string]registry.AuthConfig{}}
}

func (e *Engine) Close() error {
	return e.api.Close()
}

func (e *Engine) Version(ctx context.Context) (string, error) {
	v, err := e.api.ServerVersion(ctx)
	if err != nil {
		return "", apperrors.NewExecutionError("docker version", "", err)
	}
	return fmt.Sprintf("Docker version %s, API %s (%s/%s)", v.Version, v.APIVersion, v.Os, v.Arch), nil
}

func (e *Engine) Images(ctx context.Context) (string, error) {
	images, err := e.api.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return "", apperrors.NewExecutionError("docker images", "", err)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "REPOSITORY:TAG\tIMAGE ID\tSIZE")
	for _, img := range images {
		tags := img.RepoTags
		if len(tags) == 0 {
			tags = []string{"<none>:<none>"}
		}
		for _, tag := range tags {
			fmt.Fprintf(w, "%s\t%s\t%s\n", tag, shortID(img.ID), units.HumanSizeWithPrecision(float64(img.Size), 3))
		}
	}
	w.Flush()
	return b.String(), nil
}

func (e *Engine) Login(ctx context.Context, serverAddress, username, token string) error {
	if token == "" {
		return apperrors.NewAuthenticationError("docker login", serverAddress, fmt.Errorf("token cannot be empty"))
	}

	auth := registry.AuthConfig{
		Username:      username,
		Password:      token,
		ServerAddress: serverAddress,
	}
	resp, err := e.api.RegistryLogin(ctx, auth)
	if err != nil {
		return apperrors.NewAuthenticationError("docker login", serverAddress, err)
	}
	if resp.IdentityToken != "" {
		auth.Password = ""
		auth.IdentityToken = resp.IdentityToken
	}
	e.auths[serverAddress] = auth
	e.logger.Debugf("docker login %s: %s", serverAddress, resp.Status)
	return nil
}

func (e *Engine) Pull(ctx context.Context, ref string) error {
	opts := image.PullOptions{}
	if auth, ok := e.auths[registryOf(ref)]; ok {
		encoded, err := registry.EncodeAuthConfig(auth)
		if err != nil {
			return apperrors.NewAuthenticationError("docker pull", ref, err)
		}
		opts.RegistryAuth = encoded
	}

	rc, err := e.api.ImagePull(ctx, ref, opts)
	if err != nil {
		return apperrors.NewExecutionError("docker pull", ref, err)
	}
	defer rc.Close()

	w := e.logger.WriterLevel(logrus.DebugLevel)
	defer w.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(rc, w, 0, false, nil); err != nil {
		return apperrors.NewExecutionError("docker pull", ref, err)
	}
	return nil
}

func registryOf(ref string) string {
	if i := strings.Index(ref, "/"); i > 0 {
		return ref[:i]
	}
	return ""
}

func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
