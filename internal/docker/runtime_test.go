package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	apperrors "github.com/whitesource/scan-action/internal/errors"
)

// Mock for the Docker Engine API
type MockEngineAPI struct {
	mock.Mock
}

func (m *MockEngineAPI) ServerVersion(ctx context.Context) (types.Version, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Version), args.Error(1)
}

func (m *MockEngineAPI) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	args := m.Called(ctx, options)
	return args.Get(0).([]image.Summary), args.Error(1)
}

func (m *MockEngineAPI) RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error) {
	args := m.Called(ctx, auth)
	return args.Get(0).(registry.AuthenticateOKBody), args.Error(1)
}

func (m *MockEngineAPI) ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, ref, options)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockEngineAPI) Close() error {
	return m.Called().Error(0)
}

// Ensure implementations satisfy Runtime
var (
	_ Runtime   = (*CLI)(nil)
	_ Runtime   = (*Engine)(nil)
	_ engineAPI = (*MockEngineAPI)(nil)
)

type EngineTestSuite struct {
	suite.Suite
	api    *MockEngineAPI
	engine *Engine
	ctx    context.Context
}

func (suite *EngineTestSuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	suite.api = new(MockEngineAPI)
	suite.engine = newEngine(suite.api, logger)
	suite.ctx = context.Background()
}

func (suite *EngineTestSuite) TestVersion() {
	suite.api.On("ServerVersion", suite.ctx).Return(types.Version{
		Version: "28.3.3", APIVersion: "1.51", Os: "linux", Arch: "amd64",
	}, nil)

	v, err := suite.engine.Version(suite.ctx)

	suite.NoError(err)
	suite.Equal("Docker version 28.3.3, API 1.51 (linux/amd64)", v)
}

func (suite *EngineTestSuite) TestVersion_Error() {
	suite.api.On("ServerVersion", suite.ctx).Return(types.Version{}, fmt.Errorf("daemon not running"))

	_, err := suite.engine.Version(suite.ctx)

	suite.Error(err)
	category, _ := apperrors.CategoryOf(err)
	suite.Equal(apperrors.ExecutionError, category)
}

func (suite *EngineTestSuite) TestImages() {
	suite.api.On("ImageList", suite.ctx, image.ListOptions{}).Return([]image.Summary{
		{ID: "sha256:0123456789abcdef0123", RepoTags: []string{"alpine:3.20"}, Size: 7_800_000},
		{ID: "sha256:fedcba9876543210", Size: 1000},
	}, nil)

	out, err := suite.engine.Images(suite.ctx)

	suite.NoError(err)
	suite.Contains(out, "REPOSITORY:TAG")
	suite.Contains(out, "alpine:3.20")
	suite.Contains(out, "0123456789ab")
	suite.Contains(out, "<none>:<none>")
}

func (suite *EngineTestSuite) TestLoginThenPullSendsAuth() {
	auth := registry.AuthConfig{Username: "octocat", Password: "gpr-token", ServerAddress: "docker.pkg.github.com"}
	suite.api.On("RegistryLogin", suite.ctx, auth).Return(registry.AuthenticateOKBody{Status: "Login Succeeded"}, nil)

	ref := "docker.pkg.github.com/org/repo/myapp:1.0"
	stream := io.NopCloser(strings.NewReader(`{"status":"Pulling from org/repo/myapp"}` + "\n"))
	suite.api.On("ImagePull", suite.ctx, ref, mock.MatchedBy(func(o image.PullOptions) bool {
		raw, err := base64.URLEncoding.DecodeString(o.RegistryAuth)
		if err != nil {
			return false
		}
		var got registry.AuthConfig
		if err := json.Unmarshal(raw, &got); err != nil {
			return false
		}
		return got.Username == "octocat" && got.Password == "gpr-token"
	})).Return(stream, nil)

	suite.NoError(suite.engine.Login(suite.ctx, "docker.pkg.github.com", "octocat", "gpr-token"))
	suite.NoError(suite.engine.Pull(suite.ctx, ref))
	suite.api.AssertExpectations(suite.T())
}

func (suite *EngineTestSuite) TestLogin_EmptyToken() {
	err := suite.engine.Login(suite.ctx, "docker.pkg.github.com", "octocat", "")

	suite.Error(err)
	category, _ := apperrors.CategoryOf(err)
	suite.Equal(apperrors.AuthenticationError, category)
	suite.api.AssertNotCalled(suite.T(), "RegistryLogin", mock.Anything, mock.Anything)
}

func (suite *EngineTestSuite) TestPull_StreamError() {
	ref := "alpine:3.20"
	stream := io.NopCloser(strings.NewReader(`{"errorDetail":{"message":"manifest unknown"},"error":"manifest unknown"}` + "\n"))
	suite.api.On("ImagePull", suite.ctx, ref, image.PullOptions{}).Return(stream, nil)

	err := suite.engine.Pull(suite.ctx, ref)

	suite.Error(err)
	suite.Contains(err.Error(), "manifest unknown")
}

func (suite *EngineTestSuite) TestPull_RequestError() {
	ref := "alpine:3.20"
	suite.api.On("ImagePull", suite.ctx, ref, image.PullOptions{}).Return(nil, fmt.Errorf("no such host"))

	err := suite.engine.Pull(suite.ctx, ref)

	suite.Error(err)
	suite.Contains(err.Error(), "no such host")
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestLoginWithToken_Validation(t *testing.T) {
	ctx := context.Background()

	err := LoginWithToken(ctx, "docker.pkg.github.com", "octocat", "")
	if err == nil || !strings.Contains(err.Error(), "token cannot be empty") {
		t.Errorf("expected empty token error, got %v", err)
	}

	err = LoginWithToken(ctx, "docker.pkg.github.com", "", "token")
	if err == nil || !strings.Contains(err.Error(), "username cannot be empty") {
		t.Errorf("expected empty username error, got %v", err)
	}
}

func TestRegistryOf(t *testing.T) {
	tests := map[string]string{
		"docker.pkg.github.com/org/repo/app:1.0": "docker.pkg.github.com",
		"localhost:5000/app:v1":                  "localhost:5000",
		"alpine:3.20":                            "",
	}
	for ref, want := range tests {
		if got := registryOf(ref); got != want {
			t.Errorf("registryOf(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("sha256:0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}
