package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitesource/scan-action/internal/config"
	apperrors "github.com/whitesource/scan-action/internal/errors"
)

func TestVersionVariables(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
	if commit == "" {
		t.Error("commit should not be empty")
	}
	if date == "" {
		t.Error("date should not be empty")
	}
	assert.Contains(t, rootCmd.Version, version)
}

func TestFlagsRegistered(t *testing.T) {
	for _, name := range []string{"ws-destination-url", "ws-api-key", "ws-user-key", "image-name", "debug", "dry-run", "env-file"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, true)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.Error("boom")
	assert.Equal(t, "::error::boom\n", buf.String())

	assert.Equal(t, logrus.InfoLevel, newLogger(&buf, false).GetLevel())
}

func TestRun_InvalidInputs(t *testing.T) {
	t.Setenv("INPUT_WS-DESTINATION-URL", "")
	t.Setenv("INPUT_WS_DESTINATION_URL", "")

	var out bytes.Buffer
	err := run(rootCmd, &out)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ws-destination-url"), err.Error())
	assert.Empty(t, out.String())
}

func TestMaskSecrets(t *testing.T) {
	var buf bytes.Buffer
	maskSecrets(&buf, &config.Config{
		APIKey:   strings.Repeat("a", 20),
		UserKey:  strings.Repeat("u", 20),
		GPRToken: "ghp_token",
	})

	assert.Equal(t, "::add-mask::"+strings.Repeat("a", 20)+"\n::add-mask::"+strings.Repeat("u", 20)+"\n::add-mask::ghp_token\n", buf.String())
}

func TestFailureMessage(t *testing.T) {
	violation := errors.Wrap(&apperrors.PolicyViolationError{Count: 4}, "check violations")
	assert.Equal(t, "Scan completed: 4 policy violations found", failureMessage(violation))

	other := apperrors.NewExecutionError("docker pull", "ref", fmt.Errorf("manifest unknown"))
	assert.Equal(t, other.Error(), failureMessage(other))
}
