// Package download fetches the agent jar and published package files.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	apperrors "github.com/whitesource/scan-action/internal/errors"
)

const defaultTimeout = 10 * time.Minute

// Downloader writes remote files to disk.
type Downloader struct {
	rest   *resty.Client
	logger *logrus.Logger
}

// New returns a Downloader. A non-empty token is sent as "Authorization: token".
func New(logger *logrus.Logger, token string) *Downloader {
	rest := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", "whitesource-scan-action")
	if token != "" {
		rest.SetHeader("Authorization", "token "+token)
	}
	return &Downloader{rest: rest, logger: logger}
}

// Download fetches url into dest. A partially written file is removed on failure.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	d.logger.WithField("url", url).Infof("downloading %s", filepath.Base(dest))

	resp, err := d.rest.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		os.Remove(dest)
		return apperrors.NewNetworkError("download", url, err)
	}
	if resp.IsError() {
		os.Remove(dest)
		return apperrors.NewNetworkError("download", url, fmt.Errorf("unexpected status %s", resp.Status()))
	}

	d.logger.Debugf("downloaded %s (%d bytes) in %s", dest, resp.Size(), resp.Time())
	return nil
}
