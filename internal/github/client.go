// Package github talks to the GitHub platform: the REST API, step outputs and
// workflow commands written to the run log.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// Client is a minimal GitHub REST client.
type Client struct {
	rest *resty.Client
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("User-Agent", "whitesource-scan-action")
	return &Client{rest: rest}
}

type user struct {
	Login string `json:"login"`
}

// Login returns the login of the user that owns token.
func (c *Client) Login(ctx context.Context, token string) (string, error) {
	var u user
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Authorization", "token "+token).
		SetResult(&u).
		Get("/user")
	if err != nil {
		return "", errors.Wrap(err, "GET /user")
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("GET /user returned %s", resp.Status())
	}
	if u.Login == "" {
		return "", fmt.Errorf("GET /user returned no login")
	}
	return u.Login, nil
}
