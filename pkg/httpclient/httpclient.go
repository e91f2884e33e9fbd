// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package httpclient is the client side of the daemon REST API. It
// speaks the daemon's response envelope and surfaces envelope errors
// as coded errors, so CLI subcommands can branch on the error code.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stratastor/ethman/internal/constants"
	"github.com/stratastor/ethman/pkg/errors"
)

const (
	defaultTimeout       = 5 * time.Second
	defaultRetryCount    = 2
	defaultRetryWaitTime = 500 * time.Millisecond
)

// Config narrows the client to what is needed to reach a daemon,
// typically on localhost.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
	RetryWaitTime time.Duration
	Debug         bool
}

// DefaultConfig returns settings suitable for querying a local daemon.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Timeout:       defaultTimeout,
		RetryCount:    defaultRetryCount,
		RetryWaitTime: defaultRetryWaitTime,
	}
}

// Client talks to a running ethman daemon.
type Client struct {
	r *resty.Client
}

// New builds a client from cfg.
func New(cfg Config) *Client {
	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "ethman/"+constants.EthmanVersion)
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	}
	if cfg.RetryCount > 0 {
		r.SetRetryCount(cfg.RetryCount)
	}
	if cfg.RetryWaitTime > 0 {
		r.SetRetryWaitTime(cfg.RetryWaitTime)
	}
	if cfg.Debug {
		r.SetDebug(true)
	} else {
		r.SetLogger(noopLogger{})
	}
	return &Client{r: r}
}

// envelope mirrors the daemon's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    int    `json:"code"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Get fetches path and unmarshals the envelope result into out.
// out may be nil when only success matters.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body to path.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body to path.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE to path.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var env envelope
	req := c.r.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if env.Error != nil {
		// Rebuild the daemon's coded error so callers can branch on it.
		ee := errors.New(errors.ErrorCode(env.Error.Code), env.Error.Details)
		ee.Domain = errors.Domain(env.Error.Domain)
		ee.Message = env.Error.Message
		ee.HTTPStatus = resp.StatusCode()
		return ee
	}
	if !env.Success {
		return fmt.Errorf("%s %s: unexpected response, HTTP %d", method, path, resp.StatusCode())
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", path, err)
		}
	}
	return nil
}

// noopLogger silences resty's internal logging.
type noopLogger struct{}

func (noopLogger) Errorf(string, ...interface{}) {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Debugf(string, ...interface{}) {}
