// Package client is a Go client for the Gestly HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
	DefaultTimeout    = 15 * time.Second

	headerAPIKey = "x-api-key"
)

// Config configures a Client. Set either APIKey or Token.
type Config struct {
	BaseURL string
	APIKey  string
	Token   string

	// Attempts is the total number of tries per request, first one included.
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Client calls the API under /api/v1. Failed requests are retried a fixed
// number of times with a fixed delay, only on network errors, 5xx and 429.
type Client struct {
	http *resty.Client
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func New(cfg Config) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	delay := cfg.RetryDelay

	r := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/api/v1").
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.Attempts - 1).
		SetRetryWaitTime(delay).
		SetRetryMaxWaitTime(delay).
		SetRetryAfter(func(*resty.Client, *resty.Response) (time.Duration, error) {
			return delay, nil
		}).
		AddRetryCondition(shouldRetry)

	switch {
	case cfg.APIKey != "":
		r.SetHeader(headerAPIKey, cfg.APIKey)
	case cfg.Token != "":
		r.SetAuthToken(cfg.Token)
	}
	return &Client{http: r}
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// SetToken replaces the bearer token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Do sends one request and decodes the envelope data into out (may be nil).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if err := c.decode(resp.StatusCode(), resp.IsError(), resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

// decode unwraps the response envelope. Error envelopes become *APIError;
// bodies that are not an envelope are plain errors.
func (c *Client) decode(status int, failed bool, body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unexpected response (status %d): %w", status, err)
	}
	if failed || !env.Success {
		return &APIError{StatusCode: status, Message: env.Error, Details: env.Details}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}
