// Package client is the Go API client for the todoboard backend, including
// the refresh coordinator: when a request fails with AUTH_EXPIRED_TOKEN,
// exactly one refresh call is made on behalf of every concurrently failing
// request, and each of them retries once with the new access token.
//
// Only AUTH_EXPIRED_TOKEN triggers that path. Every other 401 code means the
// session is gone for good: the in-memory access token is cleared and no
// refresh is attempted. The refresh token itself lives in an HTTP-only
// cookie managed by the transport's cookie jar; this package never reads it.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhyun-dev/todoboard/internal/auth"
)

// APIError is a non-2xx response from the server. Code carries the stable
// auth error code when the failure is a classified 401, otherwise "".
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ErrLoggedOut is returned once the client has no session and a request
// needs one. Callers should prompt for a fresh login.
var ErrLoggedOut = errors.New("logged out")

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request, the refresh call included. A refresh
// that exceeds it counts as a failed refresh and is broadcast as such, so
// queued requests never wait indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rest.SetTimeout(d) }
}

// WithHTTPClient substitutes the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.rest = resty.NewWithClient(hc) }
}

// OnLogout registers a callback fired when the client transitions to the
// logged-out state (failed refresh or a non-recoverable 401).
func OnLogout(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// Client is a stateful API client: it holds the current access token in
// memory and the refresh cookie in its cookie jar.
type Client struct {
	rest     *resty.Client
	gate     refreshGate
	onLogout func()

	mu          sync.RWMutex
	accessToken string
}

// New builds a client against baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{rest: resty.New()}
	for _, opt := range opts {
		opt(c)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c.rest.SetCookieJar(jar)
	c.rest.SetBaseURL(baseURL)
	return c, nil
}

// AccessToken returns the current in-memory access token, "" when logged out.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) clearToken() {
	c.mu.Lock()
	had := c.accessToken != ""
	c.accessToken = ""
	c.mu.Unlock()

	if had && c.onLogout != nil {
		c.onLogout()
	}
}

// wireError is the failure envelope the server produces.
type wireError struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// do runs one API call with the expired-token recovery protocol: attach the
// current token, and on AUTH_EXPIRED_TOKEN go through the single-flight gate
// and retry exactly once with whatever token the refresh produced.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, apiErr, err := c.send(ctx, method, path, body, out, c.AccessToken())
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}

	failure := &APIError{Status: resp.StatusCode(), Code: apiErr.ErrorCode, Message: apiErr.Message}
	if resp.StatusCode() != http.StatusUnauthorized {
		return failure
	}

	if failure.Code != auth.CodeExpiredToken {
		// Session expired, forged token, missing token: not recoverable by
		// refresh. Drop the token and report.
		c.clearToken()
		return failure
	}

	token, ok := c.refreshOnce(ctx)
	if !ok {
		return failure
	}

	resp, apiErr, err = c.send(ctx, method, path, body, out, token)
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	retryErr := &APIError{Status: resp.StatusCode(), Code: apiErr.ErrorCode, Message: apiErr.Message}
	if resp.StatusCode() == http.StatusUnauthorized {
		c.clearToken()
	}
	return retryErr
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, token string) (*resty.Response, *wireError, error) {
	apiErr := &wireError{}
	req := c.rest.R().
		SetContext(ctx).
		SetError(apiErr)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, nil, err
	}
	return resp, apiErr, nil
}

// refreshOnce funnels all concurrent expirations through the gate. The
// leader performs the network call; followers wait for the broadcast or
// their own context, whichever comes first.
func (c *Client) refreshOnce(ctx context.Context) (string, bool) {
	leader, wait := c.gate.begin()
	if !leader {
		select {
		case out := <-wait:
			return out.token, out.ok
		case <-ctx.Done():
			return "", false
		}
	}

	token, err := c.callRefresh(ctx)
	if err != nil {
		c.clearToken()
		c.gate.finish(refreshOutcome{})
		return "", false
	}

	c.setToken(token)
	c.gate.finish(refreshOutcome{token: token, ok: true})
	return token, true
}

func (c *Client) callRefresh(ctx context.Context) (string, error) {
	var result struct {
		OK          bool   `json:"ok"`
		AccessToken string `json:"accessToken"`
	}
	apiErr := &wireError{}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetError(apiErr).
		SetResult(&result).
		Post("/auth/refresh")
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &APIError{Status: resp.StatusCode(), Code: apiErr.ErrorCode, Message: apiErr.Message}
	}
	if result.AccessToken == "" {
		return "", errors.New("refresh response missing access token")
	}
	return result.AccessToken, nil
}
