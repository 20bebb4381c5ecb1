// Package client is the consuming side of the API: it attaches the current
// access token to every request and performs at most one silent
// refresh-and-retry when a request comes back 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned once refresh is no longer possible; the
// caller must send the user back through login.
var ErrSessionExpired = errors.New("session expired")

// ErrRequestFailed wraps non-auth HTTP failures.
var ErrRequestFailed = errors.New("request failed")

type Option func(*Client)

// WithHTTPClient replaces the underlying transport, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSessionExpiredHook registers the callback fired when the client
// drops into the unauthenticated state (for a UI: redirect to login).
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	// Concurrent 401s coalesce into one in-flight refresh instead of
	// racing each other at the rotation endpoint.
	refreshGroup singleflight.Group

	onSessionExpired func()
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
}

func (c *Client) Tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) clearTokens() {
	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.mu.Unlock()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

/* ───────────────────────────── auth calls ───────────────────────── */

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) Register(ctx context.Context, email, password, username string) error {
	return c.post(ctx, "/auth/register", map[string]string{
		"email": email, "password": password, "username": username,
	}, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var out tokenResponse
	if err := c.post(ctx, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out); err != nil {
		return err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.clearTokens()
	return err
}

// post is a bare call without the retry machinery; login and register run
// before any tokens exist.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.send(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s: status %d", ErrRequestFailed, path, resp.StatusCode)
	}
	return decodeBody(resp.Body, out)
}

/* ──────────────────────────── interceptor ────────────────────────── */

// Do performs an authenticated request. On a 401 it refreshes once and
// retries once; a second 401 surfaces as ErrSessionExpired without
// another refresh attempt.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	access, _ := c.Tokens()

	resp, err := c.send(ctx, method, path, body, access)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := c.refresh(ctx); err != nil {
			return err
		}

		access, _ = c.Tokens()
		resp, err = c.send(ctx, method, path, body, access)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return fmt.Errorf("%w: still unauthorized after refresh", ErrSessionExpired)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s %s: status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}
	return decodeBody(resp.Body, out)
}

// refresh exchanges the stored refresh token for a new pair. Any failure
// ends the session: tokens are cleared and the expiry hook fires.
func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		_, refreshToken := c.Tokens()
		if refreshToken == "" {
			return nil, ErrSessionExpired
		}

		resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", map[string]string{
			"refresh_token": refreshToken,
		}, "")
		if err != nil {
			return nil, fmt.Errorf("%w: refresh transport: %v", ErrSessionExpired, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: refresh rejected with status %d", ErrSessionExpired, resp.StatusCode)
		}

		var out tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("%w: malformed refresh response", ErrSessionExpired)
		}
		c.SetTokens(out.AccessToken, out.RefreshToken)
		return nil, nil
	})
	if err != nil {
		c.clearTokens()
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}, bearer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.http.Do(req)
}

func decodeBody(r io.Reader, out interface{}) error {
	if out == nil {
		io.Copy(io.Discard, r)
		return nil
	}
	return json.NewDecoder(r).Decode(out)
}
