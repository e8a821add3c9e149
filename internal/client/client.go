// Package client is a cookie-holding HTTP client for the console API. When an
// access credential expires, concurrent requests share one refresh and then
// replay themselves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"htech-admin/internal/models"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrSessionExpired means the refresh credential was rejected. The caller
	// has to log in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnauthenticated means the request was still rejected after a
	// successful refresh.
	ErrUnauthenticated = errors.New("unauthenticated")
)

const refreshPath = "/auth/refresh"

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	jar     *resettableJar

	refreshes singleflight.Group
	// generation counts completed refreshes. A request remembers the value it
	// was sent under so a 401 that raced a finished refresh just retries.
	generation atomic.Uint64
	// expired holds generation+1 of the last failed refresh, zero if none.
	expired atomic.Uint64

	onSessionExpired func()
}

type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = transport
	}
}

// OnSessionExpired registers a hook that fires once per failed refresh.
func OnSessionExpired(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := newResettableJar()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		jar:     jar,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	status, env, err := c.send(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	if err := decode(status, env, &out); err != nil {
		return nil, err
	}
	c.generation.Add(1)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.MeResponse, error) {
	var out models.MeResponse
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the server session and forgets local credentials.
func (c *Client) Logout(ctx context.Context) error {
	defer c.jar.Reset()
	status, env, err := c.send(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	return decode(status, env, nil)
}

// Do sends an API request and decodes the envelope's data into out. A 401 is
// answered with one shared refresh and a single retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	generation := c.generation.Load()

	status, env, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return decode(status, env, out)
	}

	if err := c.refresh(ctx, generation); err != nil {
		return err
	}

	status, env, err = c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s %s rejected after refresh", ErrUnauthenticated, method, path)
	}
	return decode(status, env, out)
}

// refresh joins the in-flight refresh or starts one. Callers whose request was
// sent before the latest completed refresh return immediately.
func (c *Client) refresh(ctx context.Context, seen uint64) error {
	if c.generation.Load() != seen {
		return nil
	}
	if c.expired.Load() == seen+1 {
		return ErrSessionExpired
	}

	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		if c.generation.Load() != seen {
			return nil, nil
		}
		if c.expired.Load() == seen+1 {
			return nil, ErrSessionExpired
		}
		// One waiter cancelling must not fail the refresh for everyone else.
		status, env, err := c.send(context.WithoutCancel(ctx), http.MethodPost, refreshPath, nil)
		if err == nil {
			err = decode(status, env, nil)
		}
		if err != nil {
			log.Printf("credential refresh failed: %v", err)
			c.expired.Store(seen + 1)
			c.jar.Reset()
			if c.onSessionExpired != nil {
				c.onSessionExpired()
			}
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		c.generation.Add(1)
		return nil, nil
	})
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body any) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
		}
	}
	return resp.StatusCode, env, nil
}

func decode(status int, env *envelope, out any) error {
	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		if env != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || env == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// resettableJar lets the client drop every cookie without swapping the jar
// out from under in-flight requests.
type resettableJar struct {
	mu    sync.RWMutex
	inner *cookiejar.Jar
}

func newResettableJar() (*resettableJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &resettableJar{inner: inner}, nil
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.inner.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

func (j *resettableJar) Reset() {
	inner, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
}
