// Package api is a typed client for the chat server's HTTP endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request when the caller does not
// configure one.
const DefaultTimeout = 10 * time.Second

// Client talks to one chat server. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client. Options may be given in any order.
type Option func(*options)

type options struct {
	http    *http.Client
	timeout time.Duration

	cookieName string
	token      string
}

// WithHTTPClient bases the client on a copy of hc. The copy gets a cookie
// jar of its own when hc has none; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithSession seeds the cookie jar with the session cookie.
func WithSession(cookieName, token string) Option {
	return func(o *options) {
		o.cookieName, o.token = cookieName, token
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", base.Scheme)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if o.http != nil {
		cp := *o.http
		hc = &cp
	}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("api: cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	if o.token != "" {
		if o.cookieName == "" {
			return nil, errors.New("api: session requires a cookie name")
		}
		hc.Jar.SetCookies(base, []*http.Cookie{{Name: o.cookieName, Value: o.token, Path: "/"}})
	}

	return &Client{base: base, http: hc}, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Cookies returns the cookies the client would send to the server. The
// real-time channel reuses them for its handshake.
func (c *Client) Cookies() []*http.Cookie {
	if c.http.Jar == nil {
		return nil
	}
	return c.http.Jar.Cookies(c.base)
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// envelope is the common part of every JSON response.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes the JSON response into out. A
// response whose success flag is false becomes a *RejectedError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		p, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: %s: could not encode request: %w", op, err)
		}
		body = bytes.NewReader(p)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, op, out)
}

func (c *Client) send(req *http.Request, op string, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s: %w", op, err)
	}
	defer res.Body.Close()

	p, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("api: %s: failed to read response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(p, &env); err != nil {
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return &StatusError{Op: op, Code: res.StatusCode}
		}
		return fmt.Errorf("api: %s: could not decode response: %w", op, err)
	}

	if env.Success != nil && !*env.Success {
		return &RejectedError{Op: op, Message: env.Message}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		if env.Message != "" {
			return &RejectedError{Op: op, Message: env.Message}
		}
		return &StatusError{Op: op, Code: res.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(p, out); err != nil {
		return fmt.Errorf("api: %s: could not decode response: %w", op, err)
	}
	return nil
}
