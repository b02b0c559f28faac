// Package wordpress is a small client for the WordPress REST API
// (wp/v2) and the pipeline that turns a generated article into a post.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

const apiPrefix = "/wp-json/wp/v2"

// Logger is the subset of echo.Logger the client writes to.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Credentials identify a WordPress account. Password should be an
// application password, sent with HTTP Basic auth.
type Credentials struct {
	SiteURL  string `yaml:"site_url" json:"site_url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Complete reports whether all three fields are set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.SiteURL) != "" && c.Username != "" && c.Password != ""
}

// Client talks to one WordPress site.
type Client struct {
	base  string
	creds Credentials
	http  *http.Client
	log   Logger
	terms *TermCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for recoverable failures.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithTermTTL sets how long resolved category and tag ids are reused.
func WithTermTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.terms = NewTermCache(ttl)
	}
}

// NewClient returns a client for creds. It fails with
// ErrMissingCredentials when any field is empty.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if !creds.Complete() {
		return nil, ErrMissingCredentials
	}
	c := &Client{
		base:  SiteBase(creds.SiteURL),
		creds: creds,
		http:  &http.Client{Timeout: 30 * time.Second},
		log:   log.New("wordpress"),
		terms: NewTermCache(10 * time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SiteBase normalizes a user-entered site URL: https is assumed when
// no scheme is given and a trailing slash is dropped.
func SiteBase(siteURL string) string {
	s := strings.TrimSpace(siteURL)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return strings.TrimRight(s, "/")
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("wordpress: build request: %w", err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wordpress: encode request: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, nil, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out. op names the
// operation in human-readable error messages.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformed(op, err)
	}
	return nil
}

// User is the authenticated account.
type User struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Me returns the account the credentials belong to, which makes it a
// cheap way to check a site URL and password before publishing.
func (c *Client) Me(ctx context.Context) (User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/users/me", url.Values{"context": {"edit"}}, nil)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := c.do(req, "credential check", &u); err != nil {
		return User{}, err
	}
	if u.ID == 0 {
		return User{}, malformed("credential check", nil)
	}
	return u, nil
}
