package gravatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kubitskyi/contacts-api/pkg/config"
)

const (
	defaultBaseURL = "https://www.gravatar.com/avatar"
	defaultTimeout = 3 * time.Second
)

// Status describes how an avatar lookup ended.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusSkipped  Status = "skipped"
)

var errEmailRequired = errors.New("email is required")

// Result is the best-effort outcome of an avatar lookup. A skipped result is never an
// error for the caller; Reason only feeds logs and metrics.
type Result struct {
	Status Status
	URL    string
	Reason string
}

// Avatar returns the URL to persist, or nil when the lookup was skipped.
func (r Result) Avatar() *string {
	if r.Status != StatusResolved || r.URL == "" {
		return nil
	}
	u := r.URL
	return &u
}

func skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}

// Resolver looks up the avatar of an e-mail address.
type Resolver interface {
	Resolve(ctx context.Context, email string) Result
}

// Client builds Gravatar URLs and optionally checks that an image exists.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	size         int
	defaultImage string
	verify       bool
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the Gravatar client from configuration.
func NewClient(cfg config.GravatarConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		size:         cfg.Size,
		defaultImage: strings.TrimSpace(cfg.DefaultImage),
		verify:       cfg.Verify,
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// URL returns the avatar URL for the address. The hash is taken over the trimmed,
// lower-cased address.
func (c *Client) URL(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", errEmailRequired
	}
	sum := md5.Sum([]byte(normalized))

	u := c.baseURL + "/" + hex.EncodeToString(sum[:])
	query := url.Values{}
	if c.size > 0 {
		query.Set("s", strconv.Itoa(c.size))
	}
	if c.defaultImage != "" {
		query.Set("d", c.defaultImage)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// Resolve never fails: any problem yields a skipped result.
func (c *Client) Resolve(ctx context.Context, email string) Result {
	if c == nil {
		return skipped("gravatar client not configured")
	}
	avatarURL, err := c.URL(email)
	if err != nil {
		return skipped(err.Error())
	}
	if !c.verify {
		return Result{Status: StatusResolved, URL: avatarURL}
	}
	if err := c.probe(ctx, avatarURL); err != nil {
		return skipped(err.Error())
	}
	return Result{Status: StatusResolved, URL: avatarURL}
}

// probe asks Gravatar to answer 404 instead of serving a placeholder image.
func (c *Client) probe(ctx context.Context, avatarURL string) error {
	parsed, err := url.Parse(avatarURL)
	if err != nil {
		return fmt.Errorf("parse avatar url: %w", err)
	}
	query := parsed.Query()
	query.Set("d", "404")
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, parsed.String(), nil)
	if err != nil {
		return fmt.Errorf("build avatar probe: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute avatar probe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return errors.New("no gravatar registered for address")
	default:
		return fmt.Errorf("avatar probe returned status %d", resp.StatusCode)
	}
}
