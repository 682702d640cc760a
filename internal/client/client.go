// Package client is a Go client for the portfolio API. It keeps the
// session cookie in a jar, bounds every call with a timeout and caches
// list/detail reads for a stale time, dropping the cache after any
// successful write.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/utils"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultStaleTime = 10 * time.Minute
)

// ErrTimeout is returned when the API does not answer within the timeout.
var ErrTimeout = errors.New("client: request timed out")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Errors  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type cacheEntry struct {
	body    []byte
	fetched time.Time
}

type Client struct {
	base      *url.URL
	http      *http.Client
	staleTime time.Duration
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type Option func(*Client)

// WithHTTPClient replaces the transport client. Its Jar is kept when set,
// otherwise a fresh jar is attached.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// WithStaleTime sets how long cached reads are served; zero disables caching.
func WithStaleTime(d time.Duration) Option { return func(c *Client) { c.staleTime = d } }

func withClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: base url: %w", err)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: DefaultTimeout},
		staleTime: DefaultStaleTime,
		now:       time.Now,
		cache:     map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// ----- payloads -----

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ProjectInput struct {
	Title           string         `json:"title"`
	Slug            string         `json:"slug"`
	Description     string         `json:"description"`
	LongDescription *string        `json:"longDescription,omitempty"`
	Image           string         `json:"image"`
	DemoURL         *string        `json:"demoUrl,omitempty"`
	RepoURL         *string        `json:"repoUrl,omitempty"`
	Category        string         `json:"category"`
	Technologies    []string       `json:"technologies"`
	Features        []string       `json:"features,omitempty"`
	Screenshots     []string       `json:"screenshots,omitempty"`
	FeaturedOrder   *string        `json:"featuredOrder,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userIDResp struct {
	UserID uint64 `json:"userId"`
}

// Health is the /api/health payload.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ----- auth -----

func (c *Client) Setup(ctx context.Context, username, password string) (uint64, error) {
	var out userIDResp
	err := c.send(ctx, http.MethodPost, "/api/auth/setup", credentials{username, password}, &out)
	return out.UserID, err
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.send(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, nil)
}

// Check returns the admin id of the current session.
func (c *Client) Check(ctx context.Context) (uint64, error) {
	var out userIDResp
	err := c.fetch(ctx, "/api/auth/check", false, &out)
	return out.UserID, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// ----- contacts -----

func (c *Client) SubmitContact(ctx context.Context, in ContactInput) (*model.ContactMessage, error) {
	var out struct {
		Contact model.ContactMessage `json:"contact"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/contact", in, &out); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}

func (c *Client) ListContacts(ctx context.Context) ([]model.ContactMessage, error) {
	var out []model.ContactMessage
	err := c.fetch(ctx, "/api/contacts", true, &out)
	return out, err
}

// ----- projects -----

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	err := c.fetch(ctx, "/api/projects", true, &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, slug string) (*model.Project, error) {
	var out model.Project
	if err := c.fetch(ctx, "/api/projects/"+url.PathEscape(slug), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject derives the slug from the title when in.Slug is empty.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*model.Project, error) {
	if strings.TrimSpace(in.Slug) == "" {
		in.Slug = utils.Slugify(in.Title)
	}
	var out struct {
		Project model.Project `json:"project"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/projects", in, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

// UpdateProject sends only the given fields; the server keeps the rest.
func (c *Client) UpdateProject(ctx context.Context, id uint64, fields map[string]any) (*model.Project, error) {
	var out struct {
		Project model.Project `json:"project"`
	}
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/api/projects/%d", id), fields, &out); err != nil {
		return nil, err
	}
	return &out.Project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id uint64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, nil)
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.fetch(ctx, "/api/health", false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invalidate drops every cached read.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cache = map[string]cacheEntry{}
	c.mu.Unlock()
}

// ----- transport -----

func (c *Client) fetch(ctx context.Context, path string, cacheable bool, out interface{}) error {
	if cacheable && c.staleTime > 0 {
		c.mu.Lock()
		e, ok := c.cache[path]
		c.mu.Unlock()
		if ok && c.now().Sub(e.fetched) < c.staleTime {
			return json.Unmarshal(e.body, out)
		}
	}
	body, err := c.roundTrip(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if cacheable && c.staleTime > 0 {
		c.mu.Lock()
		c.cache[path] = cacheEntry{body: body, fetched: c.now()}
		c.mu.Unlock()
	}
	return decodeInto(body, out)
}

// send performs a mutation and clears the read cache when it succeeds.
func (c *Client) send(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}
	body, err := c.roundTrip(ctx, method, path, payload)
	if err != nil {
		return err
	}
	c.Invalidate()
	return decodeInto(body, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &APIError{Status: resp.StatusCode}
		var eb struct {
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		if json.Unmarshal(body, &eb) == nil {
			ae.Message, ae.Errors = eb.Message, eb.Errors
		}
		return nil, ae
	}
	return body, nil
}

func decodeInto(body []byte, out interface{}) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
