package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/rflorenc/crm-workbench/internal/models"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 300

var bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`)

// ClientOptions tunes the HTTP transport.
type ClientOptions struct {
	Timeout  time.Duration
	RetryMax int // 0 disables retries
	Version  string
	Logger   *log.Logger
}

// Client is the authenticated gateway to the remote CRM API. A Client is
// immutable once built; WithAPIKey returns a copy.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a Client for a configured workspace.
func NewClient(ws *models.Workspace, opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		baseURL:    ws.Endpoint(""),
		apiKey:     strings.TrimSpace(ws.APIKey),
		userAgent:  "crm-workbench/" + opts.Version,
		httpClient: buildHTTPClient(opts),
		logger:     logger,
	}
}

// buildHTTPClient returns a plain client unless retries are requested.
func buildHTTPClient(opts ClientOptions) *http.Client {
	if opts.RetryMax > 0 {
		rc := retryablehttp.NewClient()
		rc.RetryMax = opts.RetryMax
		rc.RetryWaitMin = 200 * time.Millisecond
		rc.RetryWaitMax = 2 * time.Second
		// hand the final response back instead of a generic "giving up" error
		rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
		rc.Logger = nil
		httpClient := rc.StandardClient()
		httpClient.Timeout = opts.Timeout
		return httpClient
	}
	return &http.Client{Timeout: opts.Timeout}
}

// WithAPIKey returns a copy of the client that authenticates with key.
// A blank key returns the receiver unchanged.
func (c *Client) WithAPIKey(key string) *Client {
	key = strings.TrimSpace(key)
	if key == "" {
		return c
	}
	cp := *c
	cp.apiKey = key
	return &cp
}

// HasAPIKey reports whether a credential is available.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Request performs an authenticated call and returns the response body.
// payload, when non-nil, is sent as JSON.
func (c *Client) Request(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if c.apiKey == "" {
		return nil, ErrAuthMissing
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("remote call failed", "method", method, "path", path, "duration", time.Since(start))
		return nil, &TransportError{Method: method, Path: path, Err: c.scrub(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("reading response: %w", err)}
	}
	c.logger.Debug("remote call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteHTTPError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(c.redact(string(body)), maxErrorBody),
		}
	}
	return body, nil
}

// DoJSON performs a call and unmarshals the response into dest.
func (c *Client) DoJSON(ctx context.Context, method, path string, payload, dest interface{}) error {
	body, err := c.Request(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing %s %s response: %w", method, path, err)
	}
	return nil
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.Request(ctx, http.MethodPost, path, payload)
}

// Delete performs an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Request(ctx, http.MethodDelete, path, nil)
	return err
}

// redact strips the API key and any bearer token from s.
func (c *Client) redact(s string) string {
	if c.apiKey != "" {
		s = strings.ReplaceAll(s, c.apiKey, "[redacted]")
	}
	return bearerPattern.ReplaceAllString(s, "Bearer [redacted]")
}

func (c *Client) scrub(err error) error {
	msg := err.Error()
	if clean := c.redact(msg); clean != msg {
		return fmt.Errorf("%s", clean)
	}
	return err
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
