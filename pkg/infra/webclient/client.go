// Package webclient provides the outbound HTTP client used to resolve
// and download OneDrive share links. Requests carry a browser-like
// User-Agent and no-cache directives so edge caches do not serve stale
// redirects; this is cache avoidance, not authentication.
package webclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sheetmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/sheetmirror/pkg/domain/model"
)

// Common errors.
var (
	ErrNotFound     = errors.New("webclient: resource not found")
	ErrForbidden    = errors.New("webclient: access forbidden")
	ErrUnauthorized = errors.New("webclient: unauthorized")
	ErrServerError  = errors.New("webclient: server error")
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options configures the HTTP client.
type Options struct {
	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// UserAgent overrides the browser-like User-Agent header.
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:   30 * time.Second,
		UserAgent: userAgent,
	}
}

type client struct {
	client *http.Client
	opts   Options
}

// New creates an HTTP client with the given options.
func New(opts Options) interfaces.HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = userAgent
	}

	return &client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		opts: opts,
	}
}

// Head performs a best-effort HEAD request. A non-2xx status is reported
// through RemoteInfo, not as an error; only transport failures error.
func (c *client) Head(ctx context.Context, url string) (*model.RemoteInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create HEAD request", goerr.V("url", url))
	}
	c.applyHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "HEAD request failed", goerr.V("url", url))
	}
	resp.Body.Close()

	return remoteInfo(resp), nil
}

// Get performs a GET request with a streaming body
func (c *client) Get(ctx context.Context, url string) (io.ReadCloser, *model.RemoteInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create GET request", goerr.V("url", url))
	}
	c.applyHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "GET request failed", goerr.V("url", url))
	}

	if err := checkStatusCode(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, nil, goerr.Wrap(err, "unexpected GET status",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
		)
	}

	return resp.Body, remoteInfo(resp), nil
}

// FinalURL issues a GET with redirect following and reports where the
// request landed. The response status is not checked: the redirect
// target is valid even when the final page itself is unhappy.
func (c *client) FinalURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create redirect probe request", goerr.V("url", url))
	}
	c.applyHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "redirect probe failed", goerr.V("url", url))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.Request.URL.String(), nil
}

func (c *client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")
}

func remoteInfo(resp *http.Response) *model.RemoteInfo {
	return &model.RemoteInfo{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
		Headers:       resp.Header,
	}
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return ErrServerError
	default:
		return goerr.New("unexpected status code", goerr.V("code", code))
	}
}
