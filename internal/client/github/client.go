// Package github is a minimal REST client for the GitHub API. Each call is
// authenticated with the token source passed on the request, so one Client
// can serve every installation.
package github

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	go_json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/garrettladley/checkrun/internal/version"
	"github.com/garrettladley/checkrun/internal/xhttp"
	"github.com/garrettladley/checkrun/internal/xslog"
)

const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultAPIVersion = "2022-11-28"
	defaultTimeout    = 10 * time.Second
)

// Observer receives one call per completed request. status is 0 when the
// request never produced a response.
type Observer interface {
	ObserveRequest(ctx context.Context, method string, status int)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(context.Context, string, int) {}

type Client struct {
	httpClient *http.Client
	baseURL    string
	observer   Observer
}

type clientConfig struct {
	baseURL    string
	apiVersion string
	userAgent  string
	timeout    time.Duration
	transport  http.RoundTripper
	observer   Observer
}

type Option func(*clientConfig)

func WithBaseURL(url string) Option {
	return func(cfg *clientConfig) { cfg.baseURL = url }
}

func WithAPIVersion(v string) Option {
	return func(cfg *clientConfig) { cfg.apiVersion = v }
}

func WithUserAgent(ua string) Option {
	return func(cfg *clientConfig) { cfg.userAgent = ua }
}

func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *clientConfig) { cfg.transport = rt }
}

func WithObserver(o Observer) Option {
	return func(cfg *clientConfig) { cfg.observer = o }
}

func NewClient(opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		userAgent:  version.UserAgent(""),
		timeout:    defaultTimeout,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		httpClient: xhttp.NewHTTPClient(
			xhttp.WithTimeout(cfg.timeout),
			xhttp.WithTransport(xhttp.NewGitHubTransport(cfg.transport, cfg.userAgent, cfg.apiVersion)),
		),
		baseURL:  cfg.baseURL,
		observer: cfg.observer,
	}
}

type Request struct {
	Method string
	// Path is relative to the API base URL and starts with a slash.
	Path string
	// Body is JSON encoded when non-nil.
	Body  any
	Token oauth2.TokenSource
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Rate       *Rate
}

func (r *Response) Decode(v any) error {
	if err := go_json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Send performs one request and buffers the full response body. A non-2xx
// status returns the response together with an *APIError.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	logger := xslog.FromContext(ctx).With(xslog.Method(r.Method), xslog.Path(r.Path))

	var body io.Reader
	if r.Body != nil {
		b, err := go_json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.Body != nil {
		xhttp.SetRequestHeaderContentTypeApplicationJSON(req)
	}
	if r.Token != nil {
		tok, err := r.Token.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveRequest(ctx, r.Method, 0)
		logger.ErrorContext(ctx, "github request failed", xslog.Error(err))
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observer.ObserveRequest(ctx, r.Method, 0)
		logger.ErrorContext(ctx, "failed to read github response", xslog.Error(err))
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: err}
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Rate:       ParseRate(resp.Header),
	}

	c.observer.ObserveRequest(ctx, r.Method, resp.StatusCode)
	attrs := []any{
		xslog.HTTPStatus(resp.StatusCode),
		xslog.Duration(time.Since(start)),
	}
	if out.Rate != nil {
		attrs = append(attrs, xslog.RateRemaining(out.Rate.Remaining))
	}
	logger.InfoContext(ctx, "github request", attrs...)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, parseAPIError(out)
	}
	return out, nil
}
