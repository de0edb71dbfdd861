package httpx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "go-rakh-starter"

// Client makes outbound JSON calls to identity providers and other
// upstreams. Requests are never retried.
type Client struct {
	resty *resty.Client
}

type clientOptions struct {
	baseURL string
	timeout time.Duration
	headers map[string]string
}

type ClientOption func(*clientOptions)

func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		if url != "" {
			o.baseURL = url
		}
	}
}

func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHeaders adds default headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	cfg := clientOptions{
		timeout: 10 * time.Second,
		headers: map[string]string{"Accept": "application/json", "User-Agent": userAgent},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rc := resty.New().
		SetTimeout(cfg.timeout).
		SetHeaders(cfg.headers).
		SetRetryCount(0)
	if cfg.baseURL != "" {
		rc.SetBaseURL(cfg.baseURL)
	}
	return &Client{resty: rc}
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.Code, e.Body)
}

type RequestOption func(*resty.Request)

func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(r *resty.Request) {
		if len(headers) > 0 {
			r.SetHeaders(headers)
		}
	}
}

func WithQuery(params map[string]string) RequestOption {
	return func(r *resty.Request) {
		if len(params) > 0 {
			r.SetQueryParams(params)
		}
	}
}

// WithBearer forwards token as "Authorization: Bearer <token>". Blank tokens
// are ignored.
func WithBearer(token string) RequestOption {
	return func(r *resty.Request) {
		if token = strings.TrimSpace(token); token != "" {
			r.SetAuthScheme("Bearer").SetAuthToken(token)
		}
	}
}

// Get issues a GET. When result is non-nil a JSON body is decoded into it;
// the raw body is always available on the response. Non-2xx statuses return
// the response together with a *StatusError.
func (c *Client) Get(ctx context.Context, path string, result any, opts ...RequestOption) (*resty.Response, error) {
	return c.do(ctx, resty.MethodGet, path, nil, result, opts...)
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, result any, opts ...RequestOption) (*resty.Response, error) {
	return c.do(ctx, resty.MethodPost, path, body, result, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, opts ...RequestOption) (*resty.Response, error) {
	req := c.resty.R().SetContext(ctx)
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return resp, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return resp, &StatusError{Method: method, URL: resp.Request.URL, Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	return resp, nil
}
