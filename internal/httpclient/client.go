package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/adminctl/internal/core/domain"
)

// DefaultTimeout bounds a call made through NewTransport.
const DefaultTimeout = 30 * time.Second

// Transport dispatches a request. *http.Client satisfies it.
type Transport interface {
	Do(*http.Request) (*http.Response, error)
}

// NewTransport returns the plain HTTP transport used under the wrapper.
func NewTransport(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the URL that Get, Post and Send resolve paths against.
func WithBaseURL(server string) Option {
	return func(c *Client) {
		c.baseURL = NormalizeBaseURL(server)
	}
}

// Client applies interceptors around a Transport.
type Client struct {
	transport  Transport
	onRequest  RequestInterceptor
	onResponse ResponseInterceptor
	baseURL    string
}

// Wrap composes transport with the request and response interceptors.
// Either interceptor may be nil.
func Wrap(transport Transport, req RequestInterceptor, resp ResponseInterceptor, opts ...Option) *Client {
	c := &Client{
		transport:  transport,
		onRequest:  req,
		onResponse: resp,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req through the interceptors. The caller's request is not
// modified. The response and error of the transport are returned unchanged,
// including a 401 that triggered termination.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	out := req.Clone(withStart(req.Context(), time.Now()))
	if c.onRequest != nil {
		out = c.onRequest(out)
	}

	resp, err := c.transport.Do(out)

	if c.onResponse != nil {
		c.onResponse(out, resp, err)
	}
	return resp, err
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Send(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Send(ctx, http.MethodPost, path, body)
}

// Send performs a request against the base URL. body is marshaled to JSON
// unless it is already []byte or json.RawMessage. Transport failures are
// returned as domain.ErrTransport.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		var data []byte
		switch b := body.(type) {
		case []byte:
			data = b
		case json.RawMessage:
			data = b
		default:
			var err error
			if data, err = json.Marshal(body); err != nil {
				return nil, fmt.Errorf("marshal body: %w", err)
			}
		}
		bodyReader = bytes.NewReader(data)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, domain.ErrTransport.WithCause(err)
	}
	return resp, nil
}

// NormalizeBaseURL adds an http:// scheme when missing and drops trailing slashes.
func NormalizeBaseURL(server string) string {
	baseURL := strings.TrimRight(server, "/")
	if baseURL != "" && !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return baseURL
}

// ParseResponse decodes a JSON response body into target and closes it.
// Non-2xx statuses are returned as domain errors: a 401 is
// domain.ErrAuthenticationExpired, others domain.ErrHTTPStatus.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return domain.StatusError(resp.StatusCode, errResp.Message)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil && err != io.EOF {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}
