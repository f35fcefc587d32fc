// Package httpclient is the single choke-point for outbound calls to the
// PhillySafe backends: URL resolution, header merging, bearer injection
// and error normalization.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session
	Limiter *rate.Limiter
	Logger  *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

// WithTimeout sets the request timeout on a copy of the underlying
// http.Client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := http.Client{}
		if c.HTTP != nil {
			hc = *c.HTTP
		}
		hc.Timeout = d
		c.HTTP = &hc
	}
}

// WithRateLimit throttles outgoing requests; perSecond <= 0 leaves them unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.Logger = l
		}
	}
}

// New creates a client for baseURL. A nil session gets a fresh, empty one.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: session,
		Logger:  log.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RequestOptions describes one call. Body may be nil, an io.Reader,
// []byte, string, url.Values (form-encoded) or any JSON-encodable value.
// BaseURL overrides the client's base for relative endpoints.
type RequestOptions struct {
	Method  string
	Header  http.Header
	Query   url.Values
	Body    any
	BaseURL string
}

// Do sends the request and decodes a 2xx JSON response into out (if non-nil).
// Non-2xx answers fail with *HTTPError, transport failures with *NetworkError.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(endpoint, opts)
	if err != nil {
		return err
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, target, err)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return &NetworkError{Method: method, URL: target, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range opts.Header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	if token := c.Session.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Printf("[http] %s %s failed: %v", method, target, err)
		return &NetworkError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Logger.Printf("[http] %s %s -> %d", method, target, resp.StatusCode)
		return &HTTPError{
			Method: method,
			URL:    target,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}

// Request is Do with the result returned by value.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (T, error) {
	var out T
	err := c.Do(ctx, endpoint, opts, &out)
	return out, err
}

func (c *Client) resolve(endpoint string, opts RequestOptions) (string, error) {
	target := endpoint
	if !isAbsolute(endpoint) {
		base := c.BaseURL
		if opts.BaseURL != "" {
			base = opts.BaseURL
		}
		target = strings.TrimRight(base, "/") + endpoint
	}

	if len(opts.Query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", target, err)
	}
	q := u.Query()
	for k, vs := range opts.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isAbsolute(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case url.Values:
		return strings.NewReader(b.Encode()), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
