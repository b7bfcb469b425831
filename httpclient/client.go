// Package httpclient is the thin HTTP layer under the API facade: it joins
// paths onto a base URL, attaches the stored bearer token, encodes JSON or
// multipart bodies and turns non-2xx responses into *APIError.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"healthstore/logging"
	"healthstore/storage"
)

// TokenSource supplies the bearer token; "" means none is stored.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL     string
	http        *http.Client
	tokens      TokenSource
	downloadDir string
	logger      *zap.Logger
	timeout     time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout bounds every request. It applies to a copy of the client
// given to WithHTTPClient, in either order; 0 keeps that client's timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = logging.OrNop(l) } }

// WithDownloadDir sets where DownloadFile saves files.
func WithDownloadDir(dir string) Option { return func(c *Client) { c.downloadDir = dir } }

// New returns a client for baseURL. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{},
		tokens:      tokens,
		downloadDir: ".",
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type requestConfig struct {
	noAuth     bool
	headers    http.Header
	query      url.Values
	failureMsg string
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

// WithoutAuth omits the Authorization header.
func WithoutAuth() RequestOption { return func(r *requestConfig) { r.noAuth = true } }

// WithHeader sets a header, overriding the defaults.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) { r.headers.Set(key, value) }
}

func WithQuery(q url.Values) RequestOption { return func(r *requestConfig) { r.query = q } }

// WithFailureMessage replaces the message of any non-2xx error.
func WithFailureMessage(msg string) RequestOption {
	return func(r *requestConfig) { r.failureMsg = msg }
}

func (c *Client) url(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, rc *requestConfig) (*http.Request, error) {
	var (
		rdr         io.Reader
		contentType = "application/json"
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, fmt.Errorf("encode form: %w", err)
		}
		rdr, contentType = buf, ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, rc.query), rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if !rc.noAuth {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, vs := range rc.headers {
		req.Header[k] = vs
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// Do performs one request. body may be nil, a *Form, or any JSON-encodable
// value; out, when non-nil, receives the decoded JSON response.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	rc := &requestConfig{headers: http.Header{}}
	for _, o := range opts {
		o(rc)
	}

	req, err := c.newRequest(ctx, method, path, body, rc)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp, rc.failureMsg)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: req.URL.String(), Err: err}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func errorFromResponse(resp *http.Response, override string) error {
	if override != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: override}
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	msg := statusMessage(resp.StatusCode)
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// DownloadFile GETs path with the bearer token and saves the body as
// filename inside the download directory. It returns the saved path.
func (c *Client) DownloadFile(ctx context.Context, path, filename string, opts ...RequestOption) (string, error) {
	rc := &requestConfig{headers: http.Header{}, failureMsg: "Failed to download file"}
	for _, o := range opts {
		o(rc)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, rc.query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token())
	for k, vs := range rc.headers {
		req.Header[k] = vs
	}

	resp, err := c.send(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: rc.failureMsg}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", errors.New("download filename required")
	}
	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dst := filepath.Join(c.downloadDir, name)
	if err := storage.WriteFileAtomic(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return dst, nil
}
