// Package apiclient talks to the storefront's backend REST API. It injects the
// stored bearer token and recovers from a single 401 per request by refreshing
// that token once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/licorice-storefront/internal/logger"
	"github.com/example/licorice-storefront/internal/metrics"
)

const (
	DefaultTimeout = 10 * time.Second
	RefreshPath    = "/auth/refresh"
)

// Client is safe for concurrent use
type Client struct {
	baseURL          string
	httpClient       *http.Client
	tokens           *TokenStore
	onSessionExpired func(ctx context.Context)

	// refreshMu serializes refreshes so that concurrent 401s share one.
	refreshMu sync.Mutex
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar is kept
// as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithSessionExpiredHook registers fn to run after a failed refresh has
// cleared the stored token.
func WithSessionExpiredHook(fn func(ctx context.Context)) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New creates a client for baseURL. Cookies set by the backend, such as the
// refresh cookie, are kept in a jar and sent back on later requests.
func New(baseURL string, tokens *TokenStore, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens:           tokens,
		onSessionExpired: func(context.Context) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// payload is a request body that can be sent more than once
type payload struct {
	body        []byte
	contentType string
}

func jsonPayload(body any) (*payload, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return &payload{body: data, contentType: "application/json"}, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, p, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, p, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, p, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// UploadForm is a multipart body with plain fields and at most one file
type UploadForm struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
}

// Upload posts form as multipart/form-data
func (c *Client) Upload(ctx context.Context, path string, form UploadForm, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	if form.File != nil {
		field := form.FileField
		if field == "" {
			field = "file"
		}
		part, err := w.CreateFormFile(field, form.FileName)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, form.File); err != nil {
			return fmt.Errorf("failed to copy upload: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, &payload{body: buf.Bytes(), contentType: w.FormDataContentType()}, out)
}

// do sends the request and, on a first 401, refreshes the token and replays
// it once. The replay never refreshes again.
func (c *Client) do(ctx context.Context, method, path string, p *payload, out any) error {
	resp, usedToken, err := c.send(ctx, method, path, p)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.refresh(ctx, usedToken); err != nil {
			return err
		}

		resp, _, err = c.send(ctx, method, path, p)
		if err != nil {
			return err
		}
	}

	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, p *payload) (*http.Response, string, error) {
	var body io.Reader
	if p != nil {
		body = bytes.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, "", transportError(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req.Header.Set("Content-Type", p.contentType)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Sending request without bearer token")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(method, "0").Inc()
		logger.Error(ctx).Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return nil, token, transportError(err)
	}
	metrics.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	return resp, token, nil
}

// refresh moves the client from normal to refreshing and back. When another
// request already replaced staleToken, the new token is reused without a call.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current, err := c.tokens.Token(ctx); err == nil && current != "" && current != staleToken {
		return nil
	}

	token, err := c.requestToken(ctx)
	if err == nil {
		err = c.tokens.SetToken(ctx, token)
	}
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		logger.Warn(ctx).Err(err).Msg("Token refresh failed, ending session")

		if clearErr := c.tokens.Clear(ctx); clearErr != nil {
			logger.Error(ctx).Err(clearErr).Msg("Failed to clear access token")
		}
		c.onSessionExpired(ctx)
		return sessionExpiredError(err)
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	logger.Debug(ctx).Msg("Access token refreshed")
	return nil
}

func (c *Client) requestToken(ctx context.Context) (string, error) {
	resp, _, err := c.send(ctx, http.MethodPost, RefreshPath, nil)
	if err != nil {
		return "", err
	}

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"accessToken"`
			Token       string `json:"token"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := decode(resp, &env); err != nil {
		return "", err
	}

	token := env.Data.AccessToken
	if token == "" {
		token = env.Data.Token
	}
	if !env.Success || token == "" {
		if env.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrRefreshFailed, env.Message)
		}
		return "", ErrRefreshFailed
	}
	return token, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// decode closes resp. Non-2xx statuses become an *APIError; otherwise the body
// is decoded into out when both are present.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: "failed to read response", Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{
			Message: "invalid response body",
			Status:  resp.StatusCode,
			Data:    validJSON(body),
			Err:     err,
		}
	}
	return nil
}

func validJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// IsSessionExpired reports whether err ended the backend session
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
