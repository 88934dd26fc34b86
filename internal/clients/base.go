package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const maxBodyBytes = 4 << 20

// TokenSource yields the CSRF token sent on mutating requests.
type TokenSource interface {
	Token() string
}

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
	Logger  *zap.Logger

	CSRF       TokenSource
	CSRFHeader string

	// RetryMax bounds attempts for GET requests; mutating requests are sent once.
	RetryMax   int
	RetryMin   time.Duration
	RetryLimit time.Duration
}

func NewClient(name string, baseURL string, httpClient *http.Client, csrf TokenSource, csrfHeader string, logger *zap.Logger) *Client {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid %s base url %q: %v", name, baseURL, err))
	}
	return &Client{
		Name:       name,
		BaseURL:    u,
		HTTP:       httpClient,
		Logger:     logger,
		CSRF:       csrf,
		CSRFHeader: csrfHeader,
		RetryMax:   3,
		RetryMin:   50 * time.Millisecond,
		RetryLimit: time.Second,
	}
}

// Do sends one request. ref is a path relative to BaseURL or an absolute URL
// (pagination links come back absolute).
func (c *Client) Do(ctx context.Context, method, ref string, body io.Reader, headers http.Header) (*http.Response, error) {
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", ref, err)
	}
	u := c.BaseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vv := range headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	if !safeMethod(method) {
		if c.CSRF != nil && c.CSRFHeader != "" {
			req.Header.Set(c.CSRFHeader, c.CSRF.Token())
		}
		// the backend enforces a same-origin referer on https
		req.Header.Set("Referer", c.BaseURL.String())
	}

	return c.HTTP.Do(req)
}

// DoJSON sends in as a JSON body (when non-nil) and decodes the answer into
// out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, op, method, ref string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		payload = b
	}

	headers := http.Header{"Accept": {"application/json"}}
	if payload != nil {
		headers.Set("Content-Type", "application/json")
	}

	return c.send(ctx, op, method, ref, payload, headers, out)
}

// DoForm posts a form-encoded body; the answer is drained, not decoded.
func (c *Client) DoForm(ctx context.Context, op, ref string, form url.Values) error {
	headers := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	return c.send(ctx, op, http.MethodPost, ref, []byte(form.Encode()), headers, nil)
}

func (c *Client) send(ctx context.Context, op, method, ref string, payload []byte, headers http.Header, out any) error {
	ctx, cid := middleware.EnsureCorrelationID(ctx)

	attempts := 1
	if method == http.MethodGet && c.RetryMax > 1 {
		attempts = c.RetryMax
	}
	b := &backoff.Backoff{Min: c.RetryMin, Max: c.RetryLimit, Factor: 2, Jitter: true}

	for attempt := 1; ; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		var err error
		resp, doErr := c.Do(ctx, method, ref, body, headers)
		if doErr != nil {
			err = &apperr.NetworkError{Op: op, Err: doErr}
		} else {
			err = decode(op, resp, out)
		}
		if err == nil {
			return nil
		}

		if attempt >= attempts || !retryable(err) || ctx.Err() != nil {
			c.Logger.Warn("backend request failed",
				zap.String("client", c.Name),
				zap.String("op", op),
				zap.String("method", method),
				zap.Int("status", apperr.Status(err)),
				zap.Int("attempt", attempt),
				zap.String("correlation_id", cid),
				zap.Error(err))
			return err
		}

		wait := b.Duration()
		c.Logger.Debug("retrying backend request",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
}

func decode(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &apperr.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: "empty response body"}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// errorMessage pulls the backend's {"error": ...} or {"detail": ...} text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return http.StatusText(status)
}

func retryable(err error) bool {
	if apperr.IsNetwork(err) {
		return true
	}
	switch apperr.Status(err) {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func safeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
