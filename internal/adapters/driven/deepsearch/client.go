package deepsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.UploadService = (*Client)(nil)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// Client talks to one instance of the document-conversion service.
type Client struct {
	baseURL     string
	http        *http.Client
	tokens      *TokenSource
	rateLimiter *RateLimiter
	now         func() time.Time
}

// NewClient creates a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	host := strings.TrimRight(cfg.Host, "/")
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid host %q", domain.ErrInvalidConfig, cfg.Host)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // G402: opt-in per profile
	}

	tokens := NewTokenSource(&http.Client{Timeout: timeout, Transport: base},
		host+tokenPath, cfg.Username, cfg.APIKey)

	return &Client{
		baseURL: host,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: base},
		},
		tokens:      tokens,
		rateLimiter: NewRateLimiter(cfg.RateLimit),
		now:         time.Now,
	}, nil
}

// RefreshToken forces a new access token exchange.
func (c *Client) RefreshToken(ctx context.Context) error {
	return c.tokens.Refresh(ctx)
}

// do sends a JSON request and decodes a 2xx response into out.
// Non-2xx responses become *domain.RemoteError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", op, err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	remoteErr := &domain.RemoteError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    readErrorMessage(resp.Body),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.tokens.Invalidate()
		remoteErr.Err = domain.ErrAuthInvalid
	case http.StatusTooManyRequests:
		c.rateLimiter.RecordRateLimit(parseRetryAfter(resp.Header, c.now()))
		remoteErr.Err = domain.ErrRateLimited
	}
	return remoteErr
}

// readErrorMessage extracts a human-readable message from an error body.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		case body.Detail != nil:
			if s, ok := body.Detail.(string); ok {
				return s
			}
			if b, err := json.Marshal(body.Detail); err == nil {
				return string(b)
			}
		}
	}
	return strings.TrimSpace(string(raw))
}

func projectPath(projectKey string, segments ...string) string {
	var sb strings.Builder
	sb.WriteString(publicPath)
	sb.WriteString("/project/")
	sb.WriteString(url.PathEscape(projectKey))
	for _, s := range segments {
		sb.WriteString("/")
		sb.WriteString(s)
	}
	return sb.String()
}
