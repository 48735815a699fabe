package deepsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// Ensure TokenSource implements oauth2.TokenSource.
var _ oauth2.TokenSource = (*TokenSource)(nil)

// TokenSource exchanges a username and API key for access tokens and
// caches the result. The service issues tokens without an expiry, so a
// cached token is reused until Refresh or Invalidate is called.
type TokenSource struct {
	client   *http.Client
	url      string
	username string
	apiKey   string

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenSource creates a token source for the token endpoint at url.
// client must not itself authorise requests through this source.
func NewTokenSource(client *http.Client, url, username, apiKey string) *TokenSource {
	return &TokenSource{
		client:   client,
		url:      url,
		username: username,
		apiKey:   apiKey,
	}
}

// Token implements oauth2.TokenSource.
// Called by oauth2.Transport before each request.
func (s *TokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid() {
		return s.token, nil
	}

	// oauth2.Transport passes no request context. The exchange is bounded
	// by the client timeout, and an interrupted run does not wait for
	// workers blocked here.
	tok, err := s.exchange(context.Background())
	if err != nil {
		return nil, err
	}
	s.token = tok
	return tok, nil
}

// Refresh forces a new exchange. On failure the cached token is kept and
// the error wraps domain.ErrTokenRefreshFailed.
func (s *TokenSource) Refresh(ctx context.Context) error {
	tok, err := s.exchange(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return nil
}

// Invalidate drops the cached token so the next request re-exchanges.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

func (s *TokenSource) exchange(ctx context.Context) (*oauth2.Token, error) {
	body, err := json.Marshal(map[string]bool{"admin": false})
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.username, s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		remoteErr := &domain.RemoteError{
			Op:         "token",
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			remoteErr.Err = domain.ErrAuthInvalid
		}
		return nil, remoteErr
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}

	return &oauth2.Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   "Bearer",
	}, nil
}
