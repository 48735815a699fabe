package deepsearch

import (
	"strings"
	"time"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	tokenPath  = "/api/cps/user/v1/user/token"
	publicPath = "/api/cps/public/v1"
)

// Config holds connection settings for a service instance.
type Config struct {
	// Host is the service base URL.
	Host string

	// Username and APIKey are exchanged for access tokens.
	Username string
	APIKey   string

	// VerifySSL controls TLS certificate verification.
	VerifySSL bool

	// Timeout bounds each HTTP request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// RateLimit paces outgoing requests. Zero values use DefaultRateLimit.
	RateLimit RateLimitConfig
}

// ConfigFromProfile builds a client configuration from a resolved profile.
func ConfigFromProfile(p *domain.Profile) Config {
	return Config{
		Host:      strings.TrimRight(p.Host, "/"),
		Username:  p.Username,
		APIKey:    p.APIKey,
		VerifySSL: p.VerifySSL,
	}
}
