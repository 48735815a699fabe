package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Profile holds connection settings for one instance of the upload service.
type Profile struct {
	// Name identifies the profile.
	Name string

	// Host is the service base URL, e.g. https://ds.example.com.
	Host string

	// Username is the account used to obtain access tokens.
	Username string

	// APIKey authenticates Username.
	APIKey string

	// VerifySSL controls TLS certificate verification.
	VerifySSL bool
}

// Validate returns an error wrapping ErrInvalidConfig if the profile
// cannot be used to connect.
func (p Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("profile name is required"))
	}
	if p.Host == "" {
		errs = append(errs, errors.New("host is required"))
	} else if !strings.HasPrefix(p.Host, "http://") && !strings.HasPrefix(p.Host, "https://") {
		errs = append(errs, fmt.Errorf("host %q must start with http:// or https://", p.Host))
	}
	if p.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if p.APIKey == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: profile %q: %w", ErrInvalidConfig, p.Name, errors.Join(errs...))
	}
	return nil
}

// MaskedAPIKey returns the API key with all but the last four characters hidden.
func (p Profile) MaskedAPIKey() string {
	if p.APIKey == "" {
		return "(not set)"
	}
	if len(p.APIKey) <= 8 {
		return "****"
	}
	return "****" + p.APIKey[len(p.APIKey)-4:]
}
