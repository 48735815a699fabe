package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driving"
)

// Ensure ProfileService implements the interface.
var _ driving.ProfileService = (*ProfileService)(nil)

// Config keys for profile storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyProfilesPrefix = "profiles."
	keyDefaultProfile = "default_profile"

	fieldHost      = "host"
	fieldUsername  = "username"
	fieldAPIKey    = "api_key"
	fieldVerifySSL = "verify_ssl"
)

// Environment variables that override the resolved profile.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvHost      = "DSBULK_HOST"
	EnvUsername  = "DSBULK_USERNAME"
	EnvAPIKey    = "DSBULK_API_KEY"
	EnvVerifySSL = "DSBULK_VERIFY_SSL"
)

// envProfileName names a profile built from the environment alone.
const envProfileName = "env"

// ProfileService manages connection profiles stored in the config store.
type ProfileService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewProfileService creates a new profile service.
func NewProfileService(configStore driven.ConfigStore) *ProfileService {
	return &ProfileService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves a stored profile by name.
func (s *ProfileService) Get(name string) (*domain.Profile, error) {
	if _, ok := s.configStore.Get(profileKey(name, fieldHost)); !ok {
		return nil, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
	}

	profile := &domain.Profile{
		Name:      name,
		Host:      s.configStore.GetString(profileKey(name, fieldHost)),
		Username:  s.configStore.GetString(profileKey(name, fieldUsername)),
		APIKey:    s.configStore.GetString(profileKey(name, fieldAPIKey)),
		VerifySSL: true,
	}
	if _, ok := s.configStore.Get(profileKey(name, fieldVerifySSL)); ok {
		profile.VerifySSL = s.configStore.GetBool(profileKey(name, fieldVerifySSL))
	}
	return profile, nil
}

// List returns all stored profiles sorted by name.
func (s *ProfileService) List() ([]domain.Profile, error) {
	seen := make(map[string]bool)
	var names []string
	for _, key := range s.configStore.Keys(keyProfilesPrefix) {
		rest := strings.TrimPrefix(key, keyProfilesPrefix)
		name, _, ok := strings.Cut(rest, ".")
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]domain.Profile, 0, len(names))
	for _, name := range names {
		p, err := s.Get(name)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

// Save validates and stores a profile. The first profile saved becomes the
// default.
func (s *ProfileService) Save(profile domain.Profile) error {
	if err := validateProfileName(profile.Name); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	fields := []struct {
		field string
		value any
	}{
		{fieldHost, strings.TrimRight(profile.Host, "/")},
		{fieldUsername, profile.Username},
		{fieldAPIKey, profile.APIKey},
		{fieldVerifySSL, profile.VerifySSL},
	}
	for _, f := range fields {
		if err := s.configStore.Set(profileKey(profile.Name, f.field), f.value); err != nil {
			return fmt.Errorf("save profile %s: %w", f.field, err)
		}
	}

	if s.Default() == "" {
		return s.SetDefault(profile.Name)
	}
	return nil
}

// Delete removes a profile and clears the default if it pointed at it.
func (s *ProfileService) Delete(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	if err := s.configStore.Delete(keyProfilesPrefix + name); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if s.Default() == name {
		if err := s.configStore.Delete(keyDefaultProfile); err != nil {
			return fmt.Errorf("clear default profile: %w", err)
		}
	}
	return nil
}

// SetDefault marks a stored profile as the default.
func (s *ProfileService) SetDefault(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}
	if err := s.configStore.Set(keyDefaultProfile, name); err != nil {
		return fmt.Errorf("save default profile: %w", err)
	}
	return nil
}

// Default returns the default profile name.
func (s *ProfileService) Default() string {
	return s.configStore.GetString(keyDefaultProfile)
}

// Resolve returns the validated profile to connect with.
// With no name and no default, a profile is built from the environment.
func (s *ProfileService) Resolve(name string) (*domain.Profile, error) {
	if name == "" {
		name = s.Default()
	}

	var profile *domain.Profile
	if name == "" {
		profile = &domain.Profile{Name: envProfileName, VerifySSL: true}
	} else {
		p, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	s.applyEnv(profile)

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) applyEnv(p *domain.Profile) {
	if v := s.getenv(EnvHost); v != "" {
		p.Host = strings.TrimRight(v, "/")
	}
	if v := s.getenv(EnvUsername); v != "" {
		p.Username = v
	}
	if v := s.getenv(EnvAPIKey); v != "" {
		p.APIKey = v
	}
	if v := s.getenv(EnvVerifySSL); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.VerifySSL = b
		}
	}
}

func profileKey(name, field string) string {
	return keyProfilesPrefix + name + "." + field
}

func validateProfileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: profile name is required", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(name, ". \t\n") {
		return fmt.Errorf("%w: profile name %q must not contain dots or whitespace",
			domain.ErrInvalidInput, name)
	}
	return nil
}
