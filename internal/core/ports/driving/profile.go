package driving

import "github.com/custodia-labs/dsbulk/internal/core/domain"

// ProfileService manages connection profiles for service instances.
type ProfileService interface {
	// Get retrieves a stored profile by name.
	Get(name string) (*domain.Profile, error)

	// List returns all stored profiles sorted by name.
	List() ([]domain.Profile, error)

	// Save validates and stores a profile.
	Save(profile domain.Profile) error

	// Delete removes a profile.
	Delete(name string) error

	// SetDefault marks a stored profile as the default.
	SetDefault(name string) error

	// Default returns the default profile name, or empty if none is set.
	Default() string

	// Resolve returns the profile to connect with. An empty name selects
	// the default profile. Environment overrides are applied and the
	// result is validated.
	Resolve(name string) (*domain.Profile, error)
}
