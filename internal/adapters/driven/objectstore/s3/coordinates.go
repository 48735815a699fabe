package s3

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// validate is shared; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidationMapRules(map[string]string{
		"Host":      "required",
		"Port":      "gte=0,lte=65535",
		"Bucket":    "required",
		"AccessKey": "required",
		"SecretKey": "required",
	}, domain.S3Coordinates{})
	return v
}

// LoadCoordinates reads and validates an S3 credentials file.
func LoadCoordinates(path string) (*domain.S3Coordinates, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: s3 credentials file %s does not exist", domain.ErrInvalidConfig, path)
		}
		return nil, fmt.Errorf("opening s3 credentials: %w", err)
	}
	defer f.Close()

	coords, err := ParseCoordinates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return coords, nil
}

// ParseCoordinates decodes and validates S3 coordinates from r.
// Unknown fields are rejected.
func ParseCoordinates(r io.Reader) (*domain.S3Coordinates, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var coords domain.S3Coordinates
	if err := dec.Decode(&coords); err != nil {
		return nil, fmt.Errorf("%w: decoding s3 credentials: %w", domain.ErrInvalidConfig, err)
	}
	if err := ValidateCoordinates(coords); err != nil {
		return nil, err
	}
	return &coords, nil
}

// ValidateCoordinates checks that coords can be used to reach a bucket.
func ValidateCoordinates(coords domain.S3Coordinates) error {
	err := validate.Struct(coords)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: s3 credentials: %w", domain.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("%w: s3 credentials: %s", domain.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	name := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "gte", "lte":
		return fmt.Sprintf("%s must be between 0 and 65535, got %v", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", name, fe.Tag())
	}
}

// jsonName maps a struct field to its key in the credentials file.
func jsonName(field string) string {
	switch field {
	case "AccessKey":
		return "access_key"
	case "SecretKey":
		return "secret_key"
	case "KeyPrefix":
		return "key_prefix"
	case "VerifySSL":
		return "verify_ssl"
	default:
		return strings.ToLower(field)
	}
}
