package domain

import "fmt"

// S3Coordinates locates an S3-compatible bucket and the credentials the
// upload service uses to read from it. Field names follow the service's
// JSON schema so a credentials file can be passed through unchanged.
type S3Coordinates struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	SSL       bool   `json:"ssl"`
	VerifySSL bool   `json:"verify_ssl"`
	Bucket    string `json:"bucket"`
	KeyPrefix string `json:"key_prefix"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Location  string `json:"location"`
}

// WithKeyPrefixSuffix returns a copy whose KeyPrefix has suffix appended.
// The receiver is not modified.
func (c S3Coordinates) WithKeyPrefixSuffix(suffix string) S3Coordinates {
	c.KeyPrefix += suffix
	return c
}

// Endpoint returns the bucket host as a URL.
func (c S3Coordinates) Endpoint() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	if c.Port > 0 {
		return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
	}
	return fmt.Sprintf("%s://%s", scheme, c.Host)
}

// CollectionCoordinates identify the target data collection.
type CollectionCoordinates struct {
	// ProjectKey is the project the collection belongs to.
	ProjectKey string

	// IndexKey is the collection (data index) key.
	IndexKey string
}

// UploadSource is the payload of one remote upload task.
// Exactly one of FileURLs or S3 is set.
type UploadSource struct {
	// FileURLs are HTTP(S) file URLs for URL mode.
	FileURLs []string

	// S3 are the coordinates for S3 mode, with the item already
	// appended to the key prefix.
	S3 *S3Coordinates
}

// UploadSourceFor builds the payload for a batch in the given mode.
func UploadSourceFor(inputType InputType, batch Batch, s3 *S3Coordinates) (UploadSource, error) {
	switch inputType {
	case InputTypeURL:
		return UploadSource{FileURLs: batch.Strings()}, nil
	case InputTypeS3:
		if s3 == nil {
			return UploadSource{}, fmt.Errorf("%w: S3 coordinates are required for S3 input", ErrInvalidConfig)
		}
		if batch.Len() != 1 {
			return UploadSource{}, fmt.Errorf("%w: S3 batches hold exactly one key-prefix, got %d",
				ErrInvalidInput, batch.Len())
		}
		coords := s3.WithKeyPrefixSuffix(string(batch.Items[0]))
		return UploadSource{S3: &coords}, nil
	default:
		return UploadSource{}, fmt.Errorf("%w: input type %q", ErrInvalidInput, inputType)
	}
}
