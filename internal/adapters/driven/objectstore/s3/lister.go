package s3

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// Ensure PrefixLister implements the interface.
var _ driven.PrefixLister = (*PrefixLister)(nil)

// DefaultRegion is used when the coordinates carry no location.
const DefaultRegion = "us-east-1"

// ClientFactory builds a list client for one set of coordinates.
type ClientFactory func(ctx context.Context, coords domain.S3Coordinates) (s3.ListObjectsV2APIClient, error)

// PrefixLister lists common prefixes in an S3-compatible bucket.
type PrefixLister struct {
	newClient ClientFactory
}

// NewPrefixLister creates a lister that connects with aws-sdk-go-v2.
func NewPrefixLister() *PrefixLister {
	return &PrefixLister{newClient: NewClient}
}

// NewPrefixListerWithFactory creates a lister with a custom client factory.
func NewPrefixListerWithFactory(factory ClientFactory) *PrefixLister {
	return &PrefixLister{newClient: factory}
}

// ListPrefixes returns the common prefixes directly below coords.KeyPrefix,
// relative to it, in the order the bucket returns them.
func (l *PrefixLister) ListPrefixes(
	ctx context.Context,
	coords domain.S3Coordinates,
	delimiter string,
) ([]string, error) {
	if err := ValidateCoordinates(coords); err != nil {
		return nil, err
	}

	client, err := l.newClient(ctx, coords)
	if err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(coords.Bucket),
	}
	if coords.KeyPrefix != "" {
		input.Prefix = aws.String(coords.KeyPrefix)
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	var prefixes []string
	paginator := s3.NewListObjectsV2Paginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			p := strings.TrimPrefix(aws.ToString(cp.Prefix), coords.KeyPrefix)
			if p != "" {
				prefixes = append(prefixes, p)
			}
		}
	}
	return prefixes, nil
}

// NewClient creates an S3 client for coords with static credentials,
// path-style addressing and the coordinates' endpoint.
func NewClient(ctx context.Context, coords domain.S3Coordinates) (s3.ListObjectsV2APIClient, error) {
	region := coords.Location
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     coords.AccessKey,
					SecretAccessKey: coords.SecretKey,
					Source:          "dsbulk s3 credentials",
				}, nil
			})),
	}
	if coords.SSL && !coords.VerifySSL {
		opts = append(opts, config.WithHTTPClient(insecureHTTPClient()))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(coords.Endpoint())
	}), nil
}

func insecureHTTPClient() *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		//nolint:gosec // Opt-in via verify_ssl=false for self-signed endpoints
		tr.TLSClientConfig.InsecureSkipVerify = true
	})
}
