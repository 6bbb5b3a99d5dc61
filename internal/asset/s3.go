package asset

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MirrorConfig holds the configuration for S3 mirroring.
type MirrorConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// Mirror wraps a Store and uploads derived assets to S3 after a successful
// transcode. Local disk remains the authoritative storage; the mirror only
// publishes a copy.
type Mirror struct {
	*Store
	client *s3.Client
	bucket string
	region string
}

// NewMirror creates a Mirror over an existing Store.
func NewMirror(store *Store, cfg MirrorConfig) (*Mirror, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &Mirror{
		Store:  store,
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// MirrorDerived uploads a derived asset to S3 and returns the public URL.
func (m *Mirror) MirrorDerived(ctx context.Context, id string) (string, error) {
	body, err := m.Open(id, RoleDerived)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	key := string(RoleDerived) + "/" + id
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key)
	return url, nil
}
