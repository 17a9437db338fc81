// Package objectstore wraps an S3-compatible object store client and the
// Uploader that pushes a finished Megadoc up to it.
package objectstore

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/orcaarchive/orca/internal/config"
)

// Client wraps an s3.Client configured for the S3-compatible space the
// application was configured to talk to: a Digital Ocean Space, Minio, or
// AWS S3 all fit the same endpoint-resolver shape.
type Client struct {
	S3    *s3.Client
	Space string
}

// NewClient builds a Client from the application's S3Config. Credentials
// come only from cfg.AccessKey/SecretKey (themselves only ever populated
// from ORCA_S3_ACCESS_KEY/ORCA_S3_SECRET_KEY, never from TOML).
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = true
	})

	return &Client{S3: s3Client, Space: cfg.Space}, nil
}
