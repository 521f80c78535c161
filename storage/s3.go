package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
}

// MediaStore mirrors listing photos into S3-compatible storage so listings
// never depend on a seller-controlled image host.
type MediaStore struct {
	client *s3.Client
	cfg    S3Config
}

func NewMediaStore(ctx context.Context, cfg S3Config) (*MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &MediaStore{client: client, cfg: cfg}, nil
}

// MediaKey is the object key for a mirrored image: the source URL is hashed
// so re-mirroring the same image is idempotent.
func MediaKey(propertyID uuid.UUID, sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("properties/%s/%s", propertyID, hex.EncodeToString(sum[:8]))
}

func (m *MediaStore) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.Bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PublicURL returns the public URL for an object key.
func (m *MediaStore) PublicURL(key string) string {
	if m.cfg.Endpoint != "" && strings.Contains(m.cfg.Endpoint, "digitaloceanspaces.com") {
		host := strings.TrimPrefix(m.cfg.Endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", m.cfg.Bucket, host, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.cfg.Bucket, m.cfg.Region, key)
}

// Host returns the hostname that mirrored URLs live under, so workers can
// tell mirrored images apart from external ones.
func (m *MediaStore) Host() string {
	url := m.PublicURL("")
	url = strings.TrimPrefix(url, "https://")
	return strings.TrimSuffix(url, "/")
}
