package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultObjectKey is the object name used when ObjectStoreConfig.ObjectKey is empty.
const DefaultObjectKey = "analytics.json"

// ObjectStoreConfig configures the S3-compatible snapshot sink.
type ObjectStoreConfig struct {
	Endpoint  string // host:port or URL; an https:// scheme forces TLS
	Bucket    string
	ObjectKey string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Enabled reports whether enough is configured to publish to a bucket.
func (c ObjectStoreConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Validate checks that the configuration can produce a client.
func (c ObjectStoreConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("object store endpoint is required")
	}
	if c.Bucket == "" {
		return errors.New("object store bucket is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("object store credentials are required")
	}
	return nil
}

// ObjectStoreSink uploads the snapshot to an S3-compatible bucket, creating the bucket if needed.
type ObjectStoreSink struct {
	client *minio.Client
	cfg    ObjectStoreConfig
}

// NewObjectStoreSink creates a sink from cfg. No network calls are made until Publish.
func NewObjectStoreSink(cfg ObjectStoreConfig) (*ObjectStoreSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ObjectKey == "" {
		cfg.ObjectKey = DefaultObjectKey
	}

	endpoint, secure, err := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &ObjectStoreSink{client: client, cfg: cfg}, nil
}

// splitEndpoint accepts either a bare host:port or a URL and returns the host plus whether TLS is used.
func splitEndpoint(raw string, useSSL bool) (string, bool, error) {
	if !strings.Contains(raw, "://") {
		return raw, useSSL, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("invalid object store endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid object store endpoint %q: missing host", raw)
	}
	return u.Host, useSSL || u.Scheme == "https", nil
}

// Name implements Sink.
func (s *ObjectStoreSink) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, s.cfg.ObjectKey)
}

// Publish implements Sink.
func (s *ObjectStoreSink) Publish(ctx context.Context, snapshot AnalyticsSnapshot) error {
	data, err := MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, s.cfg.ObjectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", s.Name(), err)
	}
	return nil
}

func (s *ObjectStoreSink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}
