package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"erent/internal/app/policies"
)

var ErrNotConfigured = errors.New("s3: image store is not configured")

type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// ImageStore keeps property images in an S3-compatible bucket that is
// publicly readable, so the returned URL can be handed to clients as is.
type ImageStore struct {
	bucket         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewImageStore(cfg Config, logger *slog.Logger) (*ImageStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	client, err := minio.New(parseEndpoint(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(cfg.PublicEndpoint)
	if base == "" {
		base = endpoint
	}
	return &ImageStore{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        client,
		logger:        logger,
	}, nil
}

func (s *ImageStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if r == nil {
		return "", errors.New("s3: reader is required")
	}
	key = cleanKey(key)
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if size <= 0 {
		size = -1
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	publicURL := ObjectURL(s.publicBaseURL, s.bucket, key)
	if s.logger != nil {
		s.logger.Info("image stored", "bucket", s.bucket, "key", key, "url", publicURL)
	}
	return publicURL, nil
}

func (s *ImageStore) Delete(ctx context.Context, key string) error {
	key = cleanKey(key)
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

// Unconfigured refuses uploads when no bucket is set up.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, string) error { return nil }

func (s *ImageStore) ensureBucket(ctx context.Context) error {
	s.bucketInitOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return s.bucketInitErr
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// ObjectURL joins the public endpoint, bucket and key.
func ObjectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, cleanKey(key))
}

func cleanKey(key string) string {
	return strings.Trim(strings.TrimSpace(key), "/")
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var (
	_ policies.ImageStore = (*ImageStore)(nil)
	_ policies.ImageStore = Unconfigured{}
)
