// Package storage offloads report image blobs to an S3-compatible object
// store. When no endpoint is configured the blob stays inline in the
// report record.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ecowatch/api/internal/config"
)

type ImageStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

// NewImageStore returns (nil, nil) when no endpoint is configured; callers
// treat a nil store as inline-blob mode.
func NewImageStore(cfg config.StorageConfig) (*ImageStore, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ImageStore{client: client, cfg: cfg}, nil
}

func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketName)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketName, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketName, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketName, err)
		}
	}
	return nil
}

// PutImage stores a base64-encoded blob under the report id and returns
// the object key.
func (s *ImageStore) PutImage(ctx context.Context, reportID string, encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Opaque blobs that are not base64 are stored verbatim.
		blob = []byte(encoded)
	}

	key := fmt.Sprintf("reports/%s", reportID)
	_, err = s.client.PutObject(ctx, s.cfg.BucketName, key,
		bytes.NewReader(blob), int64(len(blob)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("put image %s: %w", key, err)
	}
	return key, nil
}

func (s *ImageStore) RemoveImage(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}
