package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"templify/internal/apperror"
	"templify/internal/config"
)

// minioBackend implements Backend against an S3-compatible object store
// (MinIO, AWS S3, etc.). It is safe for concurrent use by multiple goroutines.
type minioBackend struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
	httpClient    *http.Client
}

// NewMinIO creates the remote storage backend.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig, presignExpiry time.Duration) (Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	if presignExpiry <= 0 {
		presignExpiry = 10 * time.Minute
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	mb := &minioBackend{
		client:        cli,
		bucket:        cfg.Bucket,
		presignExpiry: presignExpiry,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return mb, nil
}

// Save uploads the bytes under the normalized key.
func (m *minioBackend) Save(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key, err := checkPath(path)
	if err != nil {
		return "", err
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", apperror.Internal("failed to upload file to object storage", err)
	}
	return key, nil
}

// Fetch reads an object through a presigned URL, the same read path handed
// to external downloaders.
func (m *minioBackend) Fetch(ctx context.Context, path string) ([]byte, error) {
	key, err := checkPath(path)
	if err != nil {
		return nil, err
	}

	signed, err := m.PresignGet(ctx, key, m.presignExpiry)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed, nil)
	if err != nil {
		return nil, apperror.Internal("failed to read file from object storage", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Internal("failed to read file from object storage", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperror.NotFound("file not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Internal("failed to read file from object storage",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Internal("failed to read file from object storage", err)
	}
	return body, nil
}

// Delete removes an object by key.
func (m *minioBackend) Delete(ctx context.Context, path string) error {
	key, err := checkPath(path)
	if err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperror.Internal("failed to delete file from object storage", err)
	}
	return nil
}

// PresignGet generates a pre-signed URL for GET with the specified expiry.
func (m *minioBackend) PresignGet(ctx context.Context, path string, expiry time.Duration) (string, error) {
	key, err := checkPath(path)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = m.presignExpiry
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", apperror.Internal("failed to presign file URL", err)
	}
	return u.String(), nil
}
