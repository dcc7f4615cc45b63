package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"mixvault/config"
	"mixvault/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client wraps the MinIO client for one bucket. Presigned URLs are rewritten
// from the internal endpoint to the public one before leaving the server.
type Client struct {
	mc             *minio.Client
	bucket         string
	publicEndpoint string
}

// New connects to the object store and ensures the bucket exists.
func New(cfg *config.Config) (*Client, error) {
	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := mc.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Client{
		mc:             mc,
		bucket:         cfg.MinioBucket,
		publicEndpoint: cfg.MinioPublicEndpoint,
	}, nil
}

// Upload writes an object under key.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Delete removes an object. Removing a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PresignedGetURL issues a time-limited GET URL for key, with the internal
// endpoint swapped for the public-facing one.
func (c *Client) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return rewriteEndpoint(u, c.publicEndpoint), nil
}

// rewriteEndpoint substitutes the URL's scheme/host with the configured public
// endpoint. Signature validity is unaffected because MinIO signs host-agnostic
// path-style requests behind a proxy that preserves the Host header.
func rewriteEndpoint(u *url.URL, publicEndpoint string) string {
	if publicEndpoint == "" {
		return u.String()
	}
	if strings.Contains(publicEndpoint, "://") {
		if pub, err := url.Parse(publicEndpoint); err == nil {
			u.Scheme = pub.Scheme
			u.Host = pub.Host
		}
	} else {
		u.Host = publicEndpoint
	}
	return u.String()
}

// BucketStats summarizes bucket usage for the CLI status command.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// Stats walks the bucket under prefix and aggregates object counts and sizes.
func (c *Client) Stats(ctx context.Context, prefix string) (*BucketStats, error) {
	stats := &BucketStats{}
	objectCh := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
	}
	return stats, nil
}
