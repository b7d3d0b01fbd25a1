package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore wraps a MinIO client for proposal image storage.
type BlobStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewBlobStore connects to MinIO and ensures the bucket exists. publicBase
// is the prefix public object URLs are built from; when empty it is derived
// from the endpoint.
func NewBlobStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicBase string) (*BlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	if publicBase == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &BlobStore{client: client, bucket: bucket, publicBase: publicBase}, nil
}

// Upload stores bytes under the given object key.
func (s *BlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// PublicURL returns the public URL an uploaded key is served from.
func (s *BlobStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key)
}

// Remove deletes an object.
func (s *BlobStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
