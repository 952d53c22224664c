// Package storage keeps cover images in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignExpiry is how long generated cover URLs stay valid.
const DefaultPresignExpiry = 7 * 24 * time.Hour

// CoverStore persists cover images keyed by record ID.
type CoverStore interface {
	PutCover(ctx context.Context, recordID string, data []byte, contentType string) error
	CoverURL(ctx context.Context, recordID string) (string, error)
	DeleteCover(ctx context.Context, recordID string) error
}

// MinioCoverStore implements CoverStore on MinIO/S3 compatible storage.
type MinioCoverStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioCoverStore connects to MinIO and ensures the bucket exists.
func NewMinioCoverStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioCoverStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioCoverStore{client: client, bucket: bucket, expiry: DefaultPresignExpiry}, nil
}

// PutCover uploads a cover image for a record, replacing any previous one.
func (m *MinioCoverStore) PutCover(ctx context.Context, recordID string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, coverKey(recordID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put cover: %w", err)
	}
	return nil
}

// CoverURL generates a pre-signed GET URL for a record's cover.
func (m *MinioCoverStore) CoverURL(ctx context.Context, recordID string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, coverKey(recordID), m.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign cover: %w", err)
	}
	return url.String(), nil
}

// DeleteCover removes a record's cover image.
func (m *MinioCoverStore) DeleteCover(ctx context.Context, recordID string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, coverKey(recordID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete cover: %w", err)
	}
	return nil
}

func coverKey(recordID string) string {
	return "covers/" + recordID
}
