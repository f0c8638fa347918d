package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore archives post exports in a MinIO (S3-compatible) bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
	newID  func() string
}

func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
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

	return &MinioStore{client: client, bucket: bucket, now: time.Now, newID: shortID}, nil
}

func shortID() string {
	return uuid.NewString()[:8]
}

// ExportName is the download name of an export taken at the given time.
// The id suffix keeps exports within the same millisecond apart.
func ExportName(at time.Time, id string) string {
	return fmt.Sprintf("posts-%s-%s.json", at.UTC().Format("20060102T150405.000Z"), id)
}

func exportKey(userID, name string) string {
	return userID + "/" + name
}

// Archive stores one JSON export under the user's prefix and returns its
// download name.
func (s *MinioStore) Archive(ctx context.Context, userID string, data []byte) (string, error) {
	name := ExportName(s.now(), s.newID())
	key := exportKey(userID, name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return name, nil
}

// Fetch reads back one of the user's archived exports.
func (s *MinioStore) Fetch(ctx context.Context, userID, name string) ([]byte, error) {
	key := exportKey(userID, name)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("minio read %s: %w", key, err)
	}
	return data, nil
}
