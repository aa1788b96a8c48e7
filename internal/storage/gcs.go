package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore stores contract files in a Google Cloud Storage bucket.
// Objects are addressed by a caller-chosen key; the returned URL is
// either the public object URL or a time-limited signed URL depending
// on bucket policy.
type GCSStore struct {
	client       *storage.Client
	bucket       string
	public       bool
	signedURLTTL time.Duration
}

func NewGCSStore(ctx context.Context, bucket string, public bool, signedURLTTL time.Duration) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{
		client:       client,
		bucket:       bucket,
		public:       public,
		signedURLTTL: signedURLTTL,
	}, nil
}

func (s *GCSStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("write object %s: %w", key, err)
	}

	if s.public {
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
	}
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(s.signedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", key, err)
	}
	return url, nil
}

func (s *GCSStore) Delete(ctx context.Context, fileURL string) error {
	key := s.objectKey(fileURL)
	if key == "" {
		return fmt.Errorf("cannot derive object key from %q", fileURL)
	}
	return s.client.Bucket(s.bucket).Object(key).Delete(ctx)
}

// objectKey recovers the object key from a stored URL, tolerating both
// public and signed URL shapes.
func (s *GCSStore) objectKey(fileURL string) string {
	if i := strings.Index(fileURL, "?"); i >= 0 {
		fileURL = fileURL[:i]
	}
	marker := "/" + s.bucket + "/"
	if i := strings.Index(fileURL, marker); i >= 0 {
		return fileURL[i+len(marker):]
	}
	return ""
}
