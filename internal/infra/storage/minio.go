package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/automaton-review/internal/domain/analysis"
)

// Store adapts a MinIO/S3 endpoint to the analysis.ObjectStore port.
// Buckets are addressed per call; the store is not bound to one.
type Store struct {
	client *minio.Client
	region string
}

// New opens a MinIO/S3 connection
func New(endpoint, region, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return &Store{client: cli, region: region}, nil
}

// Get reads one object and decodes its body as UTF-8 text.
func (s *Store) Get(ctx context.Context, bucket, key string) (*analysis.SourceObject, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing object surfaces here
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}

	return &analysis.SourceObject{
		Bucket:    bucket,
		Key:       key,
		Content:   string(data),
		SizeBytes: int64(len(data)),
		FileType:  analysis.FileTypeFromKey(key),
	}, nil
}

// Put writes an output object, creating the bucket when it does not exist yet.
func (s *Store) Put(ctx context.Context, out *analysis.OutputObject) error {
	exists, err := s.client.BucketExists(ctx, out.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, out.Bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}

	contentType := out.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, out.Bucket, out.Key,
		strings.NewReader(out.Body), int64(len(out.Body)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: out.Metadata,
		})
	if err != nil {
		return fmt.Errorf("failed to write object %s/%s: %w", out.Bucket, out.Key, err)
	}
	return nil
}

// Ping verifies the endpoint is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	return err
}
