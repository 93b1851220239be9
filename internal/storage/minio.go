package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bookstore-storage")

// BucketKind selects the storage policy for an object: image assets
// and raw binaries live in separate buckets with different key shapes.
type BucketKind string

const (
	BucketImage BucketKind = "image"
	BucketRaw   BucketKind = "raw"
)

// ObjectStore wraps MinIO operations for the two logical buckets.
type ObjectStore struct {
	client        *minio.Client
	imageBucket   string
	rawBucket     string
	publicBaseURL string
}

// NewObjectStore initializes the MinIO client and ensures both buckets exist.
func NewObjectStore(endpoint, accessKey, secretKey, imageBucket, rawBucket, publicBaseURL string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	for _, bucket := range []string{imageBucket, rawBucket} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			log.Printf("Creating bucket: %s", bucket)
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
	}

	return &ObjectStore{
		client:        client,
		imageBucket:   imageBucket,
		rawBucket:     rawBucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (s *ObjectStore) bucketFor(kind BucketKind) string {
	if kind == BucketRaw {
		return s.rawBucket
	}
	return s.imageBucket
}

// Upload stores a local file under <folder>/<objectName> in the kind's
// bucket and returns the resulting public URL. Image objects carry the
// format as a filename extension; raw objects are stored without one.
func (s *ObjectStore) Upload(ctx context.Context, kind BucketKind, localPath, folder, objectName, format string) (string, error) {
	bucket := s.bucketFor(kind)
	objectKey := ObjectKey(kind, folder, objectName, format)

	ctx, span := tracer.Start(ctx, "minio.upload",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("object_key", objectKey),
			attribute.String("bucket_kind", string(kind)),
		),
	)
	defer span.End()

	contentType := "application/" + format
	if kind == BucketImage {
		contentType = "image/" + format
	}

	_, err := s.client.FPutObject(ctx, bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	span.SetAttributes(attribute.Bool("upload_success", true))
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucket, objectKey), nil
}

// Delete removes an object by key from the kind's bucket. Raw objects
// must be deleted with BucketRaw; the default targets the image bucket.
func (s *ObjectStore) Delete(ctx context.Context, kind BucketKind, objectKey string) error {
	bucket := s.bucketFor(kind)

	ctx, span := tracer.Start(ctx, "minio.delete",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("object_key", objectKey),
			attribute.String("bucket_kind", string(kind)),
		),
	)
	defer span.End()

	if err := s.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}

	return nil
}
