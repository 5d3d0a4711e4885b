package distribute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/caselane/docforge/internal/models"
)

// GCSDestination uploads artifacts to a Google Cloud Storage bucket.
type GCSDestination struct {
	bucket            *storage.BucketHandle
	bucketName        string
	continueOnFailure bool
}

func NewGCSDestination(ctx context.Context, bucketName, credentialsFile string, continueOnFailure bool) (*GCSDestination, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSDestination{
		bucket:            client.Bucket(bucketName),
		bucketName:        bucketName,
		continueOnFailure: continueOnFailure,
	}, nil
}

func (d *GCSDestination) Name() string { return "gcs:" + d.bucketName }

func (d *GCSDestination) ContinueOnFailure() bool { return d.continueOnFailure }

// Upload writes the object only if it doesn't already exist, so a retried
// job that reaches the bucket twice stays idempotent. A 412 from the
// precondition means the object is already there and counts as success.
func (d *GCSDestination) Upload(ctx context.Context, objectName string, data []byte, contentType string) (*models.DestinationRecord, error) {
	writer := d.bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			log.Printf("distribute: gcs object %s already exists, keeping it", objectName)
			return d.record(objectName), nil
		}
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			log.Printf("distribute: gcs object %s already exists, keeping it", objectName)
			return d.record(objectName), nil
		}
		return nil, fmt.Errorf("failed to finalize GCS write: %w", err)
	}

	return d.record(objectName), nil
}

func (d *GCSDestination) record(objectName string) *models.DestinationRecord {
	return &models.DestinationRecord{
		Name:       d.Name(),
		RemotePath: fmt.Sprintf("gs://%s/%s", d.bucketName, objectName),
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
