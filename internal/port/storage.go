package port

import (
	"context"
	"io"
)

// UploadInput carries the data needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// UploadOutput contains metadata about an uploaded object.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts object storage operations for page images.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}
