// Package store abstracts the object store operations a concatenation run
// consumes. A Store is bound to one bucket at construction; nothing in the
// package reads ambient configuration.
package store

import (
	"context"
	"io"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// ListPage is one page of a marker-paginated listing.
type ListPage struct {
	// Objects are returned in the store's listing order
	Objects []s3types.Part

	// IsTruncated reports whether more pages follow
	IsTruncated bool
}

// Store is the set of object store operations used by the lister, the
// assembler and the multipart lifecycle. Implementations must return errors
// built with the errors package so that codes and sentinels survive.
type Store interface {
	// Bucket returns the bucket the store is bound to
	Bucket() string

	// ListObjects returns the page of objects under prefix after marker
	ListObjects(ctx context.Context, prefix, marker string) (*ListPage, error)

	// CopyObject copies srcKey to dstKey server-side
	CopyObject(ctx context.Context, srcKey, dstKey string) error

	// CreateMultipartUpload starts a multipart upload for key and returns its ID
	CreateMultipartUpload(ctx context.Context, key string) (string, error)

	// CopyPart copies the whole of srcKey into part partNumber of the upload
	CopyPart(ctx context.Context, key, uploadID string, partNumber int32, srcKey string, srcSize int64) (string, error)

	// UploadPart uploads body as part partNumber of the upload
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body []byte) (string, error)

	// CompleteMultipartUpload finalises the upload from the recorded parts
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []s3types.CompletedPart) error

	// AbortMultipartUpload discards the upload and its parts
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error

	// Download writes the object at key into w and returns the byte count
	Download(ctx context.Context, key string, w io.WriterAt) (int64, error)
}

// cleanETag strips the quotes stores put around ETags.
func cleanETag(etag string) string {
	return strings.Trim(etag, `"`)
}
