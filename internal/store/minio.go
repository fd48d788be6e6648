package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// MinIOStore implements Store on the MinIO client's low-level Core API.
type MinIOStore struct {
	core   *minio.Core
	bucket string
}

// NewMinIO creates a Store for bucket backed by core.
func NewMinIO(core *minio.Core, bucket string) *MinIOStore {
	return &MinIOStore{core: core, bucket: bucket}
}

// Bucket implements Store.Bucket.
func (m *MinIOStore) Bucket() string {
	return m.bucket
}

// ListObjects implements Store.ListObjects.
func (m *MinIOStore) ListObjects(_ context.Context, prefix, marker string) (*ListPage, error) {
	result, err := m.core.ListObjects(m.bucket, prefix, marker, "", maxListKeys)
	if err != nil {
		return nil, errors.NewCodedError(errors.CodeListingFailed, "listObjects", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(prefix)
	}

	page := &ListPage{
		Objects:     make([]s3types.Part, 0, len(result.Contents)),
		IsTruncated: result.IsTruncated,
	}
	for _, obj := range result.Contents {
		page.Objects = append(page.Objects, s3types.Part{Key: obj.Key, Size: obj.Size})
	}
	return page, nil
}

// CopyObject implements Store.CopyObject.
func (m *MinIOStore) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := m.core.Client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: m.bucket, Object: srcKey},
	)
	if err != nil {
		return errors.NewCodedError(errors.CodeCopyFailed, "copyObject", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(dstKey).
			WithMessage("failed to copy from " + m.bucket + "/" + srcKey)
	}
	return nil
}

// CreateMultipartUpload implements Store.CreateMultipartUpload.
func (m *MinIOStore) CreateMultipartUpload(ctx context.Context, key string) (string, error) {
	uploadID, err := m.core.NewMultipartUpload(ctx, m.bucket, key, minio.PutObjectOptions{})
	if err != nil {
		return "", errors.NewCodedError(errors.CodeUploadInitFailed, "createMultipartUpload", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key)
	}
	return uploadID, nil
}

// CopyPart implements Store.CopyPart. MinIO needs the explicit source range.
func (m *MinIOStore) CopyPart(
	ctx context.Context,
	key, uploadID string,
	partNumber int32,
	srcKey string,
	srcSize int64,
) (string, error) {
	part, err := m.core.CopyObjectPart(ctx,
		m.bucket, srcKey,
		m.bucket, key,
		uploadID, int(partNumber),
		0, srcSize,
		nil,
	)
	if err != nil {
		return "", errors.NewCodedError(errors.CodeCopyFailed, "copyPart", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber).
			WithMessage("failed to copy from " + m.bucket + "/" + srcKey)
	}
	return cleanETag(part.ETag), nil
}

// UploadPart implements Store.UploadPart.
func (m *MinIOStore) UploadPart(
	ctx context.Context,
	key, uploadID string,
	partNumber int32,
	body []byte,
) (string, error) {
	part, err := m.core.PutObjectPart(ctx,
		m.bucket, key, uploadID, int(partNumber),
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectPartOptions{},
	)
	if err != nil {
		return "", errors.NewCodedError(errors.CodePartUploadFailed, "uploadPart", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber)
	}
	return cleanETag(part.ETag), nil
}

// CompleteMultipartUpload implements Store.CompleteMultipartUpload.
func (m *MinIOStore) CompleteMultipartUpload(
	ctx context.Context,
	key, uploadID string,
	parts []s3types.CompletedPart,
) error {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, minio.CompletePart{
			PartNumber: int(p.PartNumber),
			ETag:       p.ETag,
		})
	}

	_, err := m.core.CompleteMultipartUpload(ctx, m.bucket, key, uploadID, completed, minio.PutObjectOptions{})
	if err != nil {
		return errors.NewCodedError(errors.CodeCompletionFailed, "completeMultipartUpload", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key).
			WithUpload(uploadID, 0)
	}
	return nil
}

// AbortMultipartUpload implements Store.AbortMultipartUpload.
func (m *MinIOStore) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	if err := m.core.AbortMultipartUpload(ctx, m.bucket, key, uploadID); err != nil {
		return errors.NewCodedError(errors.CodeAbortFailed, "abortMultipartUpload", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key).
			WithUpload(uploadID, 0)
	}
	return nil
}

// Download implements Store.Download.
func (m *MinIOStore) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	obj, err := m.core.Client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, errors.NewCodedError(errors.CodeDownloadFailed, "download", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; request errors surface on the first read.
	n, err := io.Copy(io.NewOffsetWriter(w, 0), obj)
	if err != nil {
		return n, errors.NewCodedError(errors.CodeDownloadFailed, "download", minioErr(err)).
			WithBucket(m.bucket).
			WithKey(key)
	}
	return n, nil
}

// minioErr exposes the MinIO error code through smithy.APIError so that the
// errors package classifies both backends alike.
func minioErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}
	return fmt.Errorf("%w: %w", &smithy.GenericAPIError{
		Code:    resp.Code,
		Message: resp.Message,
	}, err)
}

// Verify that MinIOStore implements Store
var _ Store = (*MinIOStore)(nil)
