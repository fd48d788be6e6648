package store

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// maxListKeys is the largest page S3 returns
const maxListKeys = 1000

// S3Store implements Store on the AWS SDK v2.
type S3Store struct {
	client     s3api.S3API
	downloader *manager.Downloader
	bucket     string
}

// NewS3 creates a Store for bucket backed by client.
func NewS3(client s3api.S3API, bucket string) *S3Store {
	return &S3Store{
		client: client,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			// Runs are single-threaded; ranged GETs land in order.
			d.Concurrency = 1
		}),
		bucket: bucket,
	}
}

// Bucket implements Store.Bucket.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// ListObjects implements Store.ListObjects.
func (s *S3Store) ListObjects(ctx context.Context, prefix, marker string) (*ListPage, error) {
	input := &s3.ListObjectsInput{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(maxListKeys),
	}
	if marker != "" {
		input.Marker = aws.String(marker)
	}

	output, err := s.client.ListObjects(ctx, input)
	if err != nil {
		return nil, errors.NewCodedError(errors.CodeListingFailed, "listObjects", err).
			WithBucket(s.bucket).
			WithKey(prefix)
	}

	page := &ListPage{
		Objects:     make([]s3types.Part, 0, len(output.Contents)),
		IsTruncated: aws.ToBool(output.IsTruncated),
	}
	for _, obj := range output.Contents {
		page.Objects = append(page.Objects, s3types.Part{
			Key:  aws.ToString(obj.Key),
			Size: aws.ToInt64(obj.Size),
		})
	}
	return page, nil
}

// CopyObject implements Store.CopyObject.
func (s *S3Store) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	copySource := copySourceOf(s.bucket, srcKey)

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource),
	})
	if err != nil {
		return errors.NewCodedError(errors.CodeCopyFailed, "copyObject", err).
			WithBucket(s.bucket).
			WithKey(dstKey).
			WithMessage("failed to copy from " + copySource)
	}
	return nil
}

// CreateMultipartUpload implements Store.CreateMultipartUpload.
func (s *S3Store) CreateMultipartUpload(ctx context.Context, key string) (string, error) {
	output, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", errors.NewCodedError(errors.CodeUploadInitFailed, "createMultipartUpload", err).
			WithBucket(s.bucket).
			WithKey(key)
	}
	return aws.ToString(output.UploadId), nil
}

// CopyPart implements Store.CopyPart. The whole source object becomes the
// part, so no copy range is sent.
func (s *S3Store) CopyPart(
	ctx context.Context,
	key, uploadID string,
	partNumber int32,
	srcKey string,
	_ int64,
) (string, error) {
	copySource := copySourceOf(s.bucket, srcKey)

	output, err := s.client.UploadPartCopy(ctx, &s3.UploadPartCopyInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(key),
		CopySource: aws.String(copySource),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	})
	if err != nil {
		return "", errors.NewCodedError(errors.CodeCopyFailed, "copyPart", err).
			WithBucket(s.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber).
			WithMessage("failed to copy from " + copySource)
	}
	if output.CopyPartResult == nil || aws.ToString(output.CopyPartResult.ETag) == "" {
		return "", errors.NewCodedError(errors.CodeCopyFailed, "copyPart", errors.ErrMissingETag).
			WithBucket(s.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber).
			WithMessage("no part ETag returned for " + copySource)
	}
	return cleanETag(aws.ToString(output.CopyPartResult.ETag)), nil
}

// UploadPart implements Store.UploadPart.
func (s *S3Store) UploadPart(
	ctx context.Context,
	key, uploadID string,
	partNumber int32,
	body []byte,
) (string, error) {
	output, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", errors.NewCodedError(errors.CodePartUploadFailed, "uploadPart", err).
			WithBucket(s.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber)
	}
	return cleanETag(aws.ToString(output.ETag)), nil
}

// CompleteMultipartUpload implements Store.CompleteMultipartUpload.
func (s *S3Store) CompleteMultipartUpload(
	ctx context.Context,
	key, uploadID string,
	parts []s3types.CompletedPart,
) error {
	completed := make([]awstypes.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	_, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return errors.NewCodedError(errors.CodeCompletionFailed, "completeMultipartUpload", err).
			WithBucket(s.bucket).
			WithKey(key).
			WithUpload(uploadID, 0)
	}
	return nil
}

// AbortMultipartUpload implements Store.AbortMultipartUpload.
func (s *S3Store) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return errors.NewCodedError(errors.CodeAbortFailed, "abortMultipartUpload", err).
			WithBucket(s.bucket).
			WithKey(key).
			WithUpload(uploadID, 0)
	}
	return nil
}

// Download implements Store.Download using the SDK transfer manager.
func (s *S3Store) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	n, err := s.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, errors.NewCodedError(errors.CodeDownloadFailed, "download", err).
			WithBucket(s.bucket).
			WithKey(key)
	}
	return n, nil
}

// copySourceOf builds the x-amz-copy-source value. S3 URL-decodes it, so each
// key segment is escaped and the separators are kept. PathEscape leaves '+'
// alone, which S3 would read as a space.
func copySourceOf(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(seg), "+", "%2B")
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// Verify that S3Store implements Store
var _ Store = (*S3Store)(nil)
