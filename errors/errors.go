package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Error represents a failed concatenation step with the context needed to
// diagnose it. It wraps the underlying store error.
type Error struct {
	// Code classifies the failure (e.g., LISTING_FAILED, COPY_FAILED)
	Code ErrorCode

	// Op is the operation that failed (e.g., "listObjects", "copyPart")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// UploadID is the multipart upload the failure belongs to (if any)
	UploadID string

	// PartNumber is the multipart part number being written (if any)
	PartNumber int32

	// Err is the underlying error from the store SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("s3concat.")
	b.WriteString(e.Op)

	switch {
	case e.Bucket != "" && e.Key != "":
		fmt.Fprintf(&b, " %s/%s", e.Bucket, e.Key)
	case e.Bucket != "":
		fmt.Fprintf(&b, " bucket %s", e.Bucket)
	case e.Key != "":
		fmt.Fprintf(&b, " object %s", e.Key)
	}
	if e.UploadID != "" {
		fmt.Fprintf(&b, " upload %s", e.UploadID)
	}
	if e.PartNumber > 0 {
		fmt.Fprintf(&b, " part %d", e.PartNumber)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode sets the error code.
func (e *Error) WithCode(code ErrorCode) *Error {
	e.Code = code
	return e
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithUpload adds multipart upload context to an existing error.
func (e *Error) WithUpload(uploadID string, partNumber int32) *Error {
	e.UploadID = uploadID
	e.PartNumber = partNumber
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
// Known store error codes are translated into the matching sentinel so that
// errors.Is keeps working across store backends.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: classify(err),
	}
}

// NewCodedError creates a new Error with an error code.
func NewCodedError(code ErrorCode, op string, err error) *Error {
	return NewError(op, err).WithCode(code)
}

// Sentinel errors for common failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3concat: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("s3concat: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3concat: access denied")

	// ErrUploadNotFound indicates that the multipart upload no longer exists
	ErrUploadNotFound = errors.New("s3concat: multipart upload not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3concat: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = fmt.Errorf("%w: bucket name", ErrInvalidInput)

	// ErrInvalidObjectKey indicates that the object key or prefix is invalid
	ErrInvalidObjectKey = fmt.Errorf("%w: object key", ErrInvalidInput)

	// ErrIndexOutOfRange indicates that a single-mode index has no group
	ErrIndexOutOfRange = errors.New("s3concat: group index out of range")

	// ErrInvalidState indicates a multipart session transition that is not allowed
	ErrInvalidState = errors.New("s3concat: invalid multipart session state")

	// ErrEmptyUpload indicates a multipart upload was completed without parts
	ErrEmptyUpload = errors.New("s3concat: multipart upload has no parts")

	// ErrInvalidListing indicates the store reported more pages but returned no keys
	ErrInvalidListing = errors.New("s3concat: truncated listing page without objects")

	// ErrMissingETag indicates the store accepted a part but returned no ETag for it
	ErrMissingETag = errors.New("s3concat: part ETag missing from response")
)

// storeCodes maps store API error codes to sentinel errors.
var storeCodes = map[string]error{
	"NoSuchKey":    ErrObjectNotFound,
	"NotFound":     ErrObjectNotFound,
	"NoSuchBucket": ErrBucketNotFound,
	"AccessDenied": ErrAccessDenied,
	"NoSuchUpload": ErrUploadNotFound,
}

// classify joins a sentinel onto store errors with a recognised API code.
// The original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if sentinel, ok := storeCodes[apiErr.ErrorCode()]; ok && !errors.Is(err, sentinel) {
			return fmt.Errorf("%w: %w", sentinel, err)
		}
	}
	return err
}

// CodeOf returns the code of the first Error in the chain, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return CodeUnknown
}

// UploadIDOf returns the multipart upload ID recorded in the error chain, if any.
// External reapers use it to abort sessions left behind by a failed run.
func UploadIDOf(err error) (string, bool) {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.UploadID != "" {
				return e.UploadID, true
			}
			err = e.Err
			continue
		}
		break
	}
	return "", false
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsBucketNotFound checks if an error indicates that a bucket was not found.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsIndexOutOfRange checks if an error indicates a single-mode index had no group.
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}
