// Package errors provides error types and handling for concatenation runs.
// Every failure carries an ErrorCode naming the stage that failed, plus the
// bucket, key and multipart upload context needed to retry or reap it.
package errors

// ErrorCode identifies the stage of a concatenation run that failed.
// Codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Store errors.

	// CodeListingFailed indicates a paginated listing call failed.
	CodeListingFailed ErrorCode = "LISTING_FAILED"

	// CodeCopyFailed indicates a server-side object or part copy failed.
	CodeCopyFailed ErrorCode = "COPY_FAILED"

	// CodeDownloadFailed indicates staging a too-small part failed while downloading it.
	CodeDownloadFailed ErrorCode = "DOWNLOAD_FAILED"

	// CodeLocalIOFailed indicates staging a too-small part failed on the local filesystem.
	CodeLocalIOFailed ErrorCode = "LOCAL_IO_FAILED"

	// Multipart lifecycle errors.

	// CodeUploadInitFailed indicates a multipart upload could not be created.
	CodeUploadInitFailed ErrorCode = "UPLOAD_INIT_FAILED"

	// CodePartUploadFailed indicates uploading the merged small part failed.
	CodePartUploadFailed ErrorCode = "PART_UPLOAD_FAILED"

	// CodeCompletionFailed indicates completing a multipart upload failed.
	CodeCompletionFailed ErrorCode = "COMPLETION_FAILED"

	// CodeAbortFailed indicates aborting a multipart upload failed.
	CodeAbortFailed ErrorCode = "ABORT_FAILED"

	// CodeInvalidState indicates a multipart session was driven out of order.
	CodeInvalidState ErrorCode = "INVALID_STATE"

	// Run parameter errors.

	// CodeIndexOutOfRange indicates a single-mode index has no matching group.
	CodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// CodeInvalidInput indicates the run parameters are invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeUnknown indicates an unclassified failure.
	CodeUnknown ErrorCode = "UNKNOWN"
)
