package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "operation only",
			err:  NewError("listObjects", errors.New("boom")),
			want: "s3concat.listObjects: boom",
		},
		{
			name: "bucket and key",
			err:  NewError("copyObject", errors.New("boom")).WithBucket("b").WithKey("k"),
			want: "s3concat.copyObject b/k: boom",
		},
		{
			name: "bucket only with code",
			err:  NewCodedError(CodeListingFailed, "listObjects", errors.New("boom")).WithBucket("b"),
			want: "s3concat.listObjects bucket b [LISTING_FAILED]: boom",
		},
		{
			name: "upload context",
			err: NewCodedError(CodeCopyFailed, "copyPart", errors.New("boom")).
				WithKey("out-0").
				WithUpload("up-1", 3),
			want: "s3concat.copyPart object out-0 upload up-1 part 3 [COPY_FAILED]: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_WithMessageKeepsChain(t *testing.T) {
	base := errors.New("root cause")
	err := NewError("download", base).WithMessage("staging part")

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "staging part: root cause")
}

func TestNewError_ClassifiesStoreCodes(t *testing.T) {
	tests := []struct {
		code     string
		sentinel error
	}{
		{"NoSuchKey", ErrObjectNotFound},
		{"NoSuchBucket", ErrBucketNotFound},
		{"AccessDenied", ErrAccessDenied},
		{"NoSuchUpload", ErrUploadNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			apiErr := &smithy.GenericAPIError{Code: tt.code, Message: "store said no"}
			err := NewError("op", fmt.Errorf("wrapped: %w", apiErr))

			assert.ErrorIs(t, err, tt.sentinel)

			var got smithy.APIError
			require.ErrorAs(t, err, &got)
			assert.Equal(t, tt.code, got.ErrorCode())
		})
	}
}

func TestNewError_UnknownCodeUntouched(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "SlowDown"}
	err := NewError("op", apiErr)

	assert.Same(t, error(apiErr), err.Err)
	assert.False(t, IsObjectNotFound(err))
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("group 3: %w",
		NewCodedError(CodeCompletionFailed, "completeMultipartUpload", errors.New("x")))

	assert.Equal(t, CodeCompletionFailed, CodeOf(err))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(NewError("op", errors.New("no code"))))
}

func TestUploadIDOf(t *testing.T) {
	inner := NewCodedError(CodePartUploadFailed, "uploadPart", errors.New("x")).WithUpload("up-9", 2)
	outer := NewCodedError(CodeUnknown, "assemble", inner)

	id, ok := UploadIDOf(fmt.Errorf("run: %w", outer))
	require.True(t, ok)
	assert.Equal(t, "up-9", id)

	_, ok = UploadIDOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsInvalidInput(NewError("validate", ErrInvalidInput)))
	assert.True(t, IsIndexOutOfRange(NewError("single", ErrIndexOutOfRange)))
	assert.True(t, IsAccessDenied(NewError("op", &smithy.GenericAPIError{Code: "AccessDenied"})))
	assert.True(t, IsBucketNotFound(NewError("op", &smithy.GenericAPIError{Code: "NoSuchBucket"})))
	assert.False(t, IsObjectNotFound(nil))
}
