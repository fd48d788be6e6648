package store

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioErr(t *testing.T) {
	t.Run("exposes the response code", func(t *testing.T) {
		resp := minio.ErrorResponse{Code: "NoSuchKey", Message: "gone", StatusCode: 404}
		err := minioErr(resp)

		var apiErr smithy.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "NoSuchKey", apiErr.ErrorCode())
	})

	t.Run("passes through other errors", func(t *testing.T) {
		plain := errors.New("dial tcp: refused")
		assert.Same(t, plain, minioErr(plain))
	})
}

func TestCleanETag(t *testing.T) {
	assert.Equal(t, "abc", cleanETag(`"abc"`))
	assert.Equal(t, "abc", cleanETag("abc"))
}
