package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		// Valid bucket names
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_numbers", "my-bucket123", false, ""},
		{"valid_leading_number", "123-logs", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},

		// Invalid bucket names
		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "bucket name must be between 3 and 63 characters long"},
		{"too_long", strings.Repeat("a", 64), true, "bucket name must be between 3 and 63 characters long"},
		{"starts_with_hyphen", "-bucket", true, "bucket name cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", true, "bucket name cannot start or end with a hyphen or dot"},
		{"contains_uppercase", "MyBucket", true, "bucket name can only contain lowercase letters, numbers, dots, and hyphens"},
		{"contains_underscore", "my_bucket", true, "bucket name can only contain lowercase letters, numbers, dots, and hyphens"},
		{"ip_address", "192.168.1.1", true, "bucket name cannot be formatted as an IP address"},
		{"adjacent_dots", "my..bucket", true, "bucket name cannot contain two adjacent periods"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
			assert.True(t, errors.IsInvalidInput(err))
			assert.Equal(t, errors.CodeInvalidInput, errors.CodeOf(err))
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		{"valid_simple", "combined/part", false, ""},
		{"valid_unicode", "combined/日本", false, ""},
		{"empty", "", true, "object key cannot be empty"},
		{"traversal", "../etc/passwd", true, "path traversal"},
		{"absolute", "/root/key", true, "path traversal"},
		{"windows_absolute", "C:\\key", true, "path traversal"},
		{"too_long", strings.Repeat("k", 1025), true, "cannot exceed 1024 characters"},
		{"control_chars", "bad\x00key", true, "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	assert.NoError(t, ValidatePrefix(""))
	assert.NoError(t, ValidatePrefix("data/"))
	assert.Error(t, ValidatePrefix("../data/"))
}

func TestValidateSizes(t *testing.T) {
	assert.NoError(t, ValidateSizes(1, 1))
	assert.True(t, errors.IsInvalidInput(ValidateSizes(0, 1)))
	assert.True(t, errors.IsInvalidInput(ValidateSizes(-5, 1)))
	assert.True(t, errors.IsInvalidInput(ValidateSizes(10, 0)))
}

func TestValidateConfig(t *testing.T) {
	valid := func() *s3types.ClientConfig {
		return &s3types.ClientConfig{
			Bucket:      "my-bucket",
			Folder:      "data/",
			Output:      "combined/part",
			Suffix:      ".json",
			MaxSize:     s3types.DefaultMaxSize,
			MinPartSize: s3types.DefaultMinPartSize,
			Backend:     s3types.BackendS3,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*s3types.ClientConfig)
		wantErr string
	}{
		{"valid", func(*s3types.ClientConfig) {}, ""},
		{"default backend", func(c *s3types.ClientConfig) { c.Backend = "" }, ""},
		{"minio with endpoint", func(c *s3types.ClientConfig) {
			c.Backend = s3types.BackendMinIO
			c.Endpoint = "localhost:9000"
		}, ""},
		{"bad bucket", func(c *s3types.ClientConfig) { c.Bucket = "B" }, "bucket name"},
		{"bad folder", func(c *s3types.ClientConfig) { c.Folder = "../x" }, "path traversal"},
		{"empty output", func(c *s3types.ClientConfig) { c.Output = "" }, "object key cannot be empty"},
		{"zero max size", func(c *s3types.ClientConfig) { c.MaxSize = 0 }, "max size must be positive"},
		{"minio without endpoint", func(c *s3types.ClientConfig) { c.Backend = s3types.BackendMinIO }, "requires an endpoint"},
		{"unknown backend", func(c *s3types.ClientConfig) { c.Backend = "gcs" }, "unknown backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsInvalidInput(err))
		})
	}
}
