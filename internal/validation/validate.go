package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// maxKeyLength is the longest object key S3 accepts, in bytes.
const maxKeyLength = 1024

// ValidateBucketName validates that a bucket name is DNS-compliant according to AWS S3 rules.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if err := validateBucketNameBasics(bucket); err != nil {
		return err
	}

	if err := validateBucketNameCharacters(bucket); err != nil {
		return err
	}

	return validateBucketNameStructure(bucket)
}

// ValidateObjectKey validates an output key. The key must not be empty.
func ValidateObjectKey(key string) error {
	if key == "" {
		return invalidKey(key, "object key cannot be empty")
	}
	return validateKeyContent(key)
}

// ValidatePrefix validates a listing prefix. The empty prefix selects the whole bucket.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return validateKeyContent(prefix)
}

// ValidateSizes checks the size settings of a run.
func ValidateSizes(maxSize, minPartSize int64) error {
	if maxSize <= 0 {
		return invalidInput("validateSizes", fmt.Sprintf("max size must be positive, got %d", maxSize))
	}
	if minPartSize <= 0 {
		return invalidInput("validateSizes", fmt.Sprintf("min part size must be positive, got %d", minPartSize))
	}
	return nil
}

// ValidateConfig validates every run parameter of cfg.
func ValidateConfig(cfg *s3types.ClientConfig) error {
	if err := ValidateBucketName(cfg.Bucket); err != nil {
		return err
	}
	if err := ValidatePrefix(cfg.Folder); err != nil {
		return err
	}
	if err := ValidateObjectKey(cfg.Output); err != nil {
		return err
	}
	if hasControlCharacters(cfg.Suffix) {
		return invalidInput("validateConfig", "suffix cannot contain control characters")
	}
	if err := ValidateSizes(cfg.MaxSize, cfg.MinPartSize); err != nil {
		return err
	}

	switch cfg.Backend {
	case s3types.BackendS3, "":
	case s3types.BackendMinIO:
		if cfg.Endpoint == "" {
			return invalidInput("validateConfig", "the minio backend requires an endpoint")
		}
	default:
		return invalidInput("validateConfig", fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
	return nil
}

func invalidInput(op, message string) error {
	return errors.NewCodedError(errors.CodeInvalidInput, op, errors.ErrInvalidInput).WithMessage(message)
}

func invalidKey(key, message string) error {
	return errors.NewCodedError(errors.CodeInvalidInput, "validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(message)
}

func validateKeyContent(key string) error {
	// Check for path traversal attempts
	if hasPathTraversal(key) {
		return invalidKey(key, "object key cannot contain path traversal sequences")
	}

	if len(key) > maxKeyLength {
		return invalidKey(key, "object key cannot exceed 1024 characters")
	}

	if hasControlCharacters(key) {
		return invalidKey(key, "object key cannot contain control characters")
	}

	return nil
}

// validateBucketNameBasics validates basic bucket name requirements
func validateBucketNameBasics(bucket string) error {
	if bucket == "" {
		return invalidBucket(bucket, "bucket name cannot be empty")
	}

	// Bucket names must be between 3 and 63 characters long
	if len(bucket) < 3 || len(bucket) > 63 {
		return invalidBucket(bucket, "bucket name must be between 3 and 63 characters long")
	}

	return nil
}

// validateBucketNameCharacters validates allowed characters in bucket names
func validateBucketNameCharacters(bucket string) error {
	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return invalidBucket(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}
	return nil
}

// validateBucketNameStructure validates bucket name structural requirements
func validateBucketNameStructure(bucket string) error {
	if bucket[0] == '-' || bucket[0] == '.' || bucket[len(bucket)-1] == '-' || bucket[len(bucket)-1] == '.' {
		return invalidBucket(bucket, "bucket name cannot start or end with a hyphen or dot")
	}

	// Checked before the adjacency rule so IP-like names get the clearer message
	if isIPAddress(bucket) {
		return invalidBucket(bucket, "bucket name cannot be formatted as an IP address")
	}

	if strings.Contains(bucket, "..") {
		return invalidBucket(bucket, "bucket name cannot contain two adjacent periods")
	}

	return nil
}

func invalidBucket(bucket, message string) error {
	return errors.NewCodedError(errors.CodeInvalidInput, "validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(message)
}

// isValidBucketChar checks if a character is valid in a bucket name
func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress checks if a string is formatted as an IP address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if len(part) == 0 {
			return true // Empty part indicates IP-like format (e.g., "192.168..1")
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}

// hasPathTraversal checks for path traversal attempts in object keys
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.Clean(key)

	// Check for absolute path attempts
	if strings.HasPrefix(cleaned, "/") {
		return true
	}

	// Check for Windows-style absolute paths
	if len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/') {
		return true
	}

	return false
}

// hasControlCharacters checks for control characters in the key
func hasControlCharacters(key string) bool {
	for _, char := range key {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
