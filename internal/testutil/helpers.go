// Package testutil provides test helper functions.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test data for uploads.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	// Ensure DNS compliance
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CreateTestObject creates a listing entry.
func CreateTestObject(key string, size int64) types.Object {
	return types.Object{
		Key:  aws.String(key),
		Size: aws.Int64(size),
	}
}

// CreateListObjectsOutput creates a test ListObjectsOutput structure.
// This is useful for mocking S3 list operations.
func CreateListObjectsOutput(objects []types.Object, truncated bool) *s3.ListObjectsOutput {
	return &s3.ListObjectsOutput{
		Contents:    objects,
		MaxKeys:     aws.Int32(1000),
		Name:        aws.String("test-bucket"),
		IsTruncated: aws.Bool(truncated),
	}
}

// CreateGetObjectOutput creates a test GetObjectOutput structure.
// This is useful for mocking download operations.
func CreateGetObjectOutput(data []byte) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}
}

// NewTestLogger returns a logger writing text records into buf.
func NewTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
