package testutil

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

// MinIOContainer holds the connection details of a running MinIO container.
type MinIOContainer struct {
	Endpoint  string
	AccessKey string
	SecretKey string
}

// SetupMinIOTest starts MinIO and creates bucket in it.
// It returns the connection details and a cleanup function that should be deferred.
func SetupMinIOTest(t *testing.T, bucket string) (*MinIOContainer, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
	if err != nil {
		t.Fatalf("Failed to start MinIO container: %v", err)
	}

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to get MinIO endpoint: %v", err)
	}

	info := &MinIOContainer{
		Endpoint:  endpoint,
		AccessKey: container.Username,
		SecretKey: container.Password,
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(info.AccessKey, info.SecretKey, ""),
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to create MinIO client: %v", err)
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to create bucket: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MinIO container: %v", err)
		}
	}
	return info, cleanup
}
