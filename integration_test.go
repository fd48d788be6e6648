//go:build integration

package s3concat

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

const largePart = 6 * 1024 * 1024

// objectIO seeds and reads back objects on a backend under test.
type objectIO interface {
	put(t *testing.T, key string, data []byte)
	get(t *testing.T, key string) []byte
}

type s3IO struct {
	client *s3.Client
	bucket string
}

func (o *s3IO) put(t *testing.T, key string, data []byte) {
	t.Helper()
	_, err := o.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	require.NoError(t, err)
}

func (o *s3IO) get(t *testing.T, key string) []byte {
	t.Helper()
	out, err := o.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	require.NoError(t, err)
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	return data
}

type minioIO struct {
	client *minio.Client
	bucket string
}

func (o *minioIO) put(t *testing.T, key string, data []byte) {
	t.Helper()
	_, err := o.client.PutObject(context.Background(), o.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{})
	require.NoError(t, err)
}

func (o *minioIO) get(t *testing.T, key string) []byte {
	t.Helper()
	obj, err := o.client.GetObject(context.Background(), o.bucket, key, minio.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	return data
}

func TestIntegration_LocalStack(t *testing.T) {
	bucket := testutil.GenerateTestBucketName("s3concat")
	container, cleanup := testutil.SetupLocalStackTest(t, bucket)
	defer cleanup()

	raw := s3.New(s3.Options{
		Region:       container.Region(),
		BaseEndpoint: aws.String(container.Endpoint()),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
		}),
	})

	runConcatenation(t, &s3IO{client: raw, bucket: bucket},
		WithBucket(bucket),
		WithRegion(container.Region()),
		WithEndpoint(container.Endpoint()),
		WithCredentials("test", "test"),
		WithForcePathStyle(true),
	)
}

func TestIntegration_MinIO(t *testing.T) {
	bucket := testutil.GenerateTestBucketName("s3concat")
	info, cleanup := testutil.SetupMinIOTest(t, bucket)
	defer cleanup()

	raw, err := minio.New(info.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(info.AccessKey, info.SecretKey, ""),
		Secure: false,
	})
	require.NoError(t, err)

	runConcatenation(t, &minioIO{client: raw, bucket: bucket},
		WithBucket(bucket),
		WithBackend(s3types.BackendMinIO),
		WithEndpoint(info.Endpoint),
		WithDisableSSL(true),
		WithCredentials(info.AccessKey, info.SecretKey),
	)
}

// runConcatenation writes two large parts and two small ones interleaved,
// then checks stat, full and single runs against the stored outputs.
func runConcatenation(t *testing.T, objects objectIO, opts ...s3types.Option) {
	t.Helper()
	ctx := context.Background()

	a := testutil.GenerateRandomData(largePart)
	b := []byte(`{"small":"b"}`)
	c := testutil.GenerateRandomData(largePart)
	d := []byte(`{"small":"d"}`)

	objects.put(t, "data/a.json", a)
	objects.put(t, "data/b.json", b)
	objects.put(t, "data/c.json", c)
	objects.put(t, "data/d.json", d)
	objects.put(t, "data/skip.txt", []byte("not json"))

	var sessions []s3types.SessionInfo
	client, err := New(append(opts,
		WithStagingDir(t.TempDir()),
		WithSessionHook(func(info s3types.SessionInfo) { sessions = append(sessions, info) }),
	)...)
	require.NoError(t, err)

	stats, err := client.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.PartCount)
	require.Len(t, stats.Groups, 1)

	results, err := client.Full(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, s3types.StrategyMultipart, results[0].Strategy)
	assert.Equal(t, 2, results[0].RemoteParts)
	assert.Equal(t, 2, results[0].SmallParts)

	want := bytes.Join([][]byte{a, c, b, d}, nil)
	assert.Equal(t, want, objects.get(t, "combined/part-0"))

	require.NotEmpty(t, sessions)
	assert.Equal(t, s3types.SessionCompleted, sessions[len(sessions)-1].State)

	// A small folder copies its only part server-side.
	objects.put(t, "solo/only.json", b)
	single, err := New(append(opts, WithFolder("solo/"), WithOutput("solo-out/part"))...)
	require.NoError(t, err)

	result, err := single.Single(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, s3types.StrategyCopy, result.Strategy)
	assert.Equal(t, b, objects.get(t, "solo-out/part-0"))
}
