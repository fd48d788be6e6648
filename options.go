// Package s3concat provides functional options for configuring a concatenation client.
// These options follow the functional options pattern for clean, composable configuration.
package s3concat

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// WithBucket sets the bucket holding both the source objects and the outputs.
func WithBucket(bucket string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Bucket = bucket
	}
}

// WithFolder sets the prefix whose objects are concatenated.
// Default is "data/".
func WithFolder(folder string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Folder = folder
	}
}

// WithOutput sets the key prefix of output objects. Group i is written to
// "<output>-<i>". Default is "combined/part".
func WithOutput(output string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Output = output
	}
}

// WithSuffix restricts source objects to keys ending in suffix.
// Default is ".json"; the empty suffix selects every key under the folder.
func WithSuffix(suffix string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Suffix = suffix
	}
}

// WithMaxSize sets the soft ceiling of an output object in bytes.
// Default is 1GiB.
func WithMaxSize(maxSize int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxSize = maxSize
	}
}

// WithMinPartSize sets the size above which a part is copied server-side.
// Default is 5,500,000 bytes. Values at or below the store's minimum part
// size make multipart completion fail.
func WithMinPartSize(size int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MinPartSize = size
	}
}

// WithAbortOnFailure aborts a group's multipart upload when assembly fails.
// Default is false: the upload is left open and its ID is reported.
func WithAbortOnFailure(abort bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AbortOnFailure = abort
	}
}

// WithBackend selects the object store implementation.
func WithBackend(backend s3types.Backend) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Backend = backend
	}
}

// WithRegion sets the store region.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom store endpoint.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithCredentials sets static credentials instead of the default chain.
func WithCredentials(accessKey, secretKey string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithDisableSSL disables SSL/TLS for store connections.
// Only use this for local testing.
func WithDisableSSL(disableSSL bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithMaxRetries sets the SDK attempt count. Default is 1, which disables
// retries; a failed group is retried by rerunning it in single mode.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual HTTP requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithCustomHTTPClient allows providing a custom HTTP client.
func WithCustomHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithStagingDir sets the directory small parts are downloaded into.
// Default is the OS temp directory.
func WithStagingDir(dir string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.StagingDir = dir
	}
}

// WithStaging sets the staging filesystem, overriding WithStagingDir.
// Tests use an in-memory filesystem.
func WithStaging(fs billy.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Staging = fs
	}
}

// WithLogger configures the client with a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithSessionHook observes every multipart session transition. External
// tooling uses it to record upload IDs of runs that may not finish.
func WithSessionHook(hook s3types.SessionHook) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.SessionHook = hook
	}
}
