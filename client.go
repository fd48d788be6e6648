package s3concat

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Client concatenates the objects of one bucket folder into output objects.
// A Client is not safe for concurrent runs; fan out with one client per
// single-mode invocation instead.
type Client struct {
	// store is the object store bound to the configured bucket
	store store.Store

	// config holds the resolved run parameters
	config s3types.ClientConfig

	// staging holds small parts while they are merged
	staging billy.Filesystem
}

// New creates a new Client with the provided options.
// For the s3 backend it loads AWS credentials using the default credential
// chain unless static credentials or a custom AWS config are given.
//
// Example:
//
//	client, err := s3concat.New(
//	    s3concat.WithBucket("my-bucket"),
//	    s3concat.WithFolder("events/2024/"),
//	    s3concat.WithMaxSize(512 << 20),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	cfg := resolveConfig(opts)
	if err := validation.ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Backend {
	case s3types.BackendMinIO:
		core, err := newMinIOCore(&cfg)
		if err != nil {
			return nil, errors.NewCodedError(errors.CodeInvalidInput, "client initialization", err).
				WithBucket(cfg.Bucket)
		}
		st = store.NewMinIO(core, cfg.Bucket)
	default:
		client, err := newS3Client(&cfg)
		if err != nil {
			return nil, errors.NewCodedError(errors.CodeInvalidInput, "client initialization", err).
				WithBucket(cfg.Bucket)
		}
		st = store.NewS3(client, cfg.Bucket)
	}

	return newClient(st, cfg), nil
}

// NewWithClient creates a new Client over a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(client s3api.S3API, opts ...s3types.Option) (*Client, error) {
	cfg := resolveConfig(opts)
	if err := validation.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return newClient(store.NewS3(client, cfg.Bucket), cfg), nil
}

// NewWithStore creates a new Client over an existing store. The store's
// bucket is used when the options do not name one.
func NewWithStore(st store.Store, opts ...s3types.Option) (*Client, error) {
	cfg := resolveConfig(opts)
	if cfg.Bucket == "" {
		cfg.Bucket = st.Bucket()
	}
	if err := validation.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return newClient(st, cfg), nil
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() s3types.ClientConfig {
	return c.config
}

func newClient(st store.Store, cfg s3types.ClientConfig) *Client {
	staging := cfg.Staging
	if staging == nil {
		dir := cfg.StagingDir
		if dir == "" {
			dir = os.TempDir()
		}
		staging = osfs.New(dir)
	}

	return &Client{
		store:   st,
		config:  cfg,
		staging: staging,
	}
}

// resolveConfig applies defaults, then opts.
func resolveConfig(opts []s3types.Option) s3types.ClientConfig {
	cfg := s3types.ClientConfig{
		Folder:      "data/",
		Output:      "combined/part",
		Suffix:      ".json",
		MaxSize:     s3types.DefaultMaxSize,
		MinPartSize: s3types.DefaultMinPartSize,
		Backend:     s3types.BackendS3,
		MaxRetries:  1, // Failed groups are retried by rerunning single mode
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func newS3Client(clientCfg *s3types.ClientConfig) (*s3.Client, error) {
	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.AccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(clientCfg.AccessKey, clientCfg.SecretKey, ""),
			))
		}
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, err
		}
	}

	// Apply region from options if specified, otherwise ensure a region is set
	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.Endpoint != "" {
		endpoint := endpointURL(clientCfg.Endpoint, clientCfg.DisableSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	switch {
	case clientCfg.CustomHTTPClient != nil:
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = clientCfg.CustomHTTPClient
		})
	case clientCfg.Timeout > 0:
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return s3.NewFromConfig(cfg, s3Opts...), nil
}

func newMinIOCore(cfg *s3types.ClientConfig) (*minio.Core, error) {
	host, secure := minioEndpoint(cfg.Endpoint, cfg.DisableSSL)

	opts := &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	}
	if cfg.ForcePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	if cfg.CustomHTTPClient != nil {
		opts.Transport = cfg.CustomHTTPClient.Transport
	}

	return minio.NewCore(host, opts)
}

// endpointURL adds a scheme to bare host:port endpoints.
func endpointURL(endpoint string, disableSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if disableSSL {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

// minioEndpoint strips the scheme, which minio-go expects as the Secure flag.
func minioEndpoint(endpoint string, disableSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	default:
		return endpoint, !disableSSL
	}
}
