// Package config loads run configuration for the command line tool and the
// Lambda handler from flags, S3CONCAT_ environment variables and an optional
// config file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// EnvPrefix prefixes every environment variable, e.g. S3CONCAT_MIN_PART_SIZE.
const EnvPrefix = "S3CONCAT"

// Config keys. Flags share these names.
const (
	KeyBucket         = "bucket"
	KeyFolder         = "folder"
	KeyOutput         = "output"
	KeySuffix         = "suffix"
	KeyFileSize       = "filesize"
	KeyMode           = "mode"
	KeyIndex          = "index"
	KeyMinPartSize    = "min-part-size"
	KeyBackend        = "backend"
	KeyRegion         = "region"
	KeyEndpoint       = "endpoint"
	KeyAccessKey      = "access-key"
	KeySecretKey      = "secret-key"
	KeyPathStyle      = "path-style"
	KeyDisableSSL     = "disable-ssl"
	KeyStagingDir     = "staging-dir"
	KeyAbortOnFailure = "abort-on-failure"
	KeyTimeout        = "timeout"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyConfig         = "config"
)

// Config holds run configuration.
type Config struct {
	Bucket         string        `mapstructure:"bucket"`
	Folder         string        `mapstructure:"folder"`
	Output         string        `mapstructure:"output"`
	Suffix         string        `mapstructure:"suffix"`
	FileSize       int64         `mapstructure:"filesize"`
	Mode           s3types.Mode  `mapstructure:"mode"`
	Index          int           `mapstructure:"index"`
	MinPartSize    int64         `mapstructure:"min-part-size"`
	Backend        string        `mapstructure:"backend"`
	Region         string        `mapstructure:"region"`
	Endpoint       string        `mapstructure:"endpoint"`
	AccessKey      string        `mapstructure:"access-key"`
	SecretKey      string        `mapstructure:"secret-key"`
	PathStyle      bool          `mapstructure:"path-style"`
	DisableSSL     bool          `mapstructure:"disable-ssl"`
	StagingDir     string        `mapstructure:"staging-dir"`
	AbortOnFailure bool          `mapstructure:"abort-on-failure"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Log            LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"log-level"`
	Format string `mapstructure:"log-format"`
}

var defaults = map[string]any{
	KeyFolder:         "data/",
	KeyOutput:         "combined/part",
	KeySuffix:         ".json",
	KeyFileSize:       s3types.DefaultMaxSize,
	KeyMode:           string(s3types.ModeFull),
	KeyIndex:          0,
	KeyMinPartSize:    s3types.DefaultMinPartSize,
	KeyBackend:        string(s3types.BackendS3),
	KeyPathStyle:      false,
	KeyDisableSSL:     false,
	KeyAbortOnFailure: false,
	KeyTimeout:        time.Duration(0),
	KeyLogLevel:       "info",
	KeyLogFormat:      "text",
}

// RegisterFlags adds every configuration flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyBucket, "", "bucket holding the source and output objects")
	fs.String(KeyFolder, defaults[KeyFolder].(string), "prefix of the source objects")
	fs.String(KeyOutput, defaults[KeyOutput].(string), "key prefix of the output objects")
	fs.String(KeySuffix, defaults[KeySuffix].(string), "suffix source keys must end in")
	fs.Int64(KeyFileSize, defaults[KeyFileSize].(int64), "soft maximum size of an output object in bytes")
	fs.String(KeyMode, defaults[KeyMode].(string), "run mode: stat, full or single")
	fs.Int(KeyIndex, 0, "group index for single mode")
	fs.Int64(KeyMinPartSize, defaults[KeyMinPartSize].(int64), "size above which a part is copied server-side")
	fs.String(KeyBackend, defaults[KeyBackend].(string), "object store backend: s3 or minio")
	fs.String(KeyRegion, "", "store region")
	fs.String(KeyEndpoint, "", "custom store endpoint")
	fs.String(KeyAccessKey, "", "static access key")
	fs.String(KeySecretKey, "", "static secret key")
	fs.Bool(KeyPathStyle, false, "use path-style addressing")
	fs.Bool(KeyDisableSSL, false, "use plain HTTP for endpoints without a scheme")
	fs.String(KeyStagingDir, "", "directory small parts are staged in (default OS temp dir)")
	fs.Bool(KeyAbortOnFailure, false, "abort the multipart upload of a failed group")
	fs.Duration(KeyTimeout, 0, "timeout of individual store requests")
	fs.String(KeyLogLevel, defaults[KeyLogLevel].(string), "log level: debug, info, warn or error")
	fs.String(KeyLogFormat, defaults[KeyLogFormat].(string), "log format: text or json")
	fs.String(KeyConfig, "", "optional config file (yaml, json or toml)")
}

// Load reads configuration with precedence flags, environment, config file,
// defaults. flags may be nil, in which case only the environment and defaults
// are consulted.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	mode, err := s3types.ParseMode(v.GetString(KeyMode))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Bucket:         v.GetString(KeyBucket),
		Folder:         v.GetString(KeyFolder),
		Output:         v.GetString(KeyOutput),
		Suffix:         v.GetString(KeySuffix),
		FileSize:       v.GetInt64(KeyFileSize),
		Mode:           mode,
		Index:          v.GetInt(KeyIndex),
		MinPartSize:    v.GetInt64(KeyMinPartSize),
		Backend:        strings.ToLower(v.GetString(KeyBackend)),
		Region:         v.GetString(KeyRegion),
		Endpoint:       v.GetString(KeyEndpoint),
		AccessKey:      v.GetString(KeyAccessKey),
		SecretKey:      v.GetString(KeySecretKey),
		PathStyle:      v.GetBool(KeyPathStyle),
		DisableSSL:     v.GetBool(KeyDisableSSL),
		StagingDir:     v.GetString(KeyStagingDir),
		AbortOnFailure: v.GetBool(KeyAbortOnFailure),
		Timeout:        v.GetDuration(KeyTimeout),
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	return cfg, nil
}

// Options converts the configuration into client options.
func (c *Config) Options(logger *slog.Logger) []s3types.Option {
	opts := []s3types.Option{
		s3concat.WithBucket(c.Bucket),
		s3concat.WithFolder(c.Folder),
		s3concat.WithOutput(c.Output),
		s3concat.WithSuffix(c.Suffix),
		s3concat.WithMaxSize(c.FileSize),
		s3concat.WithMinPartSize(c.MinPartSize),
		s3concat.WithBackend(s3types.Backend(c.Backend)),
		s3concat.WithForcePathStyle(c.PathStyle),
		s3concat.WithDisableSSL(c.DisableSSL),
		s3concat.WithAbortOnFailure(c.AbortOnFailure),
		s3concat.WithTimeout(c.Timeout),
		s3concat.WithStagingDir(c.StagingDir),
		s3concat.WithLogger(logger),
	}

	if c.Region != "" {
		opts = append(opts, s3concat.WithRegion(c.Region))
	}
	if c.Endpoint != "" {
		opts = append(opts, s3concat.WithEndpoint(c.Endpoint))
	}
	if c.AccessKey != "" {
		opts = append(opts, s3concat.WithCredentials(c.AccessKey, c.SecretKey))
	}
	return opts
}

// NewLogger creates a logger writing to w in the configured format and level.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}
}
