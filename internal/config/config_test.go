package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "data/", cfg.Folder)
	assert.Equal(t, "combined/part", cfg.Output)
	assert.Equal(t, ".json", cfg.Suffix)
	assert.Equal(t, int64(1073741824), cfg.FileSize)
	assert.Equal(t, s3types.ModeFull, cfg.Mode)
	assert.Equal(t, 0, cfg.Index)
	assert.Equal(t, int64(5500000), cfg.MinPartSize)
	assert.Equal(t, "s3", cfg.Backend)
	assert.False(t, cfg.AbortOnFailure)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load(newFlags(t,
		"--bucket", "my-bucket",
		"--folder", "events/",
		"--filesize", "2048",
		"--mode", "single",
		"--index", "7",
		"--min-part-size", "100",
		"--backend", "MinIO",
		"--endpoint", "http://localhost:9000",
		"--path-style",
		"--abort-on-failure",
		"--timeout", "30s",
		"--log-format", "json",
	))
	require.NoError(t, err)

	assert.Equal(t, "my-bucket", cfg.Bucket)
	assert.Equal(t, "events/", cfg.Folder)
	assert.Equal(t, int64(2048), cfg.FileSize)
	assert.Equal(t, s3types.ModeSingle, cfg.Mode)
	assert.Equal(t, 7, cfg.Index)
	assert.Equal(t, int64(100), cfg.MinPartSize)
	assert.Equal(t, "minio", cfg.Backend)
	assert.Equal(t, "http://localhost:9000", cfg.Endpoint)
	assert.True(t, cfg.PathStyle)
	assert.True(t, cfg.AbortOnFailure)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("S3CONCAT_BUCKET", "env-bucket")
	t.Setenv("S3CONCAT_MIN_PART_SIZE", "42")
	t.Setenv("S3CONCAT_MODE", "stat")
	t.Setenv("S3CONCAT_FOLDER", "env/")

	cfg, err := Load(newFlags(t, "--folder", "flag/"))
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Bucket)
	assert.Equal(t, int64(42), cfg.MinPartSize)
	assert.Equal(t, s3types.ModeStat, cfg.Mode)
	// A flag set on the command line wins over the environment.
	assert.Equal(t, "flag/", cfg.Folder)
}

func TestLoad_WithoutFlags(t *testing.T) {
	t.Setenv("S3CONCAT_BUCKET", "lambda-bucket")
	t.Setenv("S3CONCAT_ABORT_ON_FAILURE", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "lambda-bucket", cfg.Bucket)
	assert.True(t, cfg.AbortOnFailure)
	assert.Equal(t, "data/", cfg.Folder)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3concat.yaml")
	content := "bucket: file-bucket\nsuffix: .csv\nfilesize: 4096\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(newFlags(t, "--config", path, "--filesize", "8192"))
	require.NoError(t, err)

	assert.Equal(t, "file-bucket", cfg.Bucket)
	assert.Equal(t, ".csv", cfg.Suffix)
	assert.Equal(t, int64(8192), cfg.FileSize)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		_, err := Load(newFlags(t, "--mode", "merge"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown mode")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
		require.Error(t, err)
	})
}

func TestOptions(t *testing.T) {
	cfg := &Config{
		Bucket:      "bucket",
		Folder:      "data/",
		Output:      "out",
		Suffix:      ".json",
		FileSize:    100,
		MinPartSize: 10,
		Backend:     "s3",
		Region:      "eu-west-1",
		AccessKey:   "key",
		SecretKey:   "secret",
	}

	var resolved s3types.ClientConfig
	for _, opt := range cfg.Options(nil) {
		opt(&resolved)
	}

	assert.Equal(t, "bucket", resolved.Bucket)
	assert.Equal(t, int64(100), resolved.MaxSize)
	assert.Equal(t, int64(10), resolved.MinPartSize)
	assert.Equal(t, s3types.BackendS3, resolved.Backend)
	assert.Equal(t, "eu-west-1", resolved.Region)
	assert.Equal(t, "key", resolved.AccessKey)
	assert.Equal(t, "secret", resolved.SecretKey)
	assert.Empty(t, resolved.Endpoint)
	assert.Nil(t, resolved.Logger)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		want    string
		wantErr bool
	}{
		{name: "text", cfg: LogConfig{Level: "info", Format: "text"}, want: "msg=hello"},
		{name: "json", cfg: LogConfig{Level: "debug", Format: "json"}, want: `"msg":"hello"`},
		{name: "bad level", cfg: LogConfig{Level: "loud", Format: "text"}, wantErr: true},
		{name: "bad format", cfg: LogConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(tt.cfg, &buf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			logger.Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	assert.Empty(t, buf.String())
	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}
