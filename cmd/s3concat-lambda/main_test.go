package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

type recorded struct {
	cfg   *config.Config
	mode  s3types.Mode
	index int
}

func recordingHandler(rec *recorded) *handler {
	return &handler{newRunner: func(cfg *config.Config) (runner, error) {
		rec.cfg = cfg
		return func(_ context.Context, mode s3types.Mode, index int) (*s3types.Report, error) {
			rec.mode = mode
			rec.index = index
			return &s3types.Report{Mode: mode}, nil
		}, nil
	}}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantMode  s3types.Mode
		wantIndex int
	}{
		{"defaults to single", `{"index": 4}`, s3types.ModeSingle, 4},
		{"stat", `{"index": 0, "mode": "stat"}`, s3types.ModeStat, 0},
		{"explicit single", `{"index": 9, "mode": "single"}`, s3types.ModeSingle, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("S3CONCAT_BUCKET", "lambda-bucket")

			var event Event
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &event))

			rec := &recorded{}
			report, err := recordingHandler(rec).Handle(context.Background(), event)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMode, report.Mode)
			assert.Equal(t, tt.wantMode, rec.mode)
			assert.Equal(t, tt.wantIndex, rec.index)
			assert.Equal(t, "lambda-bucket", rec.cfg.Bucket)
		})
	}
}

func TestHandle_RejectedModes(t *testing.T) {
	for _, mode := range []string{"merge", "full"} {
		rec := &recorded{}
		_, err := recordingHandler(rec).Handle(context.Background(), Event{Mode: mode})
		require.Error(t, err)
		assert.Nil(t, rec.cfg)
	}
}

func TestNewClientRunner_InvalidConfig(t *testing.T) {
	_, err := newClientRunner(&config.Config{Log: config.LogConfig{Level: "info", Format: "text"}})
	require.Error(t, err)
}
