// Command s3concat-lambda runs one concatenation per invocation. Fan out by
// invoking it once per group index; configuration comes from S3CONCAT_
// environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Event is the invocation payload.
type Event struct {
	Index int    `json:"index"`
	Mode  string `json:"mode,omitempty"`
}

// runner runs one concatenation; tests replace it.
type runner func(ctx context.Context, mode s3types.Mode, index int) (*s3types.Report, error)

// handler resolves the event mode and delegates to newRunner.
type handler struct {
	newRunner func(cfg *config.Config) (runner, error)
}

func (h *handler) Handle(ctx context.Context, event Event) (*s3types.Report, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}

	mode := s3types.ModeSingle
	if event.Mode != "" {
		if mode, err = s3types.ParseMode(event.Mode); err != nil {
			return nil, err
		}
	}
	if mode == s3types.ModeFull {
		return nil, fmt.Errorf("mode %q is not supported per invocation; invoke single once per index", mode)
	}

	run, err := h.newRunner(cfg)
	if err != nil {
		return nil, err
	}
	return run(ctx, mode, event.Index)
}

// newClientRunner builds a fresh client per invocation.
func newClientRunner(cfg *config.Config) (runner, error) {
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	client, err := s3concat.New(cfg.Options(logger)...)
	if err != nil {
		return nil, err
	}
	return client.Run, nil
}

func main() {
	h := &handler{newRunner: newClientRunner}
	lambda.Start(h.Handle)
}
