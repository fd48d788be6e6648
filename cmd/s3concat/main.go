// Command s3concat concatenates the objects under a bucket folder into a few
// large output objects.
//
// Usage:
//
//	s3concat --bucket my-bucket --folder data/ --mode stat
//	s3concat --bucket my-bucket --mode single --index 3
//
// Every flag can also be set through an S3CONCAT_ environment variable,
// e.g. S3CONCAT_MIN_PART_SIZE, or a --config file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "s3concat: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("s3concat", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}

	client, err := s3concat.New(cfg.Options(logger)...)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	report, err := client.Run(ctx, cfg.Mode, cfg.Index)
	printReport(stdout, report)
	if err != nil {
		if id, ok := errors.UploadIDOf(err); ok {
			logger.ErrorContext(ctx, "run failed with an open multipart upload",
				"uploadId", id,
				"code", string(errors.CodeOf(err)),
			)
		}
		return err
	}
	return nil
}

func printReport(w io.Writer, report *s3types.Report) {
	if report == nil || report.Stats == nil {
		return
	}

	if report.Mode == s3types.ModeStat {
		fmt.Fprintf(w, "%d parts, %d bytes, %d groups\n",
			report.Stats.PartCount, report.Stats.TotalSize, len(report.Stats.Groups))
		for _, g := range report.Stats.Groups {
			fmt.Fprintf(w, "group %d: %d parts, %d bytes\n", g.Index, g.PartCount, g.Size)
		}
		return
	}

	for _, r := range report.Results {
		fmt.Fprintf(w, "group %d -> %s: %s, %d bytes (%d copied, %d merged) in %s\n",
			r.Index, r.Key, r.Strategy, r.Size, r.RemoteParts, r.SmallParts, r.Duration)
	}
}
