package s3concat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/operations/assemble"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/operations/group"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Stat lists and groups the source parts without writing anything.
func (c *Client) Stat(ctx context.Context) (*s3types.Stats, error) {
	report, err := c.Run(ctx, s3types.ModeStat, 0)
	if err != nil {
		return nil, err
	}
	return report.Stats, nil
}

// Full assembles every group in index order. It stops at the first failed
// group and returns the results of the groups written before it along with
// the error.
func (c *Client) Full(ctx context.Context) ([]*s3types.GroupResult, error) {
	report, err := c.Run(ctx, s3types.ModeFull, 0)
	return report.Results, err
}

// Single assembles only the group at index. Listing and grouping are
// deterministic for an unchanged folder, so a failed index can be rerun.
func (c *Client) Single(ctx context.Context, index int) (*s3types.GroupResult, error) {
	report, err := c.Run(ctx, s3types.ModeSingle, index)
	if err != nil {
		return nil, err
	}
	return report.Results[0], nil
}

// Run executes one run in mode. index is only used by single mode.
// The returned report is never nil; on failure it holds whatever completed.
func (c *Client) Run(ctx context.Context, mode s3types.Mode, index int) (*s3types.Report, error) {
	start := time.Now()
	report := &s3types.Report{
		RunID: uuid.NewString(),
		Mode:  mode,
	}

	logger := c.config.Logger
	if logger != nil {
		logger = logger.With("runId", report.RunID)
		logger.InfoContext(ctx, "starting concatenation",
			"mode", string(mode),
			"bucket", c.store.Bucket(),
			"folder", c.config.Folder,
			"suffix", c.config.Suffix,
			"output", c.config.Output,
			"maxSize", c.config.MaxSize,
		)
	}

	err := c.run(ctx, logger, report, index)
	report.Duration = time.Since(start)

	if logger != nil {
		if err != nil {
			logger.ErrorContext(ctx, "concatenation failed",
				"error", err,
				"code", string(errors.CodeOf(err)),
				"elapsed", report.Duration,
			)
		} else {
			logger.InfoContext(ctx, "concatenation finished",
				"groups", len(report.Results),
				"elapsed", report.Duration,
			)
		}
	}
	return report, err
}

func (c *Client) run(ctx context.Context, logger *slog.Logger, report *s3types.Report, index int) error {
	switch report.Mode {
	case s3types.ModeStat, s3types.ModeFull, s3types.ModeSingle:
	default:
		return errors.NewCodedError(errors.CodeInvalidInput, "run", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown mode %q", report.Mode))
	}

	parts, err := list.New(c.store, logger).ListParts(ctx, c.config.Folder, c.config.Suffix)
	if err != nil {
		return err
	}

	groups := group.BySize(parts, c.config.MaxSize)
	report.Stats = group.Stats(parts, groups)
	if logger != nil {
		logger.InfoContext(ctx, "grouped parts",
			"parts", report.Stats.PartCount,
			"totalSize", report.Stats.TotalSize,
			"groups", len(groups),
		)
	}

	if report.Mode == s3types.ModeStat {
		return nil
	}

	if report.Mode == s3types.ModeSingle {
		if index < 0 || index >= len(groups) {
			return errors.NewCodedError(errors.CodeIndexOutOfRange, "single", errors.ErrIndexOutOfRange).
				WithBucket(c.store.Bucket()).
				WithMessage(fmt.Sprintf("index %d, %d groups", index, len(groups)))
		}
		groups = groups[index : index+1]
	}

	assembler := c.assembler(logger)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := assembler.Assemble(ctx, g, c.OutputKey(g.Index))
		if err != nil {
			return err
		}
		report.Results = append(report.Results, result)

		if logger != nil {
			logger.InfoContext(ctx, "group written",
				"index", result.Index,
				"key", result.Key,
				"strategy", string(result.Strategy),
				"size", result.Size,
				"elapsed", result.Duration,
			)
		}
	}
	return nil
}

func (c *Client) assembler(logger *slog.Logger) *assemble.Assembler {
	return assemble.New(c.store, c.staging, assemble.Config{
		MinPartSize:    c.config.MinPartSize,
		AbortOnFailure: c.config.AbortOnFailure,
		SessionHook:    c.config.SessionHook,
	}, logger)
}

// OutputKey returns the key group index is written to.
func (c *Client) OutputKey(index int) string {
	return fmt.Sprintf("%s-%d", c.config.Output, index)
}
