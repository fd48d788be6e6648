package assemble

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Config holds assembly settings.
type Config struct {
	// MinPartSize is the size above which a part is copied server-side
	MinPartSize int64

	// AbortOnFailure aborts the multipart upload when assembly fails after it was created
	AbortOnFailure bool

	// SessionHook observes multipart session transitions
	SessionHook s3types.SessionHook
}

// Assembler writes groups of parts as output objects.
type Assembler struct {
	store  store.Store
	stager *Stager
	config Config
	logger *slog.Logger
}

// New creates a new Assembler staging small parts in staging.
func New(st store.Store, staging billy.Filesystem, config Config, logger *slog.Logger) *Assembler {
	if config.MinPartSize <= 0 {
		config.MinPartSize = s3types.DefaultMinPartSize
	}
	return &Assembler{
		store:  st,
		stager: NewStager(st, staging, logger),
		config: config,
		logger: logger,
	}
}

// Assemble writes group to dstKey.
func (a *Assembler) Assemble(ctx context.Context, group s3types.PartGroup, dstKey string) (*s3types.GroupResult, error) {
	start := time.Now()
	result := &s3types.GroupResult{
		Index: group.Index,
		Key:   dstKey,
		Size:  group.Size(),
	}

	switch group.Len() {
	case 0:
		result.Strategy = s3types.StrategyNone
		a.info(ctx, "empty group, nothing written", "index", group.Index, "key", dstKey)

	case 1:
		src := group.Parts[0]
		a.info(ctx, "copying single part", "index", group.Index, "src", src.Key, "key", dstKey)
		if err := a.store.CopyObject(ctx, src.Key, dstKey); err != nil {
			return nil, fmt.Errorf("assemble group %d: %w", group.Index, err)
		}
		result.Strategy = s3types.StrategyCopy
		result.RemoteParts = 1

	default:
		if err := a.multipart(ctx, group, dstKey, result); err != nil {
			return nil, fmt.Errorf("assemble group %d: %w", group.Index, err)
		}
		result.Strategy = s3types.StrategyMultipart
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (a *Assembler) multipart(ctx context.Context, group s3types.PartGroup, dstKey string, result *s3types.GroupResult) error {
	classified := Classify(group.Parts, a.config.MinPartSize)
	remote, small := Split(classified)
	result.RemoteParts = len(remote)
	result.SmallParts = len(small)

	if Interleaved(classified) && a.logger != nil {
		a.logger.WarnContext(ctx, "small parts precede large parts; merged small parts will be written last",
			"index", group.Index,
			"key", dstKey,
		)
	}

	session := multipart.NewSession(a.store, dstKey,
		multipart.WithHook(a.config.SessionHook),
		multipart.WithLogger(a.logger),
	)
	if err := session.Initiate(ctx); err != nil {
		return err
	}
	a.info(ctx, "multipart upload started",
		"index", group.Index,
		"key", dstKey,
		"uploadId", session.UploadID(),
		"remoteParts", len(remote),
		"smallParts", len(small),
	)

	if err := a.writeParts(ctx, session, remote, small); err != nil {
		return a.fail(ctx, session, err)
	}

	state, err := session.Finish(ctx)
	if err != nil {
		return a.fail(ctx, session, err)
	}

	info := session.Info()
	result.Session = &info
	a.info(ctx, "multipart upload finished",
		"index", group.Index,
		"key", dstKey,
		"uploadId", info.UploadID,
		"state", string(state),
		"parts", len(info.Parts),
	)
	return nil
}

// writeParts copies remote parts as parts 1..n and uploads the merged small
// parts as part n+1.
func (a *Assembler) writeParts(ctx context.Context, session *multipart.Session, remote, small []s3types.Part) error {
	var partNumber int32
	for _, p := range remote {
		partNumber++
		if err := session.CopyPart(ctx, partNumber, p); err != nil {
			return err
		}
		a.debug(ctx, "copied part", "src", p.Key, "part", partNumber, "size", p.Size)
	}

	if len(small) == 0 {
		return nil
	}

	body, err := a.merge(ctx, small)
	if err != nil {
		return err
	}

	partNumber++
	if err := session.UploadPart(ctx, partNumber, body); err != nil {
		return err
	}
	a.debug(ctx, "uploaded merged part", "parts", len(small), "part", partNumber, "size", len(body))
	return nil
}

// merge fetches small parts in order and concatenates them.
func (a *Assembler) merge(ctx context.Context, small []s3types.Part) ([]byte, error) {
	var total int64
	for _, p := range small {
		total += p.Size
	}

	var buf bytes.Buffer
	buf.Grow(int(total))
	for _, p := range small {
		data, err := a.stager.Fetch(ctx, p)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// fail aborts the session when configured to and returns cause, joined with
// any abort error. A session that stays open has its upload ID recorded in
// the returned error.
func (a *Assembler) fail(ctx context.Context, session *multipart.Session, cause error) error {
	if a.config.AbortOnFailure && session.Open() {
		if err := session.Abort(ctx); err != nil {
			return stderrors.Join(withUploadID(cause, session), err)
		}
		a.info(ctx, "multipart upload aborted", "uploadId", session.UploadID())
		return cause
	}

	if !session.Open() {
		return cause
	}
	if a.logger != nil {
		a.logger.WarnContext(ctx, "multipart upload left open",
			"key", session.Info().Key,
			"uploadId", session.UploadID(),
		)
	}
	return withUploadID(cause, session)
}

// withUploadID records the session's upload ID on the first Error in cause,
// or wraps cause when it carries none.
func withUploadID(cause error, session *multipart.Session) error {
	if _, ok := errors.UploadIDOf(cause); ok {
		return cause
	}
	var e *errors.Error
	if stderrors.As(cause, &e) {
		e.UploadID = session.UploadID()
		return cause
	}
	return errors.NewError("multipartUpload", cause).
		WithKey(session.Info().Key).
		WithUpload(session.UploadID(), 0)
}

func (a *Assembler) info(ctx context.Context, msg string, args ...any) {
	if a.logger != nil {
		a.logger.InfoContext(ctx, msg, args...)
	}
}

func (a *Assembler) debug(ctx context.Context, msg string, args ...any) {
	if a.logger != nil {
		a.logger.DebugContext(ctx, msg, args...)
	}
}
