package multipart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// MaxPartNumber is the highest part number a multipart upload accepts.
const MaxPartNumber int32 = 10000

// Session is one multipart upload of a single output object.
type Session struct {
	store    store.Store
	key      string
	hook     s3types.SessionHook
	logger   *slog.Logger
	uploadID string
	state    s3types.SessionState
	parts    []s3types.CompletedPart
}

// Option configures a Session.
type Option func(*Session)

// WithHook observes every state change of the session.
func WithHook(hook s3types.SessionHook) Option {
	return func(s *Session) {
		s.hook = hook
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an uninitiated session for key.
func NewSession(st store.Store, key string, opts ...Option) *Session {
	s := &Session{
		store: st,
		key:   key,
		state: s3types.SessionUninitiated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate creates the multipart upload in the store.
func (s *Session) Initiate(ctx context.Context) error {
	if s.state != s3types.SessionUninitiated {
		return s.invalidState("initiate")
	}

	uploadID, err := s.store.CreateMultipartUpload(ctx, s.key)
	if err != nil {
		return err
	}

	s.uploadID = uploadID
	s.transition(ctx, s3types.SessionInitiated)
	return nil
}

// CopyPart copies the whole of src server-side as part partNumber.
func (s *Session) CopyPart(ctx context.Context, partNumber int32, src s3types.Part) error {
	if err := s.checkPart("copyPart", partNumber); err != nil {
		return err
	}

	etag, err := s.store.CopyPart(ctx, s.key, s.uploadID, partNumber, src.Key, src.Size)
	if err != nil {
		return err
	}

	s.record(ctx, partNumber, etag)
	return nil
}

// UploadPart uploads body as part partNumber.
func (s *Session) UploadPart(ctx context.Context, partNumber int32, body []byte) error {
	if err := s.checkPart("uploadPart", partNumber); err != nil {
		return err
	}

	etag, err := s.store.UploadPart(ctx, s.key, s.uploadID, partNumber, body)
	if err != nil {
		return err
	}

	s.record(ctx, partNumber, etag)
	return nil
}

// Complete assembles the recorded parts into the output object.
func (s *Session) Complete(ctx context.Context) error {
	if s.state != s3types.SessionPartsAssembled {
		return s.invalidState("complete")
	}
	if len(s.parts) == 0 {
		return errors.NewCodedError(errors.CodeInvalidState, "complete", errors.ErrEmptyUpload).
			WithBucket(s.store.Bucket()).
			WithKey(s.key).
			WithUpload(s.uploadID, 0)
	}

	parts := make([]s3types.CompletedPart, len(s.parts))
	copy(parts, s.parts)
	if err := s.store.CompleteMultipartUpload(ctx, s.key, s.uploadID, parts); err != nil {
		return err
	}

	s.transition(ctx, s3types.SessionCompleted)
	return nil
}

// Abort discards the upload and any parts written to it.
func (s *Session) Abort(ctx context.Context) error {
	if s.state != s3types.SessionInitiated && s.state != s3types.SessionPartsAssembled {
		return s.invalidState("abort")
	}

	if err := s.store.AbortMultipartUpload(ctx, s.key, s.uploadID); err != nil {
		return err
	}

	s.transition(ctx, s3types.SessionAborted)
	return nil
}

// Finish completes the session when it holds parts and aborts it otherwise.
// It returns the terminal state reached.
func (s *Session) Finish(ctx context.Context) (s3types.SessionState, error) {
	if len(s.parts) == 0 {
		if err := s.Abort(ctx); err != nil {
			return s.state, err
		}
		return s.state, nil
	}
	if err := s.Complete(ctx); err != nil {
		return s.state, err
	}
	return s.state, nil
}

// Info returns a snapshot of the session.
func (s *Session) Info() s3types.SessionInfo {
	parts := make([]s3types.CompletedPart, len(s.parts))
	copy(parts, s.parts)
	return s3types.SessionInfo{
		UploadID: s.uploadID,
		Bucket:   s.store.Bucket(),
		Key:      s.key,
		State:    s.state,
		Parts:    parts,
	}
}

// State returns the current state.
func (s *Session) State() s3types.SessionState {
	return s.state
}

// UploadID returns the store's upload ID, empty until initiated.
func (s *Session) UploadID() string {
	return s.uploadID
}

// Open reports whether the upload exists in the store and is not finished.
func (s *Session) Open() bool {
	return s.state == s3types.SessionInitiated || s.state == s3types.SessionPartsAssembled
}

func (s *Session) checkPart(op string, partNumber int32) error {
	if !s.Open() {
		return s.invalidState(op)
	}

	var last int32
	if n := len(s.parts); n > 0 {
		last = s.parts[n-1].PartNumber
	}
	if partNumber <= last || partNumber > MaxPartNumber {
		return errors.NewCodedError(errors.CodeInvalidInput, op,
			fmt.Errorf("%w: part number %d after %d", errors.ErrInvalidInput, partNumber, last)).
			WithBucket(s.store.Bucket()).
			WithKey(s.key).
			WithUpload(s.uploadID, partNumber)
	}
	return nil
}

func (s *Session) record(ctx context.Context, partNumber int32, etag string) {
	s.parts = append(s.parts, s3types.CompletedPart{PartNumber: partNumber, ETag: etag})
	s.transition(ctx, s3types.SessionPartsAssembled)
}

func (s *Session) transition(ctx context.Context, to s3types.SessionState) {
	from := s.state
	s.state = to

	if s.logger != nil {
		s.logger.DebugContext(ctx, "multipart session",
			"key", s.key,
			"uploadId", s.uploadID,
			"from", string(from),
			"to", string(to),
			"parts", len(s.parts),
		)
	}
	if s.hook != nil {
		s.hook(s.Info())
	}
}

func (s *Session) invalidState(op string) error {
	return errors.NewCodedError(errors.CodeInvalidState, op,
		fmt.Errorf("%w: cannot %s in state %s", errors.ErrInvalidState, op, s.state)).
		WithBucket(s.store.Bucket()).
		WithKey(s.key).
		WithUpload(s.uploadID, 0)
}
