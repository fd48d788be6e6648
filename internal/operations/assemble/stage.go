package assemble

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

var keySanitizer = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

// Stager downloads small parts through a staging filesystem.
type Stager struct {
	store  store.Store
	fs     billy.Filesystem
	logger *slog.Logger
}

// NewStager creates a Stager writing temp files into fs.
func NewStager(st store.Store, fs billy.Filesystem, logger *slog.Logger) *Stager {
	return &Stager{store: st, fs: fs, logger: logger}
}

// Fetch downloads part into a temp file, reads it back and removes the file.
// The temp file is removed whether or not the download succeeds.
func (s *Stager) Fetch(ctx context.Context, part s3types.Part) (data []byte, err error) {
	name := stagingName(part.Key)

	f, err := s.fs.Create(name)
	if err != nil {
		return nil, s.localErr(part.Key, fmt.Errorf("billy: create %q: %w", name, err))
	}
	defer func() {
		if rmErr := s.fs.Remove(name); rmErr != nil {
			if err == nil {
				data = nil
				err = s.localErr(part.Key, fmt.Errorf("billy: remove %q: %w", name, rmErr))
				return
			}
			if s.logger != nil {
				s.logger.WarnContext(ctx, "failed to remove staged part", "file", name, "error", rmErr)
			}
		}
	}()

	n, dlErr := s.store.Download(ctx, part.Key, newFileWriterAt(f))
	if closeErr := f.Close(); closeErr != nil && dlErr == nil {
		return nil, s.localErr(part.Key, fmt.Errorf("billy: close %q: %w", name, closeErr))
	}
	if dlErr != nil {
		return nil, dlErr
	}

	data, err = util.ReadFile(s.fs, name)
	if err != nil {
		return nil, s.localErr(part.Key, fmt.Errorf("billy: readfile %q: %w", name, err))
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "staged part", "key", part.Key, "bytes", n, "file", name)
	}
	return data, nil
}

func (s *Stager) localErr(key string, err error) error {
	return errors.NewCodedError(errors.CodeLocalIOFailed, "stage", err).
		WithBucket(s.store.Bucket()).
		WithKey(key)
}

// stagingName returns a unique flat file name for key.
func stagingName(key string) string {
	return uuid.NewString() + "-" + keySanitizer.Replace(key)
}

// fileWriterAt adapts a billy.File to io.WriterAt.
type fileWriterAt struct {
	mu sync.Mutex
	f  billy.File
}

func newFileWriterAt(f billy.File) io.WriterAt {
	if wa, ok := f.(io.WriterAt); ok {
		return wa
	}
	return &fileWriterAt{f: f}
}

// WriteAt implements io.WriterAt.
func (w *fileWriterAt) WriteAt(p []byte, off int64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return w.f.Write(p)
}
