package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Store operation names recorded by FakeStore.
const (
	OpList     = "ListObjects"
	OpCopy     = "CopyObject"
	OpCreate   = "CreateMultipartUpload"
	OpCopyPart = "CopyPart"
	OpUpload   = "UploadPart"
	OpComplete = "CompleteMultipartUpload"
	OpAbort    = "AbortMultipartUpload"
	OpDownload = "Download"
)

// Call is one recorded FakeStore operation.
type Call struct {
	Op         string
	Key        string
	SrcKey     string
	UploadID   string
	PartNumber int32
}

type fakeUpload struct {
	key   string
	parts map[int32][]byte
}

// FakeStore is an in-memory store.Store. It keeps objects in key order,
// assembles multipart uploads on completion and records every call.
type FakeStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	uploads map[string]*fakeUpload
	nextID  int
	calls   []Call

	// PageSize bounds listing pages; 0 means 1000
	PageSize int

	// MinPartSize is the smallest size allowed for any part but the last
	// on completion; 0 disables the check
	MinPartSize int64

	// Fail, when set, is consulted before every operation; a non-nil
	// return fails the operation with that error
	Fail func(op, key string) error
}

// NewFakeStore creates an empty FakeStore bound to bucket.
func NewFakeStore(bucket string) *FakeStore {
	return &FakeStore{
		bucket:  bucket,
		objects: make(map[string][]byte),
		uploads: make(map[string]*fakeUpload),
	}
}

// Put stores an object directly, bypassing call recording.
func (f *FakeStore) Put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
}

// PutSized stores an object of size bytes filled with a byte derived from key.
func (f *FakeStore) PutSized(key string, size int) []byte {
	data := bytes.Repeat([]byte{key[len(key)-1]}, size)
	f.Put(key, data)
	return data
}

// Object returns the content of key.
func (f *FakeStore) Object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

// Keys returns all object keys in order.
func (f *FakeStore) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedKeys()
}

// OpenUploads returns the IDs of multipart uploads neither completed nor aborted.
func (f *FakeStore) OpenUploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.uploads))
	for id := range f.uploads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Calls returns every recorded call.
func (f *FakeStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the recorded calls of one operation.
func (f *FakeStore) CallsFor(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// MutatingCalls returns every recorded call that changes store state.
func (f *FakeStore) MutatingCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op != OpList && c.Op != OpDownload {
			out = append(out, c)
		}
	}
	return out
}

// FailOn makes every call of op fail with err.
func (f *FakeStore) FailOn(op string, err error) {
	f.Fail = func(o, _ string) error {
		if o == op {
			return err
		}
		return nil
	}
}

// Bucket implements store.Store.
func (f *FakeStore) Bucket() string {
	return f.bucket
}

// ListObjects implements store.Store.
func (f *FakeStore) ListObjects(_ context.Context, prefix, marker string) (*store.ListPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpList, Key: prefix, SrcKey: marker})
	if err := f.fail(OpList, prefix); err != nil {
		return nil, errors.NewCodedError(errors.CodeListingFailed, "listObjects", err).WithBucket(f.bucket)
	}

	size := f.PageSize
	if size <= 0 {
		size = 1000
	}

	page := &store.ListPage{}
	for _, key := range f.sortedKeys() {
		if !strings.HasPrefix(key, prefix) || key <= marker {
			continue
		}
		if len(page.Objects) == size {
			page.IsTruncated = true
			break
		}
		page.Objects = append(page.Objects, s3types.Part{Key: key, Size: int64(len(f.objects[key]))})
	}
	return page, nil
}

// CopyObject implements store.Store.
func (f *FakeStore) CopyObject(_ context.Context, srcKey, dstKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpCopy, Key: dstKey, SrcKey: srcKey})
	if err := f.fail(OpCopy, dstKey); err != nil {
		return errors.NewCodedError(errors.CodeCopyFailed, "copyObject", err).WithBucket(f.bucket).WithKey(dstKey)
	}

	data, ok := f.objects[srcKey]
	if !ok {
		return errors.NewCodedError(errors.CodeCopyFailed, "copyObject", noSuch("NoSuchKey")).
			WithBucket(f.bucket).
			WithKey(dstKey)
	}
	f.objects[dstKey] = append([]byte(nil), data...)
	return nil
}

// CreateMultipartUpload implements store.Store.
func (f *FakeStore) CreateMultipartUpload(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpCreate, Key: key})
	if err := f.fail(OpCreate, key); err != nil {
		return "", errors.NewCodedError(errors.CodeUploadInitFailed, "createMultipartUpload", err).
			WithBucket(f.bucket).
			WithKey(key)
	}

	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.uploads[id] = &fakeUpload{key: key, parts: make(map[int32][]byte)}
	return id, nil
}

// CopyPart implements store.Store.
func (f *FakeStore) CopyPart(
	_ context.Context,
	key, uploadID string,
	partNumber int32,
	srcKey string,
	_ int64,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpCopyPart, Key: key, SrcKey: srcKey, UploadID: uploadID, PartNumber: partNumber})
	wrap := func(err error) error {
		return errors.NewCodedError(errors.CodeCopyFailed, "copyPart", err).
			WithBucket(f.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber)
	}
	if err := f.fail(OpCopyPart, srcKey); err != nil {
		return "", wrap(err)
	}

	up, ok := f.uploads[uploadID]
	if !ok {
		return "", wrap(noSuch("NoSuchUpload"))
	}
	data, ok := f.objects[srcKey]
	if !ok {
		return "", wrap(noSuch("NoSuchKey"))
	}
	up.parts[partNumber] = append([]byte(nil), data...)
	return etagOf(data), nil
}

// UploadPart implements store.Store.
func (f *FakeStore) UploadPart(
	_ context.Context,
	key, uploadID string,
	partNumber int32,
	body []byte,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpUpload, Key: key, UploadID: uploadID, PartNumber: partNumber})
	wrap := func(err error) error {
		return errors.NewCodedError(errors.CodePartUploadFailed, "uploadPart", err).
			WithBucket(f.bucket).
			WithKey(key).
			WithUpload(uploadID, partNumber)
	}
	if err := f.fail(OpUpload, key); err != nil {
		return "", wrap(err)
	}

	up, ok := f.uploads[uploadID]
	if !ok {
		return "", wrap(noSuch("NoSuchUpload"))
	}
	up.parts[partNumber] = append([]byte(nil), body...)
	return etagOf(body), nil
}

// CompleteMultipartUpload implements store.Store. Parts must be listed in
// ascending order with the ETags the store returned for them, and only the
// last may be smaller than MinPartSize.
func (f *FakeStore) CompleteMultipartUpload(
	_ context.Context,
	key, uploadID string,
	parts []s3types.CompletedPart,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpComplete, Key: key, UploadID: uploadID})
	wrap := func(err error) error {
		return errors.NewCodedError(errors.CodeCompletionFailed, "completeMultipartUpload", err).
			WithBucket(f.bucket).
			WithKey(key).
			WithUpload(uploadID, 0)
	}
	if err := f.fail(OpComplete, key); err != nil {
		return wrap(err)
	}

	up, ok := f.uploads[uploadID]
	if !ok {
		return wrap(noSuch("NoSuchUpload"))
	}
	if len(parts) == 0 {
		return wrap(&smithy.GenericAPIError{Code: "MalformedXML", Message: "no parts"})
	}

	var buf bytes.Buffer
	var last int32
	for i, p := range parts {
		data, ok := up.parts[p.PartNumber]
		if !ok || p.PartNumber <= last || etagOf(data) != p.ETag {
			return wrap(&smithy.GenericAPIError{Code: "InvalidPart", Message: fmt.Sprintf("part %d", p.PartNumber)})
		}
		if i < len(parts)-1 && int64(len(data)) < f.MinPartSize {
			return wrap(&smithy.GenericAPIError{
				Code:    "EntityTooSmall",
				Message: fmt.Sprintf("part %d is %d bytes", p.PartNumber, len(data)),
			})
		}
		last = p.PartNumber
		buf.Write(data)
	}
	f.objects[up.key] = buf.Bytes()
	delete(f.uploads, uploadID)
	return nil
}

// AbortMultipartUpload implements store.Store.
func (f *FakeStore) AbortMultipartUpload(_ context.Context, key, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpAbort, Key: key, UploadID: uploadID})
	wrap := func(err error) error {
		return errors.NewCodedError(errors.CodeAbortFailed, "abortMultipartUpload", err).
			WithBucket(f.bucket).
			WithKey(key).
			WithUpload(uploadID, 0)
	}
	if err := f.fail(OpAbort, key); err != nil {
		return wrap(err)
	}
	if _, ok := f.uploads[uploadID]; !ok {
		return wrap(noSuch("NoSuchUpload"))
	}
	delete(f.uploads, uploadID)
	return nil
}

// Download implements store.Store.
func (f *FakeStore) Download(_ context.Context, key string, w io.WriterAt) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: OpDownload, Key: key})
	err := f.fail(OpDownload, key)
	data, ok := f.objects[key]
	f.mu.Unlock()

	wrap := func(err error) error {
		return errors.NewCodedError(errors.CodeDownloadFailed, "download", err).
			WithBucket(f.bucket).
			WithKey(key)
	}
	if err != nil {
		return 0, wrap(err)
	}
	if !ok {
		return 0, wrap(noSuch("NoSuchKey"))
	}
	n, err := w.WriteAt(data, 0)
	if err != nil {
		return int64(n), wrap(err)
	}
	return int64(n), nil
}

func (f *FakeStore) fail(op, key string) error {
	if f.Fail == nil {
		return nil
	}
	return f.Fail(op, key)
}

func (f *FakeStore) sortedKeys() []string {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func noSuch(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "not found"}
}

func etagOf(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// Verify that FakeStore implements store.Store
var _ store.Store = (*FakeStore)(nil)
