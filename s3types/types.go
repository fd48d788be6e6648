// Package s3types provides shared type definitions for the concatenation module.
package s3types

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
)

// DefaultMinPartSize is the size above which a source object is copied
// server-side as its own multipart part. S3 requires every part but the last
// to be at least 5MiB; the margin keeps clear of that limit.
const DefaultMinPartSize int64 = 5500000

// DefaultMaxSize is the default target size of an output object (1GiB).
const DefaultMaxSize int64 = 1 << 30

// Part is one source object.
type Part struct {
	// Key is the object key
	Key string

	// Size is the object size in bytes
	Size int64
}

// PartGroup is an ordered run of parts that becomes one output object.
type PartGroup struct {
	// Index is the zero-based position of the group in the grouping
	Index int

	// Parts keeps the order in which the lister returned them
	Parts []Part
}

// Size returns the combined size of the parts in the group.
func (g PartGroup) Size() int64 {
	var total int64
	for _, p := range g.Parts {
		total += p.Size
	}
	return total
}

// Len returns the number of parts in the group.
func (g PartGroup) Len() int {
	return len(g.Parts)
}

// Mode selects what a run does.
type Mode string

// Run modes
const (
	// ModeStat lists and groups only, without touching the store
	ModeStat Mode = "stat"

	// ModeFull assembles every group in index order
	ModeFull Mode = "full"

	// ModeSingle assembles exactly one group selected by index
	ModeSingle Mode = "single"
)

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStat, ModeFull, ModeSingle:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want stat, full or single)", s)
	}
}

// Strategy describes how a group was assembled.
type Strategy string

// Assembly strategies
const (
	// StrategyNone means the group was empty and nothing was written
	StrategyNone Strategy = "none"

	// StrategyCopy means the single part was copied server-side
	StrategyCopy Strategy = "copy"

	// StrategyMultipart means the group went through a multipart upload
	StrategyMultipart Strategy = "multipart"
)

// SessionState is a state of the multipart upload lifecycle.
type SessionState string

// Multipart session states
const (
	SessionUninitiated    SessionState = "uninitiated"
	SessionInitiated      SessionState = "initiated"
	SessionPartsAssembled SessionState = "parts_assembled"
	SessionCompleted      SessionState = "completed"
	SessionAborted        SessionState = "aborted"
)

// CompletedPart records one part of a multipart upload.
type CompletedPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// SessionInfo is a snapshot of a multipart upload session.
type SessionInfo struct {
	UploadID string          `json:"uploadId,omitempty"`
	Bucket   string          `json:"bucket"`
	Key      string          `json:"key"`
	State    SessionState    `json:"state"`
	Parts    []CompletedPart `json:"parts,omitempty"`
}

// SessionHook receives a snapshot on every session state change.
type SessionHook func(SessionInfo)

// GroupStat summarises one group for stat mode.
type GroupStat struct {
	Index     int   `json:"index"`
	PartCount int   `json:"partCount"`
	Size      int64 `json:"size"`
}

// Stats is the result of listing and grouping.
type Stats struct {
	PartCount int         `json:"partCount"`
	TotalSize int64       `json:"totalSize"`
	Groups    []GroupStat `json:"groups"`
}

// GroupResult describes one assembled output object.
type GroupResult struct {
	Index       int           `json:"index"`
	Key         string        `json:"key"`
	Strategy    Strategy      `json:"strategy"`
	RemoteParts int           `json:"remoteParts"`
	SmallParts  int           `json:"smallParts"`
	Size        int64         `json:"size"`
	Session     *SessionInfo  `json:"session,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Report is the outcome of a run in any mode.
type Report struct {
	RunID    string         `json:"runId"`
	Mode     Mode           `json:"mode"`
	Stats    *Stats         `json:"stats"`
	Results  []*GroupResult `json:"results,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Backend selects the object store implementation.
type Backend string

// Supported backends
const (
	BackendS3    Backend = "s3"
	BackendMinIO Backend = "minio"
)

// ClientConfig holds configuration for a concatenation client.
type ClientConfig struct {
	// Bucket holds both the source objects and the outputs
	Bucket string

	// Folder is the prefix whose objects are concatenated
	Folder string

	// Output is the key prefix of the output objects; group i is written to Output-i
	Output string

	// Suffix restricts the source objects to keys ending in it
	Suffix string

	// MaxSize is the soft ceiling of an output object in bytes
	MaxSize int64

	// MinPartSize is the size above which a part is copied server-side
	MinPartSize int64

	// AbortOnFailure aborts a multipart upload when assembly fails after it was created
	AbortOnFailure bool

	// Backend selects the object store implementation
	Backend Backend

	// Region is the store region
	Region string

	// Endpoint overrides the store endpoint (LocalStack, MinIO)
	Endpoint string

	// AccessKey and SecretKey set static credentials; the default chain is used otherwise
	AccessKey string
	SecretKey string

	// ForcePathStyle uses path-style addressing
	ForcePathStyle bool

	// DisableSSL talks plain HTTP to the endpoint
	DisableSSL bool

	// MaxRetries is the SDK attempt count; 1 disables retries
	MaxRetries int

	// Timeout bounds individual HTTP requests; 0 means none
	Timeout time.Duration

	// CustomAWSConfig replaces default AWS configuration loading
	CustomAWSConfig *aws.Config

	// CustomHTTPClient replaces the SDK HTTP client
	CustomHTTPClient *http.Client

	// StagingDir is where too-small parts are downloaded before merging
	StagingDir string

	// Staging replaces the staging filesystem (tests use memfs)
	Staging billy.Filesystem

	// Logger receives structured logs; nil disables logging
	Logger *slog.Logger

	// SessionHook observes multipart session transitions
	SessionHook SessionHook
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)
