package assemble

import (
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// Kind tells how a part enters a multipart upload.
type Kind int

const (
	// Remote parts are copied server-side as their own part
	Remote Kind = iota

	// Small parts are too small to be a part and are merged locally
	Small
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "small"
}

// ClassifiedPart is a part tagged with its Kind.
type ClassifiedPart struct {
	s3types.Part
	Kind Kind
}

// Classify tags every part in order. A part is Remote when its size is
// strictly greater than minPartSize.
func Classify(parts []s3types.Part, minPartSize int64) []ClassifiedPart {
	out := make([]ClassifiedPart, len(parts))
	for i, p := range parts {
		kind := Small
		if p.Size > minPartSize {
			kind = Remote
		}
		out[i] = ClassifiedPart{Part: p, Kind: kind}
	}
	return out
}

// Split returns the remote and small parts, each in original order.
func Split(classified []ClassifiedPart) (remote, small []s3types.Part) {
	for _, c := range classified {
		if c.Kind == Remote {
			remote = append(remote, c.Part)
		} else {
			small = append(small, c.Part)
		}
	}
	return remote, small
}

// Interleaved reports whether a small part precedes a remote part, in which
// case the assembled output does not keep the listing order.
func Interleaved(classified []ClassifiedPart) bool {
	seenSmall := false
	for _, c := range classified {
		switch {
		case c.Kind == Small:
			seenSmall = true
		case seenSmall:
			return true
		}
	}
	return false
}
