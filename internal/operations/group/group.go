// Package group splits an ordered list of parts into size-bounded groups.
package group

import (
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

// BySize groups parts greedily in a single pass. A part is appended to the
// current group before the size check, so a group may exceed maxSize by at
// most its last part; a part larger than maxSize closes a group on its own.
// Groups are indexed from zero and keep the order of parts.
//
// maxSize must be positive.
func BySize(parts []s3types.Part, maxSize int64) []s3types.PartGroup {
	var (
		groups  []s3types.PartGroup
		current []s3types.Part
		total   int64
	)

	for _, p := range parts {
		current = append(current, p)
		total += p.Size
		if total > maxSize {
			groups = append(groups, s3types.PartGroup{Index: len(groups), Parts: current})
			current = nil
			total = 0
		}
	}
	if len(current) > 0 {
		groups = append(groups, s3types.PartGroup{Index: len(groups), Parts: current})
	}

	return groups
}

// Stats summarises parts and their grouping.
func Stats(parts []s3types.Part, groups []s3types.PartGroup) *s3types.Stats {
	stats := &s3types.Stats{
		PartCount: len(parts),
		Groups:    make([]s3types.GroupStat, 0, len(groups)),
	}
	for _, p := range parts {
		stats.TotalSize += p.Size
	}
	for _, g := range groups {
		stats.Groups = append(stats.Groups, s3types.GroupStat{
			Index:     g.Index,
			PartCount: g.Len(),
			Size:      g.Size(),
		})
	}
	return stats
}
