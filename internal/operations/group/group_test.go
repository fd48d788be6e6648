package group

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3concat/s3types"
)

const mb = 1000 * 1000

func parts(sizes ...int64) []s3types.Part {
	out := make([]s3types.Part, len(sizes))
	for i, s := range sizes {
		out[i] = s3types.Part{Key: fmt.Sprintf("p%d", i), Size: s}
	}
	return out
}

func keys(g s3types.PartGroup) []string {
	out := make([]string, 0, g.Len())
	for _, p := range g.Parts {
		out = append(out, p.Key)
	}
	return out
}

func TestBySize(t *testing.T) {
	tests := []struct {
		name    string
		parts   []s3types.Part
		maxSize int64
		want    [][]string
	}{
		{
			name:    "no parts",
			parts:   nil,
			maxSize: 10,
			want:    nil,
		},
		{
			name:    "everything fits in one group",
			parts:   parts(1, 2, 3),
			maxSize: 10,
			want:    [][]string{{"p0", "p1", "p2"}},
		},
		{
			name:    "group closes after the part that crosses the ceiling",
			parts:   parts(10*mb, 10*mb, 1*mb),
			maxSize: 15 * mb,
			want:    [][]string{{"p0", "p1"}, {"p2"}},
		},
		{
			name:    "reaching the ceiling exactly keeps the group open",
			parts:   parts(5, 5, 1),
			maxSize: 10,
			want:    [][]string{{"p0", "p1", "p2"}},
		},
		{
			name:    "oversized part forms its own group",
			parts:   parts(1, 50, 1),
			maxSize: 10,
			want:    [][]string{{"p0", "p1"}, {"p2"}},
		},
		{
			name:    "oversized first part",
			parts:   parts(50, 1, 1),
			maxSize: 10,
			want:    [][]string{{"p0"}, {"p1", "p2"}},
		},
		{
			name:    "zero sized parts stay together",
			parts:   parts(0, 0, 0),
			maxSize: 1,
			want:    [][]string{{"p0", "p1", "p2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := BySize(tt.parts, tt.maxSize)
			require.Len(t, groups, len(tt.want))
			for i, g := range groups {
				assert.Equal(t, i, g.Index)
				assert.Equal(t, tt.want[i], keys(g))
			}
		})
	}
}

func TestBySize_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		n := rng.Intn(60)
		sizes := make([]int64, n)
		for i := range sizes {
			sizes[i] = rng.Int63n(20 * mb)
		}
		in := parts(sizes...)
		maxSize := 1 + rng.Int63n(40*mb)

		groups := BySize(in, maxSize)

		// Concatenating the groups gives back the input in order.
		var flat []s3types.Part
		for i, g := range groups {
			require.NotEmpty(t, g.Parts, "run %d: empty group", run)
			assert.Equal(t, i, g.Index)
			flat = append(flat, g.Parts...)

			// Without its last part, every group is within the ceiling.
			last := g.Parts[g.Len()-1]
			assert.LessOrEqual(t, g.Size()-last.Size, maxSize, "run %d group %d", run, i)

			// Every group but the last went over the ceiling.
			if i < len(groups)-1 {
				assert.Greater(t, g.Size(), maxSize, "run %d group %d", run, i)
			}
		}
		if n == 0 {
			assert.Empty(t, groups)
		} else {
			assert.Equal(t, in, flat, "run %d", run)
		}

		// Deterministic.
		assert.Equal(t, groups, BySize(in, maxSize))
	}
}

func TestStats(t *testing.T) {
	in := parts(10*mb, 10*mb, 1*mb)
	stats := Stats(in, BySize(in, 15*mb))

	assert.Equal(t, 3, stats.PartCount)
	assert.Equal(t, int64(21*mb), stats.TotalSize)
	assert.Equal(t, []s3types.GroupStat{
		{Index: 0, PartCount: 2, Size: 20 * mb},
		{Index: 1, PartCount: 1, Size: 1 * mb},
	}, stats.Groups)
}
