package shuffle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketCount(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		maxOutput int64
		want      int
	}{
		{"empty input", 0, 100 << 20, 1},
		{"tiny input", 10, 100 << 20, 1},
		{"exact fit", 100, 100, 1},
		{"one over", 101, 100, 2},
		{"many buckets", 1000, 100, 10},
		{"rounds up", 1001, 100, 11},
		{"zero ceiling", 1000, 0, 1},
		{"negative total", -5, 100, 1},
		{"clamps to int range", math.MaxInt64, 1, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketCount(tt.total, tt.maxOutput))
		})
	}
}

func TestBucketCountLowerBound(t *testing.T) {
	for _, total := range []int64{0, 1, 1 << 10, 1 << 30} {
		assert.GreaterOrEqual(t, BucketCount(total, 100<<20), 1)
	}
}
