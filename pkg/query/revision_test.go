package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareRevisions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"10", "9", 1},
		{"9", "10", -1},
		{"2022-01-01", "2020-02-20", 1},
		{"2020-02-20", "2020-02-20", 0},
		{"2020-2-3", "2020-02-03", 0},
		{"2020-02-20", "2020-02-3", 1},
		{"1.10", "1.9", 1},
		{"v2", "v10", -1},
		{"2020-01-01", "2020-01-01a", -1},
		{"abc", "abd", -1},
		{"", "1", -1},
		{"", "", 0},
		{"1a", "a1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareRevisions(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareRevisions(tt.b, tt.a))
		})
	}
}

func TestSortByRevision(t *testing.T) {
	type rev struct {
		revision string
		seq      int
	}
	items := []rev{
		{"2019-01-04", 0},
		{"2022-01-01", 1},
		{"9", 2},
		{"2020-02-20", 3},
		{"10", 4},
		{"2022-01-01", 5},
	}

	SortByRevision(items, func(r rev) string { return r.revision })

	assert.Equal(t, []rev{
		{"2022-01-01", 1},
		{"2022-01-01", 5},
		{"2020-02-20", 3},
		{"2019-01-04", 0},
		{"10", 4},
		{"9", 2},
	}, items)
}
