package opt_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

func TestNonDominatedSort(t *testing.T) {
	values := []fjsp.Objectives{
		{1, 5, 1, 1}, // 0: front 0
		{2, 6, 2, 2}, // 1: dominated by 0
		{5, 1, 1, 1}, // 2: front 0
		{3, 7, 3, 3}, // 3: dominated by 0 and 1
		{1, 5, 1, 1}, // 4: equal to 0, front 0
	}
	assert.Equal(t, [][]int{{0, 2, 4}, {1}, {3}}, opt.NonDominatedSort(values))
	assert.Empty(t, opt.NonDominatedSort(nil))
}

func TestNonDominatedSort_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := make([]fjsp.Objectives, 120)
	for i := range values {
		for k := range values[i] {
			values[i][k] = float64(rng.Intn(10))
		}
	}
	fronts := opt.NonDominatedSort(values)

	seen := make(map[int]int)
	for r, front := range fronts {
		for _, i := range front {
			seen[i] = r
		}
		for _, i := range front {
			for _, j := range front {
				assert.False(t, fjsp.Dominates(values[i], values[j]))
			}
		}
	}
	require.Len(t, seen, len(values))

	// Every member of front r>0 is dominated by some member of front r-1.
	for r := 1; r < len(fronts); r++ {
		for _, j := range fronts[r] {
			dominated := false
			for _, i := range fronts[r-1] {
				dominated = dominated || fjsp.Dominates(values[i], values[j])
			}
			assert.True(t, dominated, "index %d in front %d", j, r)
		}
	}
}

func TestCrowdingDistance(t *testing.T) {
	d := opt.CrowdingDistance([]fjsp.Objectives{{0, 4, 0, 0}, {1, 3, 0, 0}, {2, 2, 0, 0}, {4, 0, 0, 0}})
	require.Len(t, d, 4)
	assert.True(t, math.IsInf(d[0], 1))
	assert.True(t, math.IsInf(d[3], 1))
	// (2-0)/4 for each of the two varying objectives.
	assert.InDelta(t, 1.0, d[1], 1e-12)
	// (4-1)/4 for each of the two varying objectives.
	assert.InDelta(t, 1.5, d[2], 1e-12)

	for _, d := range opt.CrowdingDistance([]fjsp.Objectives{{1, 1, 1, 1}, {2, 2, 2, 2}}) {
		assert.True(t, math.IsInf(d, 1))
	}
	assert.Empty(t, opt.CrowdingDistance(nil))
}

func TestRankCrowding(t *testing.T) {
	values := []fjsp.Objectives{
		{0, 4, 0, 0},
		{9, 9, 9, 9},
		{1, 3, 0, 0},
		{4, 0, 0, 0},
		{2, 2, 0, 0},
	}
	rank, crowd := opt.RankCrowding(values)
	assert.Equal(t, []int{0, 1, 0, 0, 0}, rank)
	assert.True(t, math.IsInf(crowd[1], 1))
	assert.InDelta(t, 1.0, crowd[2], 1e-12)
	assert.InDelta(t, 1.5, crowd[4], 1e-12)

	assert.True(t, opt.Better(rank, crowd, 0, 1))
	assert.False(t, opt.Better(rank, crowd, 1, 0))
	assert.True(t, opt.Better(rank, crowd, 4, 2))
	assert.False(t, opt.Better(rank, crowd, 2, 2))
}
