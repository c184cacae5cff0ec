package opt

import (
	"cmp"
	"math"
	"slices"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

// NonDominatedSort splits values into fronts of indices. Front 0 holds the
// vectors no other vector dominates, front k those dominated only by
// vectors of fronts below k. Indices inside a front are ascending.
func NonDominatedSort(values []fjsp.Objectives) [][]int {
	n := len(values)
	dominatedBy := make([]int, n)
	dominates := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case fjsp.Dominates(values[i], values[j]):
				dominates[i] = append(dominates[i], j)
				dominatedBy[j]++
			case fjsp.Dominates(values[j], values[i]):
				dominates[j] = append(dominates[j], i)
				dominatedBy[i]++
			}
		}
	}

	var front []int
	for i := 0; i < n; i++ {
		if dominatedBy[i] == 0 {
			front = append(front, i)
		}
	}
	var fronts [][]int
	for len(front) > 0 {
		fronts = append(fronts, front)
		var next []int
		for _, i := range front {
			for _, j := range dominates[i] {
				dominatedBy[j]--
				if dominatedBy[j] == 0 {
					next = append(next, j)
				}
			}
		}
		slices.Sort(next)
		front = next
	}
	return fronts
}

// CrowdingDistance returns the crowding distance of every vector within the
// set. Extreme vectors of each non-constant objective get +Inf, as do all
// vectors of a set with at most two members.
func CrowdingDistance(values []fjsp.Objectives) []float64 {
	n := len(values)
	d := make([]float64, n)
	if n <= 2 {
		for i := range d {
			d[i] = math.Inf(1)
		}
		return d
	}
	order := make([]int, n)
	for k := 0; k < fjsp.NumObjectives; k++ {
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(values[a][k], values[b][k])
		})
		lo, hi := values[order[0]][k], values[order[n-1]][k]
		if !(hi > lo) {
			continue
		}
		d[order[0]] = math.Inf(1)
		d[order[n-1]] = math.Inf(1)
		for i := 1; i < n-1; i++ {
			d[order[i]] += (values[order[i+1]][k] - values[order[i-1]][k]) / (hi - lo)
		}
	}
	return d
}

// RankCrowding returns the front index of every vector and its crowding
// distance inside that front.
func RankCrowding(values []fjsp.Objectives) (rank []int, crowd []float64) {
	rank = make([]int, len(values))
	crowd = make([]float64, len(values))
	buf := make([]fjsp.Objectives, 0, len(values))
	for r, front := range NonDominatedSort(values) {
		buf = buf[:0]
		for _, i := range front {
			rank[i] = r
			buf = append(buf, values[i])
		}
		for pos, d := range CrowdingDistance(buf) {
			crowd[front[pos]] = d
		}
	}
	return rank, crowd
}

// Better reports whether individual i beats j: lower rank first, then
// larger crowding distance.
func Better(rank []int, crowd []float64, i, j int) bool {
	if rank[i] != rank[j] {
		return rank[i] < rank[j]
	}
	return crowd[i] > crowd[j]
}
