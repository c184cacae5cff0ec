package opt

import (
	"math"
	"slices"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

// Archive keeps a set of mutually non-dominated points. When a capacity is
// set, the most crowded point is dropped until the archive fits again.
type Archive struct {
	capacity int
	points   []Point
}

// NewArchive returns an empty archive. capacity <= 0 means unbounded.
func NewArchive(capacity int) *Archive {
	return &Archive{capacity: capacity}
}

func sameValue(a, b fjsp.Objectives) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > fjsp.Epsilon {
			return false
		}
	}
	return true
}

// Add inserts a copy of key unless the archive already holds a point that
// dominates v or has the same value. Points dominated by v are removed.
// It reports whether the point is in the archive afterwards.
func (a *Archive) Add(key []float64, v fjsp.Objectives) bool {
	for _, p := range a.points {
		if fjsp.Dominates(p.Value, v) || sameValue(p.Value, v) {
			return false
		}
	}
	kept := a.points[:0]
	for _, p := range a.points {
		if !fjsp.Dominates(v, p.Value) {
			kept = append(kept, p)
		}
	}
	clear(a.points[len(kept):])
	a.points = append(kept, Point{Key: slices.Clone(key), Value: v})

	if a.capacity <= 0 || len(a.points) <= a.capacity {
		return true
	}
	a.truncate()
	return slices.ContainsFunc(a.points, func(p Point) bool { return sameValue(p.Value, v) })
}

func (a *Archive) truncate() {
	for len(a.points) > a.capacity {
		d := CrowdingDistance(a.Values())
		worst := 0
		for i := 1; i < len(d); i++ {
			if d[i] < d[worst] {
				worst = i
			}
		}
		a.points = slices.Delete(a.points, worst, worst+1)
	}
}

func (a *Archive) Len() int { return len(a.points) }

func (a *Archive) Capacity() int { return a.capacity }

// Points returns the archived points. Keys are shared with the archive and
// must not be modified.
func (a *Archive) Points() []Point { return slices.Clone(a.points) }

func (a *Archive) Values() []fjsp.Objectives {
	out := make([]fjsp.Objectives, len(a.points))
	for i, p := range a.points {
		out[i] = p.Value
	}
	return out
}

// Crowding returns the crowding distance of every archived point, in the
// order of Points.
func (a *Archive) Crowding() []float64 {
	return CrowdingDistance(a.Values())
}
