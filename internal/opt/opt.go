package opt

import (
	"context"
	"time"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

type Optimizer interface {
	Solve(ctx context.Context, inst *fjsp.Instance) (Result, error)
}

// Point is one key of an approximated front with its objective vector.
type Point struct {
	Key   []float64
	Value fjsp.Objectives
}

// Snapshot records the archive after some iteration of a search.
type Snapshot struct {
	Iteration int
	Elapsed   time.Duration
	Values    []fjsp.Objectives
}

type Result struct {
	Front       []Point
	Evaluations int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
	Snapshots   []Snapshot
}

// Values returns the objective vectors of the front.
func (r Result) Values() []fjsp.Objectives {
	out := make([]fjsp.Objectives, len(r.Front))
	for i, p := range r.Front {
		out[i] = p.Value
	}
	return out
}

// Solutions decodes every key of the front into a full schedule.
func (r Result) Solutions(inst *fjsp.Instance) ([]*fjsp.Solution, error) {
	out := make([]*fjsp.Solution, 0, len(r.Front))
	for _, p := range r.Front {
		s, err := fjsp.SolutionFromKey(inst, p.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
