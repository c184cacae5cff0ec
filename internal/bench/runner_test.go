package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/ga"
	"github.com/luishpmendes/mofjssp/internal/opt"
	"github.com/luishpmendes/mofjssp/internal/pso"
)

func gaAlgorithm() Algorithm {
	return Algorithm{
		Name: "GA",
		Factory: func(seed int64) (opt.Optimizer, error) {
			cfg := ga.DefaultConfig()
			cfg.Population = 20
			cfg.Generations = 10
			cfg.Elite = 2
			cfg.SnapshotEvery = 5
			return ga.New(cfg, rand.New(rand.NewSource(seed)))
		},
	}
}

func psoAlgorithm() Algorithm {
	return Algorithm{
		Name: "PSO",
		Factory: func(seed int64) (opt.Optimizer, error) {
			cfg := pso.DefaultConfig()
			cfg.Particles = 10
			cfg.Iterations = 10
			return pso.New(cfg, rand.New(rand.NewSource(seed)))
		},
	}
}

// fixedOptimizer returns a prepared result regardless of the instance.
type fixedOptimizer struct{ res opt.Result }

func (f fixedOptimizer) Solve(context.Context, *fjsp.Instance) (opt.Result, error) {
	return f.res, nil
}

func TestRunCase_Synthetic(t *testing.T) {
	c := Case{Jobs: 6, Machines: 3, InstanceSeed: 1}
	var calls int
	r := Runner{
		Runs:     3,
		BaseSeed: 10,
		OnRun:    func(string, opt.Result, time.Duration) { calls++ },
	}

	for _, algo := range []Algorithm{gaAlgorithm(), psoAlgorithm()} {
		calls = 0
		rec, err := r.RunCase(context.Background(), c, algo)
		require.NoError(t, err)

		assert.Equal(t, algo.Name, rec.Algo)
		assert.Equal(t, "random-6x3-s1", rec.Instance)
		assert.Equal(t, 6, rec.Jobs)
		assert.Equal(t, 3, rec.Machines)
		assert.Equal(t, 3, rec.Runs)
		assert.Equal(t, 3, calls)
		assert.NotEmpty(t, rec.RunID)
		assert.NotEmpty(t, rec.Host)
		assert.GreaterOrEqual(t, rec.FrontSizeBest, 1)
		for k, s := range rec.Objective {
			assert.Equal(t, 3, s.N, "objective %d", k)
			assert.Greater(t, s.Min, 0.0)
			assert.GreaterOrEqual(t, s.Mean, s.Min)
			assert.GreaterOrEqual(t, s.Max, s.Mean)
		}
	}
}

func TestRunCase_InstanceFile(t *testing.T) {
	inst := fjsp.RandomInstance(4, 3, 1, 9, rand.New(rand.NewSource(2)))
	path := filepath.Join(t.TempDir(), "tiny.fjs")
	require.NoError(t, fjsp.WriteInstanceFile(path, inst))

	rec, err := Runner{Runs: 1}.RunCase(context.Background(), Case{Path: path}, gaAlgorithm())
	require.NoError(t, err)
	assert.Equal(t, "tiny", rec.Instance)
	assert.Equal(t, inst.TotalNumOperations, rec.Operations)
	assert.Equal(t, 2.0, rec.SnapshotsMean)
}

func TestRunCase_Errors(t *testing.T) {
	c := Case{Jobs: 3, Machines: 2}

	_, err := Runner{Runs: 0}.RunCase(context.Background(), c, gaAlgorithm())
	assert.Error(t, err)

	_, err = Runner{Runs: 1}.RunCase(context.Background(), Case{Path: filepath.Join(t.TempDir(), "none")}, gaAlgorithm())
	assert.Error(t, err)

	factoryErr := errors.New("no engine")
	_, err = Runner{Runs: 1}.RunCase(context.Background(), c, Algorithm{
		Name:    "broken",
		Factory: func(int64) (opt.Optimizer, error) { return nil, factoryErr },
	})
	assert.ErrorIs(t, err, factoryErr)

	// A front whose reported value disagrees with its key fails verification.
	inst, err := c.Instance()
	require.NoError(t, err)
	key := make([]float64, inst.KeyLength())
	_, err = Runner{Runs: 1}.RunCase(context.Background(), c, Algorithm{
		Name: "liar",
		Factory: func(int64) (opt.Optimizer, error) {
			return fixedOptimizer{opt.Result{Front: []opt.Point{{Key: key, Value: fjsp.Objectives{1, 1, 1, 1}}}}}, nil
		},
	})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Runner{Runs: 1}.RunCase(ctx, c, gaAlgorithm())
	assert.ErrorIs(t, err, context.Canceled)
}

// stalledOptimizer waits for its deadline and returns nothing.
type stalledOptimizer struct{}

func (stalledOptimizer) Solve(ctx context.Context, _ *fjsp.Instance) (opt.Result, error) {
	<-ctx.Done()
	return opt.Result{Meta: map[string]any{"stopped": "context"}}, ctx.Err()
}

func TestRunCase_TimeoutBeforeFirstEvaluation(t *testing.T) {
	c := Case{Jobs: 3, Machines: 2}
	stalled := Algorithm{
		Name:    "STALLED",
		Factory: func(int64) (opt.Optimizer, error) { return stalledOptimizer{}, nil },
	}
	var calls int
	r := Runner{
		Runs:          2,
		PerRunTimeout: time.Nanosecond,
		OnRun:         func(string, opt.Result, time.Duration) { calls++ },
	}

	rec, err := r.RunCase(context.Background(), c, stalled)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Runs)
	assert.Equal(t, 2, rec.EmptyRuns)
	assert.Zero(t, rec.FrontSizeBest)
	assert.Zero(t, rec.Objective[0].N)
	assert.Zero(t, calls)

	rec, err = r.RunCase(context.Background(), c, gaAlgorithm())
	require.NoError(t, err)
	assert.LessOrEqual(t, rec.EmptyRuns, 2)
}

func TestVerifyFront(t *testing.T) {
	inst := fjsp.RandomInstance(5, 3, 1, 9, rand.New(rand.NewSource(3)))
	assert.Error(t, VerifyFront(inst, opt.Result{}))

	low := make([]float64, inst.KeyLength())
	s, err := fjsp.SolutionFromKey(inst, low)
	require.NoError(t, err)
	res := opt.Result{Front: []opt.Point{{Key: low, Value: s.Value}}}
	require.NoError(t, VerifyFront(inst, res))

	// The same point twice is not a dominance violation.
	res.Front = append(res.Front, res.Front[0])
	assert.NoError(t, VerifyFront(inst, res))

	res.Front[1].Key = low[:1]
	assert.ErrorIs(t, VerifyFront(inst, res), fjsp.ErrKeyLength)
}

func TestWriteCSV(t *testing.T) {
	rec, err := Runner{Runs: 2}.RunCase(context.Background(), Case{Jobs: 4, Machines: 2}, gaAlgorithm())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "results.csv")
	require.NoError(t, WriteCSV(path, []Record{rec, rec}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Len(t, rows[0], 17+3*fjsp.NumObjectives)
	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, "total_workload_std", rows[0][len(rows[0])-1])
	assert.Equal(t, rec.RunID, rows[1][0])
	assert.Equal(t, "GA", rows[1][2])
}
