package pso

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Particles = 20
	cfg.Iterations = 30
	cfg.MaxNumSolutions = 15
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	noClamp := DefaultConfig()
	noClamp.PosMin, noClamp.PosMax = 0, 0
	require.NoError(t, noClamp.Validate())

	mutations := map[string]func(c *Config){
		"iterations": func(c *Config) { c.Iterations, c.IterationsPerJob = 0, 0 },
		"particles":  func(c *Config) { c.Particles = 0 },
		"inertia":    func(c *Config) { c.W = -1 },
		"c1":         func(c *Config) { c.C1 = -1 },
		"vmax":       func(c *Config) { c.VMax = -0.5 },
		"bounds":     func(c *Config) { c.PosMin, c.PosMax = 1, 0 },
		"time limit": func(c *Config) { c.TimeLimit = -time.Second },
		"archive":    func(c *Config) { c.MaxNumSolutions = -1 },
		"snapshots":  func(c *Config) { c.SnapshotEvery = -2 },
		"workers":    func(c *Config) { c.Workers = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestSolve_FrontIsFeasibleAndNonDominated(t *testing.T) {
	inst := fjsp.RandomInstance(7, 4, 1, 20, rand.New(rand.NewSource(1)))
	cfg := smallConfig()
	cfg.SnapshotEvery = 10
	cfg.Workers = 3

	s, err := New(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)

	require.NotEmpty(t, res.Front)
	assert.LessOrEqual(t, len(res.Front), cfg.MaxNumSolutions)
	assert.Equal(t, cfg.Particles*(cfg.Iterations+1), res.Evaluations)
	assert.Equal(t, cfg.Iterations, res.Iterations)
	assert.Len(t, res.Snapshots, 3)

	sols, err := res.Solutions(inst)
	require.NoError(t, err)
	for i, sol := range sols {
		require.NoError(t, sol.Verify())
		assert.Equal(t, res.Front[i].Value, sol.Value)
		for d, x := range res.Front[i].Key {
			assert.True(t, x >= cfg.PosMin && x <= cfg.PosMax, "component %d = %v", d, x)
		}
		for j := range sols {
			assert.False(t, sol.Dominates(sols[j]))
		}
	}
}

func TestSolve_IterationsPerJob(t *testing.T) {
	inst := fjsp.RandomInstance(3, 2, 1, 5, rand.New(rand.NewSource(3)))
	cfg := smallConfig()
	cfg.Iterations = 0
	cfg.IterationsPerJob = 4

	s, err := New(cfg, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Iterations)
}

func TestSolve_UnclampedPositions(t *testing.T) {
	inst := fjsp.RandomInstance(5, 3, 1, 9, rand.New(rand.NewSource(5)))
	cfg := smallConfig()
	cfg.PosMin, cfg.PosMax = 0, 0
	cfg.VMax = 0

	s, err := New(cfg, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)

	sols, err := res.Solutions(inst)
	require.NoError(t, err)
	for _, sol := range sols {
		assert.True(t, sol.IsFeasible())
	}
}

func TestSolve_InitialAndStops(t *testing.T) {
	inst := fjsp.RandomInstance(6, 3, 1, 9, rand.New(rand.NewSource(7)))

	s, err := New(smallConfig(), rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	s.Initial = [][]float64{make([]float64, inst.KeyLength()-1)}
	_, err = s.Solve(context.Background(), inst)
	assert.ErrorIs(t, err, fjsp.ErrKeyLength)

	s.Initial = nil
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Solve(ctx, inst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context", res.Meta["stopped"])

	cfg := smallConfig()
	cfg.Iterations = math.MaxInt32
	cfg.TimeLimit = 50 * time.Millisecond
	s, err = New(cfg, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	res, err = s.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "time", res.Meta["stopped"])
	assert.NotEmpty(t, res.Front)
}

func TestUpdatePersonalBest(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	best := fjsp.Objectives{2, 2, 2, 2}
	assert.True(t, updatePersonalBest(best, fjsp.Objectives{1, 1, 1, 1}, rng))
	assert.False(t, updatePersonalBest(best, fjsp.Objectives{3, 3, 3, 3}, rng))

	replaced := 0
	for i := 0; i < 1000; i++ {
		if updatePersonalBest(best, fjsp.Objectives{1, 3, 2, 2}, rng) {
			replaced++
		}
	}
	assert.InDelta(t, 500, replaced, 100)
}

func TestSelectLeader(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	crowd := []float64{0, math.Inf(1), 0.5}
	counts := make([]int, len(crowd))
	for i := 0; i < 900; i++ {
		counts[selectLeader(crowd, rng)]++
	}
	assert.Greater(t, counts[1], counts[2])
	assert.Greater(t, counts[2], counts[0])
}
