package ga

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Population = 30
	cfg.Generations = 25
	cfg.Elite = 4
	cfg.MaxNumSolutions = 20
	return cfg
}

func requireValidFront(t *testing.T, inst *fjsp.Instance, res opt.Result) {
	t.Helper()
	require.NotEmpty(t, res.Front)
	sols, err := res.Solutions(inst)
	require.NoError(t, err)
	for i, s := range sols {
		require.NoError(t, s.Verify())
		assert.Equal(t, res.Front[i].Value, s.Value)
		for j := range sols {
			assert.False(t, s.Dominates(sols[j]))
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	mutations := map[string]func(c *Config){
		"population":  func(c *Config) { c.Population = 1 },
		"generations": func(c *Config) { c.Generations = 0 },
		"elite":       func(c *Config) { c.Elite = c.Population },
		"tournament":  func(c *Config) { c.TournamentSize = 0 },
		"crossover":   func(c *Config) { c.CrossoverRate = 1.5 },
		"bias":        func(c *Config) { c.Bias = 0.3 },
		"mutation":    func(c *Config) { c.MutationRate = -0.1 },
		"time limit":  func(c *Config) { c.TimeLimit = -time.Second },
		"archive":     func(c *Config) { c.MaxNumSolutions = -1 },
		"snapshots":   func(c *Config) { c.SnapshotEvery = -1 },
		"workers":     func(c *Config) { c.Workers = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNew_RejectsNilRng(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestSolve_FrontIsFeasibleAndNonDominated(t *testing.T) {
	inst := fjsp.RandomInstance(8, 4, 1, 20, rand.New(rand.NewSource(1)))
	cfg := smallConfig()
	cfg.SnapshotEvery = 5

	s, err := New(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)

	requireValidFront(t, inst, res)
	assert.LessOrEqual(t, len(res.Front), cfg.MaxNumSolutions)
	assert.Equal(t, cfg.Generations, res.Iterations)
	assert.Equal(t, cfg.Population+cfg.Generations*(cfg.Population-cfg.Elite), res.Evaluations)
	require.Len(t, res.Snapshots, 5)
	assert.Equal(t, 25, res.Snapshots[4].Iteration)
	assert.Len(t, res.Snapshots[4].Values, len(res.Front))
}

func TestSolve_Deterministic(t *testing.T) {
	inst := fjsp.RandomInstance(6, 3, 1, 10, rand.New(rand.NewSource(3)))
	run := func(workers int) opt.Result {
		cfg := smallConfig()
		cfg.Workers = workers
		s, err := New(cfg, rand.New(rand.NewSource(99)))
		require.NoError(t, err)
		res, err := s.Solve(context.Background(), inst)
		require.NoError(t, err)
		return res
	}
	a, b := run(1), run(4)
	assert.Equal(t, a.Values(), b.Values())
}

func TestSolve_InitialIndividuals(t *testing.T) {
	inst := fjsp.RandomInstance(5, 3, 1, 10, rand.New(rand.NewSource(4)))
	cfg := smallConfig()
	cfg.Generations = 1

	s, err := New(cfg, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	s.Initial = [][]float64{make([]float64, inst.KeyLength())}
	_, err = s.Solve(context.Background(), inst)
	require.NoError(t, err)

	s.Initial = [][]float64{{0.5}}
	_, err = s.Solve(context.Background(), inst)
	assert.ErrorIs(t, err, fjsp.ErrKeyLength)
}

func TestSolve_Stops(t *testing.T) {
	inst := fjsp.RandomInstance(8, 4, 1, 20, rand.New(rand.NewSource(6)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := New(smallConfig(), rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	res, err := s.Solve(ctx, inst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context", res.Meta["stopped"])

	cfg := smallConfig()
	cfg.Generations = 1 << 30
	cfg.TimeLimit = 50 * time.Millisecond
	s, err = New(cfg, rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	res, err = s.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "time", res.Meta["stopped"])
	assert.Less(t, res.Iterations, cfg.Generations)
	requireValidFront(t, inst, res)
}

func TestSolve_RejectsInvalidInput(t *testing.T) {
	s, err := New(smallConfig(), rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	_, err = s.Solve(context.Background(), &fjsp.Instance{})
	assert.ErrorIs(t, err, fjsp.ErrInvalidInstance)
}

func TestOperators(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	best := []float64{0.1, 0.1, 0.1, 0.1}
	other := []float64{0.9, 0.9, 0.9, 0.9}
	child := make([]float64, 4)

	biasedCrossover(best, other, child, 1, rng)
	assert.Equal(t, best, child)

	mutateReset(child, 0, rng)
	assert.Equal(t, best, child)
	mutateReset(child, 1, rng)
	assert.NotEqual(t, best, child)

	rank := []int{1, 0, 2}
	crowd := []float64{0, 0, 0}
	assert.Equal(t, 1, tournamentSelect(rank, crowd, 50, rng))
}
