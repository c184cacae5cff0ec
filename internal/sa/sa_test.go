package sa

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Iterations = 200
	cfg.MaxNumSolutions = 20
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	mutations := map[string]func(c *Config){
		"iterations":   func(c *Config) { c.Iterations, c.IterationsPerJob = 0, 0 },
		"initial temp": func(c *Config) { c.InitialTemp = 0 },
		"final temp":   func(c *Config) { c.FinalTemp = 0 },
		"temp order":   func(c *Config) { c.FinalTemp = c.InitialTemp },
		"alpha":        func(c *Config) { c.Alpha = 1 },
		"neighborhood": func(c *Config) { c.Neighborhood = "reverse" },
		"machine rate": func(c *Config) { c.MachineRate = 1.5 },
		"time limit":   func(c *Config) { c.TimeLimit = -time.Second },
		"archive":      func(c *Config) { c.MaxNumSolutions = -1 },
		"snapshots":    func(c *Config) { c.SnapshotEvery = -1 },
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
	inst := fjsp.RandomInstance(6, 4, 1, 20, rand.New(rand.NewSource(1)))

	for _, nb := range []Neighborhood{NeighborhoodSwap, NeighborhoodInsert} {
		t.Run(string(nb), func(t *testing.T) {
			cfg := smallConfig()
			cfg.Neighborhood = nb
			cfg.SnapshotEvery = 50

			s, err := New(cfg, rand.New(rand.NewSource(2)))
			require.NoError(t, err)
			res, err := s.Solve(context.Background(), inst)
			require.NoError(t, err)

			require.NotEmpty(t, res.Front)
			assert.LessOrEqual(t, len(res.Front), cfg.MaxNumSolutions)
			assert.Equal(t, cfg.Iterations, res.Iterations)
			assert.Equal(t, cfg.Iterations+1, res.Evaluations)
			assert.Len(t, res.Snapshots, 4)

			sols, err := res.Solutions(inst)
			require.NoError(t, err)
			for i, sol := range sols {
				require.NoError(t, sol.Verify())
				assert.Equal(t, res.Front[i].Value, sol.Value)
				for j := range sols {
					assert.False(t, sol.Dominates(sols[j]))
				}
			}
		})
	}
}

func TestSolve_Deterministic(t *testing.T) {
	inst := fjsp.RandomInstance(5, 3, 1, 9, rand.New(rand.NewSource(3)))
	run := func() []fjsp.Objectives {
		s, err := New(smallConfig(), rand.New(rand.NewSource(4)))
		require.NoError(t, err)
		res, err := s.Solve(context.Background(), inst)
		require.NoError(t, err)
		return res.Values()
	}
	assert.Equal(t, run(), run())
}

func TestSolve_StopsWhenCold(t *testing.T) {
	inst := fjsp.RandomInstance(3, 2, 1, 5, rand.New(rand.NewSource(5)))
	cfg := DefaultConfig()
	cfg.Iterations = 1_000_000
	cfg.InitialTemp, cfg.FinalTemp, cfg.Alpha = 1, 0.1, 0.5

	s, err := New(cfg, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	// 1, 0.5, 0.25 and 0.125 are above the final temperature.
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, 5, res.Evaluations)
	assert.InDelta(t, 0.0625, res.Meta["T"], 1e-12)
}

func TestSolve_InitialAndStops(t *testing.T) {
	inst := fjsp.RandomInstance(6, 3, 1, 9, rand.New(rand.NewSource(7)))

	s, err := New(smallConfig(), rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	s.Initial = make([]float64, inst.KeyLength()+1)
	_, err = s.Solve(context.Background(), inst)
	assert.ErrorIs(t, err, fjsp.ErrKeyLength)

	s.Initial = make([]float64, inst.KeyLength())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Solve(ctx, inst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context", res.Meta["stopped"])
	require.Len(t, res.Front, 1)
	assert.Equal(t, s.Initial, res.Front[0].Key)

	cfg := smallConfig()
	cfg.Iterations = math.MaxInt32
	cfg.Alpha = 1 - 1e-12
	cfg.TimeLimit = 50 * time.Millisecond
	s, err = New(cfg, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	res, err = s.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "time", res.Meta["stopped"])
	assert.NotEmpty(t, res.Front)
}

func TestNeighborhoods(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	base := []float64{0.1, 0.2, 0.3, 0.4, 0.5}

	for i := 0; i < 50; i++ {
		p := slices.Clone(base)
		neighborSwap(p, rng)
		assert.NotEqual(t, base, p)
		slices.Sort(p)
		assert.Equal(t, base, p)

		q := slices.Clone(base)
		neighborInsert(q, rng)
		assert.NotEqual(t, base, q)
		slices.Sort(q)
		assert.Equal(t, base, q)
	}

	one := []float64{0.7}
	neighborSwap(one, rng)
	neighborInsert(one, rng)
	assert.Equal(t, []float64{0.7}, one)
}

func TestEnergy(t *testing.T) {
	scale := fjsp.Objectives{10, 100, 10, 100}
	assert.InDelta(t, 0.0, energy(fjsp.Objectives{1, 2, 3, 4}, fjsp.Objectives{1, 2, 3, 4}, scale), 1e-12)
	assert.InDelta(t, (0.1+0.1+0+0)/4, energy(fjsp.Objectives{2, 20, 3, 4}, fjsp.Objectives{1, 10, 3, 4}, scale), 1e-12)
}
