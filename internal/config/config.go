// Package config loads engine and run settings from YAML files and
// MOFJSSP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"

	"github.com/luishpmendes/mofjssp/internal/ga"
	"github.com/luishpmendes/mofjssp/internal/pso"
	"github.com/luishpmendes/mofjssp/internal/sa"
)

const EnvPrefix = "MOFJSSP"

type GA struct {
	Population      int           `mapstructure:"population" validate:"gt=1"`
	Generations     int           `mapstructure:"generations" validate:"gt=0"`
	Elite           int           `mapstructure:"elite" validate:"gte=0,ltfield=Population"`
	TournamentSize  int           `mapstructure:"tournament_size" validate:"gt=0"`
	CrossoverRate   float64       `mapstructure:"crossover_rate" validate:"gte=0,lte=1"`
	Bias            float64       `mapstructure:"bias" validate:"gte=0.5,lte=1"`
	MutationRate    float64       `mapstructure:"mutation_rate" validate:"gte=0,lte=1"`
	TimeLimit       time.Duration `mapstructure:"time_limit" validate:"gte=0"`
	MaxNumSolutions int           `mapstructure:"max_num_solutions" validate:"gte=0"`
	SnapshotEvery   int           `mapstructure:"snapshot_every" validate:"gte=0"`
}

type PSO struct {
	Iterations       int           `mapstructure:"iterations" validate:"gte=0"`
	IterationsPerJob int           `mapstructure:"iterations_per_job" validate:"gte=0"`
	Particles        int           `mapstructure:"particles" validate:"gt=0"`
	W                float64       `mapstructure:"w" validate:"gte=0"`
	C1               float64       `mapstructure:"c1" validate:"gte=0"`
	C2               float64       `mapstructure:"c2" validate:"gte=0"`
	VMax             float64       `mapstructure:"vmax" validate:"gte=0"`
	PosMin           float64       `mapstructure:"pos_min"`
	PosMax           float64       `mapstructure:"pos_max"`
	TimeLimit        time.Duration `mapstructure:"time_limit" validate:"gte=0"`
	MaxNumSolutions  int           `mapstructure:"max_num_solutions" validate:"gte=0"`
	SnapshotEvery    int           `mapstructure:"snapshot_every" validate:"gte=0"`
}

type SA struct {
	Iterations       int           `mapstructure:"iterations" validate:"gte=0"`
	IterationsPerJob int           `mapstructure:"iterations_per_job" validate:"gte=0"`
	InitialTemp      float64       `mapstructure:"initial_temp" validate:"gt=0"`
	FinalTemp        float64       `mapstructure:"final_temp" validate:"gt=0,ltfield=InitialTemp"`
	Alpha            float64       `mapstructure:"alpha" validate:"gt=0,lt=1"`
	Neighborhood     string        `mapstructure:"neighborhood" validate:"oneof=swap insert"`
	MachineRate      float64       `mapstructure:"machine_rate" validate:"gte=0,lte=1"`
	TimeLimit        time.Duration `mapstructure:"time_limit" validate:"gte=0"`
	MaxNumSolutions  int           `mapstructure:"max_num_solutions" validate:"gte=0"`
	SnapshotEvery    int           `mapstructure:"snapshot_every" validate:"gte=0"`
}

type Bench struct {
	Runs          int           `mapstructure:"runs" validate:"gt=0"`
	Seed          int64         `mapstructure:"seed"`
	PerRunTimeout time.Duration `mapstructure:"per_run_timeout" validate:"gte=0"`
	Output        string        `mapstructure:"output" validate:"required"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type Config struct {
	// Workers is the number of decode workers each engine uses.
	Workers int    `mapstructure:"workers" validate:"gt=0"`
	Metrics string `mapstructure:"metrics_addr"`

	GA    GA    `mapstructure:"ga"`
	PSO   PSO   `mapstructure:"pso"`
	SA    SA    `mapstructure:"sa"`
	Bench Bench `mapstructure:"bench"`
	Log   Log   `mapstructure:"log"`
}

// DefaultWorkers is the number of physical cores, or 1 when it cannot be read.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func setDefaults(v *viper.Viper) {
	g, p, a := ga.DefaultConfig(), pso.DefaultConfig(), sa.DefaultConfig()

	v.SetDefault("workers", DefaultWorkers())
	v.SetDefault("metrics_addr", "")

	v.SetDefault("ga.population", g.Population)
	v.SetDefault("ga.generations", g.Generations)
	v.SetDefault("ga.elite", g.Elite)
	v.SetDefault("ga.tournament_size", g.TournamentSize)
	v.SetDefault("ga.crossover_rate", g.CrossoverRate)
	v.SetDefault("ga.bias", g.Bias)
	v.SetDefault("ga.mutation_rate", g.MutationRate)
	v.SetDefault("ga.time_limit", g.TimeLimit)
	v.SetDefault("ga.max_num_solutions", g.MaxNumSolutions)
	v.SetDefault("ga.snapshot_every", g.SnapshotEvery)

	v.SetDefault("pso.iterations", p.Iterations)
	v.SetDefault("pso.iterations_per_job", p.IterationsPerJob)
	v.SetDefault("pso.particles", p.Particles)
	v.SetDefault("pso.w", p.W)
	v.SetDefault("pso.c1", p.C1)
	v.SetDefault("pso.c2", p.C2)
	v.SetDefault("pso.vmax", p.VMax)
	v.SetDefault("pso.pos_min", p.PosMin)
	v.SetDefault("pso.pos_max", p.PosMax)
	v.SetDefault("pso.time_limit", p.TimeLimit)
	v.SetDefault("pso.max_num_solutions", p.MaxNumSolutions)
	v.SetDefault("pso.snapshot_every", p.SnapshotEvery)

	v.SetDefault("sa.iterations", a.Iterations)
	v.SetDefault("sa.iterations_per_job", a.IterationsPerJob)
	v.SetDefault("sa.initial_temp", a.InitialTemp)
	v.SetDefault("sa.final_temp", a.FinalTemp)
	v.SetDefault("sa.alpha", a.Alpha)
	v.SetDefault("sa.neighborhood", string(a.Neighborhood))
	v.SetDefault("sa.machine_rate", a.MachineRate)
	v.SetDefault("sa.time_limit", a.TimeLimit)
	v.SetDefault("sa.max_num_solutions", a.MaxNumSolutions)
	v.SetDefault("sa.snapshot_every", a.SnapshotEvery)

	v.SetDefault("bench.runs", 10)
	v.SetDefault("bench.seed", 1)
	v.SetDefault("bench.per_run_timeout", time.Duration(0))
	v.SetDefault("bench.output", "results/bench.csv")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with every default set and environment
// overrides enabled (MOFJSSP_GA_POPULATION overrides ga.population).
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML file at path (when path is not empty) into v and
// returns the validated configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags first, then each engine's own rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			// Report the first failure only.
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := c.GAConfig().Validate(); err != nil {
		return fmt.Errorf("config ga: %w", err)
	}
	if err := c.PSOConfig().Validate(); err != nil {
		return fmt.Errorf("config pso: %w", err)
	}
	if err := c.SAConfig().Validate(); err != nil {
		return fmt.Errorf("config sa: %w", err)
	}
	return nil
}

func (c *Config) GAConfig() ga.Config {
	return ga.Config{
		Population:      c.GA.Population,
		Generations:     c.GA.Generations,
		Elite:           c.GA.Elite,
		TournamentSize:  c.GA.TournamentSize,
		CrossoverRate:   c.GA.CrossoverRate,
		Bias:            c.GA.Bias,
		MutationRate:    c.GA.MutationRate,
		TimeLimit:       c.GA.TimeLimit,
		MaxNumSolutions: c.GA.MaxNumSolutions,
		SnapshotEvery:   c.GA.SnapshotEvery,
		Workers:         c.Workers,
	}
}

func (c *Config) PSOConfig() pso.Config {
	return pso.Config{
		Iterations:       c.PSO.Iterations,
		IterationsPerJob: c.PSO.IterationsPerJob,
		Particles:        c.PSO.Particles,
		W:                c.PSO.W,
		C1:               c.PSO.C1,
		C2:               c.PSO.C2,
		VMax:             c.PSO.VMax,
		PosMin:           c.PSO.PosMin,
		PosMax:           c.PSO.PosMax,
		TimeLimit:        c.PSO.TimeLimit,
		MaxNumSolutions:  c.PSO.MaxNumSolutions,
		SnapshotEvery:    c.PSO.SnapshotEvery,
		Workers:          c.Workers,
	}
}

func (c *Config) SAConfig() sa.Config {
	return sa.Config{
		Iterations:       c.SA.Iterations,
		IterationsPerJob: c.SA.IterationsPerJob,
		InitialTemp:      c.SA.InitialTemp,
		FinalTemp:        c.SA.FinalTemp,
		Alpha:            c.SA.Alpha,
		Neighborhood:     sa.Neighborhood(c.SA.Neighborhood),
		MachineRate:      c.SA.MachineRate,
		TimeLimit:        c.SA.TimeLimit,
		MaxNumSolutions:  c.SA.MaxNumSolutions,
		SnapshotEvery:    c.SA.SnapshotEvery,
	}
}
