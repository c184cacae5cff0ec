package pso

import (
	"fmt"
	"time"
)

type Config struct {
	Iterations       int
	IterationsPerJob int

	Particles int

	W  float64
	C1 float64
	C2 float64

	VMax float64

	PosMin float64
	PosMax float64

	// TimeLimit - ограничение по времени (0 = без ограничения).
	TimeLimit time.Duration
	// MaxNumSolutions - ёмкость внешнего архива лидеров (0 = без ограничения).
	MaxNumSolutions int
	// SnapshotEvery - период снимков архива в итерациях (0 = без снимков).
	SnapshotEvery int
	Workers       int
}

func DefaultConfig() Config {
	return Config{
		Iterations:       0,
		IterationsPerJob: 20,

		Particles: 60,

		W:  0.729,
		C1: 1.49445,
		C2: 1.49445,

		VMax:   0.25,
		PosMin: 0.0,
		PosMax: 1.0,

		MaxNumSolutions: 100,
		Workers:         1,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerJob > 0",
		)
	}
	if c.Particles <= 0 {
		return fmt.Errorf(
			"Particles должно быть > 0 (получено %d)",
			c.Particles,
		)
	}
	if c.W < 0 {
		return fmt.Errorf(
			"W должно быть >= 0 (получено %f)",
			c.W,
		)
	}
	if c.C1 < 0 || c.C2 < 0 {
		return fmt.Errorf(
			"C1 и C2 должны быть >= 0 (получено %f, %f)",
			c.C1,
			c.C2,
		)
	}
	if c.VMax < 0 {
		return fmt.Errorf(
			"VMax должно быть >= 0 (получено %f)",
			c.VMax,
		)
	}
	if c.PosMin >= c.PosMax {
		if !(c.PosMin == 0 && c.PosMax == 0) {
			return fmt.Errorf(
				"для ограничения PosMin должно быть < PosMax (получено %f >= %f)",
				c.PosMin,
				c.PosMax,
			)
		}
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf(
			"TimeLimit должно быть >= 0 (получено %s)",
			c.TimeLimit,
		)
	}
	if c.MaxNumSolutions < 0 {
		return fmt.Errorf(
			"MaxNumSolutions должно быть >= 0 (получено %d)",
			c.MaxNumSolutions,
		)
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf(
			"SnapshotEvery должно быть >= 0 (получено %d)",
			c.SnapshotEvery,
		)
	}
	if c.Workers <= 0 {
		return fmt.Errorf(
			"Workers должно быть > 0 (получено %d)",
			c.Workers,
		)
	}
	return nil
}
