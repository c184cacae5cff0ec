package sa

import (
	"fmt"
	"time"
)

// Тип окрестности
type Neighborhood string

const (
	NeighborhoodSwap   Neighborhood = "swap"
	NeighborhoodInsert Neighborhood = "insert"
)

type Config struct {
	Iterations       int
	IterationsPerJob int

	// Температура измеряется в долях верхних оценок целевых функций.
	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	// Neighborhood - окрестность для второй половины ключа (порядок операций).
	Neighborhood Neighborhood
	// MachineRate - вероятность переназначить машину одной операции на шаге.
	MachineRate float64

	// TimeLimit - ограничение по времени (0 = без ограничения).
	TimeLimit time.Duration
	// MaxNumSolutions - ёмкость архива недоминируемых решений (0 = без ограничения).
	MaxNumSolutions int
	// SnapshotEvery - период снимков архива в итерациях (0 = без снимков).
	SnapshotEvery int
}

func DefaultConfig() Config {
	return Config{
		Iterations:       0,
		IterationsPerJob: 500,

		InitialTemp: 0.1,
		FinalTemp:   1e-4,
		Alpha:       0.995,

		Neighborhood: NeighborhoodSwap,
		MachineRate:  0.5,

		MaxNumSolutions: 100,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerJob > 0",
		)
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf(
			"FinalTemp должно быть > 0 (получено %f)",
			c.FinalTemp,
		)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf(
			"FinalTemp должно быть < InitialTemp (получено %f >= %f)",
			c.FinalTemp,
			c.InitialTemp,
		)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	switch c.Neighborhood {
	case NeighborhoodSwap, NeighborhoodInsert:
		// ok
	default:
		return fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		)
	}
	if c.MachineRate < 0 || c.MachineRate > 1 {
		return fmt.Errorf(
			"MachineRate должно быть в диапазоне [0,1] (получено %f)",
			c.MachineRate,
		)
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
	return nil
}
