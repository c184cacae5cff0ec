package ga

import (
	"fmt"
	"time"
)

type Config struct {
	Population     int
	Generations    int
	Elite          int
	TournamentSize int
	CrossoverRate  float64
	// Bias - вероятность взять ген от лучшего из двух родителей.
	Bias         float64
	MutationRate float64

	// TimeLimit - ограничение по времени (0 = без ограничения).
	TimeLimit time.Duration
	// MaxNumSolutions - ёмкость архива недоминируемых решений (0 = без ограничения).
	MaxNumSolutions int
	// SnapshotEvery - период снимков архива в поколениях (0 = без снимков).
	SnapshotEvery int
	Workers       int
}

func (c Config) Validate() error {
	if c.Population <= 1 {
		return fmt.Errorf(
			"размер популяции должен быть > 1 (получено %d)",
			c.Population,
		)
	}
	if c.Generations <= 0 {
		return fmt.Errorf(
			"количество поколений должно быть > 0 (получено %d)",
			c.Generations,
		)
	}
	if c.Elite < 0 || c.Elite >= c.Population {
		return fmt.Errorf(
			"число элитных особей должно быть в диапазоне [0, population) (получено %d)",
			c.Elite,
		)
	}
	if c.TournamentSize <= 0 {
		return fmt.Errorf(
			"размер турнира должен быть > 0 (получено %d)",
			c.TournamentSize,
		)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf(
			"вероятность кроссовера должна быть в диапазоне [0,1] (получено %f)",
			c.CrossoverRate,
		)
	}
	if c.Bias < 0.5 || c.Bias > 1 {
		return fmt.Errorf(
			"смещение кроссовера должно быть в диапазоне [0.5,1] (получено %f)",
			c.Bias,
		)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf(
			"вероятность мутации должна быть в диапазоне [0,1] (получено %f)",
			c.MutationRate,
		)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf(
			"ограничение по времени должно быть >= 0 (получено %s)",
			c.TimeLimit,
		)
	}
	if c.MaxNumSolutions < 0 {
		return fmt.Errorf(
			"ёмкость архива должна быть >= 0 (получено %d)",
			c.MaxNumSolutions,
		)
	}
	if c.SnapshotEvery < 0 {
		return fmt.Errorf(
			"период снимков должен быть >= 0 (получено %d)",
			c.SnapshotEvery,
		)
	}
	if c.Workers <= 0 {
		return fmt.Errorf(
			"число потоков должно быть > 0 (получено %d)",
			c.Workers,
		)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Population:      100,
		Generations:     300,
		Elite:           10,
		TournamentSize:  2,
		CrossoverRate:   0.90,
		Bias:            0.70,
		MutationRate:    0.02,
		MaxNumSolutions: 100,
		Workers:         1,
	}
}
