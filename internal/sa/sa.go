package sa

import (
	"context"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"time"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

// Solver - структура реализации многокритериального алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand

	// Initial - начальный ключ; nil - случайный.
	Initial []float64
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// Solve - реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *fjsp.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	// Один набор буферов декодера на траекторию
	sc, err := fjsp.NewScratch(inst)
	if err != nil {
		return opt.Result{}, err
	}

	ops := inst.TotalNumOperations
	n := inst.KeyLength()
	if s.Initial != nil && len(s.Initial) != n {
		return opt.Result{}, fmt.Errorf("начальный ключ: %w: получено %d, ожидается %d", fjsp.ErrKeyLength, len(s.Initial), n)
	}

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerJob * inst.NumJobs
	}

	// Нормировка приращений целевых функций
	var scale fjsp.Objectives
	for k := range scale {
		scale[k] = math.Max(inst.PrimalBound[k], 1)
	}

	// Текущее и кандидатное решения
	curr := make([]float64, n)
	cand := make([]float64, n)
	if s.Initial != nil {
		copy(curr, s.Initial)
	} else {
		randomKey(curr, s.Rng)
	}

	currValue, err := sc.Decode(curr)
	if err != nil {
		return opt.Result{}, err
	}

	archive := opt.NewArchive(s.Cfg.MaxNumSolutions)
	archive.Add(curr, currValue)

	evals := 1
	T := s.Cfg.InitialTemp

	var snapshots []opt.Snapshot
	meta := map[string]any{
		"initial_temp": s.Cfg.InitialTemp,
		"final_temp":   s.Cfg.FinalTemp,
		"alpha":        s.Cfg.Alpha,
		"neighborhood": string(s.Cfg.Neighborhood),
		"machine_rate": s.Cfg.MachineRate,
	}

	result := func(iter int) opt.Result {
		meta["T"] = T
		return opt.Result{
			Front:       archive.Points(),
			Evaluations: evals,
			Iterations:  iter,
			Duration:    time.Since(start),
			Meta:        maps.Clone(meta),
			Snapshots:   snapshots,
		}
	}

	iter := 0
	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			meta["stopped"] = "context"
			return result(iter), err
		}
		if s.Cfg.TimeLimit > 0 && time.Since(start) >= s.Cfg.TimeLimit {
			meta["stopped"] = "time"
			return result(iter), nil
		}

		copy(cand, curr)
		switch s.Cfg.Neighborhood {
		case NeighborhoodInsert:
			// Окрестность на основе вставки элемента в другую позицию
			neighborInsert(cand[ops:], s.Rng)
		default:
			// Окрестность на основе обмена двух элементов
			neighborSwap(cand[ops:], s.Rng)
		}
		// Переназначение машины одной операции
		if s.Rng.Float64() < s.Cfg.MachineRate {
			cand[s.Rng.Intn(ops)] = s.Rng.Float64()
		}

		candValue, err := sc.Decode(cand)
		if err != nil {
			return opt.Result{}, err
		}
		evals++
		archive.Add(cand, candValue)

		accept := true
		if fjsp.Dominates(currValue, candValue) {
			// Критерий Метрополиса:
			// допускает принятие доминируемых решений
			p := math.Exp(-energy(candValue, currValue, scale) / T)
			accept = s.Rng.Float64() < p
		}

		if accept {
			// Обмен ролей текущего и кандидатного решений
			curr, cand = cand, curr
			currValue = candValue
		}

		// Охлаждение температуры
		T *= s.Cfg.Alpha

		if s.Cfg.SnapshotEvery > 0 && (iter+1)%s.Cfg.SnapshotEvery == 0 {
			snapshots = append(snapshots, opt.Snapshot{
				Iteration: iter + 1,
				Elapsed:   time.Since(start),
				Values:    archive.Values(),
			})
		}
	}

	return result(iter), nil
}

// energy - среднее нормированное ухудшение кандидата относительно текущего решения.
func energy(cand, curr, scale fjsp.Objectives) float64 {
	sum := 0.0
	for k := range cand {
		sum += (cand[k] - curr[k]) / scale[k]
	}
	return sum / fjsp.NumObjectives
}

// randomKey заполняет ключ равномерными значениями из [0,1).
func randomKey(k []float64, rng *rand.Rand) {
	for i := range k {
		k[i] = rng.Float64()
	}
}

// Формирует соседнее решение путём обмена двух случайных позиций.
func neighborSwap(p []float64, rng *rand.Rand) {
	if len(p) < 2 {
		return
	}
	i := rng.Intn(len(p))
	j := rng.Intn(len(p) - 1)
	if j >= i {
		j++
	}
	p[i], p[j] = p[j], p[i]
}

// Формирует соседнее решение путём извлечения элемента из позиции i и вставки его в позицию j.
func neighborInsert(p []float64, rng *rand.Rand) {
	n := len(p)
	if n < 2 {
		return
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}

	// Перемещаем элемент из позиции i в позицию j
	val := p[i]
	if i < j {
		// Сдвиг элементов влево
		copy(p[i:j], p[i+1:j+1])
		p[j] = val
	} else {
		// Сдвиг элементов вправо
		copy(p[j+1:i+1], p[j:i])
		p[j] = val
	}
}
