package pso

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"time"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

// Solver - структура реализации многокритериального алгоритма роя частиц
type Solver struct {
	Cfg Config
	Rng *rand.Rand

	// Initial - начальные позиции первых частиц.
	Initial [][]float64
}

// New возвращает новый PSO-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// particle описывает одну частицу роя.
type particle struct {
	// pos - позиция частицы (она же ключ для декодера)
	pos []float64
	// vel - скорость частицы
	vel []float64

	// pBestPos - личное лучшее положение частицы
	pBestPos []float64
	// pBestValue - значения целевых функций в pBestPos
	pBestValue fjsp.Objectives
}

// Solve - реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *fjsp.Instance) (opt.Result, error) {
	start := time.Now()

	// Валидация конфигурации
	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	n := inst.KeyLength()
	for i, k := range s.Initial {
		if len(k) != n {
			return opt.Result{}, fmt.Errorf("начальная частица %d: %w: получено %d, ожидается %d", i, fjsp.ErrKeyLength, len(k), n)
		}
	}

	// Параллельная оценка целевых функций
	eval, err := opt.NewEvaluator(inst, s.Cfg.Workers)
	if err != nil {
		return opt.Result{}, err
	}

	iters := s.Cfg.Iterations
	if iters <= 0 {
		iters = s.Cfg.IterationsPerJob * inst.NumJobs
	}

	// Инициализация частиц
	ps := make([]particle, s.Cfg.Particles)
	positions := make([][]float64, len(ps))
	values := make([]fjsp.Objectives, len(ps))
	for i := range ps {
		ps[i] = particle{
			pos:      make([]float64, n),
			vel:      make([]float64, n),
			pBestPos: make([]float64, n),
		}
		positions[i] = ps[i].pos
	}

	posMin, posMax := s.Cfg.PosMin, s.Cfg.PosMax
	doPosClamp := posMin < posMax

	// Случайная инициализация позиций и скоростей частиц
	for i := range ps {
		for d := 0; d < n; d++ {
			// Инициализация позиции
			if doPosClamp {
				ps[i].pos[d] = posMin + s.Rng.Float64()*(posMax-posMin)
			} else {
				ps[i].pos[d] = s.Rng.Float64()
			}
			// Инициализация скорости
			if s.Cfg.VMax > 0 {
				ps[i].vel[d] = (s.Rng.Float64()*2 - 1) * s.Cfg.VMax
			} else {
				ps[i].vel[d] = (s.Rng.Float64()*2 - 1) * 0.1
			}
		}
		if i < len(s.Initial) {
			copy(ps[i].pos, s.Initial[i])
		}
	}

	archive := opt.NewArchive(s.Cfg.MaxNumSolutions)
	var snapshots []opt.Snapshot
	meta := map[string]any{
		"particles": s.Cfg.Particles,
		"w":         s.Cfg.W,
		"c1":        s.Cfg.C1,
		"c2":        s.Cfg.C2,
		"vmax":      s.Cfg.VMax,
		"pos_min":   posMin,
		"pos_max":   posMax,
		"workers":   s.Cfg.Workers,
	}

	// result формирует результат по текущему архиву
	result := func(iter, evals int) opt.Result {
		return opt.Result{
			Front:       archive.Points(),
			Evaluations: evals,
			Iterations:  iter,
			Duration:    time.Since(start),
			Meta:        maps.Clone(meta),
			Snapshots:   snapshots,
		}
	}

	// Оценка начального положения частиц
	if err := eval.Evaluate(ctx, positions, values); err != nil {
		if ctx.Err() != nil {
			meta["stopped"] = "context"
			return result(0, 0), err
		}
		return opt.Result{}, err
	}
	evals := len(ps)
	for i := range ps {
		ps[i].pBestValue = values[i]
		copy(ps[i].pBestPos, ps[i].pos)
		archive.Add(ps[i].pos, values[i])
	}

	w, c1, c2 := s.Cfg.W, s.Cfg.C1, s.Cfg.C2
	vMax := s.Cfg.VMax

	// Основной цикл
	for iter := 0; iter < iters; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			meta["stopped"] = "context"
			return result(iter, evals), err
		}
		if s.Cfg.TimeLimit > 0 && time.Since(start) >= s.Cfg.TimeLimit {
			meta["stopped"] = "time"
			return result(iter, evals), nil
		}

		leaders := archive.Points()
		crowd := archive.Crowding()

		for i := range ps {
			p := &ps[i]
			leader := leaders[selectLeader(crowd, s.Rng)].Key

			// Обновление скорости и позиции частицы
			for d := 0; d < n; d++ {
				r1 := s.Rng.Float64()
				r2 := s.Rng.Float64()

				v := w*p.vel[d] +
					c1*r1*(p.pBestPos[d]-p.pos[d]) +
					c2*r2*(leader[d]-p.pos[d])

				// Ограничение скорости
				if vMax > 0 {
					if v > vMax {
						v = vMax
					} else if v < -vMax {
						v = -vMax
					}
				}
				p.vel[d] = v

				// Обновление позиции
				x := p.pos[d] + v
				if doPosClamp {
					if x < posMin {
						x = posMin
						p.vel[d] = 0
					} else if x > posMax {
						x = posMax
						p.vel[d] = 0
					}
				}
				p.pos[d] = x
			}
		}

		// Оценка новых положений частиц
		if err := eval.Evaluate(ctx, positions, values); err != nil {
			if ctx.Err() != nil {
				meta["stopped"] = "context"
				return result(iter, evals), err
			}
			return opt.Result{}, err
		}
		evals += len(ps)

		for i := range ps {
			p := &ps[i]

			// Обновление личного лучшего решения
			if updatePersonalBest(p.pBestValue, values[i], s.Rng) {
				p.pBestValue = values[i]
				copy(p.pBestPos, p.pos)
			}

			// Обновление архива лидеров
			archive.Add(p.pos, values[i])
		}

		if s.Cfg.SnapshotEvery > 0 && (iter+1)%s.Cfg.SnapshotEvery == 0 {
			snapshots = append(snapshots, opt.Snapshot{
				Iteration: iter + 1,
				Elapsed:   time.Since(start),
				Values:    archive.Values(),
			})
		}
	}

	return result(iters, evals), nil
}

// selectLeader выбирает лидера из архива бинарным турниром по crowding distance.
func selectLeader(crowd []float64, rng *rand.Rand) int {
	a := rng.Intn(len(crowd))
	b := rng.Intn(len(crowd))
	if crowd[b] > crowd[a] {
		return b
	}
	return a
}

// updatePersonalBest сообщает, нужно ли заменить личное лучшее решение:
// да, если новое решение его доминирует; при несравнимости - с вероятностью 1/2.
func updatePersonalBest(best, cur fjsp.Objectives, rng *rand.Rand) bool {
	if fjsp.Dominates(cur, best) {
		return true
	}
	if fjsp.Dominates(best, cur) {
		return false
	}
	return rng.Intn(2) == 0
}
