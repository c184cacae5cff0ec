package ga

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

// Solver - многокритериальный генетический алгоритм со случайными ключами для задачи FJSP.
type Solver struct {
	Cfg Config
	Rng *rand.Rand

	// Initial - начальные особи, которые заменяют первые случайные ключи популяции.
	Initial [][]float64
}

// New возвращает новый GA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

	// Проверка корректности входных данных и конфигурации
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
			return opt.Result{}, fmt.Errorf("начальная особь %d: %w: получено %d, ожидается %d", i, fjsp.ErrKeyLength, len(k), n)
		}
	}

	// Параллельный оценщик значений целевых функций
	eval, err := opt.NewEvaluator(inst, s.Cfg.Workers)
	if err != nil {
		return opt.Result{}, err
	}

	popSize := s.Cfg.Population
	elite := s.Cfg.Elite

	// Вспомогательная анонимная функция для создания двумерного массива ключей
	makeKeys := func() [][]float64 {
		backing := make([]float64, popSize*n)
		keys := make([][]float64, popSize)
		for i := 0; i < popSize; i++ {
			keys[i] = backing[i*n : (i+1)*n]
		}
		return keys
	}

	// Две популяции: текущая (A) и следующая (B)
	keysA := makeKeys()
	keysB := makeKeys()
	valuesA := make([]fjsp.Objectives, popSize)
	valuesB := make([]fjsp.Objectives, popSize)

	// Инициализация начальной популяции
	for i := 0; i < popSize; i++ {
		if i < len(s.Initial) {
			copy(keysA[i], s.Initial[i])
			continue
		}
		randomKey(keysA[i], s.Rng)
	}

	archive := opt.NewArchive(s.Cfg.MaxNumSolutions)
	var snapshots []opt.Snapshot
	meta := map[string]any{
		"population":  popSize,
		"generations": s.Cfg.Generations,
		"elite":       elite,
		"bias":        s.Cfg.Bias,
		"workers":     s.Cfg.Workers,
	}

	// stop формирует частичный результат при досрочной остановке
	stop := func(gen, evals int, reason string) opt.Result {
		meta["stopped"] = reason
		res := ToOptResult(archive, evals, gen, snapshots, meta)
		res.Duration = time.Since(start)
		return res
	}

	if err := eval.Evaluate(ctx, keysA, valuesA); err != nil {
		if ctx.Err() != nil {
			return stop(0, 0, "context"), err
		}
		return opt.Result{}, err
	}
	evaluations := popSize
	for i := range keysA {
		archive.Add(keysA[i], valuesA[i])
	}

	// Индексы для сортировки популяции по рангу и crowding distance
	idxs := make([]int, popSize)

	for gen := 0; gen < s.Cfg.Generations; gen++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			return stop(gen, evaluations, "context"), err
		}
		if s.Cfg.TimeLimit > 0 && time.Since(start) >= s.Cfg.TimeLimit {
			return stop(gen, evaluations, "time"), nil
		}

		rank, crowd := opt.RankCrowding(valuesA)
		for i := range idxs {
			idxs[i] = i
		}
		sort.SliceStable(idxs, func(i, j int) bool {
			return opt.Better(rank, crowd, idxs[i], idxs[j])
		})

		// Элитизм (переносим лучших особей без изменений)
		for e := 0; e < elite; e++ {
			src := idxs[e]
			copy(keysB[e], keysA[src])
			valuesB[e] = valuesA[src]
		}

		// Генерация остальных особей нового поколения
		for write := elite; write < popSize; write++ {
			// Турнирный отбор
			p1 := tournamentSelect(rank, crowd, s.Cfg.TournamentSize, s.Rng)
			p2 := tournamentSelect(rank, crowd, s.Cfg.TournamentSize, s.Rng)
			for tries := 0; p2 == p1 && tries < 8; tries++ {
				p2 = tournamentSelect(rank, crowd, s.Cfg.TournamentSize, s.Rng)
			}
			if p2 == p1 {
				p2 = (p1 + 1 + s.Rng.Intn(popSize-1)) % popSize
			}
			if opt.Better(rank, crowd, p2, p1) {
				p1, p2 = p2, p1
			}

			child := keysB[write]

			// Кроссовер
			if s.Rng.Float64() < s.Cfg.CrossoverRate {
				biasedCrossover(keysA[p1], keysA[p2], child, s.Cfg.Bias, s.Rng)
			} else {
				copy(child, keysA[p1])
			}

			// Мутация
			mutateReset(child, s.Cfg.MutationRate, s.Rng)
		}

		// Оценка потомков
		if err := eval.Evaluate(ctx, keysB[elite:], valuesB[elite:]); err != nil {
			if ctx.Err() != nil {
				return stop(gen, evaluations, "context"), err
			}
			return opt.Result{}, err
		}
		evaluations += popSize - elite
		for i := elite; i < popSize; i++ {
			archive.Add(keysB[i], valuesB[i])
		}

		// Смена поколений
		keysA, keysB = keysB, keysA
		valuesA, valuesB = valuesB, valuesA

		if s.Cfg.SnapshotEvery > 0 && (gen+1)%s.Cfg.SnapshotEvery == 0 {
			snapshots = append(snapshots, snapshot(archive, gen+1, start))
		}
	}

	res := ToOptResult(archive, evaluations, s.Cfg.Generations, snapshots, meta)
	res.Duration = time.Since(start)
	return res, nil
}
