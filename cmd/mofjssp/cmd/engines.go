package cmd

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/luishpmendes/mofjssp/internal/bench"
	"github.com/luishpmendes/mofjssp/internal/config"
	"github.com/luishpmendes/mofjssp/internal/ga"
	"github.com/luishpmendes/mofjssp/internal/opt"
	"github.com/luishpmendes/mofjssp/internal/pso"
	"github.com/luishpmendes/mofjssp/internal/sa"
)

// Фабрики

func newGAFactory(cfg ga.Config) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		return ga.New(cfg, rand.New(rand.NewSource(seed)))
	}
}

func newPSOFactory(cfg pso.Config) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		return pso.New(cfg, rand.New(rand.NewSource(seed)))
	}
}

func newSAFactory(cfg sa.Config) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		return sa.New(cfg, rand.New(rand.NewSource(seed)))
	}
}

func algorithms(c *config.Config) map[string]bench.Algorithm {
	return map[string]bench.Algorithm{
		"GA":  {Name: "GA", Factory: newGAFactory(c.GAConfig())},
		"PSO": {Name: "PSO", Factory: newPSOFactory(c.PSOConfig())},
		"SA":  {Name: "SA", Factory: newSAFactory(c.SAConfig())},
	}
}

func selectAlgorithms(c *config.Config, names string) ([]bench.Algorithm, error) {
	available := algorithms(c)
	var selected []bench.Algorithm
	for _, a := range splitCSV(names) {
		al, ok := available[strings.ToUpper(a)]
		if !ok {
			return nil, fmt.Errorf("алгоритм не предоставлен в программе %q; доступные: %v", a, keys(available))
		}
		selected = append(selected, al)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("не выбран ни один алгоритм; доступные: %v", keys(available))
	}
	return selected, nil
}

// addEngineFlags registers the engine parameters on fs. Each flag overrides
// the matching ga.*, pso.* or sa.* configuration key.
func addEngineFlags(fs *pflag.FlagSet) {
	g, p, a := ga.DefaultConfig(), pso.DefaultConfig(), sa.DefaultConfig()

	// --- Генетический алгоритм ---
	fs.Int("ga-pop", g.Population, "размер популяции")
	fs.Int("ga-gen", g.Generations, "количество поколений")
	fs.Int("ga-elite", g.Elite, "размер элиты (количество лучших особей)")
	fs.Int("ga-tour", g.TournamentSize, "размер турнирной выборки")
	fs.Float64("ga-cx", g.CrossoverRate, "вероятность применения кроссовера")
	fs.Float64("ga-bias", g.Bias, "вероятность наследования гена от лучшего родителя")
	fs.Float64("ga-mut", g.MutationRate, "вероятность мутации гена")
	fs.Duration("ga-time-limit", g.TimeLimit, "ограничение времени поиска; 0 — без ограничения")
	fs.Int("ga-max-solutions", g.MaxNumSolutions, "размер архива недоминируемых решений; 0 — без ограничения")
	fs.Int("ga-snapshot-every", g.SnapshotEvery, "снимок фронта каждые N поколений; 0 — без снимков")

	// --- Рой частиц ---
	fs.Int("pso-iter-per-job", p.IterationsPerJob, "количество итераций на одну работу (используется, если pso-iter == 0)")
	fs.Int("pso-iter", p.Iterations, "общее количество итераций (0 => pso-iter-per-job × nJobs)")
	fs.Int("pso-particles", p.Particles, "количество частиц")
	fs.Float64("pso-w", p.W, "коэффициент W (инерция)")
	fs.Float64("pso-c1", p.C1, "коэффициент C1 (когнитивный)")
	fs.Float64("pso-c2", p.C2, "коэффициент C2 (социальный)")
	fs.Float64("pso-vmax", p.VMax, "ограничение скорости частицы (0 — без ограничения)")
	fs.Float64("pso-pos-min", p.PosMin, "минимальное значение позиции частицы")
	fs.Float64("pso-pos-max", p.PosMax, "максимальное значение позиции частицы")
	fs.Duration("pso-time-limit", p.TimeLimit, "ограничение времени поиска; 0 — без ограничения")
	fs.Int("pso-max-solutions", p.MaxNumSolutions, "размер архива недоминируемых решений; 0 — без ограничения")
	fs.Int("pso-snapshot-every", p.SnapshotEvery, "снимок фронта каждые N итераций; 0 — без снимков")

	// --- Алгоритм имитации отжига ---
	fs.Int("sa-iter-per-job", a.IterationsPerJob, "количество итераций на одну работу (используется, если sa-iter == 0)")
	fs.Int("sa-iter", a.Iterations, "общее количество итераций (0 => sa-iter-per-job × nJobs)")
	fs.Float64("sa-t0", a.InitialTemp, "начальная температура (в долях верхних оценок)")
	fs.Float64("sa-tmin", a.FinalTemp, "конечная температура")
	fs.Float64("sa-alpha", a.Alpha, "коэффициент охлаждения (alpha)")
	fs.String("sa-neigh", string(a.Neighborhood), "тип окрестности: swap | insert")
	fs.Float64("sa-machine-rate", a.MachineRate, "вероятность переназначить машину одной операции на шаге")
	fs.Duration("sa-time-limit", a.TimeLimit, "ограничение времени поиска; 0 — без ограничения")
	fs.Int("sa-max-solutions", a.MaxNumSolutions, "размер архива недоминируемых решений; 0 — без ограничения")
	fs.Int("sa-snapshot-every", a.SnapshotEvery, "снимок фронта каждые N итераций; 0 — без снимков")

	for name, key := range engineFlagKeys {
		bindFlag(fs, name, key)
	}
}

var engineFlagKeys = map[string]string{
	"ga-pop":            "ga.population",
	"ga-gen":            "ga.generations",
	"ga-elite":          "ga.elite",
	"ga-tour":           "ga.tournament_size",
	"ga-cx":             "ga.crossover_rate",
	"ga-bias":           "ga.bias",
	"ga-mut":            "ga.mutation_rate",
	"ga-time-limit":     "ga.time_limit",
	"ga-max-solutions":  "ga.max_num_solutions",
	"ga-snapshot-every": "ga.snapshot_every",

	"pso-iter-per-job":   "pso.iterations_per_job",
	"pso-iter":           "pso.iterations",
	"pso-particles":      "pso.particles",
	"pso-w":              "pso.w",
	"pso-c1":             "pso.c1",
	"pso-c2":             "pso.c2",
	"pso-vmax":           "pso.vmax",
	"pso-pos-min":        "pso.pos_min",
	"pso-pos-max":        "pso.pos_max",
	"pso-time-limit":     "pso.time_limit",
	"pso-max-solutions":  "pso.max_num_solutions",
	"pso-snapshot-every": "pso.snapshot_every",

	"sa-iter-per-job":   "sa.iterations_per_job",
	"sa-iter":           "sa.iterations",
	"sa-t0":             "sa.initial_temp",
	"sa-tmin":           "sa.final_temp",
	"sa-alpha":          "sa.alpha",
	"sa-neigh":          "sa.neighborhood",
	"sa-machine-rate":   "sa.machine_rate",
	"sa-time-limit":     "sa.time_limit",
	"sa-max-solutions":  "sa.max_num_solutions",
	"sa-snapshot-every": "sa.snapshot_every",
}

// helpers

func parsePairs(s string, baseInstanceSeed int64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		jm := strings.Split(p, "x")
		if len(jm) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 10x6", p)
		}
		jobs, err := atoiStrict(jm[0])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества работ: %w", p, err)
		}
		machines, err := atoiStrict(jm[1])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества машин: %w", p, err)
		}
		if jobs <= 0 || machines <= 0 {
			return nil, fmt.Errorf("пара %q: количество работ и машин должно быть > 0", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(jobs)*100 + int64(machines)

		cases = append(cases, bench.Case{
			Jobs:         jobs,
			Machines:     machines,
			InstanceSeed: seed,
		})
	}

	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
