package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luishpmendes/mofjssp/internal/bench"
	"github.com/luishpmendes/mofjssp/internal/report"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Серия запусков алгоритмов на экземплярах",
	Long: `Запускает каждый выбранный алгоритм --runs раз (с разными сидами) на файлах --instances
и синтетических конфигурациях --synthetic, проверяет каждый фронт и сохраняет статистику в CSV.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	fs := benchCmd.Flags()
	fs.StringSlice("instances", nil, "файлы экземпляров (через запятую)")
	fs.String("synthetic", "", "конфигурации: количество работ Х количество станков (через запятую), например 10x6,15x8")
	fs.String("algos", "GA,PSO", "список алгоритмов: GA, PSO, SA (через запятую)")
	fs.Int("runs", 10, "количество запусков каждого алгоритма (с разными сидами)")
	fs.Int64("seed", 1, "базовый сид для запусков алгоритмов")
	fs.Int64("instance-seed", 777, "базовый сид для генерации экземпляров задачи (фиксирован для конфигурации)")
	fs.Duration("per-run-timeout", 0, "таймаут одного запуска; 0 — без ограничения")
	fs.String("out", "results/bench.csv", "путь к выходному CSV-файлу")
	addEngineFlags(fs)

	bindFlag(fs, "runs", "bench.runs")
	bindFlag(fs, "seed", "bench.seed")
	bindFlag(fs, "per-run-timeout", "bench.per_run_timeout")
	bindFlag(fs, "out", "bench.output")
}

func benchCases(paths []string, synthetic string, instanceSeed int64) ([]bench.Case, error) {
	cases := make([]bench.Case, 0, len(paths))
	for _, p := range paths {
		cases = append(cases, bench.Case{Path: p})
	}
	pairs, err := parsePairs(synthetic, instanceSeed)
	if err != nil {
		return nil, err
	}
	cases = append(cases, pairs...)
	if len(cases) == 0 {
		return nil, fmt.Errorf("нужен хотя бы один экземпляр: --instances или --synthetic")
	}
	return cases, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	paths, _ := fs.GetStringSlice("instances")
	synthetic, _ := fs.GetString("synthetic")
	algos, _ := fs.GetString("algos")
	instanceSeed, _ := fs.GetInt64("instance-seed")

	cases, err := benchCases(paths, synthetic, instanceSeed)
	if err != nil {
		return err
	}
	selected, err := selectAlgorithms(cfg, algos)
	if err != nil {
		return err
	}

	runner := bench.Runner{
		Runs:          cfg.Bench.Runs,
		BaseSeed:      cfg.Bench.Seed,
		PerRunTimeout: cfg.Bench.PerRunTimeout,
		Logger:        logger,
		OnRun:         collector.ObserveRun,
	}

	ctx := cmd.Context()
	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			logger.Info("bench started", "algo", a.Name, "instance", c.Label(), "runs", runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				return fmt.Errorf("%s на %s: %w", a.Name, c.Label(), err)
			}
			records = append(records, rec)
		}
	}

	out := cmd.OutOrStdout()
	if err := report.RenderRecords(out, records); err != nil {
		return err
	}
	if err := bench.WriteCSV(cfg.Bench.Output, records); err != nil {
		return fmt.Errorf("ошибка при записи в CSV: %w", err)
	}
	fmt.Fprintln(out, "Сохранено:", cfg.Bench.Output)
	return nil
}
