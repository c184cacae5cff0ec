package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/luishpmendes/mofjssp/internal/bench"
	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/report"
)

var solveCmd = &cobra.Command{
	Use:   "solve <instance>",
	Short: "Найти фронт Парето для экземпляра",
	Long: `Запускает выбранный алгоритм на экземпляре, проверяет каждое решение фронта
и сохраняет фронт в YAML. С --solutions каждое решение сохраняется в текстовом формате.`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	fs := solveCmd.Flags()
	fs.String("algo", "GA", "алгоритм: GA | PSO | SA")
	fs.Int64("seed", 1, "сид алгоритма")
	fs.String("out", "", "YAML-файл фронта; пусто — стандартный вывод")
	fs.String("solutions", "", "каталог для решений фронта в текстовом формате")
	addEngineFlags(fs)
}

func runSolve(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	algoName, _ := fs.GetString("algo")
	seed, _ := fs.GetInt64("seed")
	outPath, _ := fs.GetString("out")
	solDir, _ := fs.GetString("solutions")

	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	available := algorithms(cfg)
	algo, ok := available[strings.ToUpper(algoName)]
	if !ok {
		return fmt.Errorf("алгоритм не предоставлен в программе %q; доступные: %v", algoName, keys(available))
	}
	solver, err := algo.Factory(seed)
	if err != nil {
		return fmt.Errorf("конфигурация %s: %w", algo.Name, err)
	}

	label := filepath.Base(args[0])
	log := logger.With("algo", algo.Name, "instance", label, "seed", seed)
	log.Info("search started", "operations", inst.TotalNumOperations, "workers", cfg.Workers)

	start := time.Now()
	res, err := solver.Solve(cmd.Context(), inst)
	dur := time.Since(start)
	if err != nil {
		// An interrupted search still writes the front it has found.
		if cmd.Context().Err() == nil || len(res.Front) == 0 {
			return err
		}
		log.Warn("search interrupted", "error", err, "front", len(res.Front))
	}
	if err := bench.VerifyFront(inst, res); err != nil {
		return err
	}
	collector.ObserveRun(algo.Name, res, dur)
	log.Info("search finished",
		"front", len(res.Front),
		"evaluations", res.Evaluations,
		"iterations", res.Iterations,
		"time_ms", float64(dur.Microseconds())/1000.0,
	)

	doc := report.NewFrontDoc(label, algo.Name, seed, res)
	out := cmd.OutOrStdout()
	if outPath == "" {
		if err := report.WriteFrontYAML(out, doc); err != nil {
			return err
		}
	} else {
		if err := report.WriteFrontFile(outPath, doc); err != nil {
			return err
		}
		values := make([]fjsp.Objectives, len(doc.Points))
		for i, p := range doc.Points {
			values[i] = p.Objectives.Vector()
		}
		if err := report.RenderObjectives(out, values); err != nil {
			return err
		}
		fmt.Fprintln(out, "Сохранено:", outPath)
	}

	if solDir != "" {
		return writeSolutions(solDir, strings.TrimSuffix(label, filepath.Ext(label)), algo.Name, doc, inst)
	}
	return nil
}

// writeSolutions stores the front in the order of doc, one file per point.
func writeSolutions(dir, label, algo string, doc report.FrontDoc, inst *fjsp.Instance) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, p := range doc.Front() {
		sol, err := fjsp.SolutionFromKey(inst, p.Key)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s_%03d.txt", label, strings.ToLower(algo), i+1))
		if err := fjsp.WriteSolutionFile(path, sol); err != nil {
			return err
		}
	}
	logger.Info("solutions written", "dir", dir, "count", len(doc.Points))
	return nil
}
