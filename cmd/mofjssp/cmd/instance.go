package cmd

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <instance>...",
	Short: "Проверить файлы экземпляров",
	Long:  `Читает каждый файл экземпляра, проверяет его структуру и печатает размеры и верхние оценки целевых функций.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <instance>",
	Short: "Декодировать ключ в расписание",
	Long: `Декодирует ключ из --key-file (YAML-список чисел) или случайный ключ из --seed
и печатает расписание и значения целевых функций.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

var checkCmd = &cobra.Command{
	Use:   "check <instance> <solution>",
	Short: "Проверить допустимость сохранённого расписания",
	Args:  cobra.ExactArgs(2),
	RunE:  runCheck,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Сгенерировать случайный экземпляр",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(validateCmd, decodeCmd, checkCmd, generateCmd)

	decodeCmd.Flags().Int64("seed", 1, "сид случайного ключа (если --key-file не задан)")
	decodeCmd.Flags().String("key-file", "", "YAML-файл с ключом длины 2 × количество операций")
	decodeCmd.Flags().String("out", "", "файл для сохранения расписания в текстовом формате")
	decodeCmd.Flags().String("yaml", "", "файл для сохранения расписания в YAML")

	generateCmd.Flags().Int("jobs", 10, "количество работ")
	generateCmd.Flags().Int("machines", 6, "количество машин")
	generateCmd.Flags().Int64("seed", 777, "сид генератора")
	generateCmd.Flags().Int("min-time", 1, "минимальное время обработки")
	generateCmd.Flags().Int("max-time", 99, "максимальное время обработки")
	generateCmd.Flags().String("out", "", "выходной файл; пусто — стандартный вывод")
}

// loadInstance reads and validates the instance stored at path.
func loadInstance(path string) (*fjsp.Instance, error) {
	inst, err := fjsp.ReadInstanceFile(path)
	if err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	bad := 0
	for _, path := range args {
		inst, err := loadInstance(path)
		if err != nil {
			logger.Error("invalid instance", "file", path, "error", err)
			bad++
			continue
		}
		fmt.Fprintf(out, "%s: работ=%d машин=%d операций=%d верхние оценки=%v\n",
			path, inst.NumJobs, inst.NumMachines, inst.TotalNumOperations, inst.PrimalBound)
	}
	if bad > 0 {
		return fmt.Errorf("%d из %d экземпляров невалидны", bad, len(args))
	}
	return nil
}

func readKeyFile(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var key []float64
	if err := yaml.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return key, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}

	keyFile, _ := cmd.Flags().GetString("key-file")
	var key []float64
	if keyFile != "" {
		if key, err = readKeyFile(keyFile); err != nil {
			return err
		}
	} else {
		seed, _ := cmd.Flags().GetInt64("seed")
		rng := rand.New(rand.NewSource(seed))
		key = make([]float64, inst.KeyLength())
		for i := range key {
			key[i] = rng.Float64()
		}
	}

	sol, err := fjsp.SolutionFromKey(inst, key)
	if err != nil {
		return err
	}
	logger.Debug("decoded key", "instance", args[0], "objectives", sol.Value)

	out := cmd.OutOrStdout()
	if err := report.RenderSchedule(out, sol); err != nil {
		return err
	}
	if err := report.RenderObjectives(out, []fjsp.Objectives{sol.Value}); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := fjsp.WriteSolutionFile(path, sol); err != nil {
			return err
		}
		fmt.Fprintln(out, "Сохранено:", path)
	}
	if path, _ := cmd.Flags().GetString("yaml"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := report.WriteScheduleYAML(f, sol); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Сохранено:", path)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	inst, err := loadInstance(args[0])
	if err != nil {
		return err
	}
	sol, err := fjsp.ReadSolutionFile(args[1], inst)
	if err != nil {
		return err
	}
	if err := sol.Verify(); err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}

	out := cmd.OutOrStdout()
	if err := report.RenderObjectives(out, []fjsp.Objectives{sol.Value}); err != nil {
		return err
	}
	fmt.Fprintln(out, "Расписание допустимо")
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	jobs, _ := fs.GetInt("jobs")
	machines, _ := fs.GetInt("machines")
	seed, _ := fs.GetInt64("seed")
	minTime, _ := fs.GetInt("min-time")
	maxTime, _ := fs.GetInt("max-time")
	path, _ := fs.GetString("out")

	if jobs <= 0 || machines <= 0 {
		return fmt.Errorf("количество работ и машин должно быть > 0 (получено %dx%d)", jobs, machines)
	}
	if minTime <= 0 || maxTime < minTime {
		return fmt.Errorf("времена обработки должны удовлетворять 0 < min-time <= max-time (получено %d..%d)", minTime, maxTime)
	}

	inst := fjsp.RandomInstance(jobs, machines, minTime, maxTime, rand.New(rand.NewSource(seed)))
	if path == "" {
		return fjsp.FormatInstance(cmd.OutOrStdout(), inst)
	}
	if err := fjsp.WriteInstanceFile(path, inst); err != nil {
		return err
	}
	logger.Info("instance generated", "file", path, "jobs", jobs, "machines", machines, "operations", inst.TotalNumOperations)
	return nil
}
