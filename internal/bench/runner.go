package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Optimizer, error)
}

// Case is either an instance file (Path) or a synthetic instance generated
// from Jobs, Machines and InstanceSeed.
type Case struct {
	Name         string
	Path         string
	Jobs         int
	Machines     int
	InstanceSeed int64
}

// Label names the case in records and logs.
func (c Case) Label() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Path != "":
		return baseName(c.Path)
	default:
		return fmt.Sprintf("random-%dx%d-s%d", c.Jobs, c.Machines, c.InstanceSeed)
	}
}

// Instance loads or generates the case instance and validates it.
func (c Case) Instance() (*fjsp.Instance, error) {
	if c.Path != "" {
		inst, err := fjsp.ReadInstanceFile(c.Path)
		if err != nil {
			return nil, err
		}
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Path, err)
		}
		return inst, nil
	}
	if c.Jobs <= 0 || c.Machines <= 0 {
		return nil, fmt.Errorf("case %s: jobs and machines must be > 0", c.Label())
	}
	return fjsp.RandomInstance(c.Jobs, c.Machines, 1, 99, randForSeed(c.InstanceSeed)), nil
}

type Record struct {
	RunID    string
	Host     string
	Algo     string
	Instance string

	Jobs       int
	Machines   int
	Operations int
	Runs       int
	// EmptyRuns counts runs whose deadline fired before the first evaluation.
	// They are left out of every statistic below.
	EmptyRuns  int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	// FrontSizeBest is the largest front over the runs.
	FrontSizeBest int
	FrontSizeMean float64
	FrontSizeStd  float64

	EvaluationsMean float64
	SnapshotsMean   float64

	// Objective[k] summarizes, over runs, the best value of objective k in each front.
	Objective [fjsp.NumObjectives]FloatStats
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout

	// Logger receives one line per run; nil discards.
	Logger *slog.Logger
	// OnRun is called after every verified run.
	OnRun func(algo string, res opt.Result, dur time.Duration)
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("runs must be > 0 (got %d)", r.Runs)
	}
	inst, err := c.Instance()
	if err != nil {
		return Record{}, err
	}
	log := r.logger().With("algo", algo.Name, "instance", c.Label())

	frontSizes := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	evals := make([]float64, 0, r.Runs)
	snaps := make([]float64, 0, r.Runs)
	var best [fjsp.NumObjectives][]float64
	empty := 0

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op, err := algo.Factory(runSeed)
		if err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		// A per-run deadline is a stopping criterion; the partial front still counts.
		timedOut := ctx.Err() == nil && runCtx.Err() != nil
		if err != nil && timedOut {
			log.Debug("run stopped by timeout", "run", i, "seed", runSeed)
			err = nil
		}
		if err != nil && ctx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if timedOut && len(res.Front) == 0 {
			log.Warn("run timed out before the first evaluation", "run", i, "seed", runSeed, "timeout", r.PerRunTimeout)
			empty++
			continue
		}
		if err := VerifyFront(inst, res); err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		ms := float64(dur.Microseconds()) / 1000.0
		frontSizes = append(frontSizes, len(res.Front))
		timesMs = append(timesMs, ms)
		evals = append(evals, float64(res.Evaluations))
		snaps = append(snaps, float64(len(res.Snapshots)))
		mins := frontMinima(res.Front)
		for k := range best {
			best[k] = append(best[k], mins[k])
		}

		log.Info("run finished",
			"run", i,
			"seed", runSeed,
			"front", len(res.Front),
			"evaluations", res.Evaluations,
			"time_ms", ms,
		)
		if r.OnRun != nil {
			r.OnRun(algo.Name, res, dur)
		}
	}

	fsStats := Summarize(frontSizes)
	tStats := Summarize(timesMs)

	rec := Record{
		RunID:    uuid.NewString(),
		Host:     hostLabel(),
		Algo:     algo.Name,
		Instance: c.Label(),

		Jobs:       inst.NumJobs,
		Machines:   inst.NumMachines,
		Operations: inst.TotalNumOperations,
		Runs:       r.Runs,
		EmptyRuns:  empty,

		TimeBestMs: tStats.Min,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		FrontSizeBest: fsStats.Max,
		FrontSizeMean: fsStats.Mean,
		FrontSizeStd:  fsStats.Std,

		EvaluationsMean: Summarize(evals).Mean,
		SnapshotsMean:   Summarize(snaps).Mean,
	}
	for k := range best {
		rec.Objective[k] = Summarize(best[k])
	}
	return rec, nil
}

// VerifyFront re-materializes every key of the front, checks the schedule
// is feasible with the reported objectives, and checks the front is
// mutually non-dominated.
func VerifyFront(inst *fjsp.Instance, res opt.Result) error {
	if len(res.Front) == 0 {
		return fmt.Errorf("empty front")
	}
	sols, err := res.Solutions(inst)
	if err != nil {
		return err
	}
	for i, s := range sols {
		if err := s.Verify(); err != nil {
			return fmt.Errorf("front point %d: %w", i, err)
		}
		if s.Value != res.Front[i].Value {
			return fmt.Errorf("front point %d: reported %v, decoded %v", i, res.Front[i].Value, s.Value)
		}
	}
	for i := range sols {
		for j := range sols {
			if sols[i].Dominates(sols[j]) {
				return fmt.Errorf("front point %d dominates point %d", i, j)
			}
		}
	}
	return nil
}

func frontMinima(front []opt.Point) fjsp.Objectives {
	var out fjsp.Objectives
	for k := range out {
		for i, p := range front {
			if i == 0 || p.Value[k] < out[k] {
				out[k] = p.Value[k]
			}
		}
	}
	return out
}

var objectiveNames = [fjsp.NumObjectives]string{"makespan", "total_completion", "max_workload", "total_workload"}

func WriteCSV(path string, records []Record) error {
	if d := dirOf(path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"run_id", "host", "algo", "instance",
		"jobs", "machines", "operations", "runs", "empty_runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"front_best", "front_mean", "front_std",
		"evaluations_mean", "snapshots_mean",
	}
	for _, name := range objectiveNames {
		header = append(header, name+"_best", name+"_mean", name+"_std")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.RunID,
			r.Host,
			r.Algo,
			r.Instance,

			itoa(r.Jobs),
			itoa(r.Machines),
			itoa(r.Operations),
			itoa(r.Runs),
			itoa(r.EmptyRuns),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			itoa(r.FrontSizeBest),
			ftoa(r.FrontSizeMean),
			ftoa(r.FrontSizeStd),

			ftoa(r.EvaluationsMean),
			ftoa(r.SnapshotsMean),
		}
		for _, s := range r.Objective {
			row = append(row, ftoa(s.Min), ftoa(s.Mean), ftoa(s.Std))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
