package ga

import (
	"maps"
	"time"

	"github.com/luishpmendes/mofjssp/internal/opt"
)

// ToOptResult собирает результат из архива недоминируемых решений.
func ToOptResult(archive *opt.Archive, evals, gens int, snapshots []opt.Snapshot, meta map[string]any) opt.Result {
	return opt.Result{
		Front:       archive.Points(),
		Evaluations: evals,
		Iterations:  gens,
		Snapshots:   snapshots,
		Meta:        maps.Clone(meta),
	}
}

// snapshot фиксирует текущее состояние архива.
func snapshot(archive *opt.Archive, gen int, start time.Time) opt.Snapshot {
	return opt.Snapshot{
		Iteration: gen,
		Elapsed:   time.Since(start),
		Values:    archive.Values(),
	}
}
