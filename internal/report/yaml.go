// Package report exports fronts and schedules as YAML and renders them as
// terminal tables.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/luishpmendes/mofjssp/internal/fjsp"
	"github.com/luishpmendes/mofjssp/internal/opt"
)

type ObjectivesDoc struct {
	Makespan            float64 `yaml:"makespan"`
	TotalCompletionTime float64 `yaml:"total_completion_time"`
	MaxWorkload         float64 `yaml:"max_workload"`
	TotalWorkload       float64 `yaml:"total_workload"`
}

func objectivesDoc(v fjsp.Objectives) ObjectivesDoc {
	return ObjectivesDoc{
		Makespan:            v[0],
		TotalCompletionTime: v[1],
		MaxWorkload:         v[2],
		TotalWorkload:       v[3],
	}
}

// Vector converts back to an objective vector.
func (d ObjectivesDoc) Vector() fjsp.Objectives {
	return fjsp.Objectives{d.Makespan, d.TotalCompletionTime, d.MaxWorkload, d.TotalWorkload}
}

type PointDoc struct {
	Objectives ObjectivesDoc `yaml:"objectives"`
	Key        []float64     `yaml:"key,flow"`
}

type SnapshotDoc struct {
	Iteration int             `yaml:"iteration"`
	ElapsedMs float64         `yaml:"elapsed_ms"`
	Front     []ObjectivesDoc `yaml:"front"`
}

// FrontDoc is the YAML form of one engine run.
type FrontDoc struct {
	Instance    string        `yaml:"instance"`
	Algorithm   string        `yaml:"algorithm"`
	Seed        int64         `yaml:"seed"`
	Evaluations int           `yaml:"evaluations"`
	Iterations  int           `yaml:"iterations"`
	DurationMs  float64       `yaml:"duration_ms"`
	Stopped     string        `yaml:"stopped,omitempty"`
	Points      []PointDoc    `yaml:"points"`
	Snapshots   []SnapshotDoc `yaml:"snapshots,omitempty"`
}

// NewFrontDoc converts res. Points are ordered by makespan, then by total
// completion time.
func NewFrontDoc(instance, algorithm string, seed int64, res opt.Result) FrontDoc {
	doc := FrontDoc{
		Instance:    instance,
		Algorithm:   algorithm,
		Seed:        seed,
		Evaluations: res.Evaluations,
		Iterations:  res.Iterations,
		DurationMs:  float64(res.Duration.Microseconds()) / 1000.0,
	}
	if reason, ok := res.Meta["stopped"].(string); ok {
		doc.Stopped = reason
	}
	for _, p := range res.Front {
		doc.Points = append(doc.Points, PointDoc{Objectives: objectivesDoc(p.Value), Key: p.Key})
	}
	sort.SliceStable(doc.Points, func(i, j int) bool {
		a, b := doc.Points[i].Objectives, doc.Points[j].Objectives
		if a.Makespan != b.Makespan {
			return a.Makespan < b.Makespan
		}
		return a.TotalCompletionTime < b.TotalCompletionTime
	})
	for _, s := range res.Snapshots {
		sd := SnapshotDoc{Iteration: s.Iteration, ElapsedMs: float64(s.Elapsed.Microseconds()) / 1000.0}
		for _, v := range s.Values {
			sd.Front = append(sd.Front, objectivesDoc(v))
		}
		doc.Snapshots = append(doc.Snapshots, sd)
	}
	return doc
}

// Front returns the points of the document as an optimizer front.
func (d FrontDoc) Front() []opt.Point {
	out := make([]opt.Point, len(d.Points))
	for i, p := range d.Points {
		out[i] = opt.Point{Key: p.Key, Value: p.Objectives.Vector()}
	}
	return out
}

func WriteFrontYAML(w io.Writer, doc FrontDoc) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func ReadFrontYAML(r io.Reader) (FrontDoc, error) {
	var doc FrontDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return FrontDoc{}, fmt.Errorf("decode front: %w", err)
	}
	return doc, nil
}

func WriteFrontFile(path string, doc FrontDoc) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFrontYAML(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadFrontFile(path string) (FrontDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return FrontDoc{}, err
	}
	defer f.Close()
	return ReadFrontYAML(f)
}

type OperationDoc struct {
	Job       int     `yaml:"job"`
	Operation int     `yaml:"operation"`
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
}

type MachineDoc struct {
	Machine    int            `yaml:"machine"`
	Operations []OperationDoc `yaml:"operations"`
}

// ScheduleDoc is the YAML form of a schedule. Jobs, operations and machines
// are 1-based, as in the text formats.
type ScheduleDoc struct {
	Objectives ObjectivesDoc `yaml:"objectives"`
	Feasible   bool          `yaml:"feasible"`
	Machines   []MachineDoc  `yaml:"machines"`
}

func NewScheduleDoc(s *fjsp.Solution) ScheduleDoc {
	doc := ScheduleDoc{
		Objectives: objectivesDoc(s.Value),
		Feasible:   s.IsFeasible(),
	}
	for m, ops := range s.OperationsOfMachine {
		md := MachineDoc{Machine: m + 1, Operations: []OperationDoc{}}
		for _, op := range ops {
			md.Operations = append(md.Operations, OperationDoc{
				Job:       op.Job + 1,
				Operation: op.Operation + 1,
				Start:     s.StartingTime[op.Job][op.Operation],
				End:       s.EndingTime[op.Job][op.Operation],
			})
		}
		doc.Machines = append(doc.Machines, md)
	}
	return doc
}

func WriteScheduleYAML(w io.Writer, s *fjsp.Solution) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewScheduleDoc(s)); err != nil {
		return err
	}
	return enc.Close()
}
