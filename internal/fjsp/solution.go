package fjsp

import (
	"cmp"
	"slices"
)

// Solution is one materialized schedule of an Instance. It references the
// instance and is never modified after construction.
type Solution struct {
	inst *Instance

	// MachineOfOperation[j][o] is the machine assigned to operation o of job j.
	MachineOfOperation [][]int
	// OperationsOfMachine[m] lists the operations on machine m in execution order.
	OperationsOfMachine [][]Op
	StartingTime        [][]float64
	EndingTime          [][]float64
	Value               Objectives
}

// NewSolution returns an empty schedule sized to inst.
func NewSolution(inst *Instance) *Solution {
	s := &Solution{
		inst:                inst,
		MachineOfOperation:  make([][]int, inst.NumJobs),
		OperationsOfMachine: make([][]Op, inst.NumMachines),
		StartingTime:        make([][]float64, inst.NumJobs),
		EndingTime:          make([][]float64, inst.NumJobs),
	}
	for j := 0; j < inst.NumJobs && j < len(inst.NumOperations); j++ {
		n := max(inst.NumOperations[j], 0)
		s.MachineOfOperation[j] = make([]int, n)
		s.StartingTime[j] = make([]float64, n)
		s.EndingTime[j] = make([]float64, n)
	}
	for m := range s.OperationsOfMachine {
		if m < len(inst.OperationsOfMachine) {
			s.OperationsOfMachine[m] = make([]Op, 0, len(inst.OperationsOfMachine[m]))
		}
	}
	return s
}

// SolutionFromKey decodes key against inst and keeps the full schedule.
func SolutionFromKey(inst *Instance, key []float64) (*Solution, error) {
	sc, err := NewScratch(inst)
	if err != nil {
		return nil, err
	}
	v, err := sc.Decode(key)
	if err != nil {
		return nil, err
	}
	return sc.Solution(v), nil
}

// Solution copies the schedule last decoded into sc.
func (sc *Scratch) Solution(v Objectives) *Solution {
	s := NewSolution(sc.inst)
	for g, op := range sc.ops {
		s.MachineOfOperation[op.Job][op.Operation] = sc.machine[g]
		s.StartingTime[op.Job][op.Operation] = sc.start[g]
		s.EndingTime[op.Job][op.Operation] = sc.end[g]
	}
	for m, seq := range sc.sequence {
		for _, g := range seq {
			s.OperationsOfMachine[m] = append(s.OperationsOfMachine[m], sc.ops[g])
		}
	}
	s.Value = v
	return s
}

// SolutionFromAssignment builds a schedule from explicit machines and
// starting times. Ending times, machine sequences and objectives are derived.
// Machines that are out of range or not eligible are kept as given and make
// the solution infeasible; they never cause a panic. A nil inst leaves the
// derived fields empty and Verify reports ErrNilInstance.
func SolutionFromAssignment(inst *Instance, machineOfOperation [][]int, startingTime [][]float64) *Solution {
	s := &Solution{
		inst:               inst,
		MachineOfOperation: make([][]int, len(machineOfOperation)),
		StartingTime:       make([][]float64, len(startingTime)),
	}
	for j := range machineOfOperation {
		s.MachineOfOperation[j] = slices.Clone(machineOfOperation[j])
	}
	for j := range startingTime {
		s.StartingTime[j] = slices.Clone(startingTime[j])
	}
	if inst == nil {
		return s
	}
	s.derive()
	return s
}

// derive computes EndingTime, OperationsOfMachine and Value from
// MachineOfOperation and StartingTime.
func (s *Solution) derive() {
	inst := s.inst
	s.EndingTime = make([][]float64, len(s.StartingTime))
	s.OperationsOfMachine = make([][]Op, inst.NumMachines)

	for j := range s.StartingTime {
		s.EndingTime[j] = make([]float64, len(s.StartingTime[j]))
		for o, start := range s.StartingTime[j] {
			s.EndingTime[j][o] = start
			if j >= len(s.MachineOfOperation) || o >= len(s.MachineOfOperation[j]) {
				continue
			}
			m := s.MachineOfOperation[j][o]
			if p, ok := inst.Time(j, o, m); ok {
				s.EndingTime[j][o] = start + p
			}
			if m >= 0 && m < inst.NumMachines {
				s.OperationsOfMachine[m] = append(s.OperationsOfMachine[m], Op{Job: j, Operation: o})
			}
		}
	}

	for _, ops := range s.OperationsOfMachine {
		slices.SortStableFunc(ops, func(a, b Op) int {
			if c := cmp.Compare(s.StartingTime[a.Job][a.Operation], s.StartingTime[b.Job][b.Operation]); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Job, b.Job); c != 0 {
				return c
			}
			return cmp.Compare(a.Operation, b.Operation)
		})
	}

	s.Value = s.computeValue()
}

// computeValue evaluates the objectives of the stored schedule. Operations
// with an unknown processing time contribute nothing to the workloads.
func (s *Solution) computeValue() Objectives {
	var v Objectives
	for _, ends := range s.EndingTime {
		if len(ends) == 0 {
			continue
		}
		c := ends[len(ends)-1]
		if c > v[0] {
			v[0] = c
		}
		v[1] += c
	}
	for m, ops := range s.OperationsOfMachine {
		w := 0.0
		for _, op := range ops {
			if p, ok := s.inst.Time(op.Job, op.Operation, m); ok {
				w += p
			}
		}
		if w > v[2] {
			v[2] = w
		}
		v[3] += w
	}
	return v
}

// Instance returns the instance the solution schedules.
func (s *Solution) Instance() *Instance { return s.inst }

// Dominates reports whether s Pareto-dominates other.
func (s *Solution) Dominates(other *Solution) bool {
	return Dominates(s.Value, other.Value)
}
