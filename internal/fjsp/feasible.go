package fjsp

import (
	"fmt"
	"math"
)

// toleranceFactor scales Epsilon by the magnitude of the compared values.
// Sums of the same durations taken in different orders differ by a few ulps.
const toleranceFactor = 64

func tolerance(a, b float64) float64 {
	return toleranceFactor * Epsilon * math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance(a, b)
}

func approxLE(a, b float64) bool {
	return a <= b+tolerance(a, b)
}

// IsFeasible reports whether the schedule passes every feasibility check.
func (s *Solution) IsFeasible() bool {
	return s.Verify() == nil
}

// Verify audits the schedule against its instance and returns the first
// failed check wrapped in ErrInfeasible.
func (s *Solution) Verify() error {
	inst := s.inst
	if inst == nil {
		return fmt.Errorf("%w: %w", ErrInfeasible, ErrNilInstance)
	}
	if err := inst.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	}
	if err := s.verifyShape(); err != nil {
		return err
	}
	if err := s.verifyAssignment(); err != nil {
		return err
	}
	if err := s.verifyTimes(); err != nil {
		return err
	}
	if err := s.verifySemiActive(); err != nil {
		return err
	}
	return s.verifyValue()
}

func (s *Solution) verifyShape() error {
	inst := s.inst
	if len(s.MachineOfOperation) != inst.NumJobs ||
		len(s.StartingTime) != inst.NumJobs ||
		len(s.EndingTime) != inst.NumJobs {
		return fmt.Errorf("%w: schedule is not sized for %d jobs", ErrInfeasible, inst.NumJobs)
	}
	if len(s.OperationsOfMachine) != inst.NumMachines {
		return fmt.Errorf("%w: %d machine sequences (want %d)", ErrInfeasible, len(s.OperationsOfMachine), inst.NumMachines)
	}
	for j := 0; j < inst.NumJobs; j++ {
		n := inst.NumOperations[j]
		if len(s.MachineOfOperation[j]) != n || len(s.StartingTime[j]) != n || len(s.EndingTime[j]) != n {
			return fmt.Errorf("%w: job %d is not sized for %d operations", ErrInfeasible, j, n)
		}
	}
	for m, ops := range s.OperationsOfMachine {
		if len(ops) > len(inst.OperationsOfMachine[m]) {
			return fmt.Errorf("%w: machine %d runs %d operations but only %d are eligible",
				ErrInfeasible, m, len(ops), len(inst.OperationsOfMachine[m]))
		}
	}
	return nil
}

// verifyAssignment checks that every operation sits exactly once in the
// sequence of its eligible machine and nowhere else.
func (s *Solution) verifyAssignment() error {
	inst := s.inst
	for j := 0; j < inst.NumJobs; j++ {
		for o, m := range s.MachineOfOperation[j] {
			if m < 0 || m >= inst.NumMachines {
				return fmt.Errorf("%w: operation %d of job %d assigned to machine %d", ErrInfeasible, o, j, m)
			}
			if inst.EligibleIndex(j, o, m) < 0 {
				return fmt.Errorf("%w: machine %d is not eligible for operation %d of job %d", ErrInfeasible, m, o, j)
			}
		}
	}

	placed := make(map[Op]int, inst.TotalNumOperations)
	for m, ops := range s.OperationsOfMachine {
		for _, op := range ops {
			if op.Job < 0 || op.Job >= inst.NumJobs || op.Operation < 0 || op.Operation >= inst.NumOperations[op.Job] {
				return fmt.Errorf("%w: machine %d runs unknown operation %+v", ErrInfeasible, m, op)
			}
			if s.MachineOfOperation[op.Job][op.Operation] != m {
				return fmt.Errorf("%w: machine %d runs operation %d of job %d assigned to machine %d",
					ErrInfeasible, m, op.Operation, op.Job, s.MachineOfOperation[op.Job][op.Operation])
			}
			if _, dup := placed[op]; dup {
				return fmt.Errorf("%w: operation %d of job %d is sequenced twice", ErrInfeasible, op.Operation, op.Job)
			}
			placed[op] = m
		}
	}
	if len(placed) != inst.TotalNumOperations {
		return fmt.Errorf("%w: %d of %d operations are sequenced", ErrInfeasible, len(placed), inst.TotalNumOperations)
	}
	return nil
}

// verifyTimes checks durations, job precedence and machine exclusivity.
func (s *Solution) verifyTimes() error {
	inst := s.inst
	for j := 0; j < inst.NumJobs; j++ {
		for o := 0; o < inst.NumOperations[j]; o++ {
			start, end := s.StartingTime[j][o], s.EndingTime[j][o]
			if !(start >= 0) {
				return fmt.Errorf("%w: operation %d of job %d starts at %v", ErrInfeasible, o, j, start)
			}
			p, _ := inst.Time(j, o, s.MachineOfOperation[j][o])
			if !approxEqual(start+p, end) {
				return fmt.Errorf("%w: operation %d of job %d ends at %v, want %v", ErrInfeasible, o, j, end, start+p)
			}
			if o > 0 && !approxLE(s.EndingTime[j][o-1], start) {
				return fmt.Errorf("%w: operation %d of job %d starts at %v before its predecessor ends at %v",
					ErrInfeasible, o, j, start, s.EndingTime[j][o-1])
			}
		}
	}
	for m, ops := range s.OperationsOfMachine {
		for i := 1; i < len(ops); i++ {
			prev, cur := ops[i-1], ops[i]
			if !approxLE(s.EndingTime[prev.Job][prev.Operation], s.StartingTime[cur.Job][cur.Operation]) {
				return fmt.Errorf("%w: operations %+v and %+v overlap on machine %d", ErrInfeasible, prev, cur, m)
			}
		}
	}
	return nil
}

// verifySemiActive checks that no operation could start earlier: each start
// equals the later of its job predecessor's end and its machine
// predecessor's end (0 when neither exists).
func (s *Solution) verifySemiActive() error {
	for m, ops := range s.OperationsOfMachine {
		for i, op := range ops {
			ready := 0.0
			if op.Operation > 0 {
				ready = s.EndingTime[op.Job][op.Operation-1]
			}
			if i > 0 {
				prev := ops[i-1]
				ready = math.Max(ready, s.EndingTime[prev.Job][prev.Operation])
			}
			if start := s.StartingTime[op.Job][op.Operation]; !approxEqual(start, ready) {
				return fmt.Errorf("%w: operation %d of job %d on machine %d starts at %v, earliest is %v",
					ErrInfeasible, op.Operation, op.Job, m, start, ready)
			}
		}
	}
	return nil
}

// verifyValue checks the stored objectives against the schedule, the primal
// bounds and the relations between objectives.
func (s *Solution) verifyValue() error {
	v := s.Value
	want := s.computeValue()
	for i := range v {
		if !approxEqual(v[i], want[i]) {
			return fmt.Errorf("%w: objective %d is %v, schedule gives %v", ErrInfeasible, i, v[i], want[i])
		}
		if !approxLE(v[i], s.inst.PrimalBound[i]) {
			return fmt.Errorf("%w: objective %d is %v above primal bound %v", ErrInfeasible, i, v[i], s.inst.PrimalBound[i])
		}
	}
	switch {
	case !approxLE(v[0], v[1]):
		return fmt.Errorf("%w: makespan %v exceeds total completion time %v", ErrInfeasible, v[0], v[1])
	case !approxLE(v[2], v[0]):
		return fmt.Errorf("%w: maximum workload %v exceeds makespan %v", ErrInfeasible, v[2], v[0])
	case !approxLE(v[0], v[3]):
		return fmt.Errorf("%w: makespan %v exceeds total workload %v", ErrInfeasible, v[0], v[3])
	case !approxLE(v[3], v[1]):
		return fmt.Errorf("%w: total workload %v exceeds total completion time %v", ErrInfeasible, v[3], v[1])
	}
	return nil
}
