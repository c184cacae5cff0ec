package fjsp

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// NumObjectives is the length of every objective vector:
// makespan, total completion time, maximum machine workload, total workload.
const NumObjectives = 4

// Epsilon is the float64 machine epsilon.
const Epsilon = 2.220446049250313e-16

// Sense is the optimization direction of one objective.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Op identifies one operation of one job.
type Op struct {
	Job       int
	Operation int
}

// Triple keys a processing time by job, operation and machine.
type Triple struct {
	Job       int
	Operation int
	Machine   int
}

// Instance is an immutable FJSP instance. The exported fields must not be
// modified once the instance is handed to a Decoder or a Solution.
type Instance struct {
	NumJobs            int
	NumMachines        int
	NumOperations      []int
	TotalNumOperations int

	// MachinesOfOperation[j][o] lists the machines eligible for operation o of job j.
	MachinesOfOperation [][][]int
	// ProcessingTimes[j][o][i] is the duration of operation o of job j on
	// machine MachinesOfOperation[j][o][i].
	ProcessingTimes [][][]float64
	// OperationsOfMachine[m] is the inverse index of MachinesOfOperation.
	OperationsOfMachine [][]Op

	NumObjectives int
	Senses        []Sense
	PrimalBound   []float64
}

// NewInstance builds an instance from a processing-time mapping and validates it.
func NewInstance(processingTime map[Triple]float64) (*Instance, error) {
	inst, err := buildInstance(processingTime)
	if err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func buildInstance(processingTime map[Triple]float64) (*Instance, error) {
	triples := make([]Triple, 0, len(processingTime))
	jobs, machines := 0, 0
	for t := range processingTime {
		if t.Job < 0 || t.Operation < 0 || t.Machine < 0 {
			return nil, fmt.Errorf("%w: negative index in %+v", ErrInvalidInstance, t)
		}
		jobs = max(jobs, t.Job+1)
		machines = max(machines, t.Machine+1)
		triples = append(triples, t)
	}
	sort.Slice(triples, func(a, b int) bool {
		ta, tb := triples[a], triples[b]
		if ta.Job != tb.Job {
			return ta.Job < tb.Job
		}
		if ta.Operation != tb.Operation {
			return ta.Operation < tb.Operation
		}
		return ta.Machine < tb.Machine
	})

	inst := newShell(jobs, machines)
	for _, t := range triples {
		inst.NumOperations[t.Job] = max(inst.NumOperations[t.Job], t.Operation+1)
	}
	for j := 0; j < jobs; j++ {
		inst.MachinesOfOperation[j] = make([][]int, inst.NumOperations[j])
		inst.ProcessingTimes[j] = make([][]float64, inst.NumOperations[j])
		inst.TotalNumOperations += inst.NumOperations[j]
	}
	for _, t := range triples {
		inst.MachinesOfOperation[t.Job][t.Operation] = append(inst.MachinesOfOperation[t.Job][t.Operation], t.Machine)
		inst.ProcessingTimes[t.Job][t.Operation] = append(inst.ProcessingTimes[t.Job][t.Operation], processingTime[t])
		inst.OperationsOfMachine[t.Machine] = append(inst.OperationsOfMachine[t.Machine], Op{Job: t.Job, Operation: t.Operation})
	}
	inst.computePrimalBound()
	return inst, nil
}

func newShell(jobs, machines int) *Instance {
	senses := make([]Sense, NumObjectives)
	for i := range senses {
		senses[i] = Minimize
	}
	return &Instance{
		NumJobs:             jobs,
		NumMachines:         machines,
		NumOperations:       make([]int, jobs),
		MachinesOfOperation: make([][][]int, jobs),
		ProcessingTimes:     make([][][]float64, jobs),
		OperationsOfMachine: make([][]Op, machines),
		NumObjectives:       NumObjectives,
		Senses:              senses,
		PrimalBound:         make([]float64, NumObjectives),
	}
}

// computePrimalBound fills the worst-case upper bound of every objective.
func (inst *Instance) computePrimalBound() {
	maxTime := 0.0
	working := make([]float64, inst.NumMachines)
	for j := range inst.MachinesOfOperation {
		for o, machines := range inst.MachinesOfOperation[j] {
			for i, m := range machines {
				p := inst.ProcessingTimes[j][o][i]
				maxTime = math.Max(maxTime, p)
				if m >= 0 && m < inst.NumMachines {
					working[m] += p
				}
			}
		}
	}

	inst.PrimalBound = make([]float64, NumObjectives)
	inst.PrimalBound[0] = float64(inst.TotalNumOperations) * maxTime
	inst.PrimalBound[1] = float64(inst.NumJobs) * inst.PrimalBound[0]
	for _, w := range working {
		inst.PrimalBound[2] = math.Max(inst.PrimalBound[2], w)
		inst.PrimalBound[3] += w
	}
}

// IsValid reports whether the instance passes every structural check.
func (inst *Instance) IsValid() bool {
	return inst.Validate() == nil
}

// Validate returns the first structural check the instance fails, wrapped in ErrInvalidInstance.
func (inst *Instance) Validate() error {
	if inst == nil {
		return ErrNilInstance
	}
	if inst.NumJobs <= 0 {
		return fmt.Errorf("%w: jobs must be > 0 (got %d)", ErrInvalidInstance, inst.NumJobs)
	}
	if inst.NumMachines <= 0 {
		return fmt.Errorf("%w: machines must be > 0 (got %d)", ErrInvalidInstance, inst.NumMachines)
	}
	if inst.TotalNumOperations <= 0 {
		return fmt.Errorf("%w: total operations must be > 0 (got %d)", ErrInvalidInstance, inst.TotalNumOperations)
	}
	if len(inst.NumOperations) != inst.NumJobs {
		return fmt.Errorf("%w: operation counts for %d jobs (want %d)", ErrInvalidInstance, len(inst.NumOperations), inst.NumJobs)
	}
	total := 0
	for j, n := range inst.NumOperations {
		if n <= 0 {
			return fmt.Errorf("%w: job %d has no operations", ErrInvalidInstance, j)
		}
		total += n
	}
	if total != inst.TotalNumOperations {
		return fmt.Errorf("%w: total operations %d (sum is %d)", ErrInvalidInstance, inst.TotalNumOperations, total)
	}

	if err := inst.validateEligibility(); err != nil {
		return err
	}
	if err := inst.validateProcessingTimes(); err != nil {
		return err
	}

	if inst.NumObjectives != NumObjectives {
		return fmt.Errorf("%w: %d objectives (want %d)", ErrInvalidInstance, inst.NumObjectives, NumObjectives)
	}
	if len(inst.PrimalBound) != NumObjectives {
		return fmt.Errorf("%w: primal bound has %d entries (want %d)", ErrInvalidInstance, len(inst.PrimalBound), NumObjectives)
	}
	for i, b := range inst.PrimalBound {
		if !(b >= 0) {
			return fmt.Errorf("%w: primal bound %d is %v", ErrInvalidInstance, i, b)
		}
	}
	return nil
}

// validateEligibility checks that both eligibility indices are non-empty,
// in range, duplicate free and exact inverses of each other.
func (inst *Instance) validateEligibility() error {
	if len(inst.MachinesOfOperation) != inst.NumJobs {
		return fmt.Errorf("%w: eligibility for %d jobs (want %d)", ErrInvalidInstance, len(inst.MachinesOfOperation), inst.NumJobs)
	}
	if len(inst.OperationsOfMachine) != inst.NumMachines {
		return fmt.Errorf("%w: inverse index for %d machines (want %d)", ErrInvalidInstance, len(inst.OperationsOfMachine), inst.NumMachines)
	}

	eligible := 0
	for j := 0; j < inst.NumJobs; j++ {
		if len(inst.MachinesOfOperation[j]) != inst.NumOperations[j] {
			return fmt.Errorf("%w: job %d has %d eligibility sets (want %d)", ErrInvalidInstance, j, len(inst.MachinesOfOperation[j]), inst.NumOperations[j])
		}
		for o, machines := range inst.MachinesOfOperation[j] {
			if len(machines) == 0 {
				return fmt.Errorf("%w: operation %d of job %d has no eligible machine", ErrInvalidInstance, o, j)
			}
			for i, m := range machines {
				if m < 0 || m >= inst.NumMachines {
					return fmt.Errorf("%w: operation %d of job %d lists machine %d", ErrInvalidInstance, o, j, m)
				}
				for _, prev := range machines[:i] {
					if prev == m {
						return fmt.Errorf("%w: operation %d of job %d lists machine %d twice", ErrInvalidInstance, o, j, m)
					}
				}
			}
			eligible += len(machines)
		}
	}

	inverse := make(map[Triple]struct{}, eligible)
	for m, ops := range inst.OperationsOfMachine {
		for _, op := range ops {
			if op.Job < 0 || op.Job >= inst.NumJobs || op.Operation < 0 || op.Operation >= inst.NumOperations[op.Job] {
				return fmt.Errorf("%w: machine %d lists unknown operation %+v", ErrInvalidInstance, m, op)
			}
			t := Triple{Job: op.Job, Operation: op.Operation, Machine: m}
			if _, dup := inverse[t]; dup {
				return fmt.Errorf("%w: machine %d lists operation %+v twice", ErrInvalidInstance, m, op)
			}
			inverse[t] = struct{}{}
		}
	}
	for j := 0; j < inst.NumJobs; j++ {
		for o, machines := range inst.MachinesOfOperation[j] {
			for _, m := range machines {
				if _, ok := inverse[Triple{Job: j, Operation: o, Machine: m}]; !ok {
					return fmt.Errorf("%w: machine %d does not list operation %d of job %d", ErrInvalidInstance, m, o, j)
				}
			}
		}
	}
	if len(inverse) != eligible {
		return fmt.Errorf("%w: inverse index has %d entries (want %d)", ErrInvalidInstance, len(inverse), eligible)
	}
	return nil
}

// validateProcessingTimes checks there is exactly one finite positive
// duration per eligible triple.
func (inst *Instance) validateProcessingTimes() error {
	if len(inst.ProcessingTimes) != inst.NumJobs {
		return fmt.Errorf("%w: processing times for %d jobs (want %d)", ErrInvalidInstance, len(inst.ProcessingTimes), inst.NumJobs)
	}
	for j := 0; j < inst.NumJobs; j++ {
		if len(inst.ProcessingTimes[j]) != inst.NumOperations[j] {
			return fmt.Errorf("%w: job %d has %d processing time sets (want %d)", ErrInvalidInstance, j, len(inst.ProcessingTimes[j]), inst.NumOperations[j])
		}
		for o, times := range inst.ProcessingTimes[j] {
			if len(times) != len(inst.MachinesOfOperation[j][o]) {
				return fmt.Errorf("%w: operation %d of job %d has %d processing times for %d machines",
					ErrInvalidInstance, o, j, len(times), len(inst.MachinesOfOperation[j][o]))
			}
			for i, p := range times {
				if !(p > Epsilon) || math.IsInf(p, 0) {
					return fmt.Errorf("%w: processing time of operation %d of job %d on machine %d is %v",
						ErrInvalidInstance, o, j, inst.MachinesOfOperation[j][o][i], p)
				}
			}
		}
	}
	return nil
}

// EligibleIndex returns the position of machine in the eligible set of the
// operation, or -1 when the machine is not eligible.
func (inst *Instance) EligibleIndex(job, operation, machine int) int {
	if job < 0 || job >= len(inst.MachinesOfOperation) || operation < 0 || operation >= len(inst.MachinesOfOperation[job]) {
		return -1
	}
	for i, m := range inst.MachinesOfOperation[job][operation] {
		if m == machine {
			return i
		}
	}
	return -1
}

// Time returns the processing time of the operation on machine and whether
// the machine is eligible for it.
func (inst *Instance) Time(job, operation, machine int) (float64, bool) {
	i := inst.EligibleIndex(job, operation, machine)
	if i < 0 || i >= len(inst.ProcessingTimes[job][operation]) {
		return 0, false
	}
	return inst.ProcessingTimes[job][operation][i], true
}

// ProcessingTimeMap returns the instance as a processing-time mapping.
func (inst *Instance) ProcessingTimeMap() map[Triple]float64 {
	out := make(map[Triple]float64)
	for j := range inst.MachinesOfOperation {
		for o, machines := range inst.MachinesOfOperation[j] {
			for i, m := range machines {
				out[Triple{Job: j, Operation: o, Machine: m}] = inst.ProcessingTimes[j][o][i]
			}
		}
	}
	return out
}

// KeyLength is the length of the key vectors decoded against this instance.
func (inst *Instance) KeyLength() int {
	return 2 * inst.TotalNumOperations
}

// RandomInstance generates a Brandimarte-like instance: every job has between
// 1 and machines operations, every operation a random non-empty eligible set
// and integer processing times in [minTime, maxTime].
func RandomInstance(jobs, machines, minTime, maxTime int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("random generator is nil")
	}
	if jobs <= 0 || machines <= 0 {
		panic("jobs and machines must be > 0")
	}
	if minTime <= 0 || maxTime < minTime {
		panic("invalid time bounds")
	}
	pt := make(map[Triple]float64)
	span := maxTime - minTime + 1
	for j := 0; j < jobs; j++ {
		ops := 1 + rng.Intn(machines)
		for o := 0; o < ops; o++ {
			flex := 1 + rng.Intn(machines)
			for _, m := range rng.Perm(machines)[:flex] {
				pt[Triple{Job: j, Operation: o, Machine: m}] = float64(minTime + rng.Intn(span))
			}
		}
	}
	inst, err := buildInstance(pt)
	if err != nil {
		panic(err)
	}
	// Machines that no operation uses still count towards NumMachines.
	if inst.NumMachines < machines {
		inst.OperationsOfMachine = append(inst.OperationsOfMachine, make([][]Op, machines-inst.NumMachines)...)
		inst.NumMachines = machines
		inst.computePrimalBound()
	}
	if err := inst.Validate(); err != nil {
		panic(err)
	}
	return inst
}
