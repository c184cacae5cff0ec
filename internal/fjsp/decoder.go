package fjsp

import (
	"cmp"
	"fmt"
	"slices"
)

// Objectives is an objective vector: makespan, total completion time,
// maximum machine workload and total machine workload. All are minimized.
type Objectives [NumObjectives]float64

// release is one entry of the operation release order.
type release struct {
	key float64
	job int
}

// Scratch holds every buffer one decode needs. A Scratch must not be used by
// two goroutines at the same time; the Instance it reads may be shared.
type Scratch struct {
	inst *Instance

	// offset[j] is the global index of the first operation of job j.
	offset []int
	// ops[g] is the operation at global index g.
	ops []Op

	choice    []int
	machine   []int
	start     []float64
	end       []float64
	order     []release
	sequence  [][]int
	workload  []float64
	scheduled []int
}

// NewScratch validates inst and allocates one set of decode buffers for it.
func NewScratch(inst *Instance) (*Scratch, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	n := inst.TotalNumOperations
	sc := &Scratch{
		inst:      inst,
		offset:    make([]int, inst.NumJobs),
		ops:       make([]Op, 0, n),
		choice:    make([]int, n),
		machine:   make([]int, n),
		start:     make([]float64, n),
		end:       make([]float64, n),
		order:     make([]release, n),
		sequence:  make([][]int, inst.NumMachines),
		workload:  make([]float64, inst.NumMachines),
		scheduled: make([]int, inst.NumJobs),
	}
	for j := 0; j < inst.NumJobs; j++ {
		sc.offset[j] = len(sc.ops)
		for o := 0; o < inst.NumOperations[j]; o++ {
			sc.ops = append(sc.ops, Op{Job: j, Operation: o})
		}
	}
	for m := range sc.sequence {
		sc.sequence[m] = make([]int, 0, len(inst.OperationsOfMachine[m]))
	}
	return sc, nil
}

// Instance returns the instance the scratch was sized for.
func (sc *Scratch) Instance() *Instance { return sc.inst }

// Decode turns a key of length 2*TotalNumOperations into a schedule held in
// the scratch buffers and returns its objective vector. The first half of the
// key selects machines, the second half orders the operations.
func (sc *Scratch) Decode(key []float64) (Objectives, error) {
	n := sc.inst.TotalNumOperations
	if len(key) != 2*n {
		return Objectives{}, fmt.Errorf("%w: got %d, want %d", ErrKeyLength, len(key), 2*n)
	}
	sc.selectMachines(key[:n])
	sc.releaseOrder(key[n:])
	sc.listSchedule()
	return sc.objectives(), nil
}

// MachineIndex maps a key component to a position in an eligible set of
// size m: floor(key*m) clamped to [0, m-1]. NaN and non-positive keys map to 0.
func MachineIndex(key float64, m int) int {
	if !(key > 0) {
		return 0
	}
	scaled := key * float64(m)
	if scaled >= float64(m) {
		return m - 1
	}
	return int(scaled)
}

func (sc *Scratch) selectMachines(keys []float64) {
	for g, op := range sc.ops {
		machines := sc.inst.MachinesOfOperation[op.Job][op.Operation]
		i := MachineIndex(keys[g], len(machines))
		sc.choice[g] = i
		sc.machine[g] = machines[i]
	}
}

// releaseOrder sorts one entry per operation by key. The sort is stable, so
// equal keys keep job-major order.
func (sc *Scratch) releaseOrder(keys []float64) {
	for g, op := range sc.ops {
		sc.order[g] = release{key: keys[g], job: op.Job}
	}
	slices.SortStableFunc(sc.order, func(a, b release) int {
		return cmp.Compare(a.key, b.key)
	})
}

// listSchedule walks the release order once. Each entry schedules the next
// unscheduled operation of its job at the later of the job's previous end
// and the assigned machine's last end.
func (sc *Scratch) listSchedule() {
	for m := range sc.sequence {
		sc.sequence[m] = sc.sequence[m][:0]
		sc.workload[m] = 0
	}
	clear(sc.scheduled)

	for _, r := range sc.order {
		j := r.job
		o := sc.scheduled[j]
		g := sc.offset[j] + o
		m := sc.machine[g]

		t := 0.0
		if o > 0 {
			t = sc.end[g-1]
		}
		if seq := sc.sequence[m]; len(seq) > 0 {
			if last := sc.end[seq[len(seq)-1]]; last > t {
				t = last
			}
		}
		p := sc.inst.ProcessingTimes[j][o][sc.choice[g]]

		sc.start[g] = t
		sc.end[g] = t + p
		sc.sequence[m] = append(sc.sequence[m], g)
		sc.workload[m] += p
		sc.scheduled[j]++
	}
}

func (sc *Scratch) objectives() Objectives {
	var v Objectives
	for j := 0; j < sc.inst.NumJobs; j++ {
		c := sc.end[sc.offset[j]+sc.inst.NumOperations[j]-1]
		if c > v[0] {
			v[0] = c
		}
		v[1] += c
	}
	for _, w := range sc.workload {
		if w > v[2] {
			v[2] = w
		}
		v[3] += w
	}
	return v
}

// Decoder evaluates keys for a fixed pool of workers. Worker i always uses
// scratch set i, so concurrent calls with distinct worker ids never share
// buffers.
type Decoder struct {
	inst    *Instance
	scratch []*Scratch
}

// NewDecoder validates inst and allocates one scratch set per worker.
func NewDecoder(inst *Instance, workers int) (*Decoder, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("workers must be > 0 (got %d)", workers)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	d := &Decoder{inst: inst, scratch: make([]*Scratch, workers)}
	for i := range d.scratch {
		sc, err := NewScratch(inst)
		if err != nil {
			return nil, err
		}
		d.scratch[i] = sc
	}
	return d, nil
}

// Instance returns the decoded instance.
func (d *Decoder) Instance() *Instance { return d.inst }

// Workers returns the number of scratch sets.
func (d *Decoder) Workers() int { return len(d.scratch) }

// Scratch returns the scratch set owned by worker.
func (d *Decoder) Scratch(worker int) *Scratch { return d.scratch[worker] }

// Decode evaluates key with the scratch set of worker.
func (d *Decoder) Decode(worker int, key []float64) (Objectives, error) {
	if worker < 0 || worker >= len(d.scratch) {
		return Objectives{}, fmt.Errorf("worker %d out of range [0,%d)", worker, len(d.scratch))
	}
	return d.scratch[worker].Decode(key)
}

// MustDecode is Decode that panics on error.
func (d *Decoder) MustDecode(worker int, key []float64) Objectives {
	v, err := d.Decode(worker, key)
	if err != nil {
		panic(err)
	}
	return v
}
