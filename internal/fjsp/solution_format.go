package fjsp

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ReadSolution reads a schedule written by WriteSolution: for every job and
// operation in order, one line "machine starting_time" with a 1-based machine.
// Ending times, machine sequences and objectives are derived from inst. A
// machine outside 1..NumMachines is ErrMalformedInput; an ineligible one is
// left for Verify.
func ReadSolution(r io.Reader, inst *Instance) (*Solution, error) {
	if inst == nil {
		return nil, ErrNilInstance
	}
	tr := newTokenReader(r, nil)
	s := NewSolution(inst)
	for j := range s.MachineOfOperation {
		for o := range s.MachineOfOperation[j] {
			m, err := tr.index(fmt.Sprintf("machine of operation %d of job %d", o+1, j+1))
			if err != nil {
				return nil, err
			}
			if m < 1 || m > inst.NumMachines {
				return nil, fmt.Errorf("%w: operation %d of job %d names machine %d (machines are 1..%d)",
					ErrMalformedInput, o+1, j+1, m, inst.NumMachines)
			}
			start, err := tr.float(fmt.Sprintf("starting time of operation %d of job %d", o+1, j+1))
			if err != nil {
				return nil, err
			}
			s.MachineOfOperation[j][o] = m - 1
			s.StartingTime[j][o] = start
		}
	}
	s.derive()
	return s, nil
}

// WriteSolution writes the machine (1-based) and starting time of every
// operation, job by job.
func WriteSolution(w io.Writer, s *Solution) error {
	bw := bufio.NewWriter(w)
	for j := range s.MachineOfOperation {
		for o, m := range s.MachineOfOperation[j] {
			fmt.Fprintf(bw, "%d %s\n", m+1, formatFloat(s.StartingTime[j][o]))
		}
	}
	return bw.Flush()
}

// ReadSolutionFile reads the schedule stored at path.
func ReadSolutionFile(path string, inst *Instance) (*Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadSolution(f, inst)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteSolutionFile writes s to path, replacing any existing file.
func WriteSolutionFile(path string, s *Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSolution(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
