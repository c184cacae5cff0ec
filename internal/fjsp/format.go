package fjsp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// maxCount caps every count read from text. Per-job storage grows with the
// data actually read, so a large job count costs nothing until jobs arrive.
const maxCount = 1 << 24

// maxMachines caps the machine count of the header. The inverse index is
// sized from it before any job names a machine.
const maxMachines = 1 << 16

// tokenReader yields whitespace-delimited tokens, first from pending and
// then from the scanner.
type tokenReader struct {
	sc      *bufio.Scanner
	pending []string
}

func newTokenReader(r io.Reader, pending []string) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc, pending: pending}
}

func (tr *tokenReader) next(what string) (string, error) {
	if len(tr.pending) > 0 {
		tok := tr.pending[0]
		tr.pending = tr.pending[1:]
		return tok, nil
	}
	if tr.sc.Scan() {
		return tr.sc.Text(), nil
	}
	if err := tr.sc.Err(); err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrMalformedInput, what, err)
	}
	return "", fmt.Errorf("%w: unexpected end of input, expected %s", ErrMalformedInput, what)
}

func (tr *tokenReader) count(what string) (int, error) {
	tok, err := tr.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil || v < 0 || v > maxCount {
		return 0, fmt.Errorf("%w: %s %q is not a valid count", ErrMalformedInput, what, tok)
	}
	return v, nil
}

func (tr *tokenReader) index(what string) (int, error) {
	tok, err := tr.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrMalformedInput, what, tok)
	}
	return v, nil
}

func (tr *tokenReader) float(what string) (float64, error) {
	tok, err := tr.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformedInput, what, tok)
	}
	return v, nil
}

// ParseInstance reads an instance in the FJSP text format:
//
//	num_jobs num_machines [avg_machines_per_operation]
//	num_operations {num_eligible {machine time}...}...   (one line per job)
//
// Machine indices are 1-based in the text. A first line of exactly three
// tokens is read as a header with the flexibility token, unless only the
// reading that keeps the third token as the operation count of the first
// job consumes the whole input and yields a valid instance. The instance
// is not validated; call Validate before decoding against it.
func ParseInstance(r io.Reader) (*Instance, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	header, rest, err := firstLine(data)
	if err != nil {
		return nil, err
	}
	if len(header) != 3 {
		inst, _, err := parseTokens(newTokenReader(bytes.NewReader(rest), header))
		return inst, err
	}

	// The Brandimarte files carry the average flexibility as a third header token.
	inst, complete, err := parseTokens(newTokenReader(bytes.NewReader(rest), header[:2]))
	if err == nil && complete && inst.IsValid() {
		return inst, nil
	}
	alt, altComplete, altErr := parseTokens(newTokenReader(bytes.NewReader(rest), header))
	if altErr == nil && altComplete && alt.IsValid() {
		return alt, nil
	}
	return inst, err
}

// parseTokens reads one instance from tr. complete reports whether no token
// was left after the last job.
func parseTokens(tr *tokenReader) (inst *Instance, complete bool, err error) {
	jobs, err := tr.count("number of jobs")
	if err != nil {
		return nil, false, err
	}
	machines, err := tr.count("number of machines")
	if err != nil {
		return nil, false, err
	}

	if machines > maxMachines {
		return nil, false, fmt.Errorf("%w: number of machines %d exceeds %d", ErrMalformedInput, machines, maxMachines)
	}

	inst = newShell(0, 0)
	inst.NumJobs, inst.NumMachines = jobs, machines
	inst.NumOperations = make([]int, 0, min(jobs, 1024))
	inst.MachinesOfOperation = make([][][]int, 0, min(jobs, 1024))
	inst.ProcessingTimes = make([][][]float64, 0, min(jobs, 1024))
	var pairs []Triple
	for j := 0; j < jobs; j++ {
		ops, err := tr.count(fmt.Sprintf("operation count of job %d", j+1))
		if err != nil {
			return nil, false, err
		}
		inst.TotalNumOperations += ops
		eligibility := make([][]int, 0, min(ops, 1024))
		processing := make([][]float64, 0, min(ops, 1024))

		for o := 0; o < ops; o++ {
			k, err := tr.count(fmt.Sprintf("eligible machine count of operation %d of job %d", o+1, j+1))
			if err != nil {
				return nil, false, err
			}
			eligible := make([]int, 0, min(k, machines))
			times := make([]float64, 0, min(k, machines))
			for i := 0; i < k; i++ {
				m, err := tr.index(fmt.Sprintf("machine of operation %d of job %d", o+1, j+1))
				if err != nil {
					return nil, false, err
				}
				if m < 1 || m > machines {
					return nil, false, fmt.Errorf("%w: operation %d of job %d names machine %d (machines are 1..%d)",
						ErrMalformedInput, o+1, j+1, m, machines)
				}
				p, err := tr.float(fmt.Sprintf("processing time of operation %d of job %d", o+1, j+1))
				if err != nil {
					return nil, false, err
				}
				eligible = append(eligible, m-1)
				times = append(times, p)
				pairs = append(pairs, Triple{Job: j, Operation: o, Machine: m - 1})
			}
			eligibility = append(eligibility, eligible)
			processing = append(processing, times)
		}
		inst.NumOperations = append(inst.NumOperations, ops)
		inst.MachinesOfOperation = append(inst.MachinesOfOperation, eligibility)
		inst.ProcessingTimes = append(inst.ProcessingTimes, processing)
	}

	inst.OperationsOfMachine = make([][]Op, machines)
	for _, t := range pairs {
		inst.OperationsOfMachine[t.Machine] = append(inst.OperationsOfMachine[t.Machine], Op{Job: t.Job, Operation: t.Operation})
	}
	inst.computePrimalBound()
	_, trailing := tr.next("end of input")
	return inst, trailing != nil, nil
}

// firstLine returns the tokens of the first non-blank line and the input
// after it. A line with more than three tokens is returned whole: the
// instance was written on one line.
func firstLine(data []byte) ([]string, []byte, error) {
	for len(data) > 0 {
		line, rest, _ := bytes.Cut(data, []byte{'\n'})
		if fields := strings.Fields(string(line)); len(fields) > 0 {
			return fields, rest, nil
		}
		data = rest
	}
	return nil, nil, fmt.Errorf("%w: empty input", ErrMalformedInput)
}

// FormatInstance writes inst in the text format read by ParseInstance.
func FormatInstance(w io.Writer, inst *Instance) error {
	if inst == nil {
		return ErrNilInstance
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", inst.NumJobs, inst.NumMachines)
	for j := 0; j < inst.NumJobs; j++ {
		bw.WriteString(strconv.Itoa(inst.NumOperations[j]))
		for o, machines := range inst.MachinesOfOperation[j] {
			fmt.Fprintf(bw, " %d", len(machines))
			for i, m := range machines {
				fmt.Fprintf(bw, " %d %s", m+1, formatFloat(inst.ProcessingTimes[j][o][i]))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadInstanceFile parses the instance stored at path.
func ReadInstanceFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	inst, err := ParseInstance(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// WriteInstanceFile writes inst to path, replacing any existing file.
func WriteInstanceFile(path string, inst *Instance) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := FormatInstance(f, inst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
