package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/luishpmendes/mofjssp/internal/bench"
	"github.com/luishpmendes/mofjssp/internal/fjsp"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// RenderSchedule prints one row per operation in machine order.
func RenderSchedule(w io.Writer, s *fjsp.Solution) error {
	table := tablewriter.NewWriter(w)
	table.Header("Machine", "Job", "Operation", "Start", "End")
	for m, ops := range s.OperationsOfMachine {
		for _, op := range ops {
			table.Append(
				strconv.Itoa(m+1),
				strconv.Itoa(op.Job+1),
				strconv.Itoa(op.Operation+1),
				num(s.StartingTime[op.Job][op.Operation]),
				num(s.EndingTime[op.Job][op.Operation]),
			)
		}
	}
	return table.Render()
}

// RenderObjectives prints one row per objective vector.
func RenderObjectives(w io.Writer, values []fjsp.Objectives) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Makespan", "Total completion", "Max workload", "Total workload")
	for i, v := range values {
		table.Append(strconv.Itoa(i+1), num(v[0]), num(v[1]), num(v[2]), num(v[3]))
	}
	return table.Render()
}

// RenderRecords prints a bench summary: time, front size and the mean best
// value of every objective.
func RenderRecords(w io.Writer, records []bench.Record) error {
	table := tablewriter.NewWriter(w)
	table.Header("Algo", "Instance", "Runs", "Time ms", "Front", "Makespan", "Total completion", "Max workload", "Total workload")
	for _, r := range records {
		table.Append(
			r.Algo,
			r.Instance,
			strconv.Itoa(r.Runs),
			fmt.Sprintf("%.1f ± %.1f", r.TimeMeanMs, r.TimeStdMs),
			fmt.Sprintf("%.1f", r.FrontSizeMean),
			fmt.Sprintf("%.2f", r.Objective[0].Mean),
			fmt.Sprintf("%.2f", r.Objective[1].Mean),
			fmt.Sprintf("%.2f", r.Objective[2].Mean),
			fmt.Sprintf("%.2f", r.Objective[3].Mean),
		)
	}
	return table.Render()
}
