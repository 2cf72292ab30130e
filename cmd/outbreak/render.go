package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/idmod/outbreak/internal/params"
	"github.com/idmod/outbreak/internal/sim"
)

func renderSummary(w io.Writer, s sim.Summary) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"Susceptible (final day)", fmt.Sprintf("%.0f", s.Susceptible)})
	tw.AppendRow(table.Row{"Infectious (final day)", fmt.Sprintf("%.0f", s.Infectious)})
	tw.AppendRow(table.Row{"Cumulative exposed", fmt.Sprintf("%.0f", s.CumExposed)})
	tw.AppendRow(table.Row{"Cumulative deaths", fmt.Sprintf("%.0f", s.CumDeaths)})
	fmt.Fprintln(w, tw.Render())
}

// renderSeriesTail prints the last n days of the per-day table, one row per
// day, one column per series.
func renderSeriesTail(w io.Writer, results *sim.Results, n int) {
	days := results.Days()
	start := len(days) - n
	if start < 0 {
		start = 0
	}

	header := table.Row{"day"}
	series := make(map[string][]float64, len(sim.ResultKeys))
	for _, key := range sim.ResultKeys {
		s, err := results.Series(key)
		if err != nil {
			fmt.Fprintln(w, err)
			return
		}
		series[key] = s
		header = append(header, key)
	}

	tw := table.NewWriter()
	tw.AppendHeader(header)
	for _, t := range days[start:] {
		row := table.Row{t}
		for _, key := range sim.ResultKeys {
			row = append(row, fmt.Sprintf("%.0f", series[key][t]))
		}
		tw.AppendRow(row)
	}
	fmt.Fprintln(w, tw.Render())
}

func renderReplicates(w io.Writer, reps []sim.Replicate) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Replicate", "Seed", "Susceptible", "Infectious", "Cum Exposed", "Cum Deaths", "Status"})
	for _, rep := range reps {
		if rep.Err != nil {
			tw.AppendRow(table.Row{rep.Index, "", "", "", "", "", rep.Err.Error()})
			continue
		}
		s, err := rep.Sim.Results().Summary()
		if err != nil {
			tw.AppendRow(table.Row{rep.Index, "", "", "", "", "", err.Error()})
			continue
		}
		tw.AppendRow(table.Row{
			rep.Index,
			rep.Sim.Pars().Seed,
			fmt.Sprintf("%.0f", s.Susceptible),
			fmt.Sprintf("%.0f", s.Infectious),
			fmt.Sprintf("%.0f", s.CumExposed),
			fmt.Sprintf("%.0f", s.CumDeaths),
			"ok",
		})
	}
	fmt.Fprintln(w, tw.Render())
}

func renderParams(w io.Writer, st *params.Store) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Parameter", "Value"})
	for _, key := range st.Keys() {
		v, err := st.Get(key)
		if err != nil {
			continue
		}
		tw.AppendRow(table.Row{key, fmt.Sprintf("%v", v)})
	}
	fmt.Fprintln(w, tw.Render())
}
