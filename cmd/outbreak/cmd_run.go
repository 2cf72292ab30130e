package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/idmod/outbreak/internal/logging"
	"github.com/idmod/outbreak/internal/sim"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single simulation",
		Long: `Run one simulation to the configured horizon and print the end-of-run
summary. With --days-table the tail of the per-day results table is printed
as well.

Example:
  outbreak run --params seattle.yaml --set intervene=10 --set intervention_eff=0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pars, err := loadParameters(cmd)
			if err != nil {
				return err
			}
			sampler, err := newSampler(cmd, pars)
			if err != nil {
				return err
			}

			level, _ := cmd.Flags().GetString("log-level")
			opts := []sim.Option{
				sim.WithLogger(logging.NewLogger(level, os.Stderr)),
				sim.WithSampler(sampler),
			}
			if trace, _ := cmd.Flags().GetString("events"); trace != "" {
				events := logging.NewEventLogger(trace)
				defer events.Close()
				opts = append(opts, sim.WithEventLogger(events))
			}

			s, err := sim.New(pars, opts...)
			if err != nil {
				return err
			}
			results, err := s.Run(cmd.Context())
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			daysTable, _ := cmd.Flags().GetInt("days-table")

			if jsonOut {
				return writeRunJSON(results)
			}
			summary, err := results.Summary()
			if err != nil {
				return err
			}
			renderSummary(os.Stdout, summary)
			if daysTable > 0 {
				renderSeriesTail(os.Stdout, results, daysTable)
			}
			return nil
		},
	}

	cmd.Flags().Int("days-table", 0, "Print the last N days of the results table")
	cmd.Flags().String("events", "", "Write a JSONL epidemic-event trace to this file")

	return cmd
}

// writeRunJSON emits the full results table, transmission tree included.
func writeRunJSON(results *sim.Results) error {
	series := make(map[string][]float64, len(sim.ResultKeys))
	for _, key := range sim.ResultKeys {
		s, err := results.Series(key)
		if err != nil {
			return err
		}
		series[key] = s
	}
	tree, err := results.TransmissionTree()
	if err != nil {
		return err
	}
	summary, err := results.Summary()
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(map[string]any{
		"t":         results.Days(),
		"results":   series,
		"transtree": tree,
		"summary":   summary,
	})
}
