package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idmod/outbreak/internal/demog"
	"github.com/idmod/outbreak/internal/logging"
	"github.com/idmod/outbreak/internal/params"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "outbreak",
		Short: "Stochastic agent-based epidemic simulator",
		Long: `outbreak runs discrete-time stochastic epidemic simulations over a closed
population: susceptible individuals are exposed through random-mixing
contacts, progress to infectiousness, and recover or die, with testing and
a contact-rate intervention overlaid.

Runs are deterministic for a fixed seed; multirun executes independent
seed-perturbed replicates in parallel.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("params", "", "Parameter bundle YAML file (defaults built in)")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a parameter, e.g. --set n_days=90 (repeatable)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: info, debug, or trace")
	rootCmd.PersistentFlags().String("popdata", "", "Population age/sex CSV, used when usepopdata is set")
	rootCmd.PersistentFlags().Bool("synthetic-fallback", false, "Fall back to the synthetic age/sex model if the population data source is unavailable")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newMultiRunCmd(),
		newParamsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("outbreak version %s\n", version)
			}
		},
	}
}

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the active parameter set",
		Long: `Print the parameter set that a run would use: built-in defaults, then the
--params file, then OUTBREAK_* environment variables, then --set overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pars, err := loadParameters(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			st := params.NewStore(pars)
			if jsonOut {
				out := make(map[string]any, len(st.Keys()))
				for _, k := range st.Keys() {
					v, _ := st.Get(k)
					out[k] = v
				}
				return json.NewEncoder(os.Stdout).Encode(out)
			}
			renderParams(os.Stdout, st)
			return nil
		},
	}
}

// loadParameters assembles the run's parameter set from the shared flags:
// defaults, then the --params file, then environment, then --set overrides.
func loadParameters(cmd *cobra.Command) (*params.Parameters, error) {
	path, _ := cmd.Flags().GetString("params")

	pars := params.Default()
	if path != "" {
		loaded, err := params.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		pars = loaded
	}
	if err := pars.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	st := params.NewStore(pars)
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set wants key=value, got %q", kv)
		}
		if err := st.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}

	if err := pars.Validate(); err != nil {
		return nil, err
	}
	return pars, nil
}

// newSampler selects the age/sex source for the run. With usepopdata set it
// loads the population CSV, surfacing a data-source failure unless the
// caller opted into the synthetic fallback.
func newSampler(cmd *cobra.Command, pars *params.Parameters) (demog.Sampler, error) {
	if !pars.UsePopData {
		return demog.NewSynthetic(), nil
	}

	path, _ := cmd.Flags().GetString("popdata")
	file, err := demog.LoadFile(path)
	if err == nil {
		return file, nil
	}

	fallback, _ := cmd.Flags().GetBool("synthetic-fallback")
	if !fallback {
		return nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	logging.NewLogger(level, os.Stderr).Warn("falling back to synthetic age/sex model", "error", err)
	return demog.NewSynthetic(), nil
}
