// Package params defines the simulation parameter set.
// The engine reads typed fields; the CLI goes through Store, which offers
// name-keyed access with nearest-match suggestions for unknown keys.
package params

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Parameters holds every tunable for a single simulation run. A Sim always
// works on its own copy, so interventions that mutate parameters mid-run
// never leak across replicates.
type Parameters struct {
	// Scale is the factor by which all result counts are multiplied, to
	// extrapolate from a sampled sub-population to a full-population estimate.
	Scale float64 `yaml:"scale"`

	// N is the population size.
	N int `yaml:"n"`

	// NInfected is the number of seed infections present on day 0.
	NInfected int `yaml:"n_infected"`

	// Day0 is the calendar date of day 0. It is bookkeeping only; the
	// engine works in integer days.
	Day0 time.Time `yaml:"day0"`

	// NDays is the simulation horizon. The run covers days 0..NDays inclusive.
	NDays int `yaml:"n_days"`

	// Seed initializes the simulation's random stream. Replicates perturb
	// it by their index.
	Seed int64 `yaml:"seed"`

	// UsePopData selects the external population-data age/sex sampler
	// instead of the synthetic one.
	UsePopData bool `yaml:"usepopdata"`

	// R0 is the basic reproduction number. The per-contact transmission
	// probability is R0 / Dur / Contacts.
	R0 float64 `yaml:"r0"`

	// Contacts is the mean number of contacts per infectious individual
	// per day (Poisson distributed).
	Contacts float64 `yaml:"contacts"`

	// Incub is the mean incubation delay in days from exposure to
	// infectiousness.
	Incub float64 `yaml:"incub"`

	// Dur is the mean disease duration in days from infectiousness to
	// recovery.
	Dur float64 `yaml:"dur"`

	// CFR is the case fatality rate: the probability, decided once at
	// exposure time, that the eventual outcome is death rather than recovery.
	CFR float64 `yaml:"cfr"`

	// TimeToDie is the mean delay in days from exposure to death, for
	// individuals on the fatal branch.
	TimeToDie float64 `yaml:"timetodie"`

	// TimeToDieStd is the standard deviation of the death delay.
	TimeToDieStd float64 `yaml:"timetodie_std"`

	// Sensitivity is the probability that a test on an infectious
	// individual comes back positive. There is no false-positive model.
	Sensitivity float64 `yaml:"sensitivity"`

	// Symptomatic is the testing-probability multiplier for infectious
	// individuals relative to other non-susceptible individuals.
	Symptomatic float64 `yaml:"symptomatic"`

	// Intervene is the day on which the contact-rate intervention starts,
	// or -1 for never.
	Intervene int `yaml:"intervene"`

	// Unintervene is the day on which the intervention is lifted, or -1
	// for never.
	Unintervene int `yaml:"unintervene"`

	// InterventionEff scales Contacts by (1 - InterventionEff) while the
	// intervention is active.
	InterventionEff float64 `yaml:"intervention_eff"`

	// DailyTests is the per-day test budget feed. It may be shorter than
	// the horizon or empty; days past its end get no testing.
	DailyTests []int `yaml:"daily_tests,omitempty"`
}

// Default returns the baseline parameter set.
func Default() *Parameters {
	day0 := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	return &Parameters{
		Scale:           1,
		N:               10000,
		NInfected:       1,
		Day0:            day0,
		NDays:           54,
		Seed:            1,
		UsePopData:      false,
		R0:              2.9,
		Contacts:        20,
		Incub:           4.0,
		Dur:             12,
		CFR:             0.02,
		TimeToDie:       22,
		TimeToDieStd:    2,
		Sensitivity:     1.0,
		Symptomatic:     5,
		Intervene:       -1,
		Unintervene:     -1,
		InterventionEff: 0,
	}
}

// Clone returns a deep copy, so a run can mutate its parameters without
// touching the caller's.
func (p *Parameters) Clone() *Parameters {
	c := *p
	if p.DailyTests != nil {
		c.DailyTests = append([]int(nil), p.DailyTests...)
	}
	return &c
}

// LoadFromFile loads a parameter bundle from a YAML file. Keys absent from
// the file keep their defaults; unknown keys fail fast.
func LoadFromFile(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter file: %w", err)
	}
	defer f.Close()

	p := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("parsing parameter file %s: %w", path, err)
	}
	return p, nil
}

// ApplyEnvOverrides applies OUTBREAK_<KEY> environment variables on top of
// the current values, e.g. OUTBREAK_SEED=42 or OUTBREAK_N_DAYS=120.
// Override order: defaults -> file -> environment -> CLI flags.
func (p *Parameters) ApplyEnvOverrides() error {
	st := NewStore(p)
	for _, key := range st.Keys() {
		env := "OUTBREAK_" + envName(key)
		v, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		if err := st.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

func envName(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Validate checks that the parameter set describes a runnable simulation.
func (p *Parameters) Validate() error {
	if p.N <= 0 {
		return fmt.Errorf("n must be positive, got %d", p.N)
	}
	if p.NInfected < 0 || p.NInfected > p.N {
		return fmt.Errorf("n_infected must be in [0, n], got %d with n=%d", p.NInfected, p.N)
	}
	if p.NDays < 0 {
		return fmt.Errorf("n_days must be non-negative, got %d", p.NDays)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", p.Scale)
	}
	if p.R0 < 0 {
		return fmt.Errorf("r0 must be non-negative, got %g", p.R0)
	}
	if p.Contacts <= 0 {
		return fmt.Errorf("contacts must be positive, got %g", p.Contacts)
	}
	if p.Incub < 0 || p.Dur <= 0 {
		return fmt.Errorf("incub must be non-negative and dur positive, got incub=%g dur=%g", p.Incub, p.Dur)
	}
	for name, v := range map[string]float64{
		"cfr":         p.CFR,
		"sensitivity": p.Sensitivity,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be a probability in [0, 1], got %g", name, v)
		}
	}
	if p.Symptomatic < 0 {
		return fmt.Errorf("symptomatic must be non-negative, got %g", p.Symptomatic)
	}
	if p.TimeToDie < 0 || p.TimeToDieStd < 0 {
		return fmt.Errorf("timetodie and timetodie_std must be non-negative, got %g and %g", p.TimeToDie, p.TimeToDieStd)
	}
	if p.InterventionEff < 0 || p.InterventionEff >= 1 {
		// An efficacy of exactly 1 cannot be inverted when the
		// intervention lifts.
		return fmt.Errorf("intervention_eff must be in [0, 1), got %g", p.InterventionEff)
	}
	for i, n := range p.DailyTests {
		if n < 0 {
			return fmt.Errorf("daily_tests[%d] must be non-negative, got %d", i, n)
		}
	}
	return nil
}
