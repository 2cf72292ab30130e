package sim

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Result series names. State counts are exclusive snapshots per day; the
// daily event counts feed the cumulative series computed at finalization.
const (
	KeySusceptible  = "n_susceptible"
	KeyExposed      = "n_exposed"
	KeyInfectious   = "n_infectious"
	KeyRecovered    = "n_recovered"
	KeyInfections   = "infections"
	KeyTests        = "tests"
	KeyDiagnoses    = "diagnoses"
	KeyRecoveries   = "recoveries"
	KeyDeaths       = "deaths"
	KeyCumExposed   = "cum_exposed"
	KeyCumTested    = "cum_tested"
	KeyCumDiagnosed = "cum_diagnosed"
	KeyCumDeaths    = "cum_deaths"
)

// ResultKeys lists every series in a results table, in reporting order.
var ResultKeys = []string{
	KeySusceptible,
	KeyExposed,
	KeyInfectious,
	KeyRecovered,
	KeyInfections,
	KeyTests,
	KeyDiagnoses,
	KeyRecoveries,
	KeyDeaths,
	KeyCumExposed,
	KeyCumTested,
	KeyCumDiagnosed,
	KeyCumDeaths,
}

// cumSources maps each cumulative series to the daily series it sums.
var cumSources = map[string]string{
	KeyCumExposed:   KeyInfections,
	KeyCumTested:    KeyTests,
	KeyCumDiagnosed: KeyDiagnoses,
	KeyCumDeaths:    KeyDeaths,
}

// ErrNotReady gates result consumption until the run completes.
var ErrNotReady = errors.New("results not ready: the run has not completed")

// Infection records who infected an individual and on which day.
type Infection struct {
	Source uuid.UUID `json:"source"`
	Day    int       `json:"day"`
}

// Results is the per-day results table of one run: one fixed-length series
// per metric (length horizon+1), the transmission tree, and a ready flag
// that gates reads until the run completes.
type Results struct {
	npts   int
	days   []int
	series map[string][]float64
	tree   map[uuid.UUID]Infection
	ready  bool
}

func newResults(npts int) *Results {
	r := &Results{
		npts:   npts,
		days:   make([]int, npts),
		series: make(map[string][]float64, len(ResultKeys)),
		tree:   make(map[uuid.UUID]Infection),
	}
	for t := 0; t < npts; t++ {
		r.days[t] = t
	}
	for _, key := range ResultKeys {
		r.series[key] = make([]float64, npts)
	}
	return r
}

func (r *Results) add(key string, t int, delta float64) {
	r.series[key][t] += delta
}

func (r *Results) recordInfection(target, source uuid.UUID, day int) {
	r.tree[target] = Infection{Source: source, Day: day}
}

// finalize computes the cumulative series from their daily counterparts,
// scales every series, and marks the table ready. Called exactly once, at
// the end of a completed run.
func (r *Results) finalize(scale float64) {
	for cum, daily := range cumSources {
		sum := 0.0
		for t, v := range r.series[daily] {
			sum += v
			r.series[cum][t] = sum
		}
	}
	for _, key := range ResultKeys {
		for t := range r.series[key] {
			r.series[key][t] *= scale
		}
	}
	r.ready = true
}

// Ready reports whether the run has completed and the table may be read.
func (r *Results) Ready() bool { return r.ready }

// Days returns the day vector 0..horizon.
func (r *Results) Days() []int { return r.days }

// Series returns the named series. It fails before the run completes and
// on unknown metric names.
func (r *Results) Series(key string) ([]float64, error) {
	if !r.ready {
		return nil, ErrNotReady
	}
	s, ok := r.series[key]
	if !ok {
		return nil, fmt.Errorf("unknown result series %q", key)
	}
	return s, nil
}

// TransmissionTree maps each infected individual to the individual and day
// that infected them. Seed infections have no entry.
func (r *Results) TransmissionTree() (map[uuid.UUID]Infection, error) {
	if !r.ready {
		return nil, ErrNotReady
	}
	return r.tree, nil
}

// Summary is the quick-reporting snapshot of a completed run.
type Summary struct {
	Susceptible float64 `json:"n_susceptible"`
	CumExposed  float64 `json:"cum_exposed"`
	Infectious  float64 `json:"n_infectious"`
	CumDeaths   float64 `json:"cum_deaths"`
}

// Summary returns the final-day snapshot.
func (r *Results) Summary() (Summary, error) {
	if !r.ready {
		return Summary{}, ErrNotReady
	}
	last := r.npts - 1
	return Summary{
		Susceptible: r.series[KeySusceptible][last],
		CumExposed:  r.series[KeyCumExposed][last],
		Infectious:  r.series[KeyInfectious][last],
		CumDeaths:   r.series[KeyCumDeaths][last],
	}, nil
}
