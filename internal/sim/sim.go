// Package sim implements the day-by-day stochastic epidemic engine: state
// transitions, random-mixing contact sampling, weighted test allocation,
// the contact-rate intervention window, and result aggregation.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/idmod/outbreak/internal/demog"
	"github.com/idmod/outbreak/internal/logging"
	"github.com/idmod/outbreak/internal/params"
	"github.com/idmod/outbreak/internal/person"
	"github.com/idmod/outbreak/internal/stoch"
)

// Sim is one simulation instance. It owns a private copy of the parameters
// (interventions mutate them mid-run), its own seeded random stream, and
// the population and results it builds during Run. A Sim is single-threaded;
// parallelism lives at the whole-replicate level in MultiRun.
type Sim struct {
	pars    *params.Parameters
	rng     *stoch.Stream
	sampler demog.Sampler
	log     *slog.Logger
	events  *logging.EventLogger

	people  *person.Population
	results *Results

	scheduler *Scheduler
	contacts  *ContactSampler
	tests     *TestAllocator
}

// Option configures a Sim.
type Option func(*Sim)

// WithLogger sets the operational logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Sim) { s.log = log }
}

// WithEventLogger sets the JSONL epidemic-event tracer.
func WithEventLogger(events *logging.EventLogger) Option {
	return func(s *Sim) { s.events = events }
}

// WithSampler sets the age/sex sampler. The default is the synthetic model.
func WithSampler(sampler demog.Sampler) Option {
	return func(s *Sim) { s.sampler = sampler }
}

// New validates pars and builds a simulation around a private copy of it.
func New(pars *params.Parameters, opts ...Option) (*Sim, error) {
	if err := pars.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	s := &Sim{
		pars:    pars.Clone(),
		rng:     stoch.New(uint64(pars.Seed)),
		sampler: demog.NewSynthetic(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scheduler = &Scheduler{pars: s.pars, rng: s.rng}
	s.contacts = &ContactSampler{pars: s.pars, rng: s.rng}
	s.tests = &TestAllocator{pars: s.pars, rng: s.rng}
	return s, nil
}

// Pars returns the simulation's live parameter set. After a run with an
// intervention window that closed, contacts is back to its original value
// within floating-point tolerance of the divide-back.
func (s *Sim) Pars() *params.Parameters { return s.pars }

// Results returns the results table. Reads fail until the run completes.
func (s *Sim) Results() *Results { return s.results }

// npts is the number of time points: days 0..NDays inclusive.
func (s *Sim) npts() int { return s.pars.NDays + 1 }

// initPeople builds a fresh population and plants the seed infections.
// Seeds are infectious immediately (exposure and infectiousness both on
// day 0) and pass through the same outcome scheduling as everyone else.
func (s *Sim) initPeople() error {
	s.people = person.NewPopulation(s.pars.N)
	for i := 0; i < s.pars.N; i++ {
		age, sex, err := s.sampler.AgeSex(s.rng)
		if err != nil {
			return fmt.Errorf("sampling age/sex for individual %d: %w", i, err)
		}
		s.people.Add(person.New(age, sex))
	}

	for i := 0; i < s.pars.NInfected; i++ {
		p := s.people.At(i)
		if err := p.Expose(0); err != nil {
			return err
		}
		p.DayInfectious = 0
		if err := p.BecomeInfectious(0); err != nil {
			return err
		}
		s.scheduler.scheduleOutcome(p, 0)
		s.results.add(KeyInfections, 0, 1)
	}
	return nil
}

// Run executes the full day range and returns the finalized results table.
// Each call rebuilds the population and results, so a Sim can be re-run.
// A failed or cancelled run never exposes a partial table as ready.
func (s *Sim) Run(ctx context.Context) (*Results, error) {
	s.results = newResults(s.npts())
	if err := s.initPeople(); err != nil {
		return nil, err
	}

	s.log.Info("starting run",
		"n", s.pars.N,
		"n_infected", s.pars.NInfected,
		"n_days", s.pars.NDays,
		"seed", s.pars.Seed)

	for t := 0; t < s.npts(); t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted on day %d: %w", t, err)
		}
		if err := s.step(t); err != nil {
			return nil, fmt.Errorf("day %d: %w", t, err)
		}
	}

	s.results.finalize(s.pars.Scale)

	summary, _ := s.results.Summary()
	s.log.Info("run finished",
		"n_susceptible", summary.Susceptible,
		"n_infectious", summary.Infectious,
		"cum_exposed", summary.CumExposed,
		"cum_deaths", summary.CumDeaths)

	return s.results, nil
}

// step advances one day: count states, fire due transitions (death before
// recovery), spread infection from surviving infectious individuals, run
// the day's testing, then apply the intervention schedule.
func (s *Sim) step(t int) error {
	s.log.Debug("running day", "day", t, "of", s.pars.NDays)

	beta := s.contacts.TransmissionProb()
	pool := &testPool{}

	for i := 0; i < s.people.Len(); i++ {
		p := s.people.At(i)

		if p.State == person.Susceptible {
			s.results.add(KeySusceptible, t, 1)
			continue
		}

		// Capture the testing weight before today's transitions fire, so
		// someone who turns infectious today still tests at base weight.
		weight := 1.0
		if p.State == person.Infectious {
			weight = s.pars.Symptomatic
		}
		pool.add(p, weight)

		if p.State == person.Exposed {
			if p.DayInfectious == person.DayUnset || t < p.DayInfectious {
				s.results.add(KeyExposed, t, 1)
				continue
			}
			if err := p.BecomeInfectious(t); err != nil {
				return err
			}
			s.log.Log(context.Background(), logging.LevelTrace, "became infectious", "person", p.ID, "day", t)
		}

		if p.State == person.Infectious {
			// Death takes precedence when both would fire the same day,
			// and a resolved individual is out of today's contact pass.
			if p.DayDied != person.DayUnset && t >= p.DayDied {
				if err := p.Die(t); err != nil {
					return err
				}
				s.results.add(KeyDeaths, t, 1)
				s.events.Log("death", map[string]any{"person": p.ID.String(), "day": t})
				continue
			}
			if p.DayRecovered != person.DayUnset && t >= p.DayRecovered {
				if err := p.Recover(t); err != nil {
					return err
				}
				s.results.add(KeyRecoveries, t, 1)
				s.results.add(KeyRecovered, t, 1)
				continue
			}

			s.results.add(KeyInfectious, t, 1)
			if err := s.spread(p, i, t, beta); err != nil {
				return err
			}
			continue
		}

		if p.State == person.Recovered {
			s.results.add(KeyRecovered, t, 1)
		}
	}

	if err := s.runTests(t, pool); err != nil {
		return err
	}
	s.applyInterventions(t)
	return nil
}

// spread draws source's contacts for the day and resolves each one with an
// independent transmission trial. The trial is evaluated for every contact;
// only susceptible targets change state.
func (s *Sim) spread(source *person.Person, sourceIdx, t int, beta float64) error {
	for _, j := range s.contacts.Contacts(sourceIdx, s.people.Len()) {
		if !s.rng.Bernoulli(beta) {
			continue
		}
		target := s.people.At(j)
		if target.State != person.Susceptible {
			continue
		}
		if err := s.scheduler.ScheduleExposure(target, t); err != nil {
			return err
		}
		s.results.add(KeyInfections, t, 1)
		s.results.recordInfection(target.ID, source.ID, t)
		s.log.Log(context.Background(), logging.LevelTrace, "infection", "source", source.ID, "target", target.ID, "day", t)
		s.events.Log("infection", map[string]any{
			"source": source.ID.String(),
			"target": target.ID.String(),
			"day":    t,
		})
	}
	return nil
}

// runTests spends the day's test budget against the accumulated weights.
func (s *Sim) runTests(t int, pool *testPool) error {
	tests, diagnosed, err := s.tests.Allocate(t, pool)
	if err != nil {
		return err
	}
	if tests == 0 {
		return nil
	}
	s.results.add(KeyTests, t, float64(tests))
	s.results.add(KeyDiagnoses, t, float64(len(diagnosed)))
	for _, p := range diagnosed {
		s.log.Log(context.Background(), logging.LevelTrace, "diagnosis", "person", p.ID, "day", t)
		s.events.Log("diagnosis", map[string]any{"person": p.ID.String(), "day": t})
	}
	return nil
}

// applyInterventions scales contacts down when the intervention day is
// reached and inverts the scaling exactly on the unintervene day. Only one
// intervention window is supported.
func (s *Sim) applyInterventions(t int) {
	if t == s.pars.Intervene {
		s.pars.Contacts *= 1 - s.pars.InterventionEff
		s.log.Info("intervention applied", "day", t, "contacts", s.pars.Contacts)
		s.events.Log("intervene", map[string]any{"day": t, "contacts": s.pars.Contacts})
	}
	if t == s.pars.Unintervene {
		s.pars.Contacts /= 1 - s.pars.InterventionEff
		s.log.Info("intervention lifted", "day", t, "contacts", s.pars.Contacts)
		s.events.Log("unintervene", map[string]any{"day": t, "contacts": s.pars.Contacts})
	}
}
