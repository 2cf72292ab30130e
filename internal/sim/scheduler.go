package sim

import (
	"math"

	"github.com/idmod/outbreak/internal/params"
	"github.com/idmod/outbreak/internal/person"
	"github.com/idmod/outbreak/internal/stoch"
)

// Scheduler stamps future transition days on individuals at the moment they
// become exposed. Both terminal outcomes are decided here, once; nothing is
// re-rolled later.
type Scheduler struct {
	pars *params.Parameters
	rng  *stoch.Stream
}

// ScheduleExposure exposes p on the given day and stamps its whole future:
// the infectious day from the incubation draw, then a single fatality trial
// with probability CFR choosing between a death day and a recovery day.
func (s *Scheduler) ScheduleExposure(p *person.Person, day int) error {
	if err := p.Expose(day); err != nil {
		return err
	}
	incub := s.rng.Poisson(s.pars.Incub)
	if incub < 1 {
		// Infectiousness is always strictly after exposure.
		incub = 1
	}
	p.DayInfectious = day + incub
	s.scheduleOutcome(p, day)
	return nil
}

// scheduleOutcome runs the fatality trial and stamps the terminal day.
// Requires DayInfectious to be stamped already.
func (s *Scheduler) scheduleOutcome(p *person.Person, exposureDay int) {
	if s.rng.Bernoulli(s.pars.CFR) {
		delay := int(math.Round(s.rng.Normal(s.pars.TimeToDie, s.pars.TimeToDieStd)))
		if delay < 0 {
			delay = 0
		}
		p.DayDied = exposureDay + delay
	} else {
		p.DayRecovered = p.DayInfectious + s.rng.Poisson(s.pars.Dur)
	}
}
