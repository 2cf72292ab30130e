// Package person models a single simulated individual and the ordered
// population they belong to. Disease progression is an explicit state
// machine; transitions that the machine does not allow are errors, never
// silent no-ops.
package person

import (
	"fmt"

	"github.com/google/uuid"
)

// State is an individual's position in the disease progression. Exactly one
// state holds at any time.
type State int

const (
	Susceptible State = iota
	Exposed
	Infectious
	Recovered
	Dead
)

func (s State) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Exposed:
		return "exposed"
	case Infectious:
		return "infectious"
	case Recovered:
		return "recovered"
	case Dead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DayUnset marks a scheduled-day field that has not been stamped.
const DayUnset = -1

// TransitionError reports an attempt to move an individual through a
// transition the state machine forbids, such as re-exposing the recovered.
type TransitionError struct {
	ID   uuid.UUID
	From State
	To   State
	Day  int
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("person %s: illegal transition %s -> %s on day %d", e.ID, e.From, e.To, e.Day)
}

// Person is a single agent. Scheduled days are stamped by the transition
// scheduler at exposure time and fire later; DayUnset means not scheduled.
type Person struct {
	ID  uuid.UUID
	Age float64
	Sex int // female (0) or male (1)

	State     State
	Diagnosed bool

	DayExposed    int
	DayInfectious int
	DayDiagnosed  int
	DayRecovered  int
	DayDied       int
}

// New creates a susceptible person with no scheduled transitions.
func New(age float64, sex int) *Person {
	return &Person{
		ID:            uuid.New(),
		Age:           age,
		Sex:           sex,
		State:         Susceptible,
		DayExposed:    DayUnset,
		DayInfectious: DayUnset,
		DayDiagnosed:  DayUnset,
		DayRecovered:  DayUnset,
		DayDied:       DayUnset,
	}
}

// Expose moves a susceptible person to exposed on the given day. Anyone who
// has ever left the susceptible state cannot be exposed again.
func (p *Person) Expose(day int) error {
	if p.State != Susceptible {
		return &TransitionError{ID: p.ID, From: p.State, To: Exposed, Day: day}
	}
	p.State = Exposed
	p.DayExposed = day
	return nil
}

// BecomeInfectious fires the exposed-to-infectious transition.
func (p *Person) BecomeInfectious(day int) error {
	if p.State != Exposed {
		return &TransitionError{ID: p.ID, From: p.State, To: Infectious, Day: day}
	}
	p.State = Infectious
	return nil
}

// Recover fires the infectious-to-recovered transition. Recovery is
// terminal.
func (p *Person) Recover(day int) error {
	if p.State != Infectious {
		return &TransitionError{ID: p.ID, From: p.State, To: Recovered, Day: day}
	}
	p.State = Recovered
	return nil
}

// Die fires the infectious-to-dead transition. Death is terminal.
func (p *Person) Die(day int) error {
	if p.State != Infectious {
		return &TransitionError{ID: p.ID, From: p.State, To: Dead, Day: day}
	}
	p.State = Dead
	return nil
}

// Diagnose marks an infectious person as diagnosed. Diagnosis is orthogonal
// to the disease states, happens at most once, and only while infectious.
func (p *Person) Diagnose(day int) error {
	if p.State != Infectious || p.Diagnosed {
		return &TransitionError{ID: p.ID, From: p.State, To: p.State, Day: day}
	}
	p.Diagnosed = true
	p.DayDiagnosed = day
	return nil
}
