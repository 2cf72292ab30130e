package person

import (
	"errors"
	"testing"
)

func TestNew_StartsSusceptible(t *testing.T) {
	p := New(35, 1)
	if p.State != Susceptible {
		t.Errorf("State = %v, want susceptible", p.State)
	}
	if p.Diagnosed {
		t.Error("new person should not be diagnosed")
	}
	for name, day := range map[string]int{
		"DayExposed":    p.DayExposed,
		"DayInfectious": p.DayInfectious,
		"DayDiagnosed":  p.DayDiagnosed,
		"DayRecovered":  p.DayRecovered,
		"DayDied":       p.DayDied,
	} {
		if day != DayUnset {
			t.Errorf("%s = %d, want DayUnset", name, day)
		}
	}
}

func TestPerson_LegalProgression(t *testing.T) {
	p := New(35, 0)

	if err := p.Expose(3); err != nil {
		t.Fatalf("Expose: %v", err)
	}
	if p.State != Exposed || p.DayExposed != 3 {
		t.Errorf("after Expose: state=%v day=%d", p.State, p.DayExposed)
	}

	if err := p.BecomeInfectious(7); err != nil {
		t.Fatalf("BecomeInfectious: %v", err)
	}
	if err := p.Diagnose(8); err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if p.DayDiagnosed != 8 {
		t.Errorf("DayDiagnosed = %d, want 8", p.DayDiagnosed)
	}

	if err := p.Recover(15); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if p.State != Recovered {
		t.Errorf("State = %v, want recovered", p.State)
	}
}

func TestPerson_DeathBranch(t *testing.T) {
	p := New(70, 1)
	if err := p.Expose(0); err != nil {
		t.Fatalf("Expose: %v", err)
	}
	if err := p.BecomeInfectious(4); err != nil {
		t.Fatalf("BecomeInfectious: %v", err)
	}
	if err := p.Die(20); err != nil {
		t.Fatalf("Die: %v", err)
	}
	if p.State != Dead {
		t.Errorf("State = %v, want dead", p.State)
	}
}

func TestPerson_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *Person)
		move  func(p *Person) error
	}{
		{"expose twice", func(p *Person) { p.Expose(0) }, func(p *Person) error { return p.Expose(1) }},
		{"expose the recovered", func(p *Person) {
			p.Expose(0)
			p.BecomeInfectious(2)
			p.Recover(9)
		}, func(p *Person) error { return p.Expose(10) }},
		{"expose the dead", func(p *Person) {
			p.Expose(0)
			p.BecomeInfectious(2)
			p.Die(9)
		}, func(p *Person) error { return p.Expose(10) }},
		{"infectious without exposure", func(p *Person) {}, func(p *Person) error { return p.BecomeInfectious(1) }},
		{"recover without infectiousness", func(p *Person) { p.Expose(0) }, func(p *Person) error { return p.Recover(5) }},
		{"die after recovery", func(p *Person) {
			p.Expose(0)
			p.BecomeInfectious(2)
			p.Recover(9)
		}, func(p *Person) error { return p.Die(10) }},
		{"recover after death", func(p *Person) {
			p.Expose(0)
			p.BecomeInfectious(2)
			p.Die(9)
		}, func(p *Person) error { return p.Recover(10) }},
		{"diagnose the susceptible", func(p *Person) {}, func(p *Person) error { return p.Diagnose(1) }},
		{"diagnose twice", func(p *Person) {
			p.Expose(0)
			p.BecomeInfectious(2)
			p.Diagnose(3)
		}, func(p *Person) error { return p.Diagnose(4) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(40, 0)
			tt.setup(p)
			err := tt.move(p)
			if err == nil {
				t.Fatal("expected a transition error")
			}
			var trErr *TransitionError
			if !errors.As(err, &trErr) {
				t.Fatalf("expected *TransitionError, got %T: %v", err, err)
			}
		})
	}
}

func TestPopulation_OrderAndLookup(t *testing.T) {
	pop := NewPopulation(3)
	a, b, c := New(10, 0), New(20, 1), New(30, 0)
	pop.Add(a)
	pop.Add(b)
	pop.Add(c)

	if pop.Len() != 3 {
		t.Fatalf("Len = %d, want 3", pop.Len())
	}
	for i, want := range []*Person{a, b, c} {
		if pop.At(i) != want {
			t.Errorf("At(%d) = %v, want %v", i, pop.At(i).ID, want.ID)
		}
	}

	got, ok := pop.ByID(b.ID)
	if !ok || got != b {
		t.Errorf("ByID(b) = %v, %v", got, ok)
	}
	if _, ok := pop.ByID(New(0, 0).ID); ok {
		t.Error("ByID of a stranger should miss")
	}
}
