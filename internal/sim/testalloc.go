package sim

import (
	"github.com/idmod/outbreak/internal/params"
	"github.com/idmod/outbreak/internal/person"
	"github.com/idmod/outbreak/internal/stoch"
)

// testPool accumulates, over one day's pass, the individuals eligible for
// testing and their weights, aligned by index. Weights are captured at the
// top of each individual's processing, before that day's transitions fire.
type testPool struct {
	people  []*person.Person
	weights []float64
}

func (tp *testPool) add(p *person.Person, weight float64) {
	tp.people = append(tp.people, p)
	tp.weights = append(tp.weights, weight)
}

func (tp *testPool) len() int { return len(tp.people) }

// TestAllocator spends a day's test budget: it samples individuals without
// replacement in proportion to their weights and resolves true positives.
// Non-infectious individuals consume a slot but can never test positive.
type TestAllocator struct {
	pars *params.Parameters
	rng  *stoch.Stream
}

// budget returns the day's test budget, or 0 when the feed is absent or
// exhausted for that day.
func (a *TestAllocator) budget(day int) int {
	if day >= len(a.pars.DailyTests) {
		return 0
	}
	return a.pars.DailyTests[day]
}

// Allocate runs the day's testing. It returns the number of tests actually
// performed (the budget clamped to the eligible pool) and the individuals
// diagnosed. Each diagnosed individual is marked in place.
func (a *TestAllocator) Allocate(day int, pool *testPool) (tests int, diagnosed []*person.Person, err error) {
	n := a.budget(day)
	if n > pool.len() {
		n = pool.len()
	}
	if n == 0 {
		return 0, nil, nil
	}

	for _, i := range a.rng.ChooseWeighted(pool.weights, n) {
		tests++
		p := pool.people[i]
		if p.State != person.Infectious || p.Diagnosed {
			continue
		}
		if !a.rng.Bernoulli(a.pars.Sensitivity) {
			continue
		}
		if err := p.Diagnose(day); err != nil {
			return tests, diagnosed, err
		}
		diagnosed = append(diagnosed, p)
	}
	return tests, diagnosed, nil
}
