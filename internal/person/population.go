package person

import "github.com/google/uuid"

// Population is an insertion-ordered collection of persons with O(1) access
// both by integer index (uniform contact sampling) and by ID (transmission
// tree lookups). Its size is fixed once built: deaths flip a state, they
// never remove anyone.
type Population struct {
	people []*Person
	byID   map[uuid.UUID]*Person
}

// NewPopulation returns an empty population with capacity for n people.
func NewPopulation(n int) *Population {
	return &Population{
		people: make([]*Person, 0, n),
		byID:   make(map[uuid.UUID]*Person, n),
	}
}

// Add appends p, preserving insertion order. Iteration order is part of the
// reproducibility contract: the engine visits people in this order every day.
func (pop *Population) Add(p *Person) {
	pop.people = append(pop.people, p)
	pop.byID[p.ID] = p
}

// Len returns the population size.
func (pop *Population) Len() int { return len(pop.people) }

// At returns the person at integer index i.
func (pop *Population) At(i int) *Person { return pop.people[i] }

// ByID returns the person with the given ID.
func (pop *Population) ByID(id uuid.UUID) (*Person, bool) {
	p, ok := pop.byID[id]
	return p, ok
}
