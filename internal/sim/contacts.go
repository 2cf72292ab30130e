package sim

import (
	"github.com/idmod/outbreak/internal/params"
	"github.com/idmod/outbreak/internal/stoch"
)

// ContactSampler draws the daily contact set for an infectious individual:
// a Poisson-distributed count of distinct partners chosen uniformly from
// the whole population (random mixing, no topology). Self-contact is
// excluded.
type ContactSampler struct {
	pars *params.Parameters
	rng  *stoch.Stream
}

// Contacts returns the partner indices for the individual at index self in
// a population of size n.
func (c *ContactSampler) Contacts(self, n int) []int {
	k := c.rng.Poisson(c.pars.Contacts)
	return c.rng.ChooseDistinct(n, k, self)
}

// TransmissionProb is the per-contact exposure probability, derived from R0
// over the mean duration and mean contact count. It reads the live contacts
// value, so an active intervention changes it.
func (c *ContactSampler) TransmissionProb() float64 {
	return c.pars.R0 / c.pars.Dur / c.pars.Contacts
}
