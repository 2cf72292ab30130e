// Package stoch provides the seeded random stream a simulation draws from.
// Every stochastic decision in a run — contact counts, partner selection,
// transmission, testing, fatality, delay sampling — consumes this one
// stream in a fixed order, which is what makes runs reproducible. Each
// simulation instance owns its own stream, so independent replicates never
// share seed state.
package stoch

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Stream is a seeded pseudorandom stream with the draw primitives the
// engine needs. It is not safe for concurrent use; a run is single-threaded
// by design.
type Stream struct {
	rng *rand.Rand
}

// New returns a stream seeded with the given value. Equal seeds produce
// identical draw sequences.
func New(seed uint64) *Stream {
	return &Stream{rng: rand.New(rand.NewSource(seed))}
}

// Poisson draws a Poisson-distributed count with the given mean. A
// non-positive mean degenerates to zero.
func (s *Stream) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: mean, Src: s.rng}.Rand())
}

// Normal draws from a normal distribution. A non-positive standard
// deviation degenerates to the mean.
func (s *Stream) Normal(mean, std float64) float64 {
	if std <= 0 {
		return mean
	}
	return distuv.Normal{Mu: mean, Sigma: std, Src: s.rng}.Rand()
}

// Bernoulli reports a single trial with success probability p. The
// endpoints never consume a draw, so degenerate probabilities are exact.
func (s *Stream) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return distuv.Bernoulli{P: p, Src: s.rng}.Rand() == 1
}

// Intn returns a uniform integer in [0, n).
func (s *Stream) Intn(n int) int { return s.rng.Intn(n) }

// ChooseDistinct returns k distinct indices drawn uniformly from [0, n),
// excluding exclude (pass a negative value for no exclusion). If fewer than
// k indices are available, all of them are returned. Order follows the draw
// sequence.
func (s *Stream) ChooseDistinct(n, k, exclude int) []int {
	avail := n
	if exclude >= 0 && exclude < n {
		avail--
	}
	if k > avail {
		k = avail
	}
	if k <= 0 {
		return nil
	}

	chosen := make([]int, 0, k)
	seen := make(map[int]bool, k)
	for len(chosen) < k {
		i := s.rng.Intn(n)
		if i == exclude || seen[i] {
			continue
		}
		seen[i] = true
		chosen = append(chosen, i)
	}
	return chosen
}

// ChooseWeighted samples k distinct indices without replacement, with
// probability proportional to the given weights. Zero-weight entries are
// never chosen. If fewer than k positive-weight entries exist, sampling
// stops early.
func (s *Stream) ChooseWeighted(weights []float64, k int) []int {
	if k <= 0 || len(weights) == 0 {
		return nil
	}
	w := sampleuv.NewWeighted(append([]float64(nil), weights...), s.rng)
	chosen := make([]int, 0, k)
	for len(chosen) < k {
		i, ok := w.Take()
		if !ok {
			break
		}
		chosen = append(chosen, i)
	}
	return chosen
}
