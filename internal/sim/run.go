package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/idmod/outbreak/internal/params"
)

// RunOptions configure a single replicate.
type RunOptions struct {
	// Index is the replicate index. It is added to the base seed so
	// replicates draw from independent streams.
	Index int

	// Noise is the multiplicative noise applied to r0: the replicate runs
	// with r0 * (1 + Noise*N(0,1)), drawn from its own stream. Zero means
	// the base r0 exactly.
	Noise float64

	// Options are passed through to New.
	Options []Option
}

// SingleRun executes one replicate against a copy of the base parameters
// and returns the completed simulation. The base is never mutated.
func SingleRun(ctx context.Context, base *params.Parameters, opts RunOptions) (*Sim, error) {
	pars := base.Clone()
	pars.Seed += int64(opts.Index)

	s, err := New(pars, opts.Options...)
	if err != nil {
		return nil, err
	}
	if opts.Noise != 0 {
		// Drawn after seeding, so the perturbation itself is reproducible.
		s.pars.R0 *= 1 + opts.Noise*s.rng.Normal(0, 1)
		if s.pars.R0 < 0 {
			s.pars.R0 = 0
		}
	}
	if _, err := s.Run(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Replicate is one slot of a multi-run: either a completed simulation or
// that replicate's error. Failures are reported per-slot; one replicate
// failing never aborts its siblings.
type Replicate struct {
	Index int
	Sim   *Sim
	Err   error
}

// MultiRunOptions configure a batch of replicates.
type MultiRunOptions struct {
	// Noise is applied to every replicate as in RunOptions.
	Noise float64

	// Workers bounds concurrent replicates; 0 means GOMAXPROCS.
	Workers int

	// Options are passed through to every replicate's New.
	Options []Option
}

// MultiRun executes n independent replicates of the base parameters in
// parallel, seeds perturbed by replicate index, and returns them in order.
func MultiRun(ctx context.Context, base *params.Parameters, n int, opts MultiRunOptions) []Replicate {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	reps := make([]Replicate, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			s, err := SingleRun(ctx, base, RunOptions{
				Index:   i,
				Noise:   opts.Noise,
				Options: opts.Options,
			})
			reps[i] = Replicate{Index: i, Sim: s, Err: err}
			return nil
		})
	}
	// Errors are carried per-replicate, never through the group.
	_ = g.Wait()
	return reps
}
