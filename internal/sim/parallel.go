package sim

import (
	"context"
	"sync"
)

// Factory builds a fresh runner, with its own engine, for one seed.
type Factory func(seed int64) (*Runner, error)

// Ensemble runs independent copies of a simulation concurrently, one
// goroutine per seed.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			runner, err := e.factory(cfgCopy.Seed)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = runner.Run(ctx, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
