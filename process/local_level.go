package process

import "gonum.org/v1/gonum/mat"

// LocalLevel is a random walk: a single position that persists from one
// timestep to the next, optionally damped towards zero.
type LocalLevel struct {
	base
	// Decay damps the position each step; nil means no damping.
	Decay  *Bounded
	Params Params
}

// NewLocalLevel creates a local level process with default parameters.
func NewLocalLevel(id string) *LocalLevel {
	return &LocalLevel{
		base:   newBase(id, []string{"position"}),
		Params: DefaultParams(1, 1),
	}
}

// Validate checks the process configuration.
func (p *LocalLevel) Validate() error {
	if p.Decay != nil {
		if err := p.Decay.validateDecay(p.id, "decay"); err != nil {
			return err
		}
	}
	return p.Params.validate(p.id, 1, 1)
}

// ForBatch materializes the process for a batch.
func (p *LocalLevel) ForBatch(numGroups, numTimesteps int, _ Covariates) (Block, error) {
	if err := p.checkBatch(numGroups, numTimesteps); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	decay := 1.0
	if p.Decay != nil {
		decay = p.Decay.Value()
	}
	f := mat.NewDense(1, 1, []float64{decay})
	h := mat.NewVecDense(1, []float64{1})
	return &block{
		groups:    numGroups,
		timesteps: numTimesteps,
		f:         static(f, numGroups),
		q:         static(p.Params.ProcessCov.Matrix(), numGroups),
		h:         repeat(h, numGroups),
		mean:      repeat(p.Params.mean(), numGroups),
		cov:       repeat(p.Params.InitialCov.Matrix(), numGroups),
	}, nil
}
