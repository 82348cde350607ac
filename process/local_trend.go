package process

import "gonum.org/v1/gonum/mat"

// LocalTrend tracks a position and its velocity:
//
//	F = [[1, 1], [0, decay]]
//
// The velocity is measured only through the position.
type LocalTrend struct {
	base
	// DecayVelocity damps the velocity each step; nil means decay = 1.
	DecayVelocity *Bounded
	Params        Params
}

// NewLocalTrend creates a local trend process with default parameters.
func NewLocalTrend(id string) *LocalTrend {
	return &LocalTrend{
		base:   newBase(id, []string{"position", "velocity"}),
		Params: DefaultParams(2, 2),
	}
}

// Validate checks the process configuration.
func (p *LocalTrend) Validate() error {
	if p.DecayVelocity != nil {
		if err := p.DecayVelocity.validateDecay(p.id, "velocity decay"); err != nil {
			return err
		}
	}
	return p.Params.validate(p.id, 2, 2)
}

// VelocityDecay returns the current velocity decay, 1 when undamped.
func (p *LocalTrend) VelocityDecay() float64 {
	if p.DecayVelocity == nil {
		return 1
	}
	return p.DecayVelocity.Value()
}

// ForBatch materializes the process for a batch.
func (p *LocalTrend) ForBatch(numGroups, numTimesteps int, _ Covariates) (Block, error) {
	if err := p.checkBatch(numGroups, numTimesteps); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f := mat.NewDense(2, 2, []float64{
		1, 1,
		0, p.VelocityDecay(),
	})
	h := mat.NewVecDense(2, []float64{1, 0})
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
