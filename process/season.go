package process

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Season is a discrete seasonal effect with Period phases, each held for
// Duration timesteps.
//
// The state holds the effect of the current phase followed by the effects of
// the Period-1 previous phases. Whenever a phase ends the state shifts by one
// position and the new current effect is the negative sum of the others, so
// the effects sum to zero over a full cycle. Only the current effect is
// measured.
type Season struct {
	base
	Anchor
	Period   int
	Duration int
	// Params.ProcessCov has a single element: the noise on the new current
	// effect at every phase change.
	Params Params
}

// NewSeason creates a season with the given period, a duration of one
// timestep and default parameters.
func NewSeason(id string, period int) *Season {
	elements := make([]string, 0, max(period, 1))
	elements = append(elements, "measured")
	for i := 1; i < period; i++ {
		elements = append(elements, fmt.Sprintf("lag_%d", i))
	}
	return &Season{
		base:     newBase(id, elements),
		Period:   period,
		Duration: 1,
		Params:   DefaultParams(max(period, 1), 1),
	}
}

// Validate checks the process configuration.
func (p *Season) Validate() error {
	if p.Period < 2 {
		return configErrorf(p.id, "season period must be at least 2, got %d", p.Period)
	}
	if p.Period != len(p.elements) {
		return configErrorf(p.id, "season period changed after construction")
	}
	if p.Duration < 1 {
		return configErrorf(p.id, "season duration must be positive, got %d", p.Duration)
	}
	if err := p.Anchor.validate(p.id); err != nil {
		return err
	}
	return p.Params.validate(p.id, p.Period, 1)
}

// ForBatch materializes the season for a batch. Anchored seasons require
// Covariates.StartTimes.
func (p *Season) ForBatch(numGroups, numTimesteps int, cov Covariates) (Block, error) {
	if err := p.checkBatch(numGroups, numTimesteps); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	offsets, err := p.offsets(p.id, numGroups, cov)
	if err != nil {
		return nil, err
	}

	n := p.Period
	shift := mat.NewDense(n, n, nil)
	for j := 0; j < n-1; j++ {
		shift.Set(0, j, -1)
	}
	for i := 1; i < n; i++ {
		shift.Set(i, i-1, 1)
	}
	hold := eye(n)

	noise := mat.NewSymDense(n, nil)
	noise.SetSym(0, 0, p.Params.ProcessCov.Matrix().At(0, 0))
	quiet := mat.NewSymDense(n, nil)

	h := mat.NewVecDense(n, nil)
	h.SetVec(0, 1)

	// a phase ends between t and t+1 when the elapsed step count reaches a
	// multiple of the duration
	shifts := func(g, t int) bool {
		return mod(offsets[g]+t+1, p.Duration) == 0
	}

	mean, initCov := p.initial(offsets)
	return &block{
		groups:    numGroups,
		timesteps: numTimesteps,
		f: func(t int) []*mat.Dense {
			out := make([]*mat.Dense, numGroups)
			for g := range out {
				out[g] = hold
				if shifts(g, t) {
					out[g] = shift
				}
			}
			return out
		},
		q: func(t int) []*mat.SymDense {
			out := make([]*mat.SymDense, numGroups)
			for g := range out {
				out[g] = quiet
				if shifts(g, t) {
					out[g] = noise
				}
			}
			return out
		},
		h:    repeat(h, numGroups),
		mean: mean,
		cov:  initCov,
	}, nil
}

// initial places each group's prior in the phase its timestep 0 falls in.
// InitialMean holds the effects of phases 0..Period-1 and is centered so the
// effects sum to zero.
func (p *Season) initial(offsets []int) ([]*mat.VecDense, []*mat.SymDense) {
	n := p.Period
	effects := make([]float64, n)
	var total float64
	for _, v := range p.Params.InitialMean {
		total += v
	}
	for i, v := range p.Params.InitialMean {
		effects[i] = v - total/float64(n)
	}
	cov := p.Params.InitialCov.Matrix()

	means := make([]*mat.VecDense, len(offsets))
	covs := make([]*mat.SymDense, len(offsets))
	for g, off := range offsets {
		phase := mod(floorDiv(off, p.Duration), n)
		perm := mat.NewDense(n, n, nil)
		m := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			src := mod(phase-i, n)
			perm.Set(i, src, 1)
			m.SetVec(i, effects[src])
		}
		means[g] = m
		covs[g] = sandwich(perm, cov)
	}
	return means, covs
}
