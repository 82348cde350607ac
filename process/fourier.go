package process

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FourierSeason represents a seasonal cycle as K harmonics. Harmonic k owns
// a (cos_k, sin_k) pair that rotates by 2πk/Period each timestep, optionally
// damped by Decay. The measured seasonal effect is the sum of the cos_k.
type FourierSeason struct {
	base
	Anchor
	Period float64
	K      int
	// Decay damps the amplitude each step; nil means a purely periodic cycle.
	Decay  *Bounded
	Params Params
}

// NewFourierSeason creates a Fourier season with default parameters.
func NewFourierSeason(id string, period float64, k int) *FourierSeason {
	return &FourierSeason{
		base:   newBase(id, harmonicElements(k)),
		Period: period,
		K:      k,
		Params: DefaultParams(2*max(k, 0), 2*max(k, 0)),
	}
}

// Validate checks the process configuration.
func (p *FourierSeason) Validate() error {
	if err := validateHarmonics(p.id, p.Period, p.K, p.Decay, len(p.elements)/2); err != nil {
		return err
	}
	if err := p.Anchor.validate(p.id); err != nil {
		return err
	}
	return p.Params.validate(p.id, 2*p.K, 2*p.K)
}

// ForBatch materializes the season for a batch. Anchored seasons require
// Covariates.StartTimes.
func (p *FourierSeason) ForBatch(numGroups, numTimesteps int, cov Covariates) (Block, error) {
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

	n := 2 * p.K
	h := mat.NewVecDense(n, nil)
	for k := 0; k < p.K; k++ {
		h.SetVec(2*k, 1)
	}
	mean, initCov := harmonicPrior(p.Params, p.Period, p.K, offsets, nil)
	return &block{
		groups:    numGroups,
		timesteps: numTimesteps,
		f:         static(harmonicTransition(p.Period, p.K, decayValue(p.Decay), n), numGroups),
		q:         static(p.Params.ProcessCov.Matrix(), numGroups),
		h:         repeat(h, numGroups),
		mean:      mean,
		cov:       initCov,
	}, nil
}

// FourierSeasonDynamic extends FourierSeason with a position element that
// tracks the seasonal effect as its own state: after every transition the
// position equals the sum of the cos_k, plus its own process noise. Only the
// position is measured.
//
// Params.InitialMean and Params.InitialCov cover the 2K harmonic elements;
// the prior of the position is derived from them. Params.ProcessCov covers
// all 2K+1 elements.
type FourierSeasonDynamic struct {
	base
	Anchor
	Period float64
	K      int
	Decay  *Bounded
	Params Params
}

// NewFourierSeasonDynamic creates a dynamic Fourier season with default
// parameters.
func NewFourierSeasonDynamic(id string, period float64, k int) *FourierSeasonDynamic {
	k = max(k, 0)
	return &FourierSeasonDynamic{
		base:   newBase(id, append(harmonicElements(k), "position")),
		Period: period,
		K:      k,
		Params: DefaultParams(2*k, 2*k+1),
	}
}

// Validate checks the process configuration.
func (p *FourierSeasonDynamic) Validate() error {
	if err := validateHarmonics(p.id, p.Period, p.K, p.Decay, (len(p.elements)-1)/2); err != nil {
		return err
	}
	if err := p.Anchor.validate(p.id); err != nil {
		return err
	}
	return p.Params.validate(p.id, 2*p.K, 2*p.K+1)
}

// ForBatch materializes the season for a batch. Anchored seasons require
// Covariates.StartTimes.
func (p *FourierSeasonDynamic) ForBatch(numGroups, numTimesteps int, cov Covariates) (Block, error) {
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

	n := 2*p.K + 1
	pos := n - 1
	f := harmonicTransition(p.Period, p.K, decayValue(p.Decay), n)
	for k := 0; k < p.K; k++ {
		f.Set(pos, 2*k, f.At(2*k, 2*k))
		f.Set(pos, 2*k+1, f.At(2*k, 2*k+1))
	}
	h := mat.NewVecDense(n, nil)
	h.SetVec(pos, 1)

	// the position starts as the sum of the cos_k
	lift := mat.NewDense(n, 2*p.K, nil)
	for i := 0; i < 2*p.K; i++ {
		lift.Set(i, i, 1)
	}
	for k := 0; k < p.K; k++ {
		lift.Set(pos, 2*k, 1)
	}
	mean, initCov := harmonicPrior(p.Params, p.Period, p.K, offsets, lift)
	return &block{
		groups:    numGroups,
		timesteps: numTimesteps,
		f:         static(f, numGroups),
		q:         static(p.Params.ProcessCov.Matrix(), numGroups),
		h:         repeat(h, numGroups),
		mean:      mean,
		cov:       initCov,
	}, nil
}

func harmonicElements(k int) []string {
	out := make([]string, 0, 2*max(k, 0))
	for i := 1; i <= k; i++ {
		out = append(out, fmt.Sprintf("cos_%d", i), fmt.Sprintf("sin_%d", i))
	}
	return out
}

func validateHarmonics(id string, period float64, k int, decay *Bounded, built int) error {
	if period <= 1 || math.IsNaN(period) || math.IsInf(period, 0) {
		return configErrorf(id, "seasonal period must be greater than 1, got %g", period)
	}
	if k < 1 || float64(k) > period/2 {
		return configErrorf(id, "number of harmonics must be in [1, period/2], got %d", k)
	}
	if k != built {
		return configErrorf(id, "number of harmonics changed after construction")
	}
	if decay != nil {
		return decay.validateDecay(id, "decay")
	}
	return nil
}

func decayValue(b *Bounded) float64 {
	if b == nil {
		return 1
	}
	return b.Value()
}

// harmonicTransition returns an n×n matrix whose leading 2K×2K block holds
// the damped rotation of every harmonic.
func harmonicTransition(period float64, k int, decay float64, n int) *mat.Dense {
	return harmonicRotation(period, k, 1, decay, n)
}

// harmonicRotation advances every harmonic by the given number of steps.
func harmonicRotation(period float64, k int, steps, decay float64, n int) *mat.Dense {
	f := mat.NewDense(n, n, nil)
	for i := 0; i < k; i++ {
		angle := 2 * math.Pi * float64(i+1) * steps / period
		c, s := math.Cos(angle), math.Sin(angle)
		j := 2 * i
		f.Set(j, j, decay*c)
		f.Set(j, j+1, decay*s)
		f.Set(j+1, j, -decay*s)
		f.Set(j+1, j+1, decay*c)
	}
	return f
}

// harmonicPrior rotates the harmonic prior of every group by its offset,
// then maps it through lift when one is given.
func harmonicPrior(params Params, period float64, k int, offsets []int, lift *mat.Dense) ([]*mat.VecDense, []*mat.SymDense) {
	m0 := params.mean()
	cov := params.InitialCov.Matrix()
	means := make([]*mat.VecDense, len(offsets))
	covs := make([]*mat.SymDense, len(offsets))
	for g, off := range offsets {
		rot := harmonicRotation(period, k, float64(off), 1, 2*k)
		var m mat.VecDense
		m.MulVec(rot, m0)
		c := sandwich(rot, cov)
		if lift != nil {
			var lifted mat.VecDense
			lifted.MulVec(lift, &m)
			means[g] = &lifted
			covs[g] = sandwich(lift, c)
			continue
		}
		means[g] = &m
		covs[g] = c
	}
	return means, covs
}
