package belief

import (
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Input is a dense (groups, timesteps, measures) array of observations.
// NaN marks a missing value.
type Input interface {
	Dims() (groups, timesteps, measures int)
	At(g, t, m int) float64
}

// Source provides the belief a forecast or simulation starts from.
type Source interface {
	// StartingBelief returns the belief to start from. fromTimes, when not
	// nil, selects an absolute timestep per group.
	StartingBelief(fromTimes []int) (*Gaussian, error)
}

// Gaussian is a belief about the hidden state of a batch of independent
// groups: a mean and covariance per group. A Gaussian is never modified;
// every operation returns a new one.
type Gaussian struct {
	means        []*mat.VecDense
	covs         []*mat.SymDense
	lastMeasured []int

	// set by ComputeMeasurement
	h         []*mat.Dense
	r         []*mat.SymDense
	measMeans []*mat.VecDense
	measCovs  []*mat.SymDense
}

// New creates a belief from per-group means and covariances. lastMeasured
// counts the timesteps since each group was last observed; nil means one
// step for every group. Covariances must be positive semi-definite.
func New(means []*mat.VecDense, covs []*mat.SymDense, lastMeasured []int) (*Gaussian, error) {
	if len(means) == 0 {
		return nil, errors.Wrap(ErrShape, "a belief needs at least one group")
	}
	if len(covs) != len(means) {
		return nil, errors.Wrapf(ErrShape, "got %d covariances for %d means", len(covs), len(means))
	}
	if lastMeasured == nil {
		lastMeasured = make([]int, len(means))
		for i := range lastMeasured {
			lastMeasured[i] = 1
		}
	}
	if len(lastMeasured) != len(means) {
		return nil, errors.Wrapf(ErrShape, "got %d last-measured counts for %d groups", len(lastMeasured), len(means))
	}
	n := means[0].Len()
	b := &Gaussian{
		means:        make([]*mat.VecDense, len(means)),
		covs:         make([]*mat.SymDense, len(covs)),
		lastMeasured: slices.Clone(lastMeasured),
	}
	for g := range means {
		if means[g].Len() != n || covs[g].SymmetricDim() != n {
			return nil, errors.Wrapf(ErrShape, "group %d: mean has %d elements and covariance is %d×%d, want %d",
				g, means[g].Len(), covs[g].SymmetricDim(), covs[g].SymmetricDim(), n)
		}
		if !positiveSemiDefinite(covs[g]) {
			return nil, errors.Wrapf(ErrNotPositiveDefinite, "covariance of group %d", g)
		}
		b.means[g] = mat.VecDenseCopyOf(means[g])
		b.covs[g] = cloneSym(covs[g])
	}
	return b, nil
}

// NumGroups returns the batch size.
func (b *Gaussian) NumGroups() int {
	return len(b.means)
}

// StateSize returns the state dimension.
func (b *Gaussian) StateSize() int {
	return b.means[0].Len()
}

// Mean returns a copy of the state mean of group g.
func (b *Gaussian) Mean(g int) *mat.VecDense {
	return mat.VecDenseCopyOf(b.means[g])
}

// Cov returns a copy of the state covariance of group g.
func (b *Gaussian) Cov(g int) *mat.SymDense {
	return cloneSym(b.covs[g])
}

// LastMeasured returns, per group, the number of timesteps since the group
// was last observed.
func (b *Gaussian) LastMeasured() []int {
	return slices.Clone(b.lastMeasured)
}

// HasMeasurement reports whether ComputeMeasurement produced this belief.
func (b *Gaussian) HasMeasurement() bool {
	return b.measMeans != nil
}

// MeasurementMean returns a copy of H·m for group g.
func (b *Gaussian) MeasurementMean(g int) (*mat.VecDense, error) {
	if !b.HasMeasurement() {
		return nil, ErrNoMeasurement
	}
	return mat.VecDenseCopyOf(b.measMeans[g]), nil
}

// MeasurementCov returns a copy of H·P·Hᵀ + R for group g.
func (b *Gaussian) MeasurementCov(g int) (*mat.SymDense, error) {
	if !b.HasMeasurement() {
		return nil, ErrNoMeasurement
	}
	return cloneSym(b.measCovs[g]), nil
}

// Predict propagates the belief one step: m' = F·m, P' = F·P·Fᵀ + Q.
func (b *Gaussian) Predict(F []*mat.Dense, Q []*mat.SymDense) (*Gaussian, error) {
	if err := b.checkBatch("transition", len(F), len(Q)); err != nil {
		return nil, err
	}
	n := b.StateSize()
	out := b.empty()
	for g := range b.means {
		r, c := F[g].Dims()
		if r != n || c != n || Q[g].SymmetricDim() != n {
			return nil, errors.Wrapf(ErrShape, "group %d: F is %d×%d and Q is %d×%d for state size %d",
				g, r, c, Q[g].SymmetricDim(), Q[g].SymmetricDim(), n)
		}
		var m mat.VecDense
		m.MulVec(F[g], b.means[g])
		p := quadForm(F[g], b.covs[g])
		p.AddSym(p, Q[g])
		if err := checkVariances(p); err != nil {
			return nil, errors.WithMessagef(err, "predicted state of group %d", g)
		}
		out.means[g] = &m
		out.covs[g] = p
	}
	return out, nil
}

// ComputeMeasurement returns a copy of the belief carrying the measurement
// it implies: mean H·m and covariance H·P·Hᵀ + R.
func (b *Gaussian) ComputeMeasurement(H []*mat.Dense, R []*mat.SymDense) (*Gaussian, error) {
	if err := b.checkBatch("measurement", len(H), len(R)); err != nil {
		return nil, err
	}
	n := b.StateSize()
	out := b.empty()
	copy(out.means, b.means)
	copy(out.covs, b.covs)
	out.h = make([]*mat.Dense, len(H))
	out.r = make([]*mat.SymDense, len(R))
	out.measMeans = make([]*mat.VecDense, len(H))
	out.measCovs = make([]*mat.SymDense, len(H))
	for g := range b.means {
		rows, c := H[g].Dims()
		if c != n || R[g].SymmetricDim() != rows {
			return nil, errors.Wrapf(ErrShape, "group %d: H is %d×%d and R is %d×%d for state size %d",
				g, rows, c, R[g].SymmetricDim(), R[g].SymmetricDim(), n)
		}
		var m mat.VecDense
		m.MulVec(H[g], b.means[g])
		s := quadForm(H[g], b.covs[g])
		s.AddSym(s, R[g])
		if err := checkVariances(s); err != nil {
			return nil, errors.WithMessagef(err, "measurement of group %d", g)
		}
		out.h[g] = mat.DenseCopyOf(H[g])
		out.r[g] = cloneSym(R[g])
		out.measMeans[g] = &m
		out.measCovs[g] = s
	}
	return out, nil
}

// UpdateFromInput corrects the belief with the observations at timestep t.
// Only the measures observed for a group take part in its correction; a
// group with nothing observed keeps its belief. The covariance update uses
// the Joseph form.
//
// LastMeasured is reset to 1 for groups with at least one observation and
// incremented for the others.
func (b *Gaussian) UpdateFromInput(input Input, t int) (*Gaussian, error) {
	if !b.HasMeasurement() {
		return nil, ErrNoMeasurement
	}
	groups, timesteps, measures := input.Dims()
	numMeasures, _ := b.h[0].Dims()
	if groups != b.NumGroups() || measures != numMeasures {
		return nil, errors.Wrapf(ErrShape, "input has %d groups and %d measures, belief has %d groups and %d measures",
			groups, measures, b.NumGroups(), numMeasures)
	}
	if t < 0 || t >= timesteps {
		return nil, errors.Wrapf(ErrShape, "timestep %d outside input of %d timesteps", t, timesteps)
	}

	out := b.empty()
	for g := range b.means {
		obs, values := observed(input, g, t, numMeasures)
		if len(obs) == 0 {
			out.means[g] = b.means[g]
			out.covs[g] = b.covs[g]
			out.lastMeasured[g] = b.lastMeasured[g] + 1
			continue
		}
		m, p, err := b.correct(g, obs, values)
		if err != nil {
			return nil, errors.WithMessagef(err, "update group %d at timestep %d", g, t)
		}
		out.means[g] = m
		out.covs[g] = p
		out.lastMeasured[g] = 1
	}
	return out, nil
}

func (b *Gaussian) correct(g int, obs []int, values []float64) (*mat.VecDense, *mat.SymDense, error) {
	n := b.StateSize()
	h := subRows(b.h[g], obs)
	r := subSym(b.r[g], obs)
	s := subSym(b.measCovs[g], obs)

	var chol mat.Cholesky
	if !chol.Factorize(s) {
		return nil, nil, errors.Wrap(ErrNotPositiveDefinite, "innovation covariance")
	}
	// K = P·Hᵀ·S⁻¹, solved as Kᵀ = S⁻¹·H·P
	var hp, kt mat.Dense
	hp.Mul(h, b.covs[g])
	if err := chol.SolveTo(&kt, &hp); err != nil {
		return nil, nil, errors.Wrap(err, "kalman gain")
	}
	var k mat.Dense
	k.CloneFrom(kt.T())

	resid := mat.NewVecDense(len(obs), nil)
	for i, j := range obs {
		resid.SetVec(i, values[j]-b.measMeans[g].AtVec(j))
	}
	var m mat.VecDense
	m.MulVec(&k, resid)
	m.AddVec(&m, b.means[g])

	var kh mat.Dense
	kh.Mul(&k, h)
	ikh := eye(n)
	ikh.Sub(ikh, &kh)
	p := quadForm(ikh, b.covs[g])
	p.AddSym(p, quadForm(&k, r))
	return &m, p, nil
}

// Repeat stacks n copies of the batch along the group axis. Group g of copy
// i becomes group i·NumGroups()+g.
func (b *Gaussian) Repeat(n int) (*Gaussian, error) {
	if n < 1 {
		return nil, errors.Wrapf(ErrShape, "cannot repeat a belief %d times", n)
	}
	means := make([]*mat.VecDense, 0, n*b.NumGroups())
	covs := make([]*mat.SymDense, 0, n*b.NumGroups())
	lastMeasured := make([]int, 0, n*b.NumGroups())
	for i := 0; i < n; i++ {
		means = append(means, b.means...)
		covs = append(covs, b.covs...)
		lastMeasured = append(lastMeasured, b.lastMeasured...)
	}
	return New(means, covs, lastMeasured)
}

// StartingBelief returns the belief itself. A single belief has no time
// axis, so fromTimes must be nil.
func (b *Gaussian) StartingBelief(fromTimes []int) (*Gaussian, error) {
	if fromTimes != nil {
		return nil, errors.Wrap(ErrShape, "from times need a belief over time")
	}
	return b, nil
}

func (b *Gaussian) empty() *Gaussian {
	return &Gaussian{
		means:        make([]*mat.VecDense, len(b.means)),
		covs:         make([]*mat.SymDense, len(b.covs)),
		lastMeasured: slices.Clone(b.lastMeasured),
	}
}

func (b *Gaussian) checkBatch(kind string, sizes ...int) error {
	for _, n := range sizes {
		if n != b.NumGroups() {
			return errors.Wrapf(ErrShape, "got %d %s matrices for %d groups", n, kind, b.NumGroups())
		}
	}
	return nil
}
