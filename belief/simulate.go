package belief

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Design supplies the per-timestep matrices of a batch.
type Design interface {
	NumGroups() int
	NumTimesteps() int
	F(t int) []*mat.Dense
	Q(t int) []*mat.SymDense
	H(t int) []*mat.Dense
	R(t int) []*mat.SymDense
}

// SimConfig controls stochastic sampling.
type SimConfig struct {
	// MaxDiagIncr is the number of times the diagonal of a covariance that
	// is not positive definite is inflated before giving up.
	MaxDiagIncr int
	// DiagIncrement is added to the diagonal on every retry.
	DiagIncrement float64
	// Source drives the standard-normal draws. nil uses the global source.
	Source rand.Source
}

// DefaultSimConfig returns the default sampling configuration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		MaxDiagIncr:   1000,
		DiagIncrement: 1e-9,
	}
}

// Trajectories holds simulated state paths.
type Trajectories struct {
	design  Design
	states  [][]*mat.VecDense // [group][timestep]
	cfg     SimConfig
	retries int
}

// SimulateTrajectories draws one state path per group over the timesteps
// of d. The state at timestep 0 is drawn from the belief; afterwards
// x(t) = F(t-1)·x(t-1) + chol(Q(t-1))·ε.
//
// eps holds the standard-normal noise indexed [group][timestep][element];
// nil draws it from cfg.Source.
func (b *Gaussian) SimulateTrajectories(d Design, eps [][][]float64, cfg SimConfig) (*Trajectories, error) {
	if d.NumGroups() != b.NumGroups() {
		return nil, errors.Wrapf(ErrShape, "design has %d groups, belief has %d", d.NumGroups(), b.NumGroups())
	}
	n := b.StateSize()
	noise, err := newNoise(eps, b.NumGroups(), d.NumTimesteps(), n, cfg.Source)
	if err != nil {
		return nil, errors.WithMessage(err, "process noise")
	}

	tr := &Trajectories{
		design: d,
		states: make([][]*mat.VecDense, b.NumGroups()),
		cfg:    cfg,
	}
	for g := range tr.states {
		tr.states[g] = make([]*mat.VecDense, d.NumTimesteps())
	}
	for t := 0; t < d.NumTimesteps(); t++ {
		var fs []*mat.Dense
		var qs []*mat.SymDense
		if t > 0 {
			fs, qs = d.F(t-1), d.Q(t-1)
		}
		for g := range tr.states {
			cov, loc := mat.Symmetric(b.covs[g]), mat.Vector(b.means[g])
			if t > 0 {
				var next mat.VecDense
				next.MulVec(fs[g], tr.states[g][t-1])
				cov, loc = qs[g], &next
			}
			l, retries, err := cholesky(cov, cfg)
			tr.retries += retries
			if err != nil {
				return nil, errors.WithMessagef(err, "group %d at timestep %d", g, t)
			}
			var x mat.VecDense
			x.MulVec(l, noise(g, t))
			x.AddVec(&x, loc)
			tr.states[g][t] = &x
		}
	}
	return tr, nil
}

// Retries returns the number of diagonal increments sampling needed so far.
func (tr *Trajectories) Retries() int {
	return tr.retries
}

// States returns the simulated states indexed [group][timestep][element].
func (tr *Trajectories) States() [][][]float64 {
	out := make([][][]float64, len(tr.states))
	for g, path := range tr.states {
		out[g] = make([][]float64, len(path))
		for t, x := range path {
			out[g][t] = mat.Col(nil, 0, x)
		}
	}
	return out
}

// MeasurementMeans returns H(t)·x(t) indexed [group][timestep][measure].
func (tr *Trajectories) MeasurementMeans() [][][]float64 {
	out := tr.alloc()
	for t := 0; t < tr.design.NumTimesteps(); t++ {
		hs := tr.design.H(t)
		for g := range tr.states {
			var y mat.VecDense
			y.MulVec(hs[g], tr.states[g][t])
			out[g][t] = mat.Col(nil, 0, &y)
		}
	}
	return out
}

// SampleMeasurements adds measurement noise to the simulated states:
// y(t) = H(t)·x(t) + chol(R(t))·ε. eps is indexed [group][timestep][measure];
// nil draws it from the configured source.
func (tr *Trajectories) SampleMeasurements(eps [][][]float64) ([][][]float64, error) {
	numMeasures, _ := tr.design.H(0)[0].Dims()
	noise, err := newNoise(eps, len(tr.states), tr.design.NumTimesteps(), numMeasures, tr.cfg.Source)
	if err != nil {
		return nil, errors.WithMessage(err, "measurement noise")
	}
	out := tr.alloc()
	for t := 0; t < tr.design.NumTimesteps(); t++ {
		hs, rs := tr.design.H(t), tr.design.R(t)
		for g := range tr.states {
			l, retries, err := cholesky(rs[g], tr.cfg)
			tr.retries += retries
			if err != nil {
				return nil, errors.WithMessagef(err, "group %d at timestep %d", g, t)
			}
			var y, e mat.VecDense
			y.MulVec(hs[g], tr.states[g][t])
			e.MulVec(l, noise(g, t))
			y.AddVec(&y, &e)
			out[g][t] = mat.Col(nil, 0, &y)
		}
	}
	return out, nil
}

func (tr *Trajectories) alloc() [][][]float64 {
	out := make([][][]float64, len(tr.states))
	for g := range out {
		out[g] = make([][]float64, tr.design.NumTimesteps())
	}
	return out
}

// cholesky returns the lower Cholesky factor of s, inflating its diagonal
// until the factorization succeeds. It also returns the number of
// increments that were needed.
func cholesky(s mat.Symmetric, cfg SimConfig) (*mat.TriDense, int, error) {
	n := s.SymmetricDim()
	work := cloneSym(s)
	var chol mat.Cholesky
	for try := 0; ; try++ {
		if chol.Factorize(work) {
			var l mat.TriDense
			chol.LTo(&l)
			return &l, try, nil
		}
		if try >= cfg.MaxDiagIncr {
			return nil, try, errors.Wrapf(ErrNotPositiveDefinite, "still failing after %d diagonal increments", try)
		}
		for i := 0; i < n; i++ {
			work.SetSym(i, i, work.At(i, i)+cfg.DiagIncrement)
		}
	}
}

// newNoise returns an accessor for standard-normal vectors of length n,
// either read from eps or drawn from src.
func newNoise(eps [][][]float64, groups, timesteps, n int, src rand.Source) (func(g, t int) *mat.VecDense, error) {
	if eps == nil {
		normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
		return func(int, int) *mat.VecDense {
			v := mat.NewVecDense(n, nil)
			for i := 0; i < n; i++ {
				v.SetVec(i, normal.Rand())
			}
			return v
		}, nil
	}
	if len(eps) != groups {
		return nil, errors.Wrapf(ErrShape, "noise has %d groups, want %d", len(eps), groups)
	}
	for g := range eps {
		if len(eps[g]) != timesteps {
			return nil, errors.Wrapf(ErrShape, "noise of group %d has %d timesteps, want %d", g, len(eps[g]), timesteps)
		}
		for t := range eps[g] {
			if len(eps[g][t]) != n {
				return nil, errors.Wrapf(ErrShape, "noise of group %d at timestep %d has %d values, want %d", g, t, len(eps[g][t]), n)
			}
		}
	}
	return func(g, t int) *mat.VecDense {
		return mat.NewVecDense(n, append([]float64(nil), eps[g][t]...))
	}, nil
}
