package process

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	defaultInitialStd = 1.0
	defaultProcessStd = 0.1
)

// Bounded is a learnable scalar constrained to the open interval
// (Lower, Upper). Raw is the unconstrained value owned by the host
// optimizer; Value maps it through a sigmoid.
type Bounded struct {
	Lower float64
	Upper float64
	Raw   float64
}

// NewBounded returns a bounded parameter sitting at the midpoint of its range.
func NewBounded(lower, upper float64) *Bounded {
	return &Bounded{Lower: lower, Upper: upper}
}

// Value returns the constrained value.
func (b *Bounded) Value() float64 {
	return b.Lower + (b.Upper-b.Lower)/(1+math.Exp(-b.Raw))
}

func (b *Bounded) validateDecay(id, name string) error {
	if b.Lower < 0 || b.Upper > 1 || b.Lower >= b.Upper {
		return configErrorf(id, "%s bounds must satisfy 0 <= lower < upper <= 1, got (%g, %g)", name, b.Lower, b.Upper)
	}
	return nil
}

// Covariance parametrizes a covariance matrix that is positive
// semi-definite by construction.
//
// The correlation matrix is L·Lᵀ where L is lower triangular with a unit
// diagonal, Corr holding the strictly-lower entries row by row, and every row
// of L normalized to unit length. A nil Corr gives a diagonal matrix.
type Covariance struct {
	LogStd []float64
	Corr   []float64
}

// NewCovariance returns a diagonal covariance with the same standard
// deviation for each of the n elements.
func NewCovariance(n int, std float64) Covariance {
	logStd := make([]float64, n)
	for i := range logStd {
		logStd[i] = math.Log(std)
	}
	return Covariance{LogStd: logStd}
}

// Size returns the dimension of the matrix.
func (c Covariance) Size() int {
	return len(c.LogStd)
}

// Matrix builds the covariance matrix from the current parameter values.
func (c Covariance) Matrix() *mat.SymDense {
	n := len(c.LogStd)
	std := make([]float64, n)
	for i, v := range c.LogStd {
		std[i] = math.Exp(v)
	}
	out := mat.NewSymDense(n, nil)
	if len(c.Corr) == 0 {
		for i := 0; i < n; i++ {
			out.SetSym(i, i, std[i]*std[i])
		}
		return out
	}

	l := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		l.Set(i, i, 1)
		for j := 0; j < i; j++ {
			l.Set(i, j, c.Corr[i*(i-1)/2+j])
		}
		row := l.RawRowView(i)
		norm := math.Sqrt(mat.Dot(mat.NewVecDense(n, row), mat.NewVecDense(n, row)))
		for j := range row {
			row[j] /= norm
		}
	}
	var corr mat.SymDense
	corr.SymOuterK(1, l)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := corr.At(i, j)
			if i == j {
				v = 1
			}
			out.SetSym(i, j, std[i]*std[j]*v)
		}
	}
	return out
}

func (c Covariance) validate(id, name string, n int) error {
	if len(c.LogStd) != n {
		return configErrorf(id, "%s must have %d log-std values, got %d", name, n, len(c.LogStd))
	}
	if want := n * (n - 1) / 2; len(c.Corr) != 0 && len(c.Corr) != want {
		return configErrorf(id, "%s must have 0 or %d correlation values, got %d", name, want, len(c.Corr))
	}
	return nil
}

// Params holds the learnable values every process owns: the prior for the
// state block at timestep 0 and the process noise.
type Params struct {
	InitialMean []float64
	InitialCov  Covariance
	ProcessCov  Covariance
}

// DefaultParams returns zero initial means with unit initial variance, and
// a small diagonal process noise over nProc elements.
func DefaultParams(nInit, nProc int) Params {
	return Params{
		InitialMean: make([]float64, nInit),
		InitialCov:  NewCovariance(nInit, defaultInitialStd),
		ProcessCov:  NewCovariance(nProc, defaultProcessStd),
	}
}

func (p Params) validate(id string, nInit, nProc int) error {
	if len(p.InitialMean) != nInit {
		return configErrorf(id, "initial mean must have %d values, got %d", nInit, len(p.InitialMean))
	}
	if err := p.InitialCov.validate(id, "initial covariance", nInit); err != nil {
		return err
	}
	return p.ProcessCov.validate(id, "process covariance", nProc)
}

func (p Params) mean() *mat.VecDense {
	return mat.NewVecDense(len(p.InitialMean), append([]float64(nil), p.InitialMean...))
}
