package belief

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// psdTol is the smallest eigenvalue accepted, relative to the largest
// variance, when checking that a covariance is positive semi-definite.
const psdTol = 1e-9

// quadForm returns A·S·Aᵀ, symmetrized.
func quadForm(a mat.Matrix, s mat.Symmetric) *mat.SymDense {
	r, _ := a.Dims()
	var tmp mat.Dense
	tmp.Product(a, s, a.T())
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, (tmp.At(i, j)+tmp.At(j, i))/2)
		}
	}
	return out
}

func eye(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

func cloneSym(s mat.Symmetric) *mat.SymDense {
	out := mat.NewSymDense(s.SymmetricDim(), nil)
	out.CopySym(s)
	return out
}

func subVec(v mat.Vector, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, j := range idx {
		out.SetVec(i, v.AtVec(j))
	}
	return out
}

func subSym(s mat.Symmetric, idx []int) *mat.SymDense {
	out := mat.NewSymDense(len(idx), nil)
	for i, a := range idx {
		for j := i; j < len(idx); j++ {
			out.SetSym(i, j, s.At(a, idx[j]))
		}
	}
	return out
}

func subRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}

// observed returns the measures of group g at t that are not NaN, and the
// full row of values.
func observed(input Input, g, t, numMeasures int) ([]int, []float64) {
	values := make([]float64, numMeasures)
	var idx []int
	for m := range values {
		values[m] = input.At(g, t, m)
		if !math.IsNaN(values[m]) {
			idx = append(idx, m)
		}
	}
	return idx, values
}

// positiveSemiDefinite reports whether s is finite and has no eigenvalue
// below -psdTol times its largest variance.
func positiveSemiDefinite(s mat.Symmetric) bool {
	n := s.SymmetricDim()
	scale := 1.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := s.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		scale = max(scale, math.Abs(s.At(i, i)))
	}
	var eig mat.EigenSym
	if !eig.Factorize(s, false) {
		return false
	}
	return eig.Values(nil)[0] >= -psdTol*scale
}

// checkVariances rejects a covariance whose diagonal is negative or not
// finite.
func checkVariances(s mat.Symmetric) error {
	for i := 0; i < s.SymmetricDim(); i++ {
		v := s.At(i, i)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrNotPositiveDefinite, "variance %d is %g", i, v)
		}
	}
	return nil
}
