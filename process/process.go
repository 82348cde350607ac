package process

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Process is a self-contained sub-model contributing a fixed-size block of
// hidden state, rules for how that block evolves, and how it maps onto the
// measures it is associated with.
type Process interface {
	// ID returns the unique name of the process.
	ID() string
	// StateElements names each element of the state block, in order.
	StateElements() []string
	// StateSize is len(StateElements()).
	StateSize() int
	// Measures returns the measures this process contributes to.
	Measures() []string
	// AddMeasure associates the process with a measure.
	AddMeasure(name string)
	// Validate checks the process configuration.
	Validate() error
	// ForBatch materializes the process for a concrete batch.
	ForBatch(numGroups, numTimesteps int, cov Covariates) (Block, error)
}

// Block is a process materialized for a batch. Every accessor returns one
// entry per group. Returned matrices are shared and must not be modified.
type Block interface {
	NumGroups() int
	NumTimesteps() int
	// F is the transition from t to t+1.
	F(t int) []*mat.Dense
	// Q is the process noise added during the transition from t to t+1.
	Q(t int) []*mat.SymDense
	// H is the measurement loading of the state block at t. It is placed in
	// the row of every measure the process is associated with.
	H(t int) []*mat.VecDense
	InitialMean() []*mat.VecDense
	InitialCov() []*mat.SymDense
}

// Covariates holds the batch-specific inputs a process may require.
type Covariates struct {
	// StartTimes holds the calendar time of timestep 0, one per group.
	StartTimes []time.Time
}

type base struct {
	id       string
	elements []string
	measures []string
}

func newBase(id string, elements []string) base {
	return base{id: id, elements: elements}
}

func (b *base) ID() string {
	return b.id
}

func (b *base) StateElements() []string {
	return slices.Clone(b.elements)
}

func (b *base) StateSize() int {
	return len(b.elements)
}

func (b *base) Measures() []string {
	return slices.Clone(b.measures)
}

func (b *base) AddMeasure(name string) {
	if slices.Contains(b.measures, name) {
		return
	}
	b.measures = append(b.measures, name)
}

func (b *base) checkBatch(numGroups, numTimesteps int) error {
	if numGroups < 1 {
		return configErrorf(b.id, "num groups must be positive, got %d", numGroups)
	}
	if numTimesteps < 1 {
		return configErrorf(b.id, "num timesteps must be positive, got %d", numTimesteps)
	}
	return nil
}

// block is the Block implementation shared by all variants.
type block struct {
	groups    int
	timesteps int
	f         func(t int) []*mat.Dense
	q         func(t int) []*mat.SymDense
	h         []*mat.VecDense
	mean      []*mat.VecDense
	cov       []*mat.SymDense
}

func (b *block) NumGroups() int    { return b.groups }
func (b *block) NumTimesteps() int { return b.timesteps }

func (b *block) F(t int) []*mat.Dense {
	b.check(t)
	return b.f(t)
}

func (b *block) Q(t int) []*mat.SymDense {
	b.check(t)
	return b.q(t)
}

func (b *block) H(t int) []*mat.VecDense {
	b.check(t)
	return slices.Clone(b.h)
}

func (b *block) InitialMean() []*mat.VecDense {
	return slices.Clone(b.mean)
}

func (b *block) InitialCov() []*mat.SymDense {
	return slices.Clone(b.cov)
}

func (b *block) check(t int) {
	if t < 0 || t >= b.timesteps {
		panic(fmt.Sprintf("process: timestep %d out of range [0, %d)", t, b.timesteps))
	}
}

// static returns an accessor that yields the same matrix for every group at
// every timestep.
func static[T any](m T, numGroups int) func(int) []T {
	return func(int) []T {
		return repeat(m, numGroups)
	}
}

func repeat[T any](m T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = m
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

// sandwich returns the symmetric matrix A·S·Aᵀ.
func sandwich(a mat.Matrix, s mat.Symmetric) *mat.SymDense {
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

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
