package design

import (
	"fmt"

	"github.com/sartorproj/gokalman/process"
	"gonum.org/v1/gonum/mat"
)

// ForBatch is a design materialized for a concrete batch shape. Parameter
// values are read when it is built; it does not change afterwards and every
// accessor returns freshly composed matrices, one per group.
type ForBatch struct {
	design       *Design
	numGroups    int
	numTimesteps int
	blocks       []process.Block
	r            *mat.SymDense
}

// Design returns the design this batch was built from.
func (fb *ForBatch) Design() *Design {
	return fb.design
}

// NumGroups returns the number of groups in the batch.
func (fb *ForBatch) NumGroups() int {
	return fb.numGroups
}

// NumTimesteps returns the number of timesteps in the batch.
func (fb *ForBatch) NumTimesteps() int {
	return fb.numTimesteps
}

// F returns the transition matrices from t to t+1.
func (fb *ForBatch) F(t int) []*mat.Dense {
	fb.check(t)
	n := fb.design.stateSize
	out := make([]*mat.Dense, fb.numGroups)
	for g := range out {
		out[g] = mat.NewDense(n, n, nil)
	}
	for i, blk := range fb.blocks {
		start, end := fb.span(i)
		for g, f := range blk.F(t) {
			out[g].Slice(start, end, start, end).(*mat.Dense).Copy(f)
		}
	}
	return out
}

// Q returns the process noise covariances added between t and t+1.
func (fb *ForBatch) Q(t int) []*mat.SymDense {
	fb.check(t)
	out := fb.emptySym()
	for i, blk := range fb.blocks {
		start, end := fb.span(i)
		for g, q := range blk.Q(t) {
			out[g].SliceSym(start, end).(*mat.SymDense).CopySym(q)
		}
	}
	return out
}

// H returns the measurement matrices at t, one row per measure.
func (fb *ForBatch) H(t int) []*mat.Dense {
	fb.check(t)
	m, n := len(fb.design.measures), fb.design.stateSize
	out := make([]*mat.Dense, fb.numGroups)
	for g := range out {
		out[g] = mat.NewDense(m, n, nil)
	}
	for i, blk := range fb.blocks {
		start, _ := fb.span(i)
		for g, h := range blk.H(t) {
			for _, row := range fb.design.rows[i] {
				for j := 0; j < h.Len(); j++ {
					out[g].Set(row, start+j, h.AtVec(j))
				}
			}
		}
	}
	return out
}

// R returns the measurement noise covariances at t.
func (fb *ForBatch) R(t int) []*mat.SymDense {
	fb.check(t)
	out := make([]*mat.SymDense, fb.numGroups)
	for g := range out {
		out[g] = mat.NewSymDense(fb.r.SymmetricDim(), nil)
		out[g].CopySym(fb.r)
	}
	return out
}

// InitialMean returns the prior state mean at timestep 0.
func (fb *ForBatch) InitialMean() []*mat.VecDense {
	out := make([]*mat.VecDense, fb.numGroups)
	for g := range out {
		out[g] = mat.NewVecDense(fb.design.stateSize, nil)
	}
	for i, blk := range fb.blocks {
		start, end := fb.span(i)
		for g, m := range blk.InitialMean() {
			out[g].SliceVec(start, end).(*mat.VecDense).CopyVec(m)
		}
	}
	return out
}

// InitialCov returns the prior state covariance at timestep 0.
func (fb *ForBatch) InitialCov() []*mat.SymDense {
	out := fb.emptySym()
	for i, blk := range fb.blocks {
		start, end := fb.span(i)
		for g, c := range blk.InitialCov() {
			out[g].SliceSym(start, end).(*mat.SymDense).CopySym(c)
		}
	}
	return out
}

func (fb *ForBatch) span(i int) (start, end int) {
	start = fb.design.starts[i]
	return start, start + fb.design.processes[i].StateSize()
}

func (fb *ForBatch) emptySym() []*mat.SymDense {
	out := make([]*mat.SymDense, fb.numGroups)
	for g := range out {
		out[g] = mat.NewSymDense(fb.design.stateSize, nil)
	}
	return out
}

func (fb *ForBatch) check(t int) {
	if t < 0 || t >= fb.numTimesteps {
		panic(fmt.Sprintf("design: timestep %d out of range [0, %d)", t, fb.numTimesteps))
	}
}
