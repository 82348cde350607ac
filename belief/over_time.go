package belief

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// OverTime is an ordered run of beliefs, one per timestep, each carrying
// its measurement. It is read-only.
type OverTime struct {
	beliefs []*Gaussian
}

// NewOverTime collects beliefs into a run. All beliefs must share the batch
// size and carry a computed measurement.
func NewOverTime(beliefs []*Gaussian) (*OverTime, error) {
	if len(beliefs) == 0 {
		return nil, errors.Wrap(ErrShape, "a run needs at least one belief")
	}
	groups := beliefs[0].NumGroups()
	for t, b := range beliefs {
		if b.NumGroups() != groups {
			return nil, errors.Wrapf(ErrShape, "timestep %d has %d groups, want %d", t, b.NumGroups(), groups)
		}
		if !b.HasMeasurement() {
			return nil, errors.WithMessagef(ErrNoMeasurement, "timestep %d", t)
		}
	}
	return &OverTime{beliefs: append([]*Gaussian(nil), beliefs...)}, nil
}

// NumTimesteps returns the length of the run.
func (o *OverTime) NumTimesteps() int {
	return len(o.beliefs)
}

// NumGroups returns the batch size.
func (o *OverTime) NumGroups() int {
	return o.beliefs[0].NumGroups()
}

// StateSize returns the state dimension.
func (o *OverTime) StateSize() int {
	return o.beliefs[0].StateSize()
}

// MeasureSize returns the number of measures.
func (o *OverTime) MeasureSize() int {
	return o.beliefs[0].measMeans[0].Len()
}

// At returns the belief at timestep t.
func (o *OverTime) At(t int) *Gaussian {
	return o.beliefs[t]
}

// LastPrediction returns the belief at the final timestep.
func (o *OverTime) LastPrediction() *Gaussian {
	return o.beliefs[len(o.beliefs)-1]
}

// StateBeliefForTime gathers, for every group g, its belief at the absolute
// timestep times[g].
func (o *OverTime) StateBeliefForTime(times []int) (*Gaussian, error) {
	if len(times) != o.NumGroups() {
		return nil, errors.Wrapf(ErrShape, "got %d times for %d groups", len(times), o.NumGroups())
	}
	first := o.beliefs[0]
	out := first.empty()
	out.h = make([]*mat.Dense, len(times))
	out.r = make([]*mat.SymDense, len(times))
	out.measMeans = make([]*mat.VecDense, len(times))
	out.measCovs = make([]*mat.SymDense, len(times))
	for g, t := range times {
		if t < 0 || t >= len(o.beliefs) {
			return nil, errors.Wrapf(ErrShape, "group %d: timestep %d outside run of %d timesteps", g, t, len(o.beliefs))
		}
		b := o.beliefs[t]
		out.means[g] = b.means[g]
		out.covs[g] = b.covs[g]
		out.lastMeasured[g] = b.lastMeasured[g]
		out.h[g] = b.h[g]
		out.r[g] = b.r[g]
		out.measMeans[g] = b.measMeans[g]
		out.measCovs[g] = b.measCovs[g]
	}
	return out, nil
}

// StartingBelief returns the last belief, or the per-group selection at
// fromTimes when given.
func (o *OverTime) StartingBelief(fromTimes []int) (*Gaussian, error) {
	if fromTimes == nil {
		return o.LastPrediction(), nil
	}
	return o.StateBeliefForTime(fromTimes)
}

// Concat appends other along the time axis.
func (o *OverTime) Concat(other *OverTime) (*OverTime, error) {
	if other.NumGroups() != o.NumGroups() {
		return nil, errors.Wrapf(ErrShape, "cannot concatenate runs of %d and %d groups", o.NumGroups(), other.NumGroups())
	}
	if a, b := o.StateSize(), other.StateSize(); a != b {
		return nil, errors.Wrapf(ErrShape, "cannot concatenate runs with state sizes %d and %d", a, b)
	}
	if a, b := o.MeasureSize(), other.MeasureSize(); a != b {
		return nil, errors.Wrapf(ErrShape, "cannot concatenate runs of %d and %d measures", a, b)
	}
	beliefs := make([]*Gaussian, 0, len(o.beliefs)+len(other.beliefs))
	beliefs = append(beliefs, o.beliefs...)
	beliefs = append(beliefs, other.beliefs...)
	return &OverTime{beliefs: beliefs}, nil
}

// Predictions returns the measurement means indexed [group][timestep][measure].
func (o *OverTime) Predictions() [][][]float64 {
	return o.collect(func(b *Gaussian, g int) []float64 {
		return mat.Col(nil, 0, b.measMeans[g])
	})
}

// PredictionStds returns the standard deviations of the measurement
// predictions, indexed [group][timestep][measure].
func (o *OverTime) PredictionStds() [][][]float64 {
	return o.collect(func(b *Gaussian, g int) []float64 {
		s := b.measCovs[g]
		out := make([]float64, s.SymmetricDim())
		for i := range out {
			out[i] = math.Sqrt(s.At(i, i))
		}
		return out
	})
}

// StateMeans returns the state means indexed [group][timestep][element].
func (o *OverTime) StateMeans() [][][]float64 {
	return o.collect(func(b *Gaussian, g int) []float64 {
		return mat.Col(nil, 0, b.means[g])
	})
}

// LogProb returns the log-density of the observed measures of every group
// at every timestep under the predicted measurement distribution, indexed
// [group][timestep]. Entries with nothing observed are 0.
func (o *OverTime) LogProb(input Input) ([][]float64, error) {
	if err := o.checkInput(input); err != nil {
		return nil, err
	}
	numMeasures := o.MeasureSize()
	out := make([][]float64, o.NumGroups())
	for g := range out {
		out[g] = make([]float64, len(o.beliefs))
		for t, b := range o.beliefs {
			obs, values := observed(input, g, t, numMeasures)
			if len(obs) == 0 {
				continue
			}
			mu := subVec(b.measMeans[g], obs)
			dist, ok := distmv.NewNormal(mat.Col(nil, 0, mu), subSym(b.measCovs[g], obs), nil)
			if !ok {
				return nil, errors.Wrapf(ErrNotPositiveDefinite, "measurement covariance of group %d at timestep %d", g, t)
			}
			out[g][t] = dist.LogProb(mat.Col(nil, 0, subVec(mat.NewVecDense(len(values), values), obs)))
		}
	}
	return out, nil
}

// Residuals returns the standardized innovations (actual - predicted) / std,
// indexed [group][timestep][measure], NaN where the input is missing.
func (o *OverTime) Residuals(input Input) ([][][]float64, error) {
	if err := o.checkInput(input); err != nil {
		return nil, err
	}
	preds := o.Predictions()
	stds := o.PredictionStds()
	for g := range preds {
		for t := range preds[g] {
			for m := range preds[g][t] {
				preds[g][t][m] = (input.At(g, t, m) - preds[g][t][m]) / stds[g][t][m]
			}
		}
	}
	return preds, nil
}

func (o *OverTime) collect(fn func(b *Gaussian, g int) []float64) [][][]float64 {
	out := make([][][]float64, o.NumGroups())
	for g := range out {
		out[g] = make([][]float64, len(o.beliefs))
		for t, b := range o.beliefs {
			out[g][t] = fn(b, g)
		}
	}
	return out
}

func (o *OverTime) checkInput(input Input) error {
	groups, timesteps, measures := input.Dims()
	want := o.MeasureSize()
	if groups != o.NumGroups() || timesteps != len(o.beliefs) || measures != want {
		return errors.Wrapf(ErrShape, "input is (%d, %d, %d), run is (%d, %d, %d)",
			groups, timesteps, measures, o.NumGroups(), len(o.beliefs), want)
	}
	return nil
}
