package kalman

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sartorproj/gokalman/belief"
	"github.com/sartorproj/gokalman/design"
	"github.com/sartorproj/gokalman/process"
)

// ErrNotImplemented is returned by Smooth.
var ErrNotImplemented = errors.New("kalman: smoothing is not implemented")

// Filter drives the belief recursion for a design.
type Filter struct {
	design *design.Design
	logger *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger for run-level debug records and sampling
// warnings.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) {
		f.logger = l
	}
}

// New creates a filter for the design.
func New(d *design.Design, opts ...Option) *Filter {
	f := &Filter{
		design: d,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Design returns the design the filter runs.
func (f *Filter) Design() *design.Design {
	return f.design
}

// MeasureSize returns the number of measures.
func (f *Filter) MeasureSize() int {
	return f.design.MeasureSize()
}

// DesignForBatch materializes the design for a batch.
func (f *Filter) DesignForBatch(numGroups, numTimesteps int, cov map[string]process.Covariates) (*design.ForBatch, error) {
	return f.design.ForBatch(numGroups, numTimesteps, cov)
}

// PredictInitialState returns the prior for timestep 0 of the batch. It is
// treated as a one-step-ahead prediction, so every group counts as measured
// one step ago.
func (f *Filter) PredictInitialState(fb *design.ForBatch) (*belief.Gaussian, error) {
	return belief.New(fb.InitialMean(), fb.InitialCov(), nil)
}

// ForwardConfig holds the optional inputs of Forward.
type ForwardConfig struct {
	// InitialState replaces the design prior as the prediction for
	// timestep 0.
	InitialState *belief.Gaussian
	// Covariates holds batch covariates keyed by process id.
	Covariates map[string]process.Covariates
	Progress   Progress
}

// Forward runs the filter over input and returns the one-step-ahead
// predictions: the belief at timestep t uses observations up to t-1 only.
func (f *Filter) Forward(input belief.Input, cfg *ForwardConfig) (run *belief.OverTime, err error) {
	if cfg == nil {
		cfg = &ForwardConfig{}
	}
	groups, timesteps, measures := input.Dims()
	if measures != f.MeasureSize() {
		return nil, &process.ConfigError{Msg: fmt.Sprintf(
			"filter has %d measures, but the input shape is (%d, %d, %d); the third dimension must equal the number of measures",
			f.MeasureSize(), groups, timesteps, measures)}
	}
	fb, err := f.DesignForBatch(groups, timesteps, cfg.Covariates)
	if err != nil {
		return nil, err
	}

	pred := cfg.InitialState
	if pred == nil {
		if pred, err = f.PredictInitialState(fb); err != nil {
			return nil, err
		}
	}
	if err := f.checkBelief(pred, groups); err != nil {
		return nil, err
	}

	progress := progressOrDefault(cfg.Progress)
	progress.Begin(OpForward, timesteps)
	defer func() { progress.End(OpForward, err) }()
	f.logger.Debug("forward", "groups", groups, "timesteps", timesteps)

	preds := make([]*belief.Gaussian, 0, timesteps)
	for t := 0; t < timesteps; t++ {
		if t > 0 {
			// correct the prediction for t-1 with what was observed at t-1,
			// then move it to t; F(t-1) is the transition from t-1 to t
			updated, err := pred.UpdateFromInput(input, t-1)
			if err != nil {
				return nil, err
			}
			if pred, err = updated.Predict(fb.F(t-1), fb.Q(t-1)); err != nil {
				return nil, errors.WithMessagef(err, "predict timestep %d", t)
			}
		}
		if pred, err = pred.ComputeMeasurement(fb.H(t), fb.R(t)); err != nil {
			return nil, errors.WithMessagef(err, "measurement at timestep %d", t)
		}
		preds = append(preds, pred)
		progress.Step(OpForward, t)
	}
	return belief.NewOverTime(preds)
}

// ForecastConfig holds the optional inputs of Forecast.
type ForecastConfig struct {
	// FromTimes selects, per group, the timestep of the prior run to
	// forecast from. Nil uses the last belief.
	FromTimes  []int
	Covariates map[string]process.Covariates
	Progress   Progress
}

// Forecast projects a prior belief horizon steps ahead without correcting
// it. The belief at timestep 0 of the result is the prior itself.
func (f *Filter) Forecast(prior belief.Source, horizon int, cfg *ForecastConfig) (run *belief.OverTime, err error) {
	if cfg == nil {
		cfg = &ForecastConfig{}
	}
	if horizon < 1 {
		return nil, &process.ConfigError{Msg: fmt.Sprintf("horizon must be positive, got %d", horizon)}
	}
	pred, err := prior.StartingBelief(cfg.FromTimes)
	if err != nil {
		return nil, err
	}
	if err := f.checkBelief(pred, pred.NumGroups()); err != nil {
		return nil, err
	}
	fb, err := f.DesignForBatch(pred.NumGroups(), horizon, cfg.Covariates)
	if err != nil {
		return nil, err
	}

	progress := progressOrDefault(cfg.Progress)
	progress.Begin(OpForecast, horizon)
	defer func() { progress.End(OpForecast, err) }()
	f.logger.Debug("forecast", "groups", pred.NumGroups(), "horizon", horizon)

	preds := make([]*belief.Gaussian, 0, horizon)
	for t := 0; t < horizon; t++ {
		if t > 0 {
			if pred, err = pred.Predict(fb.F(t-1), fb.Q(t-1)); err != nil {
				return nil, errors.WithMessagef(err, "predict timestep %d", t)
			}
		}
		if pred, err = pred.ComputeMeasurement(fb.H(t), fb.R(t)); err != nil {
			return nil, errors.WithMessagef(err, "measurement at timestep %d", t)
		}
		preds = append(preds, pred)
		progress.Step(OpForecast, t)
	}
	return belief.NewOverTime(preds)
}

// Smooth is not implemented and always returns ErrNotImplemented.
func (f *Filter) Smooth(*belief.OverTime) (*belief.OverTime, error) {
	return nil, ErrNotImplemented
}

func (f *Filter) checkBelief(b *belief.Gaussian, groups int) error {
	if b.NumGroups() != groups || b.StateSize() != f.design.StateSize() {
		return errors.Wrapf(belief.ErrShape, "belief has %d groups and state size %d, want %d and %d",
			b.NumGroups(), b.StateSize(), groups, f.design.StateSize())
	}
	return nil
}
