package kalman

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/sartorproj/gokalman/belief"
	"github.com/sartorproj/gokalman/process"
	"github.com/sartorproj/gokalman/timeseries"
)

// SimulateConfig holds the optional inputs of Simulate.
type SimulateConfig struct {
	FromTimes  []int
	Covariates map[string]process.Covariates
	Progress   Progress

	// StateToMeasured maps the simulated states to measurements, indexed
	// [group][timestep][measure] over the repeated batch. When nil,
	// measurement noise is sampled on top of H·x.
	StateToMeasured func(*belief.Trajectories) ([][][]float64, error)

	// ProcessNoise and MeasureNoise fix the standard-normal draws, indexed
	// [iteration·groups+group][timestep][element]. Nil draws from Source.
	ProcessNoise [][][]float64
	MeasureNoise [][][]float64

	// MaxDiagIncr bounds the diagonal increments applied to a covariance
	// that cannot be factorized. Zero uses the default.
	MaxDiagIncr int
	Source      rand.Source
}

// Simulate draws numIter stochastic trajectories of horizon timesteps from
// the prior and returns one panel per iteration, each shaped like the
// prior's batch.
func (f *Filter) Simulate(prior belief.Source, horizon, numIter int, cfg *SimulateConfig) (panels []*timeseries.Panel, err error) {
	if cfg == nil {
		cfg = &SimulateConfig{}
	}
	if horizon < 1 {
		return nil, &process.ConfigError{Msg: fmt.Sprintf("horizon must be positive, got %d", horizon)}
	}
	if numIter < 1 {
		return nil, &process.ConfigError{Msg: fmt.Sprintf("number of iterations must be positive, got %d", numIter)}
	}
	start, err := prior.StartingBelief(cfg.FromTimes)
	if err != nil {
		return nil, err
	}
	groups := start.NumGroups()
	if err := f.checkBelief(start, groups); err != nil {
		return nil, err
	}
	repeated, err := start.Repeat(numIter)
	if err != nil {
		return nil, err
	}
	fb, err := f.DesignForBatch(groups*numIter, horizon, repeatCovariates(cfg.Covariates, numIter))
	if err != nil {
		return nil, err
	}

	simCfg := belief.DefaultSimConfig()
	if cfg.MaxDiagIncr > 0 {
		simCfg.MaxDiagIncr = cfg.MaxDiagIncr
	}
	simCfg.Source = cfg.Source

	progress := progressOrDefault(cfg.Progress)
	progress.Begin(OpSimulate, numIter)
	defer func() { progress.End(OpSimulate, err) }()
	f.logger.Debug("simulate", "groups", groups, "horizon", horizon, "iterations", numIter)

	tr, err := repeated.SimulateTrajectories(fb, cfg.ProcessNoise, simCfg)
	if err != nil {
		return nil, errors.WithMessage(err, "simulate states")
	}
	var measured [][][]float64
	if cfg.StateToMeasured != nil {
		measured, err = cfg.StateToMeasured(tr)
	} else {
		measured, err = tr.SampleMeasurements(cfg.MeasureNoise)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "simulate measurements")
	}
	if len(measured) != groups*numIter {
		return nil, errors.Wrapf(belief.ErrShape, "state to measured returned %d groups, want %d", len(measured), groups*numIter)
	}

	if n := tr.Retries(); n > 0 {
		f.logger.Warn("covariance was not positive definite; inflated its diagonal",
			"increments", n, "increment", simCfg.DiagIncrement)
		if obs, ok := progress.(RetryObserver); ok {
			obs.DiagonalRetries(OpSimulate, n)
		}
	}

	panels = make([]*timeseries.Panel, numIter)
	for i := range panels {
		panels[i], err = timeseries.FromArray(measured[i*groups:(i+1)*groups], nil, f.design.Measures())
		if err != nil {
			return nil, errors.WithMessagef(err, "iteration %d", i)
		}
		progress.Step(OpSimulate, i)
	}
	return panels, nil
}

func repeatCovariates(cov map[string]process.Covariates, n int) map[string]process.Covariates {
	if cov == nil {
		return nil
	}
	out := make(map[string]process.Covariates, len(cov))
	for id, c := range cov {
		var r process.Covariates
		for i := 0; i < n && c.StartTimes != nil; i++ {
			r.StartTimes = append(r.StartTimes, c.StartTimes...)
		}
		out[id] = r
	}
	return out
}
