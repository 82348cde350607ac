// Package kalman drives the state-space recursion over a design.
//
// A Filter wraps a design.Design and exposes the three recursions:
// Forward filters observed data, Forecast projects a belief forward
// without data, and Simulate draws stochastic trajectories.
//
// # Basic Usage
//
//	kf := kalman.New(d, kalman.WithLogger(logger))
//
//	run, err := kf.Forward(panel, &kalman.ForwardConfig{Covariates: cov})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fitted := run.Predictions() // [group][timestep][measure]
//
//	fc, err := kf.Forecast(run, 14, nil)
//
// # One-Step-Ahead Predictions
//
// Forward never returns filtered estimates. The belief at timestep t is the
// prediction made after seeing the input up to t-1, so fitted values can be
// compared with the input at the same timestep without leakage. The input
// at the final timestep is therefore never used; pass the run to Forecast
// to continue from it.
//
// # Simulation
//
//	panels, err := kf.Simulate(run, 30, 100, &kalman.SimulateConfig{Source: rand.NewPCG(1, 2)})
//
// Simulate returns one panel per iteration. Covariances that cannot be
// factorized have their diagonal inflated a bounded number of times; the
// total is logged as a warning and reported to a Progress implementing
// RetryObserver.
package kalman
