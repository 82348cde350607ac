// Package belief implements Gaussian beliefs about the hidden state of a
// batch of independent time series, and the recursion steps that move them
// through time.
//
// # Basic Usage
//
//	b, err := belief.New(fb.InitialMean(), fb.InitialCov(), nil)
//	b, err = b.ComputeMeasurement(fb.H(0), fb.R(0))
//	b, err = b.UpdateFromInput(panel, 0)
//	b, err = b.Predict(fb.F(0), fb.Q(0))
//
// Every step returns a new belief; none modifies its receiver. Groups never
// interact: each group's mean and covariance are propagated with its own
// matrices.
//
// # Missing Values
//
// NaN in the input marks a missing observation. UpdateFromInput corrects
// each group with the subset of measures it observed at that timestep and
// leaves groups without observations unchanged.
//
// # Sampling
//
// SimulateTrajectories factorizes covariances with a Cholesky
// decomposition. A covariance that is not positive definite has its
// diagonal inflated by SimConfig.DiagIncrement, up to SimConfig.MaxDiagIncr
// times, after which ErrNotPositiveDefinite is returned.
package belief
