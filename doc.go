// Package gokalman provides linear-Gaussian state-space models built from
// reusable processes, with Kalman filtering, forecasting and simulation for
// batches of independent multivariate time series.
//
// A model is a design: an ordered set of processes (local level, local
// trend, discrete season, Fourier season) each tied to one or more
// measures. The design stacks their state blocks into one state vector and
// builds the transition, process noise, measurement and measurement noise
// matrices for every group and timestep of a batch.
//
// # Features
//
//   - Composable processes with optional calendar anchoring and decay
//   - One-step-ahead filtering with missing values
//   - Multi-step forecasts from any timestep of a filtered run
//   - Stochastic simulation with reproducible random sources
//   - Long-format CSV panels and residual diagnostics (ACF, Ljung-Box)
//   - YAML model files and a command line tool
//
// # Quick Start
//
//	level := process.NewLocalLevel("level")
//	level.AddMeasure("sales")
//	dow := process.NewSeason("day_of_week", 7)
//	dow.AddMeasure("sales")
//
//	d, _ := design.New([]string{"sales"}, level, dow)
//	kf := kalman.New(d)
//	run, _ := kf.Forward(panel, nil)
//	forecast, _ := kf.Forecast(run, 14, nil)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - process: state-space building blocks
//   - design: composition of processes into a model and its batch matrices
//   - belief: Gaussian beliefs and the predict/update recursion
//   - kalman: filtering, forecasting and simulation
//   - timeseries: panels of series and long-format CSV I/O
//   - stats: residual diagnostics and information criteria
//   - config: YAML model files
//   - metrics: Prometheus metrics for filter runs
//
// # References
//
//   - Durbin, J., & Koopman, S. J. (2012). Time Series Analysis by State Space Methods
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
package gokalman
