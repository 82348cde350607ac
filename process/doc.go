// Package process implements the building blocks of a state-space model.
//
// A process contributes a fixed-size block of hidden state, the rules for how
// that block evolves from one timestep to the next, and how it maps onto the
// measures it is associated with. Processes are composed into a model by the
// design package.
//
// # Variants
//
//   - LocalLevel: a random walk, optionally damped
//   - LocalTrend: position and velocity, F = [[1, 1], [0, decay]]
//   - Season: discrete seasonal effects that sum to zero over a cycle
//   - FourierSeason: K harmonics rotating with the seasonal period
//   - FourierSeasonDynamic: Fourier harmonics plus a tracked position element
//
// # Basic Usage
//
//	trend := process.NewLocalTrend("trend")
//	trend.DecayVelocity = process.NewBounded(0.5, 1.0)
//	trend.AddMeasure("sales")
//
//	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
//	dow := process.NewSeason("day_of_week", 7)
//	dow.Start = &start
//	dow.DtUnit = 24 * time.Hour
//	dow.AddMeasure("sales")
//
// # Parameters
//
// Every variant owns an explicit Params struct (initial mean, initial
// covariance, process covariance) plus variant-specific values such as
// decay factors. The values are read when a process is materialized with
// ForBatch; estimating them is left to the caller.
//
// # Calendar Anchors
//
// Seasons with a Start time need Covariates.StartTimes, one per group, to
// know which phase timestep 0 falls in. ForBatch returns a *ConfigError
// naming the process when they are missing.
package process
