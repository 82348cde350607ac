// Package config reads state-space model definitions from YAML files.
//
// A model file lists the measures and the processes of a design:
//
//	measures: [sales, visits]
//	measure_std: 0.5
//	processes:
//	  - id: trend
//	    type: local_trend
//	    measures: [sales]
//	    decay: {lower: 0.9, upper: 1.0}
//	  - id: day_of_week
//	    type: season
//	    period: 7
//	    season_start: 2018-01-01
//	    dt_unit: 24h
//	    measures: [sales, visits]
//
// Process types are local_level, local_trend, season, fourier and
// fourier_dynamic. Model.Design builds the design; every configuration
// problem is reported as a *process.ConfigError.
package config
