// Package timeseries provides the data structures a Kalman filter consumes
// and produces.
//
// A Panel holds several multivariate time series on a common time axis as
// a dense (groups, timesteps, measures) array, with NaN marking missing
// values. A Series is a single univariate series.
//
// # Loading from CSV
//
// Long-format files hold one row per group, measure and date:
//
//	group,measure,date,value
//	store_1,sales,2020-01-01,100
//	store_1,visits,2020-01-01,31
//	store_2,sales,2020-01-03,87
//
// Load them into a panel:
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.Freq = 24 * time.Hour
//	panel, err := timeseries.LoadLongCSV("sales.csv", opts)
//
// Every group is aligned to its own first date, recorded in
// Panel.StartTimes. Gaps in the dates become NaN. Groups much shorter than
// the longest one can be dropped with CSVOptions.MinLenProp.
//
// # Writing Predictions
//
// WriteLongCSV writes a panel back out in the same layout, so predictions
// can be joined to the original rows:
//
//	opts.ValueColumn = "prediction"
//	err := timeseries.WriteLongCSV(os.Stdout, predictions, opts)
//
// # Basic Statistics
//
// Series statistics skip missing values:
//
//	s := panel.Series(0, 0)
//	mean := s.Mean()
//	std := s.Std()
//	median := s.Median()
package timeseries
