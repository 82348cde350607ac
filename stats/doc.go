// Package stats provides diagnostics for the innovations and likelihoods a
// Kalman filter produces.
//
// # Autocorrelation Functions
//
// A well specified model leaves standardized innovations that look like
// white noise. Check them with the autocorrelation functions:
//
//	residuals, _ := run.Residuals(panel)
//	values := make([]float64, len(residuals[0]))
//	for t, row := range residuals[0] {
//		values[t] = row[0] // first group, first measure
//	}
//	series := timeseries.New(values)
//
//	acf := stats.ACFWithConfidence(series, 20)
//	significant := stats.SignificantLags(acf.Values, acf.ConfBounds)
//
// Missing values are skipped rather than imputed.
//
// # Residual Diagnostics
//
// Test innovations for autocorrelation:
//
//	// Ljung-Box test for autocorrelation
//	lb := stats.LjungBox(series, 10, 0)
//	if lb.PValue > 0.05 {
//	    // no evidence of remaining autocorrelation
//	}
//
//	// Box-Pierce test
//	bp := stats.BoxPierce(series, 10, 0)
//
//	// Durbin-Watson test
//	dw := stats.DurbinWatson(series.Values)
//
// # Information Criteria
//
// Compare designs by their log-likelihood:
//
//	ic := stats.CalculateIC(logLik, nObs, nParams)
//	fmt.Printf("AIC=%.2f AICc=%.2f BIC=%.2f\n", ic.AIC, ic.AICc, ic.BIC)
package stats
