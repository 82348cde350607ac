package stats

import (
	"math"

	"github.com/sartorproj/gokalman/timeseries"
	"gonum.org/v1/gonum/stat/distuv"
)

// PortmanteauResult represents the result of a Ljung-Box or Box-Pierce test.
type PortmanteauResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int // Degrees of freedom
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// fitdf is the number of parameters estimated in the model.
func LjungBox(series *timeseries.Series, lags, fitdf int) *PortmanteauResult {
	return portmanteau(series, lags, fitdf, func(r float64, n, k int) float64 {
		return float64(n*(n+2)) * r * r / float64(n-k)
	})
}

// BoxPierce performs the Box-Pierce test for autocorrelation.
// Similar to Ljung-Box but with a simpler formula.
func BoxPierce(series *timeseries.Series, lags, fitdf int) *PortmanteauResult {
	return portmanteau(series, lags, fitdf, func(r float64, n, _ int) float64 {
		return float64(n) * r * r
	})
}

func portmanteau(series *timeseries.Series, lags, fitdf int, term func(r float64, n, k int) float64) *PortmanteauResult {
	n := len(series.Observed())
	if n < 10 || lags < 1 {
		return nil
	}

	if lags >= n {
		lags = n - 1
	}

	acf := ACF(series, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k < len(acf); k++ {
		q += term(acf[k], n, k)
	}

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	return &PortmanteauResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: float64(dof)}.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}

// DurbinWatsonResult represents the result of a Durbin-Watson test.
type DurbinWatsonResult struct {
	Statistic float64
	// d ≈ 2: no autocorrelation
	// d < 2: positive autocorrelation
	// d > 2: negative autocorrelation
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// autocorrelation. Differences touching a missing value are skipped.
func DurbinWatson(residuals []float64) *DurbinWatsonResult {
	if len(residuals) < 2 {
		return nil
	}

	numerator := 0.0
	denominator := 0.0

	for i := 1; i < len(residuals); i++ {
		diff := residuals[i] - residuals[i-1]
		if !math.IsNaN(diff) {
			numerator += diff * diff
		}
	}

	for _, r := range residuals {
		if !math.IsNaN(r) {
			denominator += r * r
		}
	}

	if denominator == 0 {
		return nil
	}

	return &DurbinWatsonResult{
		Statistic: numerator / denominator,
	}
}
