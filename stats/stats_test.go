package stats

import (
	"math"
	"testing"

	"github.com/sartorproj/gokalman/timeseries"
)

func TestACF(t *testing.T) {
	// Create a simple AR(1) process
	n := 100
	phi := 0.8
	values := make([]float64, n)
	values[0] = 0
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	series := timeseries.New(values)
	acf := ACF(series, 10)

	if acf == nil {
		t.Fatal("ACF returned nil")
	}

	// ACF at lag 0 should be 1
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}

	if acf[1] < 0.3 {
		t.Errorf("Expected strong lag 1 autocorrelation, got %f", acf[1])
	}
}

func TestACFSkipsMissing(t *testing.T) {
	values := []float64{1, -1, 1, -1, math.NaN(), -1, 1, -1, 1, -1}
	acf := ACF(timeseries.New(values), 2)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}

	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] >= 0 || acf[2] <= 0 {
		t.Errorf("Expected alternating signs, got %v", acf)
	}
	for _, v := range acf {
		if math.IsNaN(v) {
			t.Fatalf("ACF should not propagate missing values: %v", acf)
		}
	}
}

func TestPACF(t *testing.T) {
	// Create a simple AR(1) process
	n := 100
	phi := 0.7
	values := make([]float64, n)
	values[0] = 0
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	series := timeseries.New(values)
	pacf := PACF(series, 10)

	if pacf == nil {
		t.Fatal("PACF returned nil")
	}

	// PACF at lag 0 should be 1
	if math.Abs(pacf[0]-1.0) > 1e-10 {
		t.Errorf("PACF at lag 0 should be 1, got %f", pacf[0])
	}

	// PACF at lag 1 equals ACF at lag 1
	acf := ACF(series, 1)
	if math.Abs(pacf[1]-acf[1]) > 1e-12 {
		t.Errorf("PACF at lag 1 (%f) should equal ACF at lag 1 (%f)", pacf[1], acf[1])
	}
}

func TestACFWithConfidence(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i) + math.Sin(float64(i)/10)
	}

	series := timeseries.New(values)
	result := ACFWithConfidence(series, 20)

	if result == nil {
		t.Fatal("ACFWithConfidence returned nil")
	}

	// Confidence bounds should be approximately 1.96/sqrt(n)
	expected := 1.96 / math.Sqrt(100)
	if math.Abs(result.ConfBounds-expected) > 0.01 {
		t.Errorf("Expected confidence bounds ~%f, got %f", expected, result.ConfBounds)
	}

	if PACFWithConfidence(series, 20) == nil {
		t.Error("PACFWithConfidence returned nil")
	}
}

func TestSignificantLags(t *testing.T) {
	values := []float64{1.0, 0.5, 0.3, 0.1, 0.05, -0.2, -0.5}
	confBound := 0.15

	significant := SignificantLags(values, confBound)

	// Should include lags 1, 2, 5, 6 (values > 0.15 or < -0.15, excluding lag 0)
	expected := []int{1, 2, 5, 6}
	if len(significant) != len(expected) {
		t.Fatalf("Expected %d significant lags, got %d", len(expected), len(significant))
	}
	for i, lag := range expected {
		if significant[i] != lag {
			t.Errorf("Expected lag %d at position %d, got %d", lag, i, significant[i])
		}
	}
}

func TestLjungBox(t *testing.T) {
	n := 100
	whiteNoise := make([]float64, n)
	for i := range whiteNoise {
		whiteNoise[i] = float64(i%7-3) / 3
	}

	series := timeseries.New(whiteNoise)
	result := LjungBox(series, 10, 0)

	if result == nil {
		t.Fatal("LjungBox returned nil")
	}

	t.Logf("Ljung-Box - Q: %f, P-Value: %f, DOF: %d",
		result.Statistic, result.PValue, result.DOF)

	// Autocorrelated series should fail
	autocorrelated := make([]float64, n)
	autocorrelated[0] = 0
	for i := 1; i < n; i++ {
		autocorrelated[i] = 0.9*autocorrelated[i-1] + float64(i%7-3)/10
	}

	series2 := timeseries.New(autocorrelated)
	result2 := LjungBox(series2, 10, 2)

	if result2 == nil {
		t.Fatal("LjungBox returned nil for autocorrelated data")
	}
	if result2.PValue > 0.05 {
		t.Errorf("Expected autocorrelation to be detected, p-value %f", result2.PValue)
	}
	if result2.DOF != 8 {
		t.Errorf("Expected 8 degrees of freedom, got %d", result2.DOF)
	}

	if LjungBox(timeseries.New([]float64{1, 2, 3}), 10, 0) != nil {
		t.Error("Expected nil for a short series")
	}
}

func TestBoxPierce(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i%7-3) / 3
	}

	series := timeseries.New(values)
	result := BoxPierce(series, 10, 0)

	if result == nil {
		t.Fatal("BoxPierce returned nil")
	}

	// Box-Pierce never exceeds Ljung-Box on the same data
	lb := LjungBox(series, 10, 0)
	if result.Statistic > lb.Statistic {
		t.Errorf("Box-Pierce Q (%f) should not exceed Ljung-Box Q (%f)", result.Statistic, lb.Statistic)
	}
}

func TestDurbinWatson(t *testing.T) {
	tests := []struct {
		name      string
		residuals []float64
		expected  float64
	}{
		{
			name:      "negative autocorrelation",
			residuals: []float64{1, -1, 1, -1, 1, -1, 1, -1},
			expected:  3.5,
		},
		{
			name:      "positive autocorrelation",
			residuals: []float64{1, 1, 1, 1, -1, -1, -1, -1},
			expected:  0.5,
		},
		{
			name:      "missing value",
			residuals: []float64{1, 1, math.NaN(), 1, -1},
			expected:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DurbinWatson(tt.residuals)
			if result == nil {
				t.Fatal("DurbinWatson returned nil")
			}
			if math.Abs(result.Statistic-tt.expected) > 1e-10 {
				t.Errorf("Expected DW %f, got %f", tt.expected, result.Statistic)
			}
		})
	}
}

func TestAICc(t *testing.T) {
	tests := []struct {
		aic     float64
		nObs    int
		nParams int
	}{
		{100.0, 50, 3},
		{200.0, 100, 5},
		{150.0, 30, 4},
	}

	for _, tt := range tests {
		aicc := AICc(tt.aic, tt.nObs, tt.nParams)

		// AICc should always be >= AIC for finite sample sizes
		if aicc < tt.aic {
			t.Errorf("AICc (%f) should be >= AIC (%f)", aicc, tt.aic)
		}

		k := float64(tt.nParams)
		n := float64(tt.nObs)
		expectedAICc := tt.aic + 2*k*(k+1)/(n-k-1)

		if math.Abs(aicc-expectedAICc) > 1e-10 {
			t.Errorf("AICc calculation incorrect: got %f, expected %f", aicc, expectedAICc)
		}
	}

	// n-k-1 <= 0 should return Inf
	aicc := AICc(100.0, 5, 5)
	if !math.IsInf(aicc, 1) {
		t.Errorf("AICc should be +Inf when n-k-1 <= 0, got %f", aicc)
	}
}

func TestCalculateIC(t *testing.T) {
	logLik := -50.0
	nObs := 100
	nParams := 3

	ic := CalculateIC(logLik, nObs, nParams)

	// AIC = -2*logLik + 2*k
	expectedAIC := -2*logLik + 2*float64(nParams)
	if math.Abs(ic.AIC-expectedAIC) > 1e-10 {
		t.Errorf("AIC calculation incorrect: got %f, expected %f", ic.AIC, expectedAIC)
	}

	// BIC = -2*logLik + k*log(n)
	expectedBIC := -2*logLik + float64(nParams)*math.Log(float64(nObs))
	if math.Abs(ic.BIC-expectedBIC) > 1e-10 {
		t.Errorf("BIC calculation incorrect: got %f, expected %f", ic.BIC, expectedBIC)
	}

	if ic.AICc < ic.AIC {
		t.Errorf("AICc should be >= AIC")
	}

	t.Logf("LogLik=%.2f, n=%d, k=%d -> AIC=%.2f, AICc=%.2f, BIC=%.2f",
		logLik, nObs, nParams, ic.AIC, ic.AICc, ic.BIC)
}
