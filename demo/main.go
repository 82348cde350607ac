// Package main demonstrates composing state-space models, filtering and
// forecasting on synthetic panels of daily series.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/sartorproj/gokalman/design"
	"github.com/sartorproj/gokalman/kalman"
	"github.com/sartorproj/gokalman/process"
	"github.com/sartorproj/gokalman/stats"
	"github.com/sartorproj/gokalman/timeseries"
)

// Dataset defines a synthetic panel to analyze
type Dataset struct {
	Name        string  // Display name
	Description string  // Brief description
	Groups      int     // Number of series
	Days        int     // Observations per series
	Level       float64 // Starting level
	Slope       float64 // Daily drift
	Weekly      float64 // Amplitude of the day-of-week effect
	Yearly      float64 // Amplitude of the yearly cycle
	Noise       float64 // Observation noise std
	MissingProp float64 // Share of observations dropped at random
}

// ForecastResult holds model results for JSON export
type ForecastResult struct {
	ModelName string                   `json:"model_name"`
	Processes []string                 `json:"processes"`
	LogLik    float64                  `json:"log_lik"`
	AIC       float64                  `json:"aic"`
	BIC       float64                  `json:"bic"`
	RMSE      float64                  `json:"rmse"`
	MAE       float64                  `json:"mae"`
	MAPE      float64                  `json:"mape"`
	Forecasts []float64                `json:"forecasts"`
	Lower     []float64                `json:"lower"`
	Upper     []float64                `json:"upper"`
	LjungBox  *stats.PortmanteauResult `json:"ljung_box,omitempty"`
}

// DatasetResult holds analysis results for a dataset
type DatasetResult struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	NObs        int              `json:"n_obs"`
	TrainData   []float64        `json:"train_data"`
	TestData    []float64        `json:"test_data"`
	TrainIndex  []int            `json:"train_index"`
	TestIndex   []int            `json:"test_index"`
	Models      []ForecastResult `json:"models"`
	ACF         []float64        `json:"acf"`
	PACF        []float64        `json:"pacf"`
}

// OutputData holds all results for visualization
type OutputData struct {
	Datasets []DatasetResult `json:"datasets"`
}

var epoch = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func main() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("GoKalman Demonstration - composable state-space models")
	fmt.Println(strings.Repeat("=", 80))

	datasets := []Dataset{
		{Name: "Store Sales", Groups: 3, Days: 140, Level: 100, Slope: 0.2, Weekly: 12, Noise: 3, Description: "Daily sales with a strong weekly pattern"},
		{Name: "Web Visits", Groups: 2, Days: 730, Level: 500, Weekly: 40, Yearly: 80, Noise: 15, MissingProp: 0.1, Description: "Daily visits with weekly and yearly cycles, 10% missing"},
		{Name: "Sensor Drift", Groups: 4, Days: 90, Level: 20, Slope: -0.05, Noise: 0.5, Description: "Slowly drifting readings without seasonality"},
	}

	output := OutputData{Datasets: []DatasetResult{}}
	rng := rand.New(rand.NewPCG(2022, 1))

	for i, ds := range datasets {
		fmt.Printf("\n%s\n[%d/%d] %s\n%s\n", strings.Repeat("=", 80), i+1, len(datasets), ds.Name, strings.Repeat("=", 80))

		result, err := analyze(ds, rng)
		if err != nil {
			fmt.Printf("   Error: %v\n", err)
			continue
		}
		output.Datasets = append(output.Datasets, *result)
	}

	fmt.Printf("\n%s\nEXPORTING RESULTS\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))

	if data, err := json.MarshalIndent(output, "", "  "); err == nil {
		os.WriteFile("forecast_results.json", data, 0644)
		fmt.Printf("Exported %d datasets to forecast_results.json\n", len(output.Datasets))
	}
	fmt.Println(strings.Repeat("=", 80))
}

// analyze fits every candidate design to a dataset and scores the forecasts
// of the first group on held-out data
func analyze(ds Dataset, rng *rand.Rand) (*DatasetResult, error) {
	panel := generate(ds, rng)
	_, n, _ := panel.Dims()
	series := panel.Series(0, 0)
	fmt.Printf("   Generated %d groups x %d days (%.2f to %.2f in group 0)\n", ds.Groups, n, series.Min(), series.Max())

	testSize := calculateTestSize(n)
	trainSize := n - testSize
	train, err := panel.Slice(0, trainSize)
	if err != nil {
		return nil, err
	}
	test := series.Slice(trainSize, n)
	fmt.Printf("   Train: %d, Test: %d\n", trainSize, testSize)

	trainSeries := train.Series(0, 0)
	result := &DatasetResult{
		Name:        ds.Name,
		Description: ds.Description,
		NObs:        n,
		TrainData:   trainSeries.Values,
		TestData:    test.Values,
		TrainIndex:  makeRange(1, trainSize),
		TestIndex:   makeRange(trainSize+1, n),
		Models:      []ForecastResult{},
	}

	maxLag := min(21, trainSize/2)
	result.ACF = stats.ACF(trainSeries, maxLag)
	result.PACF = stats.PACF(trainSeries, maxLag)
	if sig := stats.SignificantLags(result.ACF, 1.96/math.Sqrt(float64(len(trainSeries.Observed())))); len(sig) > 0 {
		fmt.Printf("   Significant ACF lags: %v\n", sig)
	}

	for _, c := range candidates() {
		fr, err := fit(c, train, test, testSize)
		if err != nil {
			fmt.Printf("   %-18s failed: %v\n", c.name, err)
			continue
		}
		fmt.Printf("   %-18s RMSE=%8.4f  AIC=%10.2f\n", c.name, fr.RMSE, fr.AIC)
		result.Models = append(result.Models, *fr)
	}
	return result, nil
}

type candidate struct {
	name  string
	build func() []process.Process
}

// candidates lists the designs tried on every dataset
func candidates() []candidate {
	level := func() process.Process {
		p := process.NewLocalLevel("level")
		p.AddMeasure("y")
		return p
	}
	trend := func() process.Process {
		p := process.NewLocalTrend("trend")
		p.DecayVelocity = process.NewBounded(0.9, 1)
		p.AddMeasure("y")
		return p
	}
	weekly := func() process.Process {
		p := process.NewSeason("day_of_week", 7)
		p.Start = &epoch
		p.DtUnit = 24 * time.Hour
		p.AddMeasure("y")
		return p
	}
	yearly := func() process.Process {
		p := process.NewFourierSeason("yearly", 365.25, 2)
		p.Start = &epoch
		p.DtUnit = 24 * time.Hour
		p.AddMeasure("y")
		return p
	}
	return []candidate{
		{"level", func() []process.Process { return []process.Process{level()} }},
		{"trend", func() []process.Process { return []process.Process{trend()} }},
		{"level+weekly", func() []process.Process { return []process.Process{level(), weekly()} }},
		{"trend+weekly+yearly", func() []process.Process { return []process.Process{trend(), weekly(), yearly()} }},
	}
}

// fit filters the training panel, forecasts testSize steps and scores group 0
func fit(c candidate, train *timeseries.Panel, test *timeseries.Series, testSize int) (*ForecastResult, error) {
	procs := c.build()
	d, err := design.New([]string{"y"}, procs...)
	if err != nil {
		return nil, err
	}
	kf := kalman.New(d)
	covariates := func(t int) map[string]process.Covariates {
		times := make([]time.Time, len(train.Groups))
		for g := range times {
			times[g] = train.Time(g, t)
		}
		out := map[string]process.Covariates{}
		for _, p := range procs {
			if a, ok := p.(interface{ Anchored() bool }); ok && a.Anchored() {
				out[p.ID()] = process.Covariates{StartTimes: times}
			}
		}
		return out
	}

	run, err := kf.Forward(train, &kalman.ForwardConfig{Covariates: covariates(0)})
	if err != nil {
		return nil, err
	}
	logProb, err := run.LogProb(train)
	if err != nil {
		return nil, err
	}
	var logLik float64
	for _, lp := range logProb[0] {
		logLik += lp
	}
	nObs := len(train.Series(0, 0).Observed())
	ic := stats.CalculateIC(logLik, nObs, d.StateSize()+d.MeasureSize())

	residuals, err := run.Residuals(train)
	if err != nil {
		return nil, err
	}
	res := make([]float64, len(residuals[0]))
	for t := range res {
		res[t] = residuals[0][t][0]
	}

	// one more step so the forecast starts after the last training day
	_, trainSize, _ := train.Dims()
	fc, err := kf.Forecast(run, testSize+1, &kalman.ForecastConfig{Covariates: covariates(trainSize - 1)})
	if err != nil {
		return nil, err
	}
	means, stds := fc.Predictions()[0], fc.PredictionStds()[0]
	forecasts := make([]float64, testSize)
	lower := make([]float64, testSize)
	upper := make([]float64, testSize)
	for i := range forecasts {
		forecasts[i] = means[i+1][0]
		lower[i] = forecasts[i] - 1.96*stds[i+1][0]
		upper[i] = forecasts[i] + 1.96*stds[i+1][0]
	}
	rmse, mae, mape := accuracy(test.Values, forecasts)

	names := make([]string, len(procs))
	for i, p := range procs {
		names[i] = p.ID()
	}
	return &ForecastResult{
		ModelName: c.name,
		Processes: names,
		LogLik:    ic.LogLik,
		AIC:       ic.AIC,
		BIC:       ic.BIC,
		RMSE:      rmse,
		MAE:       mae,
		MAPE:      mape,
		Forecasts: forecasts,
		Lower:     lower,
		Upper:     upper,
		LjungBox:  stats.LjungBox(timeseries.New(res), 14, 0),
	}, nil
}

// generate draws a synthetic panel for a dataset
func generate(ds Dataset, rng *rand.Rand) *timeseries.Panel {
	groups := make([]string, ds.Groups)
	for g := range groups {
		groups[g] = fmt.Sprintf("%s %d", strings.ToLower(ds.Name), g+1)
	}
	p := timeseries.NewPanel(groups, []string{"y"}, ds.Days)
	p.Freq = 24 * time.Hour
	p.StartTimes = make([]time.Time, ds.Groups)
	for g := range groups {
		p.StartTimes[g] = epoch.AddDate(0, 0, g)
		level := ds.Level * (1 + 0.1*float64(g))
		for t := 0; t < ds.Days; t++ {
			day := p.Time(g, t)
			v := level + ds.Slope*float64(t) +
				ds.Weekly*math.Sin(2*math.Pi*float64(day.Weekday())/7) +
				ds.Yearly*math.Sin(2*math.Pi*float64(day.YearDay())/365.25) +
				ds.Noise*rng.NormFloat64()
			if rng.Float64() < ds.MissingProp {
				v = math.NaN()
			}
			p.Set(g, t, 0, v)
		}
	}
	return p
}

// calculateTestSize determines appropriate test set size
func calculateTestSize(n int) int {
	return max(min(n/5, 28), 7)
}

// accuracy calculates forecast accuracy metrics, skipping missing actuals
func accuracy(actual, predicted []float64) (rmse, mae, mape float64) {
	n := 0
	for i := 0; i < min(len(actual), len(predicted)); i++ {
		if math.IsNaN(actual[i]) {
			continue
		}
		d := actual[i] - predicted[i]
		rmse += d * d
		mae += math.Abs(d)
		if actual[i] != 0 {
			mape += math.Abs(d) / math.Abs(actual[i]) * 100
		}
		n++
	}
	if n == 0 {
		return
	}
	return math.Sqrt(rmse / float64(n)), mae / float64(n), mape / float64(n)
}

func makeRange(start, end int) []int {
	r := make([]int, end-start+1)
	for i := range r {
		r[i] = start + i
	}
	return r
}
