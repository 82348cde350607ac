package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sartorproj/gokalman/timeseries"
	"github.com/stretchr/testify/require"
)

const model = `
measures: [sales]
processes:
  - id: level
    type: local_level
    measures: [sales]
  - id: day_of_week
    type: season
    period: 7
    season_start: 2024-01-01
    dt_unit: 24h
    measures: [sales]
`

// writeInputs writes a model and 28 days of weekly-patterned sales for two
// stores, the second starting three days later.
func writeInputs(t *testing.T) (modelPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	modelPath = filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(modelPath, []byte(model), 0o600))

	var b strings.Builder
	b.WriteString("group,measure,date,value\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for s, store := range []string{"north", "south"} {
		for d := 0; d < 28; d++ {
			day := start.AddDate(0, 0, d+3*s)
			v := 10 + 3*math.Sin(2*math.Pi*float64(day.Weekday())/7)
			fmt.Fprintf(&b, "%s,sales,%s,%.4f\n", store, day.Format("2006-01-02"), v)
		}
	}
	dataPath = filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(b.String()), 0o600))
	return modelPath, dataPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFilterCommand(t *testing.T) {
	modelPath, dataPath := writeInputs(t)
	out, err := execute(t, "filter", "--model", modelPath, "--data", dataPath)
	require.NoError(t, err)

	p, err := timeseries.LoadLongCSVFromReader(strings.NewReader(out), nil)
	require.NoError(t, err)
	groups, timesteps, measures := p.Dims()
	require.Equal(t, 2, groups)
	require.Equal(t, 28, timesteps)
	require.Equal(t, 1, measures)
	require.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), p.StartTimes[1])
}

func TestForecastCommand(t *testing.T) {
	modelPath, dataPath := writeInputs(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "forecast.csv")
	metricsPath := filepath.Join(dir, "metrics.prom")
	_, err := execute(t, "forecast", "-m", modelPath, "-d", dataPath, "-o", output, "--horizon", "7", "--metrics", metricsPath)
	require.NoError(t, err)

	p, err := timeseries.LoadLongCSV(output, nil)
	require.NoError(t, err)
	_, timesteps, _ := p.Dims()
	require.Equal(t, 7, timesteps)
	// the first forecast is the day after the last observation
	require.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), p.StartTimes[0])
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.StartTimes[1])

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(prom), `gokalman_runs_total{op="forecast"} 1`)
	require.Contains(t, string(prom), `gokalman_steps_total{op="forward"} 29`)
}

func TestSimulateCommand(t *testing.T) {
	modelPath, dataPath := writeInputs(t)
	out, err := execute(t, "simulate", "-m", modelPath, "-d", dataPath, "--horizon", "5", "--iterations", "3", "--seed", "42")
	require.NoError(t, err)

	p, err := timeseries.LoadLongCSVFromReader(strings.NewReader(out), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"north#0", "north#1", "north#2", "south#0", "south#1", "south#2"}, p.Groups)
	_, timesteps, _ := p.Dims()
	require.Equal(t, 5, timesteps)

	again, err := execute(t, "simulate", "-m", modelPath, "-d", dataPath, "--horizon", "5", "--iterations", "3", "--seed", "42")
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestDiagnoseCommand(t *testing.T) {
	modelPath, dataPath := writeInputs(t)
	out, err := execute(t, "diagnose", "-m", modelPath, "-d", dataPath, "--lags", "7")
	require.NoError(t, err)
	require.Contains(t, out, "north")
	require.Contains(t, out, "south")
	require.Contains(t, out, "log-likelihood")
}

func TestMissingModel(t *testing.T) {
	_, dataPath := writeInputs(t)
	_, err := execute(t, "filter", "-m", filepath.Join(t.TempDir(), "nope.yaml"), "-d", dataPath)
	require.Error(t, err)
}
