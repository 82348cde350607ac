package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sartorproj/gokalman/process"
	"github.com/stretchr/testify/require"
)

const storeModel = `
measures: [sales, visits]
measure_std: 0.5
processes:
  - id: trend
    type: local_trend
    measures: [sales]
    decay: {lower: 0.9, upper: 1.0}
    process_std: 0.05
  - id: day_of_week
    type: season
    period: 7
    season_start: 2018-01-01
    dt_unit: 24h
    measures: [sales, visits]
  - id: yearly
    type: fourier
    period: 365.25
    k: 2
    measures: [visits]
  - id: level
    type: local_level
    measures: [visits]
`

func TestParseBuildsDesign(t *testing.T) {
	m, err := Parse([]byte(storeModel))
	require.NoError(t, err)
	require.Equal(t, []string{"day_of_week"}, m.StartTimeProcesses())

	d, err := m.Design()
	require.NoError(t, err)
	require.Equal(t, []string{"sales", "visits"}, d.Measures())
	require.Equal(t, 2+7+4+1, d.StateSize())

	r := d.MeasureCov.Matrix()
	require.InDelta(t, 0.25, r.At(1, 1), 1e-12)

	p, ok := d.Process("trend")
	require.True(t, ok)
	trend := p.(*process.LocalTrend)
	require.InDelta(t, 0.95, trend.VelocityDecay(), 1e-12)
	require.InDelta(t, 0.0025, trend.Params.ProcessCov.Matrix().At(1, 1), 1e-12)

	p, ok = d.Process("day_of_week")
	require.True(t, ok)
	dow := p.(*process.Season)
	require.NotNil(t, dow.Start)
	require.True(t, dow.Start.Equal(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 24*time.Hour, dow.DtUnit)
	require.Equal(t, []string{"sales", "visits"}, dow.Measures())
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		process string
	}{
		{"no measures", "processes: [{id: a, type: local_level}]", ""},
		{"no processes", "measures: [y]", ""},
		{"unknown type", "measures: [y]\nprocesses: [{id: a, type: arima, measures: [y]}]", "a"},
		{"missing id", "measures: [y]\nprocesses: [{type: local_level, measures: [y]}]", ""},
		{"fractional season", "measures: [y]\nprocesses: [{id: s, type: season, period: 7.5, measures: [y]}]", "s"},
		{"negative std", "measures: [y]\nprocesses: [{id: a, type: local_level, process_std: -1, measures: [y]}]", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var cfgErr *process.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tt.process, cfgErr.Process)
		})
	}

	_, err := Parse([]byte("measures: [y]\nprocesses: [{id: a, type: local_level, colour: red}]"))
	require.Error(t, err)
}

func TestDesignRejects(t *testing.T) {
	m, err := Parse([]byte("measures: [y]\nprocesses: [{id: lvl, type: local_level, season_start: 2018-01-01, measures: [y]}]"))
	require.NoError(t, err)
	_, err = m.Design()
	var cfgErr *process.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "lvl", cfgErr.Process)

	m, err = Parse([]byte("measures: [y]\nprocesses: [{id: s, type: season, period: 1, measures: [y]}]"))
	require.NoError(t, err)
	_, err = m.Design()
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "s", cfgErr.Process)

	m, err = Parse([]byte("measures: [y]\nprocesses: [{id: a, type: local_level, measures: [z]}]"))
	require.NoError(t, err)
	_, err = m.Design()
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, err.Error(), `"z"`)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(storeModel), 0o600))
	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Processes, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
