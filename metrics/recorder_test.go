package metrics

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sartorproj/gokalman/design"
	"github.com/sartorproj/gokalman/kalman"
	"github.com/sartorproj/gokalman/process"
	"github.com/sartorproj/gokalman/timeseries"
	"github.com/stretchr/testify/require"
)

func newFilter(t *testing.T) *kalman.Filter {
	t.Helper()
	level := process.NewLocalLevel("level")
	level.AddMeasure("y")
	d, err := design.New([]string{"y"}, level)
	require.NoError(t, err)
	return kalman.New(d)
}

func TestRecorderCountsForward(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	input, err := timeseries.FromArray([][][]float64{{{1}, {math.NaN()}, {3}, {4}}}, nil, nil)
	require.NoError(t, err)
	kf := newFilter(t)
	_, err = kf.Forward(input, &kalman.ForwardConfig{Progress: rec})
	require.NoError(t, err)

	fw := string(kalman.OpForward)
	require.Equal(t, 1.0, testutil.ToFloat64(rec.runs.WithLabelValues(fw)))
	require.Equal(t, 4.0, testutil.ToFloat64(rec.steps.WithLabelValues(fw)))
	require.Equal(t, 0.0, testutil.ToFloat64(rec.failures.WithLabelValues(fw)))
	require.Equal(t, 1, testutil.CollectAndCount(rec.duration))
}

func TestRecorderCountsFailuresAndRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.Begin(kalman.OpSimulate, 2)
	rec.DiagonalRetries(kalman.OpSimulate, 5)
	rec.End(kalman.OpSimulate, kalman.ErrNotImplemented)

	sim := string(kalman.OpSimulate)
	require.Equal(t, 1.0, testutil.ToFloat64(rec.failures.WithLabelValues(sim)))
	require.Equal(t, 5.0, testutil.ToFloat64(rec.retries.WithLabelValues(sim)))
}

func TestRecorderRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	require.Error(t, err)
}
