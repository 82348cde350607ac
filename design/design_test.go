package design

import (
	"testing"
	"time"

	"github.com/sartorproj/gokalman/process"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testDesign(t *testing.T) *Design {
	t.Helper()
	trend := process.NewLocalTrend("trend")
	trend.DecayVelocity = process.NewBounded(0.5, 1)
	trend.AddMeasure("sales")

	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	dow := process.NewSeason("day_of_week", 7)
	dow.Start = &start
	dow.DtUnit = 24 * time.Hour
	dow.AddMeasure("sales")
	dow.AddMeasure("visits")

	level := process.NewLocalLevel("visits_level")
	level.AddMeasure("visits")

	d, err := New([]string{"sales", "visits"}, trend, dow, level)
	require.NoError(t, err)
	return d
}

func startTimes(n int) map[string]process.Covariates {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.AddDate(0, 0, i)
	}
	return map[string]process.Covariates{"day_of_week": {StartTimes: times}}
}

func TestDesignLayout(t *testing.T) {
	d := testDesign(t)
	require.Equal(t, 10, d.StateSize())
	require.Equal(t, 2, d.MeasureSize())

	start, end, ok := d.Slice("day_of_week")
	require.True(t, ok)
	require.Equal(t, 2, start)
	require.Equal(t, 9, end)

	_, _, ok = d.Slice("missing")
	require.False(t, ok)

	elements := d.StateElements()
	require.Len(t, elements, 10)
	require.Equal(t, "trend.position", elements[0])
	require.Equal(t, "visits_level.position", elements[9])
}

func TestDesignRejectsBadComposition(t *testing.T) {
	lonely := process.NewLocalLevel("lonely")
	_, err := New([]string{"sales"}, lonely)
	var cfgErr *process.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "lonely", cfgErr.Process)

	stray := process.NewLocalLevel("stray")
	stray.AddMeasure("revenue")
	_, err = New([]string{"sales"}, stray)
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, err.Error(), "revenue")

	a := process.NewLocalLevel("same")
	a.AddMeasure("sales")
	b := process.NewLocalTrend("same")
	b.AddMeasure("sales")
	_, err = New([]string{"sales"}, a, b)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New([]string{"sales", "sales"}, a)
	require.Error(t, err)

	// visits has no process, so its H row would be all zeros
	_, err = New([]string{"sales", "visits"}, a)
	require.ErrorAs(t, err, &cfgErr)
	require.Empty(t, cfgErr.Process)
	require.Contains(t, err.Error(), "[visits]")

	_, err = New(nil, a)
	require.Error(t, err)
}

func TestForBatchMeasurementRows(t *testing.T) {
	d := testDesign(t)
	fb, err := d.ForBatch(2, 3, startTimes(2))
	require.NoError(t, err)

	h := fb.H(0)[0]
	r, c := h.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 10, c)

	// sales: trend position and the season's measured element
	require.Equal(t, []float64{1, 0, 1, 0, 0, 0, 0, 0, 0, 0}, mat.Row(nil, 0, h))
	// visits: the season and its own level
	require.Equal(t, []float64{0, 0, 1, 0, 0, 0, 0, 0, 0, 1}, mat.Row(nil, 1, h))
}

func TestForBatchBlockDiagonal(t *testing.T) {
	d := testDesign(t)
	fb, err := d.ForBatch(1, 2, startTimes(1))
	require.NoError(t, err)

	f := fb.F(0)[0]
	q := fb.Q(0)[0]
	p := fb.InitialCov()[0]
	for i := 0; i < 2; i++ {
		for j := 2; j < 10; j++ {
			require.Zero(t, f.At(i, j))
			require.Zero(t, f.At(j, i))
			require.Zero(t, q.At(i, j))
			require.Zero(t, p.At(i, j))
		}
	}
	require.Equal(t, 1.0, f.At(0, 1))
	require.Equal(t, -1.0, f.At(2, 2))
	require.Equal(t, 1.0, f.At(3, 2))
	require.Equal(t, 1.0, f.At(9, 9))

	r := fb.R(0)[0]
	require.InDelta(t, 1, r.At(0, 0), 1e-12)
	require.Zero(t, r.At(0, 1))
}

func TestForBatchIdempotent(t *testing.T) {
	d := testDesign(t)
	a, err := d.ForBatch(3, 5, startTimes(3))
	require.NoError(t, err)
	b, err := d.ForBatch(3, 5, startTimes(3))
	require.NoError(t, err)

	for step := 0; step < 5; step++ {
		for g := 0; g < 3; g++ {
			require.True(t, mat.Equal(a.F(step)[g], b.F(step)[g]))
			require.True(t, mat.Equal(a.Q(step)[g], b.Q(step)[g]))
			require.True(t, mat.Equal(a.H(step)[g], b.H(step)[g]))
			require.True(t, mat.Equal(a.R(step)[g], b.R(step)[g]))
			// repeated calls on the same batch
			require.True(t, mat.Equal(a.F(step)[g], a.F(step)[g]))
		}
	}
	for g := 0; g < 3; g++ {
		require.True(t, mat.Equal(a.InitialMean()[g], b.InitialMean()[g]))
		require.True(t, mat.Equal(a.InitialCov()[g], b.InitialCov()[g]))
	}
}

func TestForBatchGroupIndependence(t *testing.T) {
	d := testDesign(t)
	all, err := d.ForBatch(4, 3, startTimes(4))
	require.NoError(t, err)

	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	alone, err := d.ForBatch(1, 3, map[string]process.Covariates{
		"day_of_week": {StartTimes: []time.Time{start.AddDate(0, 0, 2)}},
	})
	require.NoError(t, err)

	for step := 0; step < 3; step++ {
		require.True(t, mat.Equal(all.F(step)[2], alone.F(step)[0]))
		require.True(t, mat.Equal(all.Q(step)[2], alone.Q(step)[0]))
	}
	require.True(t, mat.Equal(all.InitialMean()[2], alone.InitialMean()[0]))
}

func TestForBatchErrors(t *testing.T) {
	d := testDesign(t)

	_, err := d.ForBatch(1, 3, nil)
	var cfgErr *process.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "day_of_week", cfgErr.Process)

	_, err = d.ForBatch(1, 3, map[string]process.Covariates{"nope": {}})
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "nope", cfgErr.Process)

	_, err = d.ForBatch(0, 3, startTimes(0))
	require.Error(t, err)

	fb, err := d.ForBatch(1, 3, startTimes(1))
	require.NoError(t, err)
	require.Panics(t, func() { fb.H(3) })
	require.Panics(t, func() { fb.R(-1) })
}

func TestMeasureCovariance(t *testing.T) {
	d := testDesign(t)
	d.MeasureCov = process.NewCovariance(2, 0.5)
	d.MeasureCov.Corr = []float64{1}

	fb, err := d.ForBatch(1, 1, startTimes(1))
	require.NoError(t, err)
	r := fb.R(0)[0]
	require.InDelta(t, 0.25, r.At(1, 1), 1e-12)
	require.Greater(t, r.At(0, 1), 0.0)

	d.MeasureCov = process.NewCovariance(3, 1)
	_, err = d.ForBatch(1, 1, startTimes(1))
	require.Error(t, err)
}
