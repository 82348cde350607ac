package timeseries

import (
	"math"
	"testing"
	"time"
)

func TestNewPanelIsMissing(t *testing.T) {
	p := NewPanel([]string{"a"}, []string{"x", "y"}, 3)
	groups, timesteps, measures := p.Dims()
	if groups != 1 || timesteps != 3 || measures != 2 {
		t.Fatalf("Unexpected dims (%d, %d, %d)", groups, timesteps, measures)
	}
	for ts := 0; ts < 3; ts++ {
		for _, v := range p.Row(0, ts) {
			if !math.IsNaN(v) {
				t.Errorf("Expected NaN at timestep %d, got %f", ts, v)
			}
		}
	}

	p.Set(0, 2, 1, 7)
	if p.At(0, 2, 1) != 7 {
		t.Errorf("Expected 7, got %f", p.At(0, 2, 1))
	}
}

func TestFromArray(t *testing.T) {
	p, err := FromArray([][][]float64{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}}, nil, nil)
	if err != nil {
		t.Fatalf("FromArray failed: %v", err)
	}
	if p.Groups[1] != "1" || p.Measures[0] != "0" {
		t.Errorf("Expected index names, got %v and %v", p.Groups, p.Measures)
	}
	if p.At(1, 0, 1) != 6 {
		t.Errorf("Expected 6, got %f", p.At(1, 0, 1))
	}

	if _, err := FromArray([][][]float64{{{1}}, {{1}, {2}}}, nil, nil); err == nil {
		t.Error("Expected error for ragged values")
	}
}

func TestPanelSeriesAndSlice(t *testing.T) {
	p, err := FromArray([][][]float64{{{1}, {2}, {3}, {4}}}, []string{"a"}, []string{"y"})
	if err != nil {
		t.Fatalf("FromArray failed: %v", err)
	}
	p.Freq = time.Hour
	p.StartTimes = []time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

	s := p.Series(0, 0)
	if s.Name != "a/y" || s.Len() != 4 || s.Mean() != 2.5 {
		t.Errorf("Unexpected series %s of length %d with mean %f", s.Name, s.Len(), s.Mean())
	}
	if s.Timestamps[3].Hour() != 3 {
		t.Errorf("Expected hour 3, got %v", s.Timestamps[3])
	}

	sliced, err := p.Slice(1, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if sliced.At(0, 0, 0) != 2 || sliced.At(0, 1, 0) != 3 {
		t.Errorf("Unexpected slice %v", sliced.Array())
	}
	if sliced.StartTimes[0].Hour() != 1 {
		t.Errorf("Expected slice to start at hour 1, got %v", sliced.StartTimes[0])
	}

	if _, err := p.Slice(2, 2); err == nil {
		t.Error("Expected error for empty range")
	}
}
