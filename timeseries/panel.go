package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/pkg/errors"
)

// Panel is a dense (groups, timesteps, measures) array of observations for
// several multivariate time series aligned on a common time axis. Each group
// starts at its own calendar time; NaN marks a missing value.
type Panel struct {
	Groups   []string
	Measures []string
	// StartTimes holds the calendar time of timestep 0 per group. It may be
	// nil for data without a calendar.
	StartTimes []time.Time
	// Freq is the spacing between timesteps.
	Freq time.Duration

	timesteps int
	data      []float64
}

// NewPanel creates a panel filled with NaN.
func NewPanel(groups, measures []string, numTimesteps int) *Panel {
	data := make([]float64, len(groups)*numTimesteps*len(measures))
	for i := range data {
		data[i] = math.NaN()
	}
	return &Panel{
		Groups:    slices.Clone(groups),
		Measures:  slices.Clone(measures),
		timesteps: numTimesteps,
		data:      data,
	}
}

// FromArray creates a panel from values indexed [group][timestep][measure].
// Nil names are replaced by the index of the group or measure.
func FromArray(values [][][]float64, groups, measures []string) (*Panel, error) {
	if len(values) == 0 || len(values[0]) == 0 || len(values[0][0]) == 0 {
		return nil, errors.New("panel values must be non-empty in every dimension")
	}
	numTimesteps, numMeasures := len(values[0]), len(values[0][0])
	if groups == nil {
		groups = indexNames(len(values))
	}
	if measures == nil {
		measures = indexNames(numMeasures)
	}
	if len(groups) != len(values) || len(measures) != numMeasures {
		return nil, errors.Errorf("got %d group and %d measure names for values of shape (%d, %d, %d)",
			len(groups), len(measures), len(values), numTimesteps, numMeasures)
	}

	p := NewPanel(groups, measures, numTimesteps)
	for g := range values {
		if len(values[g]) != numTimesteps {
			return nil, errors.Errorf("group %d has %d timesteps, want %d", g, len(values[g]), numTimesteps)
		}
		for t := range values[g] {
			if len(values[g][t]) != numMeasures {
				return nil, errors.Errorf("group %d at timestep %d has %d measures, want %d", g, t, len(values[g][t]), numMeasures)
			}
			copy(p.data[p.offset(g, t, 0):], values[g][t])
		}
	}
	return p, nil
}

// Dims returns the number of groups, timesteps and measures.
func (p *Panel) Dims() (groups, timesteps, measures int) {
	return len(p.Groups), p.timesteps, len(p.Measures)
}

// At returns the value of measure m for group g at timestep t.
func (p *Panel) At(g, t, m int) float64 {
	return p.data[p.offset(g, t, m)]
}

// Set sets the value of measure m for group g at timestep t.
func (p *Panel) Set(g, t, m int, v float64) {
	p.data[p.offset(g, t, m)] = v
}

// Row returns a copy of the measures of group g at timestep t.
func (p *Panel) Row(g, t int) []float64 {
	i := p.offset(g, t, 0)
	return slices.Clone(p.data[i : i+len(p.Measures)])
}

// Time returns the calendar time of timestep t for group g, or the zero
// time when the panel has no start times.
func (p *Panel) Time(g, t int) time.Time {
	if p.StartTimes == nil {
		return time.Time{}
	}
	return p.StartTimes[g].Add(time.Duration(t) * p.Freq)
}

// Series extracts measure m of group g as a Series.
func (p *Panel) Series(g, m int) *Series {
	values := make([]float64, p.timesteps)
	for t := range values {
		values[t] = p.At(g, t, m)
	}
	s := &Series{
		Values: values,
		Name:   p.Groups[g] + "/" + p.Measures[m],
	}
	if p.StartTimes != nil {
		s.Timestamps = make([]time.Time, p.timesteps)
		for t := range s.Timestamps {
			s.Timestamps[t] = p.Time(g, t)
		}
	}
	return s
}

// Slice returns the timesteps [start, end) as a new panel. Start times move
// forward accordingly.
func (p *Panel) Slice(start, end int) (*Panel, error) {
	if start < 0 || end > p.timesteps || start >= end {
		return nil, errors.Errorf("invalid timestep range [%d, %d) for %d timesteps", start, end, p.timesteps)
	}
	out := NewPanel(p.Groups, p.Measures, end-start)
	out.Freq = p.Freq
	if p.StartTimes != nil {
		out.StartTimes = make([]time.Time, len(p.Groups))
		for g := range p.Groups {
			out.StartTimes[g] = p.Time(g, start)
		}
	}
	n := (end - start) * len(p.Measures)
	for g := range p.Groups {
		i := out.offset(g, 0, 0)
		copy(out.data[i:i+n], p.data[p.offset(g, start, 0):])
	}
	return out, nil
}

// Array returns a copy of the values indexed [group][timestep][measure].
func (p *Panel) Array() [][][]float64 {
	out := make([][][]float64, len(p.Groups))
	for g := range out {
		out[g] = make([][]float64, p.timesteps)
		for t := range out[g] {
			out[g][t] = p.Row(g, t)
		}
	}
	return out
}

func (p *Panel) offset(g, t, m int) int {
	return (g*p.timesteps+t)*len(p.Measures) + m
}

func indexNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprint(i)
	}
	return out
}
