package timeseries

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestLoadLongCSVFromReader(t *testing.T) {
	csvData := `group,measure,date,value
b,sales,2020-01-03,20
a,visits,2020-01-02,5
a,sales,2020-01-01,100
a,sales,2020-01-02,101
a,sales,2020-01-04,103
b,sales,2020-01-04,21
b,visits,2020-01-03,NA`

	panel, err := LoadLongCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	groups, timesteps, measures := panel.Dims()
	if groups != 2 || timesteps != 4 || measures != 2 {
		t.Fatalf("Expected dims (2, 4, 2), got (%d, %d, %d)", groups, timesteps, measures)
	}
	if panel.Groups[0] != "a" || panel.Measures[0] != "sales" || panel.Measures[1] != "visits" {
		t.Errorf("Expected sorted groups and measures, got %v and %v", panel.Groups, panel.Measures)
	}

	// group a starts on its own first date
	expected := []float64{100, 101, math.NaN(), 103}
	for i, v := range expected {
		got := panel.At(0, i, 0)
		if math.IsNaN(v) != math.IsNaN(got) || (!math.IsNaN(v) && got != v) {
			t.Errorf("Sales of a at timestep %d: expected %f, got %f", i, v, got)
		}
	}
	if panel.At(0, 1, 1) != 5 {
		t.Errorf("Expected visits of a at timestep 1 to be 5, got %f", panel.At(0, 1, 1))
	}

	// group b starts later and is padded at the end
	if !panel.StartTimes[1].Equal(time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start for b: %v", panel.StartTimes[1])
	}
	if panel.At(1, 1, 0) != 21 {
		t.Errorf("Expected 21, got %f", panel.At(1, 1, 0))
	}
	if !math.IsNaN(panel.At(1, 0, 1)) || !math.IsNaN(panel.At(1, 3, 0)) {
		t.Error("Expected NaN for explicit missing and padded values")
	}

	t.Logf("Loaded panel with groups %v", panel.Groups)
}

func TestLoadLongCSVMinLenProp(t *testing.T) {
	csvData := `group,measure,date,value
long,y,2020-01-01,1
long,y,2020-01-11,2
short,y,2020-01-01,1
short,y,2020-01-02,2`

	opts := DefaultCSVOptions()
	opts.MinLenProp = 0.5
	panel, err := LoadLongCSVFromReader(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if len(panel.Groups) != 1 || panel.Groups[0] != "long" {
		t.Errorf("Expected only the long group, got %v", panel.Groups)
	}
	if _, timesteps, _ := panel.Dims(); timesteps != 11 {
		t.Errorf("Expected 11 timesteps, got %d", timesteps)
	}
}

func TestLoadLongCSVErrors(t *testing.T) {
	testCases := []struct {
		name    string
		csvData string
		opts    func(*CSVOptions)
	}{
		{
			"duplicate date",
			`group,measure,date,value
a,y,2020-01-01,1
a,y,2020-01-01,2`,
			nil,
		},
		{
			"closer than freq",
			`group,measure,date,value
a,y,2020-01-01,1
a,y,2020-01-02,2`,
			func(o *CSVOptions) { o.Freq = 48 * time.Hour },
		},
		{
			"uneven gap",
			`group,measure,date,value
a,y,2020-01-01,1
a,y,2020-01-04,2`,
			func(o *CSVOptions) { o.Freq = 48 * time.Hour },
		},
		{
			"undeclared measure",
			`group,measure,date,value
a,y,2020-01-01,1
a,z,2020-01-02,2`,
			func(o *CSVOptions) { o.Measures = []string{"y"} },
		},
		{
			"bad value",
			`group,measure,date,value
a,y,2020-01-01,abc`,
			nil,
		},
		{
			"missing column",
			`group,series,date,value
a,y,2020-01-01,1`,
			nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultCSVOptions()
			if tc.opts != nil {
				tc.opts(opts)
			}
			if _, err := LoadLongCSVFromReader(strings.NewReader(tc.csvData), opts); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestWriteLongCSVRoundTrip(t *testing.T) {
	panel, err := FromArray([][][]float64{
		{{1, 10}, {2, math.NaN()}},
		{{3, 30}, {4, 40}},
	}, []string{"a", "b"}, []string{"sales", "visits"})
	if err != nil {
		t.Fatalf("Failed to build panel: %v", err)
	}
	panel.Freq = 24 * time.Hour
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	panel.StartTimes = []time.Time{start, start.AddDate(0, 0, 7)}

	var buf bytes.Buffer
	if err := WriteLongCSV(&buf, panel, DefaultCSVOptions()); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "group,measure,date,value\na,sales,2020-01-01,1\n") {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}

	loaded, err := LoadLongCSVFromReader(&buf, DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to reload CSV: %v", err)
	}
	for g := 0; g < 2; g++ {
		for ts := 0; ts < 2; ts++ {
			for m := 0; m < 2; m++ {
				want, got := panel.At(g, ts, m), loaded.At(g, ts, m)
				if math.IsNaN(want) != math.IsNaN(got) || (!math.IsNaN(want) && want != got) {
					t.Errorf("(%d, %d, %d): expected %f, got %f", g, ts, m, want, got)
				}
			}
		}
	}
	if !loaded.StartTimes[1].Equal(panel.StartTimes[1]) {
		t.Errorf("Expected start %v, got %v", panel.StartTimes[1], loaded.StartTimes[1])
	}
}

func TestDefaultCSVOptions(t *testing.T) {
	opts := DefaultCSVOptions()

	if opts.ValueColumn != "value" {
		t.Errorf("Expected default value column 'value', got '%s'", opts.ValueColumn)
	}

	if opts.DateFormat != "2006-01-02" {
		t.Errorf("Expected default date format '2006-01-02', got '%s'", opts.DateFormat)
	}

	if opts.Freq != 24*time.Hour {
		t.Errorf("Expected default freq of one day, got %s", opts.Freq)
	}

	if opts.Delimiter != ',' {
		t.Errorf("Expected default delimiter ',', got '%c'", opts.Delimiter)
	}
}
