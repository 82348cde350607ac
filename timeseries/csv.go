package timeseries

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// CSVOptions holds options for long-format CSV files: one row per
// (group, measure, date) with the value in its own column.
type CSVOptions struct {
	GroupColumn   string        // Column name for the group (default: "group")
	MeasureColumn string        // Column name for the measure (default: "measure")
	DateColumn    string        // Column name for dates (default: "date")
	ValueColumn   string        // Column name for values (default: "value")
	DateFormat    string        // Date format (default: "2006-01-02")
	Delimiter     rune          // Field delimiter (default: ',')
	Freq          time.Duration // Spacing between timesteps (default: one day)
	// Measures declares the measures to load, in any order. Rows for other
	// measures are an error. Empty means every measure found in the file.
	Measures []string
	// MinLenProp drops groups shorter than this proportion of the longest
	// group.
	MinLenProp float64
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		GroupColumn:   "group",
		MeasureColumn: "measure",
		DateColumn:    "date",
		ValueColumn:   "value",
		DateFormat:    "2006-01-02",
		Delimiter:     ',',
		Freq:          24 * time.Hour,
	}
}

type observation struct {
	date  time.Time
	value float64
}

// LoadLongCSV loads a long-format CSV file into a Panel.
func LoadLongCSV(filename string, opts *CSVOptions) (*Panel, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadLongCSVFromReader(file, opts)
}

// LoadLongCSVFromReader converts long-format rows into a Panel.
//
// Groups and measures are sorted by name. Every group is aligned to its own
// first date, so timestep 0 of each group is the earliest date of any of its
// measures; dates missing from the file and measures a group never reports
// are NaN. The panel is as long as the longest group.
func LoadLongCSVFromReader(r io.Reader, opts *CSVOptions) (*Panel, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if opts.Freq <= 0 {
		return nil, errors.Errorf("freq must be positive, got %s", opts.Freq)
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	var idx [4]int
	for i, name := range []string{opts.GroupColumn, opts.MeasureColumn, opts.DateColumn, opts.ValueColumn} {
		j, ok := cols[name]
		if !ok {
			return nil, errors.Errorf("column %q not found in header %v", name, header)
		}
		idx[i] = j
	}

	declared := map[string]bool{}
	for _, m := range opts.Measures {
		declared[m] = true
	}
	rows := map[string]map[string][]observation{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		group, measure := record[idx[0]], record[idx[1]]
		if len(declared) > 0 && !declared[measure] {
			return nil, errors.Errorf("line %d: measure %q is not one of %v", line, measure, opts.Measures)
		}
		date, err := time.Parse(opts.DateFormat, strings.TrimSpace(record[idx[2]]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		value, err := parseValue(record[idx[3]])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if rows[group] == nil {
			rows[group] = map[string][]observation{}
		}
		rows[group][measure] = append(rows[group][measure], observation{date, value})
	}
	if len(rows) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	measures := slices.Clone(opts.Measures)
	if len(measures) == 0 {
		seen := map[string]bool{}
		for _, byMeasure := range rows {
			for m := range byMeasure {
				if !seen[m] {
					seen[m] = true
					measures = append(measures, m)
				}
			}
		}
	}
	sort.Strings(measures)

	type groupInfo struct {
		start  time.Time
		length int
	}
	infos := map[string]groupInfo{}
	longest := 0
	for group, byMeasure := range rows {
		var start, end time.Time
		for measure, obs := range byMeasure {
			sort.Slice(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })
			for i := 1; i < len(obs); i++ {
				gap := obs[i].date.Sub(obs[i-1].date)
				if gap == 0 {
					return nil, errors.Errorf("group %q measure %q: more than one row for %s", group, measure, obs[i].date.Format(opts.DateFormat))
				}
				if gap < opts.Freq {
					return nil, errors.Errorf("group %q measure %q: rows %s apart, less than freq %s", group, measure, gap, opts.Freq)
				}
			}
			if start.IsZero() || obs[0].date.Before(start) {
				start = obs[0].date
			}
			if last := obs[len(obs)-1].date; last.After(end) {
				end = last
			}
		}
		length, err := steps(start, end, opts.Freq)
		if err != nil {
			return nil, errors.WithMessagef(err, "group %q", group)
		}
		infos[group] = groupInfo{start: start, length: length}
		longest = max(longest, length)
	}

	minLen := int(math.Round(float64(longest) * opts.MinLenProp))
	var groups []string
	for group, info := range infos {
		if info.length >= minLen {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)

	p := NewPanel(groups, measures, longest+1)
	p.Freq = opts.Freq
	p.StartTimes = make([]time.Time, len(groups))
	for g, group := range groups {
		p.StartTimes[g] = infos[group].start
		for m, measure := range measures {
			for _, obs := range rows[group][measure] {
				t, err := steps(p.StartTimes[g], obs.date, opts.Freq)
				if err != nil {
					return nil, errors.WithMessagef(err, "group %q measure %q", group, measure)
				}
				p.Set(g, t, m, obs.value)
			}
		}
	}
	return p, nil
}

// WriteLongCSV writes a panel as long-format rows, one per group, measure
// and timestep, in the layout LoadLongCSVFromReader reads. Missing values
// are written as NaN.
func WriteLongCSV(w io.Writer, p *Panel, opts *CSVOptions) error {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if p.StartTimes == nil {
		return errors.New("panel has no start times")
	}
	writer := csv.NewWriter(w)
	writer.Comma = opts.Delimiter

	header := []string{opts.GroupColumn, opts.MeasureColumn, opts.DateColumn, opts.ValueColumn}
	if err := writer.Write(header); err != nil {
		return err
	}
	groups, timesteps, measures := p.Dims()
	for g := 0; g < groups; g++ {
		for m := 0; m < measures; m++ {
			for t := 0; t < timesteps; t++ {
				record := []string{
					p.Groups[g],
					p.Measures[m],
					p.Time(g, t).Format(opts.DateFormat),
					strconv.FormatFloat(p.At(g, t, m), 'f', -1, 64),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// steps returns the whole number of freq steps from start to t.
func steps(start, t time.Time, freq time.Duration) (int, error) {
	d := t.Sub(start)
	if d%freq != 0 {
		return 0, errors.Errorf("%s after %s is not a whole number of %s steps", d, start.Format(time.RFC3339), freq)
	}
	return int(d / freq), nil
}
