package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sartorproj/gokalman/design"
	"github.com/sartorproj/gokalman/process"
	"gopkg.in/yaml.v3"
)

// Process types understood in model files.
const (
	TypeLocalLevel     = "local_level"
	TypeLocalTrend     = "local_trend"
	TypeSeason         = "season"
	TypeFourier        = "fourier"
	TypeFourierDynamic = "fourier_dynamic"
)

// Model is the file form of a design.
type Model struct {
	Measures []string `yaml:"measures"`
	// MeasureStd is the standard deviation of the measurement noise, shared
	// by all measures. Zero keeps the design default.
	MeasureStd float64   `yaml:"measure_std"`
	Processes  []Process `yaml:"processes"`
}

// Process is the file form of one process.
type Process struct {
	ID       string   `yaml:"id"`
	Type     string   `yaml:"type"`
	Measures []string `yaml:"measures"`

	// Decay bounds, for local_level (position), local_trend (velocity)
	// and the Fourier types (amplitude).
	Decay *Bounds `yaml:"decay"`

	Period   float64 `yaml:"period"`
	Duration int     `yaml:"duration"`
	K        int     `yaml:"k"`

	// SeasonStart anchors season and Fourier processes to the calendar.
	SeasonStart *time.Time    `yaml:"season_start"`
	DtUnit      time.Duration `yaml:"dt_unit"`

	ProcessStd float64 `yaml:"process_std"`
	InitialStd float64 `yaml:"initial_std"`
}

// Bounds is an open interval for a bounded parameter.
type Bounds struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Load reads a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model file")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return m, nil
}

// Parse decodes a model from YAML. Unknown fields are an error.
func Parse(data []byte) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "decode model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the parts of the model that do not depend on a process
// implementation. Process-level checks happen when the design is built.
func (m *Model) Validate() error {
	if len(m.Measures) == 0 {
		return &process.ConfigError{Msg: "model has no measures"}
	}
	if len(m.Processes) == 0 {
		return &process.ConfigError{Msg: "model has no processes"}
	}
	if m.MeasureStd < 0 {
		return &process.ConfigError{Msg: fmt.Sprintf("measure_std must not be negative, got %g", m.MeasureStd)}
	}
	for i, p := range m.Processes {
		if p.ID == "" {
			return &process.ConfigError{Msg: fmt.Sprintf("process %d has no id", i)}
		}
		switch p.Type {
		case TypeLocalLevel, TypeLocalTrend, TypeSeason, TypeFourier, TypeFourierDynamic:
		default:
			return &process.ConfigError{Process: p.ID, Msg: fmt.Sprintf("unknown process type %q", p.Type)}
		}
		if p.ProcessStd < 0 || p.InitialStd < 0 {
			return &process.ConfigError{Process: p.ID, Msg: "standard deviations must not be negative"}
		}
		if p.Type == TypeSeason && p.Period != float64(int(p.Period)) {
			return &process.ConfigError{Process: p.ID, Msg: fmt.Sprintf("season period must be a whole number, got %g", p.Period)}
		}
	}
	return nil
}

// BuildProcesses builds the processes the model declares, in file order.
func (m *Model) BuildProcesses() ([]process.Process, error) {
	out := make([]process.Process, 0, len(m.Processes))
	for _, pf := range m.Processes {
		p, err := pf.build()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Design builds and validates the design the model declares.
func (m *Model) Design() (*design.Design, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	procs, err := m.BuildProcesses()
	if err != nil {
		return nil, err
	}
	d, err := design.New(m.Measures, procs...)
	if err != nil {
		return nil, err
	}
	if m.MeasureStd > 0 {
		d.MeasureCov = process.NewCovariance(len(m.Measures), m.MeasureStd)
	}
	return d, nil
}

// StartTimeProcesses returns the ids of processes anchored to the calendar,
// which need per-group start times in every batch.
func (m *Model) StartTimeProcesses() []string {
	var ids []string
	for _, p := range m.Processes {
		if p.SeasonStart != nil {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (s Process) build() (process.Process, error) {
	var (
		p      process.Process
		params *process.Params
		anchor *process.Anchor
	)
	switch s.Type {
	case TypeLocalLevel:
		ll := process.NewLocalLevel(s.ID)
		ll.Decay = s.Decay.bounded()
		p, params = ll, &ll.Params
	case TypeLocalTrend:
		lt := process.NewLocalTrend(s.ID)
		lt.DecayVelocity = s.Decay.bounded()
		p, params = lt, &lt.Params
	case TypeSeason:
		se := process.NewSeason(s.ID, int(s.Period))
		if s.Duration > 0 {
			se.Duration = s.Duration
		}
		p, params, anchor = se, &se.Params, &se.Anchor
	case TypeFourier:
		fs := process.NewFourierSeason(s.ID, s.Period, s.K)
		fs.Decay = s.Decay.bounded()
		p, params, anchor = fs, &fs.Params, &fs.Anchor
	case TypeFourierDynamic:
		fd := process.NewFourierSeasonDynamic(s.ID, s.Period, s.K)
		fd.Decay = s.Decay.bounded()
		p, params, anchor = fd, &fd.Params, &fd.Anchor
	default:
		return nil, &process.ConfigError{Process: s.ID, Msg: fmt.Sprintf("unknown process type %q", s.Type)}
	}

	if s.InitialStd > 0 {
		params.InitialCov = process.NewCovariance(params.InitialCov.Size(), s.InitialStd)
	}
	if s.ProcessStd > 0 {
		params.ProcessCov = process.NewCovariance(params.ProcessCov.Size(), s.ProcessStd)
	}
	if anchor != nil && s.SeasonStart != nil {
		start := *s.SeasonStart
		anchor.Start = &start
		anchor.DtUnit = s.DtUnit
	} else if s.SeasonStart != nil {
		return nil, &process.ConfigError{Process: s.ID, Msg: fmt.Sprintf("%s processes cannot have a season_start", s.Type)}
	}
	for _, measure := range s.Measures {
		p.AddMeasure(measure)
	}
	return p, nil
}

func (b *Bounds) bounded() *process.Bounded {
	if b == nil {
		return nil
	}
	return process.NewBounded(b.Lower, b.Upper)
}
