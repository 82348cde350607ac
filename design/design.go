package design

import (
	"fmt"
	"slices"

	"github.com/sartorproj/gokalman/process"
)

const defaultMeasureStd = 1.0

// Design is a fixed composition of processes and the measures they
// contribute to. Process state blocks are laid out contiguously in process
// order; measurement rows follow the order of the measures.
type Design struct {
	measures   []string
	processes  []process.Process
	index      map[string]int
	starts     []int
	rows       [][]int
	elements   []string
	stateSize  int
	measureIdx map[string]int

	// MeasureCov parametrizes the measurement noise R, one element per
	// measure.
	MeasureCov process.Covariance
}

// New builds a design. Every process must be associated with at least one
// of the given measures, and only with those, and every measure with at
// least one process. Measure associations are read
// once, here; later calls to AddMeasure do not change the design.
func New(measures []string, processes ...process.Process) (*Design, error) {
	if len(measures) == 0 {
		return nil, &process.ConfigError{Msg: "a design needs at least one measure"}
	}
	if len(processes) == 0 {
		return nil, &process.ConfigError{Msg: "a design needs at least one process"}
	}

	d := &Design{
		measures:   slices.Clone(measures),
		processes:  slices.Clone(processes),
		index:      make(map[string]int, len(processes)),
		starts:     make([]int, len(processes)),
		rows:       make([][]int, len(processes)),
		measureIdx: make(map[string]int, len(measures)),
		MeasureCov: process.NewCovariance(len(measures), defaultMeasureStd),
	}
	for i, m := range measures {
		if _, dup := d.measureIdx[m]; dup {
			return nil, &process.ConfigError{Msg: fmt.Sprintf("duplicate measure %q", m)}
		}
		d.measureIdx[m] = i
	}

	used := make([]bool, len(measures))
	for i, p := range processes {
		id := p.ID()
		if _, dup := d.index[id]; dup {
			return nil, &process.ConfigError{Process: id, Msg: "duplicate process id"}
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		pm := p.Measures()
		if len(pm) == 0 {
			return nil, &process.ConfigError{Process: id, Msg: "process is not associated with any measure"}
		}
		for _, m := range pm {
			row, ok := d.measureIdx[m]
			if !ok {
				return nil, &process.ConfigError{Process: id, Msg: fmt.Sprintf("unknown measure %q, design measures are %v", m, measures)}
			}
			d.rows[i] = append(d.rows[i], row)
			used[row] = true
		}
		d.index[id] = i
		d.starts[i] = d.stateSize
		for _, el := range p.StateElements() {
			d.elements = append(d.elements, id+"."+el)
		}
		d.stateSize += p.StateSize()
	}

	var unused []string
	for i, ok := range used {
		if !ok {
			unused = append(unused, measures[i])
		}
	}
	if len(unused) > 0 {
		return nil, &process.ConfigError{Msg: fmt.Sprintf("measures %v are not associated with any process", unused)}
	}
	return d, nil
}

// Measures returns the measure names in row order.
func (d *Design) Measures() []string {
	return slices.Clone(d.measures)
}

// MeasureSize returns the number of measures.
func (d *Design) MeasureSize() int {
	return len(d.measures)
}

// StateSize returns the total state dimension.
func (d *Design) StateSize() int {
	return d.stateSize
}

// StateElements names every element of the global state as
// "<process id>.<element>".
func (d *Design) StateElements() []string {
	return slices.Clone(d.elements)
}

// Processes returns the processes in state order.
func (d *Design) Processes() []process.Process {
	return slices.Clone(d.processes)
}

// Process looks up a process by id.
func (d *Design) Process(id string) (process.Process, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return d.processes[i], true
}

// Slice returns the half-open range [start, end) of the global state held by
// the process.
func (d *Design) Slice(id string) (start, end int, ok bool) {
	i, ok := d.index[id]
	if !ok {
		return 0, 0, false
	}
	return d.starts[i], d.starts[i] + d.processes[i].StateSize(), true
}

// ForBatch materializes the design for numGroups groups over numTimesteps
// timesteps. cov holds batch covariates keyed by process id.
func (d *Design) ForBatch(numGroups, numTimesteps int, cov map[string]process.Covariates) (*ForBatch, error) {
	if numGroups < 1 || numTimesteps < 1 {
		return nil, &process.ConfigError{Msg: fmt.Sprintf("batch shape must be positive, got %d groups and %d timesteps", numGroups, numTimesteps)}
	}
	for id := range cov {
		if _, ok := d.index[id]; !ok {
			return nil, &process.ConfigError{Process: id, Msg: "covariates given for a process that is not in the design"}
		}
	}
	if d.MeasureCov.Size() != len(d.measures) {
		return nil, &process.ConfigError{Msg: fmt.Sprintf("measure covariance has %d elements for %d measures", d.MeasureCov.Size(), len(d.measures))}
	}

	blocks := make([]process.Block, len(d.processes))
	for i, p := range d.processes {
		blk, err := p.ForBatch(numGroups, numTimesteps, cov[p.ID()])
		if err != nil {
			return nil, err
		}
		blocks[i] = blk
	}
	return &ForBatch{
		design:       d,
		numGroups:    numGroups,
		numTimesteps: numTimesteps,
		blocks:       blocks,
		r:            d.MeasureCov.Matrix(),
	}, nil
}
