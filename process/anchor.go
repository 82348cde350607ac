package process

import "time"

// Anchor ties a periodic process to the calendar. When Start is set, the
// batch must supply per-group start times so that timestep 0 of every group
// can be placed in the right phase of the cycle.
type Anchor struct {
	// Start is the calendar time at which the cycle is in phase 0.
	Start *time.Time
	// DtUnit is the duration of one timestep.
	DtUnit time.Duration
}

// Anchored reports whether the process needs per-group start times.
func (a Anchor) Anchored() bool {
	return a.Start != nil
}

func (a Anchor) validate(id string) error {
	if a.Start != nil && a.DtUnit <= 0 {
		return configErrorf(id, "dt unit must be positive when a season start is set, got %s", a.DtUnit)
	}
	return nil
}

// offsets returns, for each group, the number of timesteps elapsed between
// Start and the group's timestep 0.
func (a Anchor) offsets(id string, numGroups int, cov Covariates) ([]int, error) {
	out := make([]int, numGroups)
	if a.Start == nil {
		return out, nil
	}
	if cov.StartTimes == nil {
		return nil, configErrorf(id, "must pass start times to anchor the season")
	}
	if len(cov.StartTimes) != numGroups {
		return nil, configErrorf(id, "got %d start times for %d groups", len(cov.StartTimes), numGroups)
	}
	for g, st := range cov.StartTimes {
		diff := st.Sub(*a.Start)
		if diff%a.DtUnit != 0 {
			return nil, configErrorf(id, "start time %s of group %d is not a whole number of %s from the season start",
				st.Format(time.RFC3339), g, a.DtUnit)
		}
		out[g] = int(diff / a.DtUnit)
	}
	return out, nil
}
