package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sartorproj/gokalman/kalman"
	"github.com/sartorproj/gokalman/timeseries"
	"github.com/spf13/cobra"
)

func newFilterCmd(opts *options) *cobra.Command {
	var std bool
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Write one-step-ahead predictions for every observed timestep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			run, err := s.forward()
			if err != nil {
				return err
			}
			values := run.Predictions()
			if std {
				values = run.PredictionStds()
			}
			_, timesteps, _ := s.panel.Dims()
			for g := range values {
				values[g] = values[g][:timesteps]
			}
			p, err := s.panelAt(values, 0)
			if err != nil {
				return err
			}
			return s.writePanel(cmd, p)
		},
	}
	cmd.Flags().BoolVar(&std, "std", false, "write prediction standard deviations instead of means")
	return cmd
}

func newForecastCmd(opts *options) *cobra.Command {
	var (
		horizon int
		std     bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast every group past the end of its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			run, err := s.forward()
			if err != nil {
				return err
			}
			_, timesteps, _ := s.panel.Dims()
			fc, err := s.filter.Forecast(run, horizon, &kalman.ForecastConfig{
				Covariates: s.covariates(timesteps),
				Progress:   s.recorder,
			})
			if err != nil {
				return err
			}
			values := fc.Predictions()
			if std {
				values = fc.PredictionStds()
			}
			p, err := s.panelAt(values, timesteps)
			if err != nil {
				return err
			}
			return s.writePanel(cmd, p)
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 14, "number of timesteps to forecast")
	cmd.Flags().BoolVar(&std, "std", false, "write forecast standard deviations instead of means")
	return cmd
}

func newSimulateCmd(opts *options) *cobra.Command {
	var (
		horizon int
		numIter int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Draw simulated paths past the end of the data",
		Long: `Draw simulated paths past the end of the data. Each path is written as
its own group named <group>#<iteration>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			run, err := s.forward()
			if err != nil {
				return err
			}
			_, timesteps, _ := s.panel.Dims()
			panels, err := s.filter.Simulate(run, horizon, numIter, &kalman.SimulateConfig{
				Covariates: s.covariates(timesteps),
				Progress:   s.recorder,
				Source:     rand.NewPCG(seed, seed),
			})
			if err != nil {
				return err
			}
			return s.writePanel(cmd, s.stackIterations(panels, timesteps))
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 14, "number of timesteps to simulate")
	cmd.Flags().IntVar(&numIter, "iterations", 100, "number of paths per group")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	return cmd
}

// panelAt wraps values indexed [group][timestep][measure] in a panel whose
// timestep 0 is timestep t of the data.
func (s *session) panelAt(values [][][]float64, t int) (*timeseries.Panel, error) {
	p, err := timeseries.FromArray(values, s.panel.Groups, s.panel.Measures)
	if err != nil {
		return nil, err
	}
	s.setCalendar(p, t)
	return p, nil
}

func (s *session) setCalendar(p *timeseries.Panel, t int) {
	p.Freq = s.panel.Freq
	p.StartTimes = make([]time.Time, len(p.Groups))
	for g := range p.Groups {
		p.StartTimes[g] = s.panel.Time(g%len(s.panel.Groups), t)
	}
}

// stackIterations puts the iterations of a simulation one after another
// along the group axis.
func (s *session) stackIterations(panels []*timeseries.Panel, t int) *timeseries.Panel {
	_, horizon, measures := panels[0].Dims()
	var groups []string
	for i := range panels {
		for _, g := range s.panel.Groups {
			groups = append(groups, fmt.Sprintf("%s#%d", g, i))
		}
	}
	out := timeseries.NewPanel(groups, s.panel.Measures, horizon)
	n := len(s.panel.Groups)
	for i, p := range panels {
		for g := 0; g < n; g++ {
			for ts := 0; ts < horizon; ts++ {
				for m := 0; m < measures; m++ {
					out.Set(i*n+g, ts, m, p.At(g, ts, m))
				}
			}
		}
	}
	s.setCalendar(out, t)
	return out
}
