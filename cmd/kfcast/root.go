package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sartorproj/gokalman/belief"
	"github.com/sartorproj/gokalman/config"
	"github.com/sartorproj/gokalman/design"
	"github.com/sartorproj/gokalman/kalman"
	"github.com/sartorproj/gokalman/metrics"
	"github.com/sartorproj/gokalman/process"
	"github.com/sartorproj/gokalman/timeseries"
	"github.com/spf13/cobra"
)

type options struct {
	model      string
	data       string
	output     string
	metrics    string
	dateFormat string
	freq       time.Duration
	minLenProp float64
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "kfcast",
		Short:         "State-space filtering and forecasting for panels of time series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.model, "model", "m", "", "YAML model file")
	flags.StringVarP(&opts.data, "data", "d", "", "long-format CSV with group, measure, date and value columns")
	flags.StringVarP(&opts.output, "output", "o", "", "output CSV (default stdout)")
	flags.StringVar(&opts.metrics, "metrics", "", "write Prometheus metrics in text format to this file")
	flags.StringVar(&opts.dateFormat, "date-format", "2006-01-02", "Go layout of the date column")
	flags.DurationVar(&opts.freq, "freq", 24*time.Hour, "spacing between timesteps")
	flags.Float64Var(&opts.minLenProp, "min-len-prop", 0, "drop groups shorter than this proportion of the longest")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug records to stderr")
	_ = root.MarkPersistentFlagRequired("model")
	_ = root.MarkPersistentFlagRequired("data")

	root.AddCommand(
		newFilterCmd(opts),
		newForecastCmd(opts),
		newSimulateCmd(opts),
		newDiagnoseCmd(opts),
	)
	return root
}

// session holds what every command needs: the model, the data and a filter
// reporting to a metrics registry.
type session struct {
	opts     *options
	model    *config.Model
	design   *design.Design
	panel    *timeseries.Panel
	filter   *kalman.Filter
	registry *prometheus.Registry
	recorder *metrics.Recorder
	logger   *slog.Logger
}

func newSession(cmd *cobra.Command, opts *options) (*session, error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	model, err := config.Load(opts.model)
	if err != nil {
		return nil, err
	}
	d, err := model.Design()
	if err != nil {
		return nil, err
	}

	csvOpts := timeseries.DefaultCSVOptions()
	csvOpts.DateFormat = opts.dateFormat
	csvOpts.Freq = opts.freq
	csvOpts.Measures = model.Measures
	csvOpts.MinLenProp = opts.minLenProp
	panel, err := timeseries.LoadLongCSV(opts.data, csvOpts)
	if err != nil {
		return nil, errors.WithMessage(err, opts.data)
	}
	groups, timesteps, _ := panel.Dims()
	logger.Debug("loaded data", "groups", groups, "timesteps", timesteps, "measures", panel.Measures)

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, err
	}
	return &session{
		opts:     opts,
		model:    model,
		design:   d,
		panel:    panel,
		filter:   kalman.New(d, kalman.WithLogger(logger)),
		registry: reg,
		recorder: rec,
		logger:   logger,
	}, nil
}

// covariates gives every calendar-anchored process the start times of
// timestep t of each group.
func (s *session) covariates(t int) map[string]process.Covariates {
	ids := s.model.StartTimeProcesses()
	if len(ids) == 0 {
		return nil
	}
	times := make([]time.Time, len(s.panel.Groups))
	for g := range times {
		times[g] = s.panel.Time(g, t)
	}
	out := make(map[string]process.Covariates, len(ids))
	for _, id := range ids {
		out[id] = process.Covariates{StartTimes: times}
	}
	return out
}

// forward filters the data with one trailing missing timestep, so that the
// last belief has seen every observation and predicts the first timestep
// after the data.
func (s *session) forward() (*belief.OverTime, error) {
	groups, timesteps, measures := s.panel.Dims()
	padded := timeseries.NewPanel(s.panel.Groups, s.panel.Measures, timesteps+1)
	for g := 0; g < groups; g++ {
		for t := 0; t < timesteps; t++ {
			for m := 0; m < measures; m++ {
				padded.Set(g, t, m, s.panel.At(g, t, m))
			}
		}
	}
	return s.filter.Forward(padded, &kalman.ForwardConfig{
		Covariates: s.covariates(0),
		Progress:   s.recorder,
	})
}

func (s *session) writePanel(cmd *cobra.Command, p *timeseries.Panel) error {
	w := cmd.OutOrStdout()
	if s.opts.output != "" {
		f, err := os.Create(s.opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	csvOpts := timeseries.DefaultCSVOptions()
	csvOpts.DateFormat = s.opts.dateFormat
	if err := timeseries.WriteLongCSV(w, p, csvOpts); err != nil {
		return errors.Wrap(err, "write output")
	}
	if s.opts.metrics != "" {
		return prometheus.WriteToTextfile(s.opts.metrics, s.registry)
	}
	return nil
}
