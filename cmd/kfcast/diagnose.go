package main

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sartorproj/gokalman/kalman"
	"github.com/sartorproj/gokalman/stats"
	"github.com/sartorproj/gokalman/timeseries"
	"github.com/spf13/cobra"
)

func newDiagnoseCmd(opts *options) *cobra.Command {
	var (
		lags  int
		fitdf int
	)
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Summarize the standardized one-step-ahead residuals",
		Long: `Filter the data and test the standardized residuals of every group and
measure for autocorrelation. A well specified model leaves residuals close to
white noise: mean 0, standard deviation 1, large portmanteau p-values and a
Durbin-Watson statistic near 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			run, err := s.filter.Forward(s.panel, &kalman.ForwardConfig{
				Covariates: s.covariates(0),
				Progress:   s.recorder,
			})
			if err != nil {
				return err
			}
			residuals, err := run.Residuals(s.panel)
			if err != nil {
				return err
			}
			logProb, err := run.LogProb(s.panel)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"group", "measure", "n", "mean", "std", "ljung-box", "p", "box-pierce", "p", "durbin-watson"})
			nObs := 0
			for g, group := range s.panel.Groups {
				for m, measure := range s.panel.Measures {
					values := make([]float64, len(residuals[g]))
					for t := range values {
						values[t] = residuals[g][t][m]
					}
					series := timeseries.New(values)
					n := len(series.Observed())
					nObs += n
					row := table.Row{group, measure, n, fmtFloat(series.Mean()), fmtFloat(series.Std())}
					row = append(row, portmanteauCells(stats.LjungBox(series, lags, fitdf))...)
					row = append(row, portmanteauCells(stats.BoxPierce(series, lags, fitdf))...)
					if dw := stats.DurbinWatson(values); dw != nil {
						row = append(row, fmtFloat(dw.Statistic))
					} else {
						row = append(row, "-")
					}
					tw.AppendRow(row)
				}
			}
			tw.Render()

			var logLik float64
			for _, byTime := range logProb {
				for _, lp := range byTime {
					logLik += lp
				}
			}
			ic := stats.CalculateIC(logLik, nObs, s.design.StateSize()+s.design.MeasureSize())
			fmt.Fprintf(cmd.OutOrStdout(), "log-likelihood %.3f  AIC %.3f  AICc %.3f  BIC %.3f\n", ic.LogLik, ic.AIC, ic.AICc, ic.BIC)
			return nil
		},
	}
	cmd.Flags().IntVar(&lags, "lags", 10, "lags for the portmanteau tests")
	cmd.Flags().IntVar(&fitdf, "fitdf", 0, "degrees of freedom used by the model")
	return cmd
}

func portmanteauCells(r *stats.PortmanteauResult) []any {
	if r == nil {
		return []any{"-", "-"}
	}
	return []any{fmtFloat(r.Statistic), fmtFloat(r.PValue)}
}

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}
