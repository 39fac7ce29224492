package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/presets"
)

var (
	seedPeriod   string
	seedScenario string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo plans, people and records into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		period := compensation.PeriodFor(time.Now())
		if seedPeriod != "" {
			p, err := compensation.ParsePeriod(seedPeriod)
			if err != nil {
				return err
			}
			period = p
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if seedScenario != "" {
			err = presets.Load(cmd.Context(), st, seedScenario, period)
		} else {
			err = presets.LoadAll(cmd.Context(), st, period)
		}
		if err != nil {
			return err
		}

		zap.L().Info("seeded store",
			zap.String("period", period.Key),
			zap.String("scenario", seedScenario),
			zap.String("dsn", cfg.Store.DSN),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPeriod, "period", "", "period the demo records fall in (default: current month)")
	seedCmd.Flags().StringVar(&seedScenario, "scenario", "", "load one scenario (default: all)")
	rootCmd.AddCommand(seedCmd)
}
