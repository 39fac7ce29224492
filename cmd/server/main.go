/*
main.go - Application entry point

PURPOSE:
  The `comp` command. Every subcommand loads configuration and the global
  logger first, then does one job against the configured store.

COMMANDS:
  serve     HTTP API with graceful shutdown
  evaluate  Offline one-shot evaluation of plan + records files
  batch     Evaluate many people from the store and export
  seed      Load the demo plans, people and records

CONFIGURATION:
  config.yaml in the working directory and COMP_* environment variables.
  See config/config.go for keys and defaults.

EXAMPLES:
  comp seed --period 2025-03
  comp serve --port 3000
  COMP_STORE_DSN=":memory:" comp evaluate --plan plan.yaml --records records.json --period 2025-03
  comp batch --period 2025-03 --format xlsx --output payouts.xlsx

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration
*/
package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nadeemz7/tracktowin-sub002/config"
	"github.com/nadeemz7/tracktowin-sub002/store/sqlstore"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "comp",
	Short: "Compensation rule evaluation engine",
	Long:  "Resolves compensation plans, evaluates gates, commission rules and bonuses over sold records, and serves or exports the payout breakdowns.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// openStore opens the configured SQL store.
func openStore() (*sqlstore.Store, error) {
	st, err := sqlstore.New(sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", cfg.Store.Driver)
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
