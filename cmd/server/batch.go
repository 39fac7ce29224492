package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/report"
)

type batchOptions struct {
	Period         string
	People         []string
	Format         string
	Output         string
	IncludeWritten bool
	Concurrency    int
}

var batchOpts batchOptions

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate many people for one period and export the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := batchOpts
		if !cmd.Flags().Changed("include-written") {
			opts.IncludeWritten = cfg.Evaluation.IncludeWritten
		}
		if opts.Concurrency == 0 {
			opts.Concurrency = cfg.Batch.Concurrency
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		w := cmd.OutOrStdout()
		if opts.Output != "" {
			f, err := os.Create(opts.Output)
			if err != nil {
				return eris.Wrapf(err, "create %s", opts.Output)
			}
			defer f.Close()
			w = f
		}
		return runBatch(cmd.Context(), st, w, opts)
	},
}

func runBatch(ctx context.Context, st compensation.Store, w io.Writer, opts batchOptions) error {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if _, err := compensation.ParsePeriod(opts.Period); err != nil {
		return err
	}

	ids := opts.People
	if len(ids) == 0 {
		people, err := st.ListPeople(ctx)
		if err != nil {
			return eris.Wrap(err, "list people")
		}
		for _, p := range people {
			ids = append(ids, p.ID)
		}
	}

	reqs := make([]compensation.Request, len(ids))
	for i, id := range ids {
		reqs[i] = compensation.Request{PersonID: id, PeriodKey: opts.Period, IncludeWritten: opts.IncludeWritten}
	}

	results := compensation.NewCalculator(st).CalculateBatch(ctx, reqs, opts.Concurrency)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	zap.L().Info("batch complete",
		zap.String("period", opts.Period),
		zap.Int("people", len(results)),
		zap.Int("failed", failed),
	)
	return report.Write(w, format, results)
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.Period, "period", "", "period key (YYYY-MM)")
	f.StringSliceVar(&batchOpts.People, "people", nil, "person IDs (default: everyone)")
	f.StringVar(&batchOpts.Format, "format", string(report.FormatTable), "output format: csv, xlsx, json or table")
	f.StringVar(&batchOpts.Output, "output", "", "output file (default: stdout)")
	f.BoolVar(&batchOpts.IncludeWritten, "include-written", false, "count WRITTEN business")
	f.IntVar(&batchOpts.Concurrency, "concurrency", 0, "max evaluations in flight (default from config)")
	_ = batchCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(batchCmd)
}
