package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nadeemz7/tracktowin-sub002/api"
	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/factory"
)

type evaluateOptions struct {
	PlanPath       string
	RecordsPath    string
	ActivitiesPath string
	Period         string
	PersonID       string
	IncludeWritten bool
}

var evalOpts evaluateOptions

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a plan file against a records file",
	Long:  "Offline one-shot evaluation. Records and activities use the same JSON shape as POST /api/evaluate. Prints the breakdown as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := evalOpts
		if !cmd.Flags().Changed("include-written") {
			opts.IncludeWritten = cfg.Evaluation.IncludeWritten
		}
		return runEvaluate(cmd.OutOrStdout(), opts)
	},
}

func runEvaluate(w io.Writer, opts evaluateOptions) error {
	period, err := compensation.ParsePeriod(opts.Period)
	if err != nil {
		return err
	}

	plan, err := factory.NewPlanFactory().ParsePlanFile(opts.PlanPath)
	if err != nil {
		return err
	}

	var recordReqs []api.RecordRequest
	if err := readJSONFile(opts.RecordsPath, &recordReqs); err != nil {
		return err
	}
	records, err := api.ToRecords(opts.PersonID, recordReqs)
	if err != nil {
		return err
	}

	var activities []compensation.ActivityCount
	if opts.ActivitiesPath != "" {
		var activityReqs []api.ActivityRequest
		if err := readJSONFile(opts.ActivitiesPath, &activityReqs); err != nil {
			return err
		}
		if activities, err = api.ToActivities(opts.PersonID, activityReqs); err != nil {
			return err
		}
	}

	b, err := compensation.EvaluateChecked(compensation.Input{
		PersonID: opts.PersonID,
		Period:   period,
		Plan: &compensation.ResolvedPlan{
			PlanID:         plan.ID,
			PlanName:       plan.Name,
			Version:        plan.CurrentVersion.Version,
			PlanDefinition: plan.CurrentVersion.Definition,
		},
		Records:    period.Select(records),
		Activities: activities,
		Statuses:   compensation.DefaultStatuses(opts.IncludeWritten),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(b), "write breakdown")
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(compensation.ErrInvalidInput, "parse %s: %v", path, err)
	}
	return nil
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalOpts.PlanPath, "plan", "", "plan file (.yaml, .yml or .json)")
	f.StringVar(&evalOpts.RecordsPath, "records", "", "sold records JSON file")
	f.StringVar(&evalOpts.ActivitiesPath, "activities", "", "activity counts JSON file")
	f.StringVar(&evalOpts.Period, "period", "", "period key (YYYY-MM)")
	f.StringVar(&evalOpts.PersonID, "person", "cli", "person ID stamped on the breakdown")
	f.BoolVar(&evalOpts.IncludeWritten, "include-written", false, "count WRITTEN business")
	_ = evaluateCmd.MarkFlagRequired("plan")
	_ = evaluateCmd.MarkFlagRequired("records")
	_ = evaluateCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(evaluateCmd)
}
