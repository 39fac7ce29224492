/*
Package report exports batch payout results.

PURPOSE:
  Flattens Calculator batch results into one row per person and writes them
  as CSV, XLSX, JSON or a fixed-width table. The XLSX workbook also carries
  a per-rule detail sheet.

FORMATS:
  csv    One header row, one row per request, amounts as plain decimals
  xlsx   "Payouts" sheet (same columns as CSV) + "Rules" detail sheet
  json   The BatchResult slice, errors flattened to strings
  table  Human-readable, money formatted with thousands separators

USAGE:
  results := calc.CalculateBatch(ctx, reqs, 8)
  err := report.Write(os.Stdout, report.FormatCSV, results)

SEE ALSO:
  - compensation/calculator.go: CalculateBatch
  - cmd/server/batch.go: `comp batch`
*/
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

// Format names an output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatXLSX, FormatJSON, FormatTable}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Wrapf(compensation.ErrInvalidInput, "report: unsupported format %q", s)
}

// Row statuses.
const (
	StatusOK      = "ok"
	StatusNoPlan  = "no_plan"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Row is one flattened batch result.
type Row struct {
	PersonID            string
	Period              string
	Status              string
	PlanID              string
	PlanName            string
	CommissionPotential decimal.Decimal
	BonusPotential      decimal.Decimal
	Commission          decimal.Decimal
	Bonus               decimal.Decimal
	Total               decimal.Decimal
	Notes               string
}

var header = []string{
	"person_id", "period", "status", "plan_id", "plan_name",
	"commission_potential", "bonus_potential", "commission", "bonus", "total", "notes",
}

// Rows flattens results, preserving order.
func Rows(results []compensation.BatchResult) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		row := Row{
			PersonID:            r.Request.PersonID,
			Period:              r.Request.PeriodKey,
			CommissionPotential: decimal.Zero,
			BonusPotential:      decimal.Zero,
			Commission:          decimal.Zero,
			Bonus:               decimal.Zero,
			Total:               decimal.Zero,
		}
		if row.PersonID == "" && r.Request.Identity != nil {
			row.PersonID = r.Request.Identity.PersonID
		}

		b := r.Breakdown
		switch {
		case r.Err != nil:
			row.Status = StatusError
			row.Notes = r.Err.Error()
			rows = append(rows, row)
			continue
		case b.NoPlan:
			row.Status = StatusNoPlan
			row.Notes = b.Message
		case b.Blocked:
			row.Status = StatusBlocked
			row.Notes = strings.Join(b.BlockReasons, "; ")
		default:
			row.Status = StatusOK
		}
		row.PlanID = b.PlanID
		row.PlanName = b.PlanName
		row.CommissionPotential = b.CommissionPotential
		row.BonusPotential = b.BonusPotential
		row.Commission = b.Commission
		row.Bonus = b.Bonus
		row.Total = b.Total
		rows = append(rows, row)
	}
	return rows
}

func (r Row) strings() []string {
	return []string{
		r.PersonID, r.Period, r.Status, r.PlanID, r.PlanName,
		r.CommissionPotential.StringFixed(2), r.BonusPotential.StringFixed(2),
		r.Commission.StringFixed(2), r.Bonus.StringFixed(2), r.Total.StringFixed(2),
		r.Notes,
	}
}

// Write writes results to w in the given format.
func Write(w io.Writer, format Format, results []compensation.BatchResult) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatXLSX:
		return WriteXLSX(w, results)
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatTable:
		return WriteTable(w, results)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
}

// =============================================================================
// CSV / JSON / TABLE
// =============================================================================

// WriteCSV writes one header row and one row per result.
func WriteCSV(w io.Writer, results []compensation.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}
	for _, row := range Rows(results) {
		if err := cw.Write(row.strings()); err != nil {
			return eris.Wrap(err, "report: write CSV row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush CSV")
}

type jsonResult struct {
	compensation.BatchResult
	Error string `json:"error,omitempty"`
}

// WriteJSON writes the results as an indented JSON array.
func WriteJSON(w io.Writer, results []compensation.BatchResult) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{BatchResult: r}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(out), "report: write JSON")
}

// WriteTable writes a fixed-width summary for terminals.
func WriteTable(w io.Writer, results []compensation.BatchResult) error {
	if _, err := fmt.Fprintf(w, "%-16s %-8s %-8s %-20s %14s %14s %14s\n",
		"Person", "Period", "Status", "Plan", "Commission", "Bonus", "Total"); err != nil {
		return eris.Wrap(err, "report: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 100)); err != nil {
		return eris.Wrap(err, "report: write table separator")
	}
	for _, r := range Rows(results) {
		plan := r.PlanName
		if len(plan) > 20 {
			plan = plan[:17] + "..."
		}
		if _, err := fmt.Fprintf(w, "%-16s %-8s %-8s %-20s %14s %14s %14s\n",
			r.PersonID, r.Period, r.Status, plan,
			compensation.FormatMoney(r.Commission), compensation.FormatMoney(r.Bonus), compensation.FormatMoney(r.Total),
		); err != nil {
			return eris.Wrap(err, "report: write table row")
		}
	}
	return nil
}

// =============================================================================
// XLSX
// =============================================================================

var ruleHeader = []string{"person_id", "period", "rule", "payout_type", "apps", "premium", "basis", "tier", "amount", "trace"}

// WriteXLSX writes a workbook with a Payouts summary sheet and a Rules
// detail sheet.
func WriteXLSX(w io.Writer, results []compensation.BatchResult) error {
	f, err := BuildWorkbook(results)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write workbook")
}

// BuildWorkbook builds the payout workbook in memory.
func BuildWorkbook(results []compensation.BatchResult) (*xlsx.File, error) {
	f := xlsx.NewFile()

	payouts, err := f.AddSheet("Payouts")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add Payouts sheet")
	}
	addStringRow(payouts, header)
	for _, r := range Rows(results) {
		row := payouts.AddRow()
		for _, s := range []string{r.PersonID, r.Period, r.Status, r.PlanID, r.PlanName} {
			row.AddCell().SetString(s)
		}
		for _, d := range []decimal.Decimal{r.CommissionPotential, r.BonusPotential, r.Commission, r.Bonus, r.Total} {
			v, _ := d.Float64()
			row.AddCell().SetFloat(v)
		}
		row.AddCell().SetString(r.Notes)
	}

	rules, err := f.AddSheet("Rules")
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add Rules sheet")
	}
	addStringRow(rules, ruleHeader)
	for _, res := range results {
		if res.Err != nil || res.Breakdown == nil {
			continue
		}
		for _, rule := range res.Breakdown.Rules {
			row := rules.AddRow()
			row.AddCell().SetString(res.Breakdown.PersonID)
			row.AddCell().SetString(res.Breakdown.Period)
			row.AddCell().SetString(rule.Name)
			row.AddCell().SetString(string(rule.PayoutType))
			row.AddCell().SetInt64(rule.Apps)
			premium, _ := rule.Premium.Float64()
			row.AddCell().SetFloat(premium)
			row.AddCell().SetString(rule.Basis.String())
			tier := ""
			if rule.SelectedTier >= 0 {
				tier = fmt.Sprintf("%d", rule.SelectedTier+1)
			}
			row.AddCell().SetString(tier)
			amount, _ := rule.Amount.Float64()
			row.AddCell().SetFloat(amount)
			row.AddCell().SetString(rule.Trace)
		}
	}
	return f, nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
