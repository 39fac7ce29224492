package compensation

import (
	"time"

	"github.com/rotisserie/eris"
)

// =============================================================================
// PERIOD - The evaluation window
// =============================================================================

// PeriodKeyLayout is the "YYYY-MM" layout of period keys.
const PeriodKeyLayout = "2006-01"

// Period is one calendar month of evaluation.
// Start is the first day at 00:00 UTC, End the last day at 00:00 UTC;
// Contains treats both bounds as inclusive days.
type Period struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParsePeriod parses a "YYYY-MM" key.
func ParsePeriod(key string) (Period, error) {
	t, err := time.Parse(PeriodKeyLayout, key)
	if err != nil || len(key) != len(PeriodKeyLayout) {
		return Period{}, eris.Wrapf(ErrInvalidPeriod, "period %q: expected YYYY-MM", key)
	}
	return PeriodFor(t), nil
}

// MustParsePeriod is ParsePeriod for constants and tests.
func MustParsePeriod(key string) Period {
	p, err := ParsePeriod(key)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodFor returns the month containing t.
func PeriodFor(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{Key: start.Format(PeriodKeyLayout), Start: start, End: end}
}

// Contains returns true if t falls on a day within [Start, End].
func (p Period) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(p.Start) && !day.After(p.End)
}

// Select keeps the records sold within p, preserving order.
func (p Period) Select(records []SoldRecord) []SoldRecord {
	var out []SoldRecord
	for _, r := range records {
		if p.Contains(r.DateSold) {
			out = append(out, r)
		}
	}
	return out
}

// IsZero reports whether the period was never set.
func (p Period) IsZero() bool { return p.Key == "" }

// Next returns the following month.
func (p Period) Next() Period { return PeriodFor(p.Start.AddDate(0, 1, 0)) }

// Previous returns the preceding month.
func (p Period) Previous() Period { return PeriodFor(p.Start.AddDate(0, -1, 0)) }

func (p Period) String() string { return p.Key }
