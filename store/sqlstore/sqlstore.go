/*
Package sqlstore provides a SQL-backed compensation.Store.

PURPOSE:
  Persists everything the Calculator reads: people (identity keys), plans
  (definition as JSON), plan assignments, sold records and activity counts.
  The engine never writes through this package; only the API and CLI do.

DRIVERS:
  sqlite3   mattn/go-sqlite3, DSN is a file path or ":memory:"
  postgres  jackc/pgx/v5 stdlib, DSN is a postgres:// URL or key=value string

  Queries are written with ? placeholders and rebound to $n for PostgreSQL.

KEY TABLES:
  people:           Identity keys used by plan resolution
  plans:            Current plan version, definition_json
  plan_assignments: Scope level + key -> plan
  sold_records:     One row per sold product
  activity_counts:  Activity rows, optionally dated

USAGE:
  st, err := sqlstore.New(sqlstore.Config{Driver: "sqlite3", DSN: "comp.db"})
  if err != nil {
      return err
  }
  defer st.Close()

SEE ALSO:
  - compensation/store.go: Interface definitions
  - compensation/store/memory.go: In-memory implementation for testing
*/
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

const dateLayout = "2006-01-02"

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the driver and connection string.
type Config struct {
	Driver string
	DSN    string
}

// Store implements compensation.Store over database/sql.
type Store struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex // serializes writes; SQLite allows one writer
}

var _ compensation.Store = (*Store)(nil)

// New opens the database and migrates the schema.
func New(cfg Config) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "sqlite", "":
		cfg.Driver = DriverSQLite
		db, err = openSQLite(cfg.DSN)
	case DriverPostgres, "pgx":
		cfg.Driver = DriverPostgres
		db, err = openPostgres(cfg.DSN)
	default:
		return nil, eris.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	st := &Store{db: db, driver: cfg.Driver}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlstore: migrate")
	}
	return st, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "comp.db"
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "sqlstore: open sqlite")
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlstore: ping sqlite")
	}
	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, eris.New("sqlstore: postgres requires a DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlstore: open postgres")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlstore: ping postgres")
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, schema := range allSchemas() {
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// rebind converts ? placeholders to $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// PEOPLE
// =============================================================================

func (s *Store) SavePerson(ctx context.Context, p compensation.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO people (id, name, role_id, team_id, agency_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, role_id = excluded.role_id,
			team_id = excluded.team_id, agency_id = excluded.agency_id`
	_, err := s.db.ExecContext(ctx, s.rebind(query), p.ID, p.Name, p.RoleID, p.TeamID, p.AgencyID, now())
	return eris.Wrapf(err, "sqlstore: save person %s", p.ID)
}

func (s *Store) GetPerson(ctx context.Context, id string) (*compensation.Person, error) {
	query := `SELECT id, name, role_id, team_id, agency_id FROM people WHERE id = ?`
	var p compensation.Person
	err := s.db.QueryRowContext(ctx, s.rebind(query), id).Scan(&p.ID, &p.Name, &p.RoleID, &p.TeamID, &p.AgencyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(compensation.ErrPersonNotFound, "person %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlstore: get person %s", id)
	}
	return &p, nil
}

func (s *Store) ListPeople(ctx context.Context) ([]compensation.Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role_id, team_id, agency_id FROM people ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlstore: list people")
	}
	defer rows.Close()

	var out []compensation.Person
	for rows.Next() {
		var p compensation.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.RoleID, &p.TeamID, &p.AgencyID); err != nil {
			return nil, eris.Wrap(err, "sqlstore: scan person")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlstore: list people")
}

// =============================================================================
// PLANS
// =============================================================================

func (s *Store) SavePlan(ctx context.Context, p compensation.Plan) error {
	def, err := json.Marshal(p.CurrentVersion.Definition)
	if err != nil {
		return eris.Wrapf(err, "sqlstore: encode plan %s", p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO plans (id, name, status, version, definition_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, status = excluded.status, version = excluded.version,
			definition_json = excluded.definition_json, updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, s.rebind(query),
		p.ID, p.Name, string(p.Status), p.CurrentVersion.Version, string(def), now())
	return eris.Wrapf(err, "sqlstore: save plan %s", p.ID)
}

func (s *Store) GetPlan(ctx context.Context, id string) (*compensation.Plan, error) {
	query := `SELECT id, name, status, version, definition_json FROM plans WHERE id = ?`
	p, err := scanPlan(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(compensation.ErrPlanNotFound, "plan %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlstore: get plan %s", id)
	}
	return p, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]compensation.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, status, version, definition_json FROM plans ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlstore: list plans")
	}
	defer rows.Close()

	var out []compensation.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlstore: scan plan")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlstore: list plans")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*compensation.Plan, error) {
	var (
		p      compensation.Plan
		status string
		def    string
	)
	if err := row.Scan(&p.ID, &p.Name, &status, &p.CurrentVersion.Version, &def); err != nil {
		return nil, err
	}
	p.Status = compensation.PlanStatus(status)
	if err := json.Unmarshal([]byte(def), &p.CurrentVersion.Definition); err != nil {
		return nil, eris.Wrapf(err, "decode plan %s", p.ID)
	}
	return &p, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// SaveAssignment upserts a. An empty ID gets a fresh UUID.
func (s *Store) SaveAssignment(ctx context.Context, a compensation.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var start sql.NullString
	if a.EffectiveStart != nil {
		start = sql.NullString{String: a.EffectiveStart.UTC().Format(dateLayout), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO plan_assignments (id, scope_type, scope_id, plan_id, active, effective_start, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			scope_type = excluded.scope_type, scope_id = excluded.scope_id, plan_id = excluded.plan_id,
			active = excluded.active, effective_start = excluded.effective_start`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		a.ID, string(a.ScopeType), a.ScopeID, a.PlanID, boolInt(a.Active), start, now())
	return eris.Wrapf(err, "sqlstore: save assignment %s", a.ID)
}

// AssignmentsFor returns one scope's assignments, most recent effective start
// first, undated last, then by ID.
func (s *Store) AssignmentsFor(ctx context.Context, level compensation.ScopeLevel, scopeID string) ([]compensation.Assignment, error) {
	query := `
		SELECT id, scope_type, scope_id, plan_id, active, effective_start
		FROM plan_assignments
		WHERE scope_type = ? AND scope_id = ?
		ORDER BY effective_start IS NULL, effective_start DESC, id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), string(level), scopeID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlstore: query %s assignments", level)
	}
	defer rows.Close()

	var out []compensation.Assignment
	for rows.Next() {
		var (
			a      compensation.Assignment
			scope  string
			active int
			start  sql.NullString
		)
		if err := rows.Scan(&a.ID, &scope, &a.ScopeID, &a.PlanID, &active, &start); err != nil {
			return nil, eris.Wrap(err, "sqlstore: scan assignment")
		}
		a.ScopeType = compensation.ScopeLevel(scope)
		a.Active = active != 0
		if start.Valid {
			t, err := time.Parse(dateLayout, start.String)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlstore: assignment %s effective_start", a.ID)
			}
			a.EffectiveStart = &t
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlstore: query assignments")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// SOLD RECORDS
// =============================================================================

// AddRecords inserts records in one transaction. Empty IDs get a UUID.
func (s *Store) AddRecords(ctx context.Context, records ...compensation.SoldRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlstore: begin")
	}
	defer tx.Rollback()

	query := s.rebind(`
		INSERT INTO sold_records (id, person_id, product_id, lob_id, premium_category, product_type, premium, date_sold, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query,
			r.ID, r.PersonID, r.ProductID, r.LOBID, string(r.PremiumCategory), string(r.ProductType),
			r.Premium.String(), r.DateSold.UTC().Format(dateLayout), string(r.Status),
		); err != nil {
			return eris.Wrapf(err, "sqlstore: insert record %s", r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlstore: commit records")
}

// SoldRecords returns q.PersonID's records sold within [From, To] with a
// status in q.Statuses (all statuses when empty), ordered by date sold.
func (s *Store) SoldRecords(ctx context.Context, q compensation.RecordQuery) ([]compensation.SoldRecord, error) {
	query := `
		SELECT id, person_id, product_id, lob_id, premium_category, product_type, premium, date_sold, status
		FROM sold_records
		WHERE person_id = ? AND date_sold >= ? AND date_sold <= ?`
	args := []any{q.PersonID, q.From.Format(dateLayout), q.To.Format(dateLayout)}
	if len(q.Statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(q.Statuses)) + `)`
		for _, st := range q.Statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY date_sold, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlstore: query records for %s", q.PersonID)
	}
	defer rows.Close()

	var out []compensation.SoldRecord
	for rows.Next() {
		var r compensation.SoldRecord
		var category, ptype, status, premium, sold string
		if err := rows.Scan(&r.ID, &r.PersonID, &r.ProductID, &r.LOBID, &category, &ptype, &premium, &sold, &status); err != nil {
			return nil, eris.Wrap(err, "sqlstore: scan record")
		}
		if r.Premium, err = decimal.NewFromString(premium); err != nil {
			return nil, eris.Wrapf(err, "sqlstore: record %s premium", r.ID)
		}
		if r.DateSold, err = time.Parse(dateLayout, sold); err != nil {
			return nil, eris.Wrapf(err, "sqlstore: record %s date_sold", r.ID)
		}
		r.PremiumCategory = compensation.PremiumCategory(category)
		r.ProductType = compensation.ProductType(ptype)
		r.Status = compensation.PolicyStatus(status)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlstore: query records")
}

// =============================================================================
// ACTIVITY
// =============================================================================

func (s *Store) AddActivities(ctx context.Context, counts ...compensation.ActivityCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlstore: begin")
	}
	defer tx.Rollback()

	query := s.rebind(`
		INSERT INTO activity_counts (id, person_id, activity_type_id, count, activity_date)
		VALUES (?, ?, ?, ?, ?)`)
	for _, c := range counts {
		date := ""
		if !c.Date.IsZero() {
			date = c.Date.UTC().Format(dateLayout)
		}
		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), c.PersonID, c.ActivityTypeID, c.Count, date); err != nil {
			return eris.Wrapf(err, "sqlstore: insert activity for %s", c.PersonID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlstore: commit activities")
}

// ActivityCounts returns the person's rows dated within [from, to]; undated
// rows always count.
func (s *Store) ActivityCounts(ctx context.Context, personID string, from, to time.Time) ([]compensation.ActivityCount, error) {
	query := `
		SELECT person_id, activity_type_id, count, activity_date
		FROM activity_counts
		WHERE person_id = ? AND (activity_date = '' OR (activity_date >= ? AND activity_date <= ?))
		ORDER BY activity_date, activity_type_id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), personID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlstore: query activities for %s", personID)
	}
	defer rows.Close()

	var out []compensation.ActivityCount
	for rows.Next() {
		var (
			c    compensation.ActivityCount
			date string
		)
		if err := rows.Scan(&c.PersonID, &c.ActivityTypeID, &c.Count, &date); err != nil {
			return nil, eris.Wrap(err, "sqlstore: scan activity")
		}
		if date != "" {
			if c.Date, err = time.Parse(dateLayout, date); err != nil {
				return nil, eris.Wrapf(err, "sqlstore: activity date %q", date)
			}
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlstore: query activities")
}
