package sqlstore

// Schema shared by SQLite and PostgreSQL. Dates are stored as ISO text
// (YYYY-MM-DD) and amounts as decimal strings so both dialects compare and
// round-trip them identically.

const schemaPeople = `
CREATE TABLE IF NOT EXISTS people (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role_id TEXT NOT NULL DEFAULT '',
	team_id TEXT NOT NULL DEFAULT '',
	agency_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

const schemaPlans = `
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	definition_json TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

const schemaAssignments = `
CREATE TABLE IF NOT EXISTS plan_assignments (
	id TEXT PRIMARY KEY,
	scope_type TEXT NOT NULL,
	scope_id TEXT NOT NULL,
	plan_id TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	effective_start TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assignments_scope
	ON plan_assignments(scope_type, scope_id);
`

const schemaSoldRecords = `
CREATE TABLE IF NOT EXISTS sold_records (
	id TEXT PRIMARY KEY,
	person_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	lob_id TEXT NOT NULL DEFAULT '',
	premium_category TEXT NOT NULL,
	product_type TEXT NOT NULL,
	premium TEXT NOT NULL,
	date_sold TEXT NOT NULL,
	status TEXT NOT NULL
);

-- Hot path: one person's records for one period
CREATE INDEX IF NOT EXISTS idx_sold_records_person_date
	ON sold_records(person_id, date_sold);
`

const schemaActivities = `
CREATE TABLE IF NOT EXISTS activity_counts (
	id TEXT PRIMARY KEY,
	person_id TEXT NOT NULL,
	activity_type_id TEXT NOT NULL,
	count INTEGER NOT NULL,
	activity_date TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_activity_counts_person
	ON activity_counts(person_id, activity_date);
`

// allSchemas returns every table definition in creation order.
func allSchemas() []string {
	return []string{schemaPeople, schemaPlans, schemaAssignments, schemaSoldRecords, schemaActivities}
}
