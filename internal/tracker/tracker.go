package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BaSui01/sqlmigrate/internal/database"
	"go.uber.org/zap"
)

// DefaultTable is the bookkeeping table name.
const DefaultTable = "__diesel_schema_migrations"

// Record is one applied migration.
type Record struct {
	Version string
	// AppliedAt is nil when the stored timestamp could not be parsed.
	AppliedAt *time.Time
}

// Tracker reads and writes the set of applied migrations.
type Tracker struct {
	session database.Session
	table   string
	logger  *zap.Logger
}

// New creates a Tracker over session. An empty table selects DefaultTable.
func New(session database.Session, table string, logger *zap.Logger) *Tracker {
	if table == "" {
		table = DefaultTable
	}
	return &Tracker{
		session: session,
		table:   table,
		logger:  logger.With(zap.String("component", "tracker")),
	}
}

// Table returns the bookkeeping table name.
func (t *Tracker) Table() string {
	return t.table
}

func (t *Tracker) quoted() string {
	return t.session.Dialect().QuoteIdent(t.table)
}

// EnsureTable creates the bookkeeping table if it does not exist.
// An "already exists" error from the backend counts as success.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	d := t.session.Dialect()

	if err := t.session.Exec(ctx, d.CreateTableSQL(t.table)); err != nil {
		_ = t.session.Rollback()
		if d.IsAlreadyExists(err) {
			t.logger.Debug("bookkeeping table already exists", zap.String("table", t.table))
			return nil
		}
		return fmt.Errorf("create table %s: %w", t.table, err)
	}

	return t.session.Commit()
}

// ListApplied returns applied migration versions in ascending order.
func (t *Tracker) ListApplied(ctx context.Context) ([]string, error) {
	records, err := t.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(records))
	for i, r := range records {
		versions[i] = r.Version
	}
	return versions, nil
}

// ListRecords returns applied migrations with their timestamps, ascending by version.
// The read transaction is ended before returning.
func (t *Tracker) ListRecords(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf("SELECT version, run_on FROM %s ORDER BY version", t.quoted())

	rows, err := t.session.Query(ctx, query)
	if err != nil {
		_ = t.session.Rollback()
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		_ = t.session.Rollback()
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	if err := t.session.Commit(); err != nil {
		return nil, err
	}

	// Collation differs between backends; the ordering must be byte-wise.
	sort.Slice(records, func(i, j int) bool { return records[i].Version < records[j].Version })
	return records, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			version string
			runOn   sql.NullString
		)
		if err := rows.Scan(&version, &runOn); err != nil {
			return nil, err
		}
		r := Record{Version: version}
		if runOn.Valid {
			r.AppliedAt = parseTimestamp(runOn.String)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecordApplied marks version as applied inside the current transaction.
func (t *Tracker) RecordApplied(ctx context.Context, version string) error {
	query := fmt.Sprintf("INSERT INTO %s (version) VALUES (%s)", t.quoted(), t.session.Dialect().Placeholder(1))
	if err := t.session.Exec(ctx, query, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}

// RemoveApplied removes version from the applied set inside the current transaction.
func (t *Tracker) RemoveApplied(ctx context.Context, version string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE version = %s", t.quoted(), t.session.Dialect().Placeholder(1))
	if err := t.session.Exec(ctx, query, version); err != nil {
		return fmt.Errorf("remove migration %s: %w", version, err)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts the textual forms drivers return for TIMESTAMP columns.
func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}
