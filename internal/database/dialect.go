package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sijms/go-ora/v2/network"
)

// =============================================================================
// Dialects
// =============================================================================

// Dialect captures the SQL differences between backends that the migration
// bookkeeping depends on.
type Dialect interface {
	// Name returns the backend this dialect targets.
	Name() Backend
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// CreateTableSQL returns the DDL for the bookkeeping table.
	CreateTableSQL(table string) string
	// IsAlreadyExists reports whether err means the table already exists.
	IsAlreadyExists(err error) bool
	// SplitStatements reports whether scripts must be segmented before execution.
	SplitStatements() bool
}

// DialectFor returns the dialect of a backend.
func DialectFor(b Backend) (Dialect, error) {
	switch b {
	case BackendPostgres:
		return postgresDialect{}, nil
	case BackendOracle:
		return oracleDialect{}, nil
	case BackendMySQL:
		return mysqlDialect{}, nil
	case BackendSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, b)
	}
}

const (
	versionColumn = "version"
	runOnColumn   = "run_on"
)

func createTable(ifNotExists bool, table, varchar string) string {
	clause := ""
	if ifNotExists {
		clause = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE TABLE %s%s (%s %s(50) PRIMARY KEY, %s TIMESTAMP DEFAULT CURRENT_TIMESTAMP)",
		clause, table, versionColumn, varchar, runOnColumn)
}

func quoteWith(name, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func messageContains(err error, fragments ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// PostgreSQL
// -----------------------------------------------------------------------------

type postgresDialect struct{}

func (postgresDialect) Name() Backend              { return BackendPostgres }
func (postgresDialect) Placeholder(n int) string   { return fmt.Sprintf("$%d", n) }
func (postgresDialect) QuoteIdent(s string) string { return quoteWith(s, `"`) }
func (postgresDialect) SplitStatements() bool      { return false }

func (d postgresDialect) CreateTableSQL(table string) string {
	return createTable(true, d.QuoteIdent(table), "VARCHAR")
}

// IsAlreadyExists matches SQLSTATE 42P07 (duplicate_table).
func (postgresDialect) IsAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P07"
	}
	return messageContains(err, "already exists")
}

// -----------------------------------------------------------------------------
// Oracle
// -----------------------------------------------------------------------------

type oracleDialect struct{}

func (oracleDialect) Name() Backend              { return BackendOracle }
func (oracleDialect) Placeholder(n int) string   { return fmt.Sprintf(":%d", n) }
func (oracleDialect) QuoteIdent(s string) string { return quoteWith(s, `"`) }
func (oracleDialect) SplitStatements() bool      { return true }

// CreateTableSQL has no IF NOT EXISTS on Oracle; ORA-00955 is tolerated instead.
func (d oracleDialect) CreateTableSQL(table string) string {
	return createTable(false, d.QuoteIdent(table), "VARCHAR2")
}

// IsAlreadyExists matches ORA-00955 (name is already used by an existing object).
func (oracleDialect) IsAlreadyExists(err error) bool {
	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return oraErr.ErrCode == 955
	}
	return messageContains(err, "ORA-00955")
}

// -----------------------------------------------------------------------------
// MySQL
// -----------------------------------------------------------------------------

type mysqlDialect struct{}

func (mysqlDialect) Name() Backend              { return BackendMySQL }
func (mysqlDialect) Placeholder(int) string     { return "?" }
func (mysqlDialect) QuoteIdent(s string) string { return quoteWith(s, "`") }
func (mysqlDialect) SplitStatements() bool      { return true }

func (d mysqlDialect) CreateTableSQL(table string) string {
	return createTable(true, d.QuoteIdent(table), "VARCHAR")
}

// IsAlreadyExists matches error 1050 (ER_TABLE_EXISTS_ERROR).
func (mysqlDialect) IsAlreadyExists(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1050
	}
	return messageContains(err, "already exists")
}

// -----------------------------------------------------------------------------
// SQLite
// -----------------------------------------------------------------------------

type sqliteDialect struct{}

func (sqliteDialect) Name() Backend              { return BackendSQLite }
func (sqliteDialect) Placeholder(int) string     { return "?" }
func (sqliteDialect) QuoteIdent(s string) string { return quoteWith(s, `"`) }
func (sqliteDialect) SplitStatements() bool      { return true }

func (d sqliteDialect) CreateTableSQL(table string) string {
	return createTable(true, d.QuoteIdent(table), "VARCHAR")
}

func (sqliteDialect) IsAlreadyExists(err error) bool {
	return messageContains(err, "already exists")
}
