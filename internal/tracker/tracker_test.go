package tracker

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/sqlmigrate/internal/database"
	"github.com/BaSui01/sqlmigrate/testutil"
)

func mockTracker(t *testing.T, backend database.Backend) (*Tracker, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialect, err := database.DialectFor(backend)
	require.NoError(t, err)

	session, err := database.NewSession(context.Background(), mockDB, dialect, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		_ = session.Close()
	})

	return New(session, "", zap.NewNop()), mock
}

func sqliteTracker(t *testing.T) (*Tracker, database.Session) {
	t.Helper()

	session := testutil.OpenSQLite(t)
	return New(session, "", zap.NewNop()), session
}

// =============================================================================
// 🧪 EnsureTable
// =============================================================================

func TestEnsureTable_Creates(t *testing.T) {
	tr, mock := mockTracker(t, database.BackendPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "__diesel_schema_migrations"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, tr.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTable_AlreadyExistsIsSuccess(t *testing.T) {
	tr, mock := mockTracker(t, database.BackendOracle)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "__diesel_schema_migrations"`)).
		WillReturnError(errors.New("ORA-00955: name is already used by an existing object"))
	mock.ExpectRollback()

	require.NoError(t, tr.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTable_OtherErrorsPropagate(t *testing.T) {
	tr, mock := mockTracker(t, database.BackendPostgres)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied for schema public"})
	mock.ExpectRollback()

	err := tr.EnsureTable(context.Background())
	require.Error(t, err)

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "42501", pgErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// 🧪 Applied set
// =============================================================================

func TestListApplied_SortsAscending(t *testing.T) {
	tr, mock := mockTracker(t, database.BackendMySQL)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, run_on FROM `__diesel_schema_migrations` ORDER BY version")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "run_on"}).
			AddRow("002_add_col", "2024-05-01 10:00:00").
			AddRow("001_init", nil).
			AddRow("010_index", "2024-05-02T08:30:00Z"))
	mock.ExpectCommit()

	versions, err := tr.ListApplied(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init", "002_add_col", "010_index"}, versions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecords_ParsesTimestamps(t *testing.T) {
	tr, mock := mockTracker(t, database.BackendSQLite)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version, run_on FROM").
		WillReturnRows(sqlmock.NewRows([]string{"version", "run_on"}).
			AddRow("001_init", "2024-05-01 10:00:00").
			AddRow("002_add_col", nil).
			AddRow("003_odd", "yesterday"))
	mock.ExpectCommit()

	records, err := tr.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NotNil(t, records[0].AppliedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *records[0].AppliedAt)
	assert.Nil(t, records[1].AppliedAt)
	assert.Nil(t, records[2].AppliedAt)
}

func TestListApplied_QueryErrorRollsBack(t *testing.T) {
	tr, mock := mockTracker(t, database.BackendSQLite)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version").WillReturnError(errors.New("no such table"))
	mock.ExpectRollback()

	_, err := tr.ListApplied(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAndRemove_UseDialectPlaceholders(t *testing.T) {
	tests := []struct {
		backend database.Backend
		insert  string
		delete  string
	}{
		{
			database.BackendPostgres,
			`INSERT INTO "__diesel_schema_migrations" (version) VALUES ($1)`,
			`DELETE FROM "__diesel_schema_migrations" WHERE version = $1`,
		},
		{
			database.BackendOracle,
			`INSERT INTO "__diesel_schema_migrations" (version) VALUES (:1)`,
			`DELETE FROM "__diesel_schema_migrations" WHERE version = :1`,
		},
		{
			database.BackendMySQL,
			"INSERT INTO `__diesel_schema_migrations` (version) VALUES (?)",
			"DELETE FROM `__diesel_schema_migrations` WHERE version = ?",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			tr, mock := mockTracker(t, tt.backend)
			ctx := context.Background()

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(tt.insert)).WithArgs("001_init").WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectExec(regexp.QuoteMeta(tt.delete)).WithArgs("001_init").WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, tr.RecordApplied(ctx, "001_init"))
			require.NoError(t, tr.RemoveApplied(ctx, "001_init"))
			assert.NoError(t, mock.ExpectationsWereMet())

			mock.ExpectRollback()
		})
	}
}

// =============================================================================
// 🧪 SQLite integration
// =============================================================================

func TestTracker_SQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tr, session := sqliteTracker(t)
	ctx := context.Background()

	assert.Equal(t, DefaultTable, tr.Table())

	// Idempotent creation.
	require.NoError(t, tr.EnsureTable(ctx))
	require.NoError(t, tr.EnsureTable(ctx))

	applied, err := tr.ListApplied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	require.NoError(t, tr.RecordApplied(ctx, "002_add_col"))
	require.NoError(t, tr.RecordApplied(ctx, "001_init"))
	require.NoError(t, session.Commit())

	records, err := tr.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "001_init", records[0].Version)
	assert.NotNil(t, records[0].AppliedAt)

	require.NoError(t, tr.RemoveApplied(ctx, "002_add_col"))
	require.NoError(t, session.Rollback())

	applied, err = tr.ListApplied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init", "002_add_col"}, applied, "rolled back delete must not take effect")

	require.NoError(t, tr.RemoveApplied(ctx, "002_add_col"))
	require.NoError(t, session.Commit())

	applied, err = tr.ListApplied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init"}, applied)
}

func TestTracker_CustomTable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, session := sqliteTracker(t)
	tr := New(session, "schema_history", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, tr.EnsureTable(ctx))
	require.NoError(t, tr.RecordApplied(ctx, "001_init"))
	require.NoError(t, session.Commit())

	assert.True(t, testutil.TableExists(t, session, "schema_history"))
	assert.False(t, testutil.TableExists(t, session, DefaultTable))

	applied, err := tr.ListApplied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init"}, applied)
}
