package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BaSui01/sqlmigrate/internal/catalog"
)

// ErrInvalidCount is returned when a rollback count is below one.
var ErrInvalidCount = errors.New("rollback count must be at least 1")

// maxStatementLen bounds the statement text carried in error messages.
const maxStatementLen = 200

// StatementError reports a statement the database rejected. The migration's
// transaction has been rolled back by the time it is returned.
type StatementError struct {
	Migration string
	Direction catalog.Direction
	// Index is the 1-based position of the statement within the script.
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("migration %s (%s): statement %d failed: %v [%s]",
		e.Migration, e.Direction, e.Index, e.Err, abbreviate(e.Statement))
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

func abbreviate(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) <= maxStatementLen {
		return stmt
	}
	return stmt[:maxStatementLen] + "..."
}
