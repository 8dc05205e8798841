package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// =============================================================================
// Session
// =============================================================================

// Session is a single database connection with at most one open transaction.
// Exec and Query begin a transaction lazily; Commit and Rollback end it.
type Session interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Commit() error
	Rollback() error
	Dialect() Dialect
	Close() error
}

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("database session is closed")

type connSession struct {
	db      *sql.DB
	conn    *sql.Conn
	tx      *sql.Tx
	dialect Dialect
	logger  *zap.Logger
	closed  bool
}

// NewSession pins one connection from db. Closing the session closes db as well.
func NewSession(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger) (Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &connSession{
		db:      db,
		conn:    conn,
		dialect: dialect,
		logger:  logger.With(zap.String("component", "db_session")),
	}, nil
}

func (s *connSession) Dialect() Dialect {
	return s.dialect
}

func (s *connSession) begin(ctx context.Context) (*sql.Tx, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

func (s *connSession) Exec(ctx context.Context, query string, args ...any) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *connSession) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx.QueryContext(ctx, query, args...)
}

// Commit commits the open transaction. It is a no-op when none is open.
func (s *connSession) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the open transaction. It is a no-op when none is open.
func (s *connSession) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close rolls back any open transaction and releases the connection.
func (s *connSession) Close() error {
	if s.closed {
		return nil
	}

	var errs []error
	if s.tx != nil {
		s.logger.Warn("closing session with an open transaction, rolling back")
		errs = append(errs, s.Rollback())
	}
	s.closed = true
	errs = append(errs, s.conn.Close(), s.db.Close())
	return errors.Join(errs...)
}
