package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/sqlmigrate/internal/catalog"
	"github.com/BaSui01/sqlmigrate/internal/ctxkeys"
	"github.com/BaSui01/sqlmigrate/internal/database"
	"github.com/BaSui01/sqlmigrate/internal/segment"
	"github.com/BaSui01/sqlmigrate/internal/tracker"
)

const tracerName = "github.com/BaSui01/sqlmigrate/internal/migration"

// =============================================================================
// Types and Interfaces
// =============================================================================

// Catalog lists migrations and loads their scripts.
type Catalog interface {
	List() ([]string, error)
	Load(id string, dir catalog.Direction) (string, error)
}

// Recorder receives per-migration measurements.
type Recorder interface {
	ObserveMigration(direction, outcome string, d time.Duration)
	AddStatements(direction string, n int)
	SetPending(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveMigration(string, string, time.Duration) {}
func (nopRecorder) AddStatements(string, int)                      {}
func (nopRecorder) SetPending(int)                                 {}

// SplitMode controls whether scripts are segmented into statements.
type SplitMode string

const (
	// SplitAuto segments scripts unless the backend accepts whole batches.
	SplitAuto SplitMode = "auto"
	// SplitAlways always segments scripts.
	SplitAlways SplitMode = "always"
	// SplitNever submits each script as a single batch.
	SplitNever SplitMode = "never"
)

// ParseSplitMode parses a split mode string. The empty string means auto.
func ParseSplitMode(s string) (SplitMode, error) {
	switch SplitMode(strings.ToLower(s)) {
	case "", SplitAuto:
		return SplitAuto, nil
	case SplitAlways:
		return SplitAlways, nil
	case SplitNever:
		return SplitNever, nil
	default:
		return "", fmt.Errorf("invalid split mode %q (expected auto, always or never)", s)
	}
}

// Outcome is the terminal state of one migration within a command.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Step describes what happened to one migration.
type Step struct {
	ID         string
	Outcome    Outcome
	Statements int
	Duration   time.Duration
	Err        error
}

// Report is the result of run, rollback or reset.
type Report struct {
	Direction   catalog.Direction
	NothingToDo bool
	Steps       []Step
}

// Count returns the number of steps with the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

// MigrationStatus pairs a catalog entry with its applied state.
type MigrationStatus struct {
	ID        string
	Applied   bool
	AppliedAt *time.Time
}

// StatusReport is the result of Status.
type StatusReport struct {
	Migrations []MigrationStatus
	// Orphaned lists applied versions that are no longer in the catalog.
	Orphaned []string
	Total    int
	Applied  int
	Pending  int
}

// Config holds engine settings.
type Config struct {
	// Table is the bookkeeping table name (default: __diesel_schema_migrations)
	Table string
	// SplitMode selects statement segmentation (default: auto)
	SplitMode SplitMode
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithTracer sets the tracer used for command and migration spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// =============================================================================
// Engine
// =============================================================================

// Engine reconciles the catalog with the applied set and executes migrations.
// Every migration runs in its own transaction on the session.
type Engine struct {
	catalog  Catalog
	session  database.Session
	tracker  *tracker.Tracker
	split    bool
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// NewEngine creates an Engine.
func NewEngine(cat Catalog, session database.Session, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		session:  session,
		tracker:  tracker.New(session, cfg.Table, logger),
		split:    shouldSplit(cfg.SplitMode, session.Dialect()),
		logger:   logger.With(zap.String("component", "migration")),
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func shouldSplit(mode SplitMode, d database.Dialect) bool {
	switch mode {
	case SplitAlways:
		return true
	case SplitNever:
		return false
	default:
		return d.SplitStatements()
	}
}

// Run applies all pending migrations in catalog order. It stops at the first
// migration that fails; earlier migrations stay applied.
func (e *Engine) Run(ctx context.Context) (report *Report, err error) {
	ctx, span := e.startCommand(ctx, "migration.run")
	defer func() { endSpan(span, err) }()

	report = &Report{Direction: catalog.Up}

	available, applied, err := e.load(ctx)
	if err != nil {
		return report, err
	}

	pending := pendingSet(available, applied)
	e.recorder.SetPending(len(pending))
	span.SetAttributes(attribute.Int("migration.pending", len(pending)))

	if len(pending) == 0 {
		e.logger.Info("no pending migrations")
		report.NothingToDo = true
		return report, nil
	}

	e.logger.Info("applying migrations", zap.Int("pending", len(pending)))

	remaining := len(pending)
	for _, id := range pending {
		step, err := e.execute(ctx, id, catalog.Up)
		report.Steps = append(report.Steps, step)
		if err != nil {
			return report, err
		}
		if step.Outcome == OutcomeApplied {
			remaining--
			e.recorder.SetPending(remaining)
		}
	}

	e.logger.Info("migrations complete",
		zap.Int("applied", report.Count(OutcomeApplied)),
		zap.Int("skipped", report.Count(OutcomeSkipped)),
	)
	return report, nil
}

// Rollback reverts the last count applied migrations, most recent first.
// A count larger than the applied set reverts everything.
func (e *Engine) Rollback(ctx context.Context, count int) (report *Report, err error) {
	ctx, span := e.startCommand(ctx, "migration.rollback", attribute.Int("migration.count", count))
	defer func() { endSpan(span, err) }()

	report = &Report{Direction: catalog.Down}
	if count < 1 {
		return report, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}

	_, applied, err := e.load(ctx)
	if err != nil {
		return report, err
	}

	return report, e.rollback(ctx, report, applied, count)
}

// Reset reverts every applied migration.
func (e *Engine) Reset(ctx context.Context) (report *Report, err error) {
	ctx, span := e.startCommand(ctx, "migration.reset")
	defer func() { endSpan(span, err) }()

	report = &Report{Direction: catalog.Down}

	_, applied, err := e.load(ctx)
	if err != nil {
		return report, err
	}

	return report, e.rollback(ctx, report, applied, len(applied))
}

func (e *Engine) rollback(ctx context.Context, report *Report, applied []string, count int) error {
	targets := rollbackSet(applied, count)
	if len(targets) == 0 {
		e.logger.Info("no applied migrations to roll back")
		report.NothingToDo = true
		return nil
	}

	e.logger.Info("rolling back migrations", zap.Int("count", len(targets)))

	for i := len(targets) - 1; i >= 0; i-- {
		step, err := e.execute(ctx, targets[i], catalog.Down)
		report.Steps = append(report.Steps, step)
		if err != nil {
			return err
		}
	}

	e.logger.Info("rollback complete",
		zap.Int("rolled_back", report.Count(OutcomeRolledBack)),
		zap.Int("skipped", report.Count(OutcomeSkipped)),
	)
	return nil
}

// Status pairs catalog entries with the applied set. It changes no migration state.
func (e *Engine) Status(ctx context.Context) (report *StatusReport, err error) {
	ctx, span := e.startCommand(ctx, "migration.status")
	defer func() { endSpan(span, err) }()

	available, err := e.catalog.List()
	if err != nil {
		return nil, err
	}
	if err := e.tracker.EnsureTable(ctx); err != nil {
		return nil, err
	}
	records, err := e.tracker.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]tracker.Record, len(records))
	for _, r := range records {
		byID[r.Version] = r
	}

	report = &StatusReport{Total: len(available)}
	inCatalog := make(map[string]struct{}, len(available))
	for _, id := range available {
		inCatalog[id] = struct{}{}
		ms := MigrationStatus{ID: id}
		if r, ok := byID[id]; ok {
			ms.Applied = true
			ms.AppliedAt = r.AppliedAt
			report.Applied++
		} else {
			report.Pending++
		}
		report.Migrations = append(report.Migrations, ms)
	}

	for _, r := range records {
		if _, ok := inCatalog[r.Version]; !ok {
			report.Orphaned = append(report.Orphaned, r.Version)
		}
	}
	if len(report.Orphaned) > 0 {
		e.logger.Warn("applied migrations missing from catalog", zap.Strings("versions", report.Orphaned))
	}

	e.recorder.SetPending(report.Pending)
	return report, nil
}

// load lists the catalog, makes sure the bookkeeping table exists and reads
// the applied set. The catalog is read first so a missing directory aborts
// before the database is touched.
func (e *Engine) load(ctx context.Context) ([]string, []string, error) {
	available, err := e.catalog.List()
	if err != nil {
		return nil, nil, err
	}
	if err := e.tracker.EnsureTable(ctx); err != nil {
		return nil, nil, err
	}
	applied, err := e.tracker.ListApplied(ctx)
	if err != nil {
		return nil, nil, err
	}
	return available, applied, nil
}

// execute runs one migration script and its bookkeeping change in a single
// transaction. A missing script is skipped and is not an error.
func (e *Engine) execute(ctx context.Context, id string, dir catalog.Direction) (step Step, err error) {
	ctx, span := e.tracer.Start(ctx, "migration."+string(dir), trace.WithAttributes(
		attribute.String("migration.id", id),
	))
	defer func() { endSpan(span, err) }()

	start := time.Now()
	step = Step{ID: id}
	logger := e.logger.With(zap.String("migration", id), zap.String("direction", string(dir)))

	text, err := e.catalog.Load(id, dir)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingFile) {
			logger.Warn("migration file missing, skipping", zap.Error(err))
			step.Outcome = OutcomeSkipped
			e.recorder.ObserveMigration(string(dir), string(OutcomeSkipped), 0)
			return step, nil
		}
		return e.fail(step, dir, start, err)
	}

	statements := e.statements(text)
	logger.Info("executing migration", zap.Int("statements", len(statements)))

	for i, stmt := range statements {
		if execErr := e.session.Exec(ctx, stmt); execErr != nil {
			step.Statements = i
			return e.fail(step, dir, start, &StatementError{
				Migration: id,
				Direction: dir,
				Index:     i + 1,
				Statement: stmt,
				Err:       execErr,
			})
		}
		logger.Debug("statement executed", zap.Int("index", i+1))
	}
	step.Statements = len(statements)
	e.recorder.AddStatements(string(dir), len(statements))

	if dir == catalog.Up {
		err = e.tracker.RecordApplied(ctx, id)
	} else {
		err = e.tracker.RemoveApplied(ctx, id)
	}
	if err != nil {
		return e.fail(step, dir, start, err)
	}

	if err := e.session.Commit(); err != nil {
		return e.fail(step, dir, start, fmt.Errorf("migration %s: %w", id, err))
	}

	step.Duration = time.Since(start)
	step.Outcome = OutcomeApplied
	if dir == catalog.Down {
		step.Outcome = OutcomeRolledBack
	}
	e.recorder.ObserveMigration(string(dir), string(step.Outcome), step.Duration)

	logger.Info("migration "+string(step.Outcome), zap.Duration("duration", step.Duration))
	return step, nil
}

// fail rolls back the in-flight transaction and marks the step failed.
func (e *Engine) fail(step Step, dir catalog.Direction, start time.Time, err error) (Step, error) {
	if rbErr := e.session.Rollback(); rbErr != nil {
		e.logger.Error("rollback after failure failed",
			zap.String("migration", step.ID),
			zap.Error(rbErr),
		)
	}

	step.Outcome = OutcomeFailed
	step.Duration = time.Since(start)
	step.Err = err
	e.recorder.ObserveMigration(string(dir), string(OutcomeFailed), step.Duration)

	e.logger.Error("migration failed",
		zap.String("migration", step.ID),
		zap.String("direction", string(dir)),
		zap.Error(err),
	)
	return step, err
}

func (e *Engine) statements(text string) []string {
	if e.split {
		return segment.Split(text)
	}
	return segment.Whole(text)
}

// pendingSet returns available ids that are not applied, in catalog order.
func pendingSet(available, applied []string) []string {
	done := make(map[string]struct{}, len(applied))
	for _, id := range applied {
		done[id] = struct{}{}
	}
	pending := make([]string, 0, len(available))
	for _, id := range available {
		if _, ok := done[id]; !ok {
			pending = append(pending, id)
		}
	}
	return pending
}

// rollbackSet returns the last count entries of the ascending applied list.
func rollbackSet(applied []string, count int) []string {
	if count >= len(applied) {
		return applied
	}
	return applied[len(applied)-count:]
}

// startCommand opens the span for one engine command, tagged with the
// invocation's run id and CLI command when the context carries them.
func (e *Engine) startCommand(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if id, ok := ctxkeys.RunID(ctx); ok {
		attrs = append(attrs, attribute.String("sqlmigrate.run_id", id))
	}
	if cmd, ok := ctxkeys.Command(ctx); ok {
		attrs = append(attrs, attribute.String("sqlmigrate.command", cmd))
	}
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
