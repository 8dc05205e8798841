package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
)

// CLI provides command-line interface functionality for migrations
type CLI struct {
	engine *Engine
	output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(engine *Engine) *CLI {
	return &CLI{
		engine: engine,
		output: os.Stdout,
	}
}

// SetOutput sets the output writer for CLI messages
func (c *CLI) SetOutput(w io.Writer) {
	c.output = w
}

// RunUp applies all pending migrations
func (c *CLI) RunUp(ctx context.Context) error {
	fmt.Fprintln(c.output, "Running migrations...")

	report, err := c.engine.Run(ctx)
	c.printSteps(report)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if report.NothingToDo {
		fmt.Fprintln(c.output, "No pending migrations.")
		return nil
	}

	fmt.Fprintf(c.output, "Migrations complete. Applied: %d, Skipped: %d\n",
		report.Count(OutcomeApplied), report.Count(OutcomeSkipped))
	return nil
}

// RunDown rolls back the last count migrations
func (c *CLI) RunDown(ctx context.Context, count int) error {
	fmt.Fprintf(c.output, "Rolling back %d migration(s)...\n", count)

	report, err := c.engine.Rollback(ctx, count)
	c.printSteps(report)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	c.printRollbackSummary(report)
	return nil
}

// RunReset rolls back all migrations
func (c *CLI) RunReset(ctx context.Context) error {
	fmt.Fprintln(c.output, "Rolling back all migrations...")

	report, err := c.engine.Reset(ctx)
	c.printSteps(report)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	c.printRollbackSummary(report)
	return nil
}

// RunStatus shows the status of all migrations
func (c *CLI) RunStatus(ctx context.Context) error {
	status, err := c.engine.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if status.Total == 0 && len(status.Orphaned) == 0 {
		fmt.Fprintln(c.output, "No migrations found.")
		return nil
	}

	// Print header
	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATUS\tAPPLIED AT")
	fmt.Fprintln(w, "-------\t------\t----------")

	for _, s := range status.Migrations {
		state := "Pending"
		appliedAt := "-"
		if s.Applied {
			state = "Applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format(time.DateTime)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, state, appliedAt)
	}
	for _, id := range status.Orphaned {
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, "Orphaned", "-")
	}

	w.Flush()

	// Print summary
	fmt.Fprintln(c.output)
	fmt.Fprintf(c.output, "Total: %d, Applied: %d, Pending: %d\n",
		status.Total, status.Applied, status.Pending)
	if n := len(status.Orphaned); n > 0 {
		fmt.Fprintf(c.output, "Warning: %d applied migration(s) not found in the migrations directory\n", n)
	}

	return nil
}

func (c *CLI) printSteps(report *Report) {
	if report == nil {
		return
	}
	for _, s := range report.Steps {
		switch s.Outcome {
		case OutcomeApplied:
			fmt.Fprintf(c.output, "  applied      %s (%d statements, %s)\n", s.ID, s.Statements, s.Duration.Round(time.Millisecond))
		case OutcomeRolledBack:
			fmt.Fprintf(c.output, "  rolled back  %s (%d statements, %s)\n", s.ID, s.Statements, s.Duration.Round(time.Millisecond))
		case OutcomeSkipped:
			fmt.Fprintf(c.output, "  skipped      %s (no %s script)\n", s.ID, report.Direction)
		case OutcomeFailed:
			fmt.Fprintf(c.output, "  FAILED       %s: %v\n", s.ID, s.Err)
		}
	}
}

func (c *CLI) printRollbackSummary(report *Report) {
	if report.NothingToDo {
		fmt.Fprintln(c.output, "No applied migrations to roll back.")
		return
	}
	fmt.Fprintf(c.output, "Rollback complete. Rolled back: %d, Skipped: %d\n",
		report.Count(OutcomeRolledBack), report.Count(OutcomeSkipped))
}
