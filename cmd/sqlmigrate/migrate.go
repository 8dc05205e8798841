package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/sqlmigrate/config"
	"github.com/BaSui01/sqlmigrate/internal/catalog"
	"github.com/BaSui01/sqlmigrate/internal/ctxkeys"
	"github.com/BaSui01/sqlmigrate/internal/database"
	"github.com/BaSui01/sqlmigrate/internal/metrics"
	"github.com/BaSui01/sqlmigrate/internal/migration"
	"github.com/BaSui01/sqlmigrate/internal/telemetry"
)

// =============================================================================
// Migration Commands
// =============================================================================

// commandOptions holds the flags shared by all migration commands
type commandOptions struct {
	configPath  string
	databaseURL string
	dir         string
	count       int
}

// parseCommandArgs parses flags that may appear before or after the
// optional rollback count.
func parseCommandArgs(command string, args []string) (*commandOptions, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	opts := &commandOptions{count: 1}
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&opts.databaseURL, "database-url", "", "Database connection URL")
	fs.StringVar(&opts.dir, "dir", "", "Migrations directory")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch {
	case command == "rollback" && len(positional) == 1:
		n, err := strconv.Atoi(positional[0])
		if err != nil {
			return nil, fmt.Errorf("invalid rollback count %q: %w", positional[0], err)
		}
		opts.count = n
	case len(positional) > 0:
		return nil, fmt.Errorf("unexpected arguments for %s: %v", command, positional)
	}

	return opts, nil
}

// loadConfig loads the config file and environment, then applies flags
func loadConfig(opts *commandOptions) (*config.Config, error) {
	loader := config.NewLoader()
	if opts.configPath != "" {
		loader = loader.WithConfigPath(opts.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.databaseURL != "" {
		cfg.Database.URL = opts.databaseURL
	}
	if opts.dir != "" {
		cfg.Migrations.Dir = opts.dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runCommand handles run, rollback, status and reset
func runCommand(command string, args []string) error {
	opts, err := parseCommandArgs(command, args)
	if err != nil {
		return err
	}
	if command == "rollback" && opts.count < 1 {
		return fmt.Errorf("%w: got %d", migration.ErrInvalidCount, opts.count)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := initLogger(cfg.Log).With(zap.String("run_id", runID))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxkeys.WithCommand(ctxkeys.WithRunID(ctx, runID), command)

	err = executeCommand(ctx, command, opts.count, cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
	}
	return err
}

// executeCommand wires the catalog, session and engine and runs one command
func executeCommand(ctx context.Context, command string, count int, cfg *config.Config, logger *zap.Logger, out io.Writer) (err error) {
	providers, tErr := telemetry.Init(cfg.Telemetry, logger)
	if tErr != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(tErr))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if sErr := providers.Shutdown(shutdownCtx); sErr != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(sErr))
		}
	}()

	collector := metrics.NewCollector(cfg.Metrics.Namespace, logger)
	defer func() {
		collector.RecordCommand(command, err)
		if path := cfg.Metrics.TextfilePath; path != "" {
			if wErr := collector.WriteTextfile(path); wErr != nil {
				logger.Warn("failed to write metrics textfile", zap.Error(wErr))
			}
		}
	}()

	rawURL, err := cfg.Database.ConnectionURL()
	if err != nil {
		return err
	}
	target, err := database.ParseURL(rawURL)
	if err != nil {
		return err
	}
	splitMode, err := migration.ParseSplitMode(cfg.Migrations.SplitStatements)
	if err != nil {
		return err
	}

	dir := cfg.Migrations.Dir
	if cfg.Migrations.BackendSubdir {
		dir = filepath.Join(dir, string(target.Backend))
	}
	cat := catalog.NewDir(dir, cfg.Migrations.CatalogOptions())

	logger.Info("starting",
		zap.String("command", command),
		zap.String("backend", string(target.Backend)),
		zap.String("migrations_dir", dir),
	)

	session, err := database.Open(ctx, target, cfg.Database.Pool, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := session.Close(); cErr != nil {
			logger.Warn("failed to close session", zap.Error(cErr))
		}
	}()

	engine := migration.NewEngine(cat, session, migration.Config{
		Table:     cfg.Migrations.Table,
		SplitMode: splitMode,
	}, logger,
		migration.WithRecorder(collector),
		migration.WithTracer(providers.Tracer()),
	)

	cli := migration.NewCLI(engine)
	cli.SetOutput(out)

	switch command {
	case "run":
		return cli.RunUp(ctx)
	case "rollback":
		return cli.RunDown(ctx, count)
	case "status":
		return cli.RunStatus(ctx)
	case "reset":
		return cli.RunReset(ctx)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}
