package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/audit/sqlite"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/table"
)

// Run builds the configured tables, restores their audit logs and snapshots,
// and serves until ctx is cancelled. Snapshots are written on the way out.
func Run(ctx context.Context, cfg *Config, logger *log.Logger, seed int64) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var store *sqlite.Store
	if cfg.Server.AuditDB != "" {
		var err error
		store, err = sqlite.Open(cfg.Server.AuditDB)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("Audit database opened", "path", cfg.Server.AuditDB)
	}

	tables, err := BuildTables(ctx, cfg, logger, store, quartz.NewReal(), seed)
	if err != nil {
		return err
	}

	if dir := cfg.Server.SnapshotDir; dir != "" {
		for _, t := range tables {
			restoreSnapshot(t, snapshotPath(dir, t.ID()), logger)
		}
	}

	srv := NewServer(logger, tables...)
	serveErr := srv.ListenAndServe(ctx, cfg.Address())

	if dir := cfg.Server.SnapshotDir; dir != "" {
		for _, t := range tables {
			if err := t.SaveTo(snapshotPath(dir, t.ID())); err != nil {
				logger.Error("Failed to save snapshot", "table", t.ID(), "error", err)
			}
		}
	}
	return serveErr
}

// BuildTables creates one table per table block. With a store, each table's
// audit log is seeded from it and new rounds are written to it. Table i
// shuffles from seed+i.
func BuildTables(ctx context.Context, cfg *Config, logger *log.Logger, store *sqlite.Store, clock quartz.Clock, seed int64) ([]*table.Table, error) {
	tables := make([]*table.Table, 0, len(cfg.Tables))
	for i, tc := range cfg.Tables {
		opts := []table.Option{
			table.WithClock(clock),
			table.WithLogger(logger),
			table.WithRNG(randutil.New(seed + int64(i))),
			table.WithDelays(tc.Delays()),
		}
		if store != nil {
			records, err := store.Load(ctx, tc.Name)
			if err != nil {
				return nil, fmt.Errorf("load audit log for %s: %w", tc.Name, err)
			}
			opts = append(opts, table.WithSink(store), table.WithAuditLog(audit.NewLog(records...)))
			logger.Debug("Audit log loaded", "table", tc.Name, "records", len(records))
		}
		tables = append(tables, table.New(tc.Name, tc.Rules(), opts...))
	}
	return tables, nil
}

func snapshotPath(dir, tableID string) string {
	return filepath.Join(dir, tableID+".json")
}

func restoreSnapshot(t *table.Table, path string, logger *log.Logger) {
	report, err := t.LoadFrom(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return
	case err != nil:
		logger.Warn("Ignoring unreadable snapshot", "table", t.ID(), "path", path, "error", err)
	case !report.OK():
		logger.Warn("Snapshot restored with ignored fields", "table", t.ID(), "ignored", report.Ignored)
	default:
		logger.Info("Snapshot restored", "table", t.ID(), "phase", t.State().Phase)
	}
}
