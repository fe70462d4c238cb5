// Package sqlite provides a SQLite-backed conflict audit log implementing
// the conflictkit.ConflictLogger interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	stdSync "sync"
	"time"

	"github.com/google/uuid"

	conflictkit "github.com/c0deZ3R0/go-conflict-kit"
	detectErrors "github.com/c0deZ3R0/go-conflict-kit/errors"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Operation constants for consistent error reporting
const (
	opAppend = "sqlite.Append"
	opRecent = "sqlite.Recent"
	opInit   = "sqlite.Init"
)

// Entry kinds recorded in the audit trail.
const (
	EntryDetected = "detected"
	EntryResolved = "resolved"
)

// Custom errors for better error handling
var (
	ErrLogClosed = errors.New("conflict log is closed")
)

// Config holds configuration options for the ConflictLog.
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	// Example: "file:conflicts.db?_journal_mode=WAL"
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode for better concurrency.
	// When true, automatically appends "?_journal_mode=WAL" to
	// DataSourceName.
	EnableWAL bool

	// TableName is the name of the audit table. Defaults to "conflicts".
	TableName string

	// Connection pool settings.
	// Defaults: MaxOpen=10, MaxIdle=2, Lifetime=1h
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// setDefaults applies default values to the config
func (c *Config) setDefaults() {
	if c.TableName == "" {
		c.TableName = "conflicts"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
}

// LogEntry is one row of the conflict audit trail.
type LogEntry struct {
	ID              string
	Kind            string
	ListID          string
	ItemID          string
	OriginalVersion string
	CurrentVersion  string
	ModifiedBy      string
	Severity        string
	RecordedAt      time.Time
}

// ConflictLog is a SQLite-backed implementation of
// conflictkit.ConflictLogger.
type ConflictLog struct {
	db     *sql.DB
	table  string
	mu     stdSync.RWMutex
	closed bool
}

// NewConflictLog opens (and if necessary creates) the audit database.
func NewConflictLog(config Config) (*ConflictLog, error) {
	config.setDefaults()

	dsn := config.DataSourceName
	if config.EnableWAL && dsn != "" {
		dsn += "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, detectErrors.NewWithComponent(opInit, "store", fmt.Errorf("failed to open database: %w", err))
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	log := &ConflictLog{db: db, table: config.TableName}
	if err := log.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return log, nil
}

func (l *ConflictLog) initSchema() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id               TEXT PRIMARY KEY,
			kind             TEXT NOT NULL,
			list_id          TEXT NOT NULL,
			item_id          TEXT NOT NULL,
			original_version TEXT,
			current_version  TEXT,
			modified_by      TEXT,
			severity         TEXT,
			recorded_at      TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_record ON %s(list_id, item_id, recorded_at);
	`, l.table, l.table, l.table)

	if _, err := l.db.Exec(schema); err != nil {
		return detectErrors.NewWithComponent(opInit, "store", fmt.Errorf("failed to create schema: %w", err))
	}
	return nil
}

// LogDetected implements conflictkit.ConflictLogger.
func (l *ConflictLog) LogDetected(ctx context.Context, info *conflictkit.ConflictInfo) error {
	return l.append(ctx, LogEntry{
		ID:              uuid.NewString(),
		Kind:            EntryDetected,
		ListID:          info.ListID,
		ItemID:          info.ItemID,
		OriginalVersion: info.OriginalVersion,
		CurrentVersion:  info.CurrentVersion,
		ModifiedBy:      info.LastModifiedBy.Name,
		Severity:        string(info.Severity),
		RecordedAt:      time.Now().UTC(),
	})
}

// LogResolved implements conflictkit.ConflictLogger.
func (l *ConflictLog) LogResolved(ctx context.Context, id conflictkit.RecordIdentity) error {
	return l.append(ctx, LogEntry{
		ID:         uuid.NewString(),
		Kind:       EntryResolved,
		ListID:     id.ListID,
		ItemID:     id.ItemID,
		RecordedAt: time.Now().UTC(),
	})
}

func (l *ConflictLog) append(ctx context.Context, entry LogEntry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return detectErrors.NewWithComponent(opAppend, "store", ErrLogClosed)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, kind, list_id, item_id, original_version, current_version, modified_by, severity, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.table)

	_, err := l.db.ExecContext(ctx, query,
		entry.ID, entry.Kind, entry.ListID, entry.ItemID,
		entry.OriginalVersion, entry.CurrentVersion,
		entry.ModifiedBy, entry.Severity, entry.RecordedAt,
	)
	if err != nil {
		return detectErrors.NewWithComponent(opAppend, "store", fmt.Errorf("failed to append entry: %w", err))
	}
	return nil
}

// Recent returns the most recent audit entries for a record, newest first.
func (l *ConflictLog) Recent(ctx context.Context, id conflictkit.RecordIdentity, limit int) ([]LogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, detectErrors.NewWithComponent(opRecent, "store", ErrLogClosed)
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, kind, list_id, item_id, original_version, current_version, modified_by, severity, recorded_at
		FROM %s
		WHERE list_id = ? AND item_id = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`, l.table)

	rows, err := l.db.QueryContext(ctx, query, id.ListID, id.ItemID, limit)
	if err != nil {
		return nil, detectErrors.NewWithComponent(opRecent, "store", fmt.Errorf("failed to query entries: %w", err))
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var original, current, modifiedBy, severity sql.NullString
		if err := rows.Scan(&e.ID, &e.Kind, &e.ListID, &e.ItemID, &original, &current, &modifiedBy, &severity, &e.RecordedAt); err != nil {
			return nil, detectErrors.NewWithComponent(opRecent, "store", fmt.Errorf("failed to scan entry: %w", err))
		}
		e.OriginalVersion = original.String
		e.CurrentVersion = current.String
		e.ModifiedBy = modifiedBy.String
		e.Severity = severity.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, detectErrors.NewWithComponent(opRecent, "store", err)
	}

	return entries, nil
}

// Close closes the underlying database. Idempotent.
func (l *ConflictLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
