// Package audit implements component G, a local append-only audit
// trail of vault lifecycle events, backed by SQLite. It is a
// supplemental, diagnostic-only layer: failures here must never block
// or fail a vault operation.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loganross/coffer/internal/events"
)

// EventType names the category of an audit record.
type EventType string

const (
	EventVaultAdded        EventType = "vault-added"
	EventVaultLocked       EventType = "locked"
	EventVaultUnlocked     EventType = "unlocked"
	EventVaultRemoved      EventType = "vault-removed"
	EventVaultLockFailed   EventType = "lock-failed"
	EventVaultUnlockFailed EventType = "unlock-failed"
	EventPasswordChanged   EventType = "password-changed"
	EventRecoveryScan      EventType = "recovery-scan"
)

// Record is one row of the audit trail.
type Record struct {
	ID        int64
	VaultID   string
	Event     EventType
	Detail    string
	CreatedAt time.Time
}

// Log is a SQLite-backed append-only audit trail.
type Log struct {
	db     *sql.DB
	logger *events.Logger
}

// Open opens (creating if necessary) the audit database at dbPath.
func Open(dbPath string, logger *events.Logger) (*Log, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	l := &Log{db: db, logger: logger.WithField("component", "audit")}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit database: %w", err)
	}
	return l, nil
}

func (l *Log) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vault_id TEXT NOT NULL,
		event TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_events_vault ON audit_events(vault_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record inserts an audit event. Callers treat failures as non-fatal:
// the audit log is diagnostic, not part of the vault's crash-recovery
// contract.
func (l *Log) Record(vaultID string, event EventType, detail string) error {
	_, err := l.db.Exec(
		`INSERT INTO audit_events (vault_id, event, detail) VALUES (?, ?, ?)`,
		vaultID, string(event), detail,
	)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// List returns audit records for a vault, ordered by id ascending.
func (l *Log) List(vaultID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.Query(
		`SELECT id, vault_id, event, detail, created_at FROM audit_events
		 WHERE vault_id = ? ORDER BY id ASC LIMIT ?`,
		vaultID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var eventStr string
		if err := rows.Scan(&r.ID, &r.VaultID, &eventStr, &r.Detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		r.Event = EventType(eventStr)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
