package postmaster

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ancient-mariner/kharon/common"
)

// AuditLog persists every command request to a SQLite-backed table, so an
// operator can reconstruct what was asked of the vessel and when.
type AuditLog struct {
	db *sql.DB
}

// OpenAuditLog opens (creating if necessary) the command-audit database
// at path.
func OpenAuditLog(path string) (*AuditLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, common.NewError(common.CategoryConfigMissing, "postmaster.OpenAuditLog", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	received_at TEXT NOT NULL,
	request_type INTEGER NOT NULL,
	custom0 INTEGER NOT NULL,
	custom1 INTEGER NOT NULL,
	custom2 INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, common.NewError(common.CategoryConfigMissing, "postmaster.OpenAuditLog", err)
	}
	return &AuditLog{db: db}, nil
}

// Record appends one request to the audit log.
func (a *AuditLog) Record(req Request) error {
	_, err := a.db.Exec(
		`INSERT INTO commands (received_at, request_type, custom0, custom1, custom2) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), int(req.Type), req.Custom0, req.Custom1, req.Custom2,
	)
	if err != nil {
		return common.NewError(common.CategoryTransientIO, "postmaster.AuditLog.Record", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (a *AuditLog) Close() error { return a.db.Close() }
