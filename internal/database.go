package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS documents (
	chat_id       TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	platform      TEXT NOT NULL,
	exporter      TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT '',
	updated_at    TEXT NOT NULL DEFAULT '',
	source_path   TEXT NOT NULL DEFAULT '',
	message_count INTEGER NOT NULL,
	word_count    INTEGER NOT NULL,
	archived_at   TEXT NOT NULL,
	body          TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	chat_id    TEXT NOT NULL REFERENCES documents(chat_id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	message_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	timestamp  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (chat_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_messages_role ON messages(role);
`

// OpenDatabase opens an existing SQLite database in read-only mode. The
// file: prefix makes the driver pass mode=ro through to SQLite.
func OpenDatabase(path string) (*sql.DB, error) {
	return openDatabase("file:" + path + "?mode=ro")
}

// OpenArchiveDatabase opens or creates a writable archive database and
// ensures its schema exists
func OpenArchiveDatabase(path string) (*sql.DB, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	// database/sql would otherwise hand each goroutine its own connection,
	// and ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return db, nil
}

func openDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}
