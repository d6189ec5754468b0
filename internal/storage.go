package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Archive stores converted documents in a local SQLite database
type Archive struct {
	db    *sql.DB
	path  string
	clock Clock
}

// ArchiveEntry summarizes an archived document
type ArchiveEntry struct {
	ChatID       string
	Title        string
	Platform     string
	Exporter     string
	CreatedAt    string
	UpdatedAt    string
	SourcePath   string
	MessageCount int
	WordCount    int
	ArchivedAt   string
}

// OpenArchive opens or creates the archive at path
func OpenArchive(path string, clock Clock) (*Archive, error) {
	db, err := OpenArchiveDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return NewArchive(db, path, clock), nil
}

// OpenArchiveReadOnly opens an existing archive for browsing
func OpenArchiveReadOnly(path string) (*Archive, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	return NewArchive(db, path, nil), nil
}

// NewArchive wraps an already opened archive database
func NewArchive(db *sql.DB, path string, clock Clock) *Archive {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Archive{db: db, path: path, clock: clock}
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save inserts doc, replacing any earlier version with the same chat id
func (a *Archive) Save(ctx context.Context, doc *CanonicalDoc, sourcePath string) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Path: a.path, Op: "write", Err: err}
	}
	defer tx.Rollback()

	meta := doc.Metadata
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", meta.ChatID); err != nil {
		return &StorageError{Path: a.path, Op: "write", Err: err}
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO documents
		(chat_id, title, platform, exporter, created_at, updated_at, source_path, message_count, word_count, archived_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ChatID, meta.Title, meta.Platform, meta.Exporter, meta.CreatedAt, meta.UpdatedAt,
		sourcePath, len(doc.Messages), meta.Statistics.WordCount,
		a.clock.Now().UTC().Format(time.RFC3339), string(body))
	if err != nil {
		return &StorageError{Path: a.path, Op: "write", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO messages (chat_id, seq, message_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return &StorageError{Path: a.path, Op: "write", Err: err}
	}
	defer stmt.Close()

	for i, msg := range doc.Messages {
		if _, err := stmt.ExecContext(ctx, meta.ChatID, i, msg.MessageID, string(msg.Role), msg.Content, msg.Timestamp); err != nil {
			return &StorageError{Path: a.path, Op: "write", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Path: a.path, Op: "write", Err: err}
	}
	LogDebug("archived %s (%d messages)", meta.ChatID, len(doc.Messages))
	return nil
}

// List returns every archived document, most recently archived first
func (a *Archive) List(ctx context.Context) ([]ArchiveEntry, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT chat_id, title, platform, exporter, created_at, updated_at,
		source_path, message_count, word_count, archived_at
		FROM documents ORDER BY archived_at DESC, chat_id`)
	if err != nil {
		return nil, &StorageError{Path: a.path, Op: "query", Err: err}
	}
	defer rows.Close()

	var entries []ArchiveEntry
	for rows.Next() {
		var e ArchiveEntry
		if err := rows.Scan(&e.ChatID, &e.Title, &e.Platform, &e.Exporter, &e.CreatedAt, &e.UpdatedAt,
			&e.SourcePath, &e.MessageCount, &e.WordCount, &e.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// Load returns the archived document with the given chat id. A chat id prefix
// is accepted when it is unambiguous.
func (a *Archive) Load(ctx context.Context, chatID string) (*CanonicalDoc, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT body FROM documents WHERE chat_id LIKE ? || '%' LIMIT 2", chatID)
	if err != nil {
		return nil, &StorageError{Path: a.path, Op: "query", Err: err}
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	switch len(bodies) {
	case 0:
		return nil, &StorageError{Path: a.path, Op: "query", Err: fmt.Errorf("chat %s: %w", chatID, sql.ErrNoRows)}
	case 2:
		return nil, &StorageError{Path: a.path, Op: "query", Err: fmt.Errorf("chat id prefix %q is ambiguous", chatID)}
	}

	var doc CanonicalDoc
	if err := json.Unmarshal([]byte(bodies[0]), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived document: %w", err)
	}
	return &doc, nil
}

// RoleCounts returns the number of archived messages per role
func (a *Archive) RoleCounts(ctx context.Context) (map[Role]int, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM messages GROUP BY role")
	if err != nil {
		return nil, &StorageError{Path: a.path, Op: "query", Err: err}
	}
	defer rows.Close()

	counts := make(map[Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		counts[Role(role)] = n
	}
	return counts, rows.Err()
}

// IsNotFound reports whether err is a missing archive entry
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
