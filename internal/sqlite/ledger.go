package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blackmichael/skybridge/internal/bluesky"
	"github.com/blackmichael/skybridge/internal/domain"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger (
  source_id  TEXT PRIMARY KEY,
  failed     INTEGER NOT NULL DEFAULT 0,
  post_uri   TEXT,
  post_cid   TEXT,
  root_uri   TEXT,
  root_cid   TEXT,
  created_at TEXT NOT NULL
);
`

// Ledger implements domain.ThreadLedger on a local SQLite database. Entries
// are write-once: an INSERT for an existing source ID is a no-op, so a
// recorded outcome can never be overwritten, and nothing is ever deleted
// (reply chains may reference arbitrarily old entries).
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at the given path.
// The caller should call Close when the ledger is no longer needed.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record writes the outcome for a source status ID. A nil entry marks a
// failed cross-post. If the key already exists the write is silently
// dropped, preserving the first recorded outcome.
func (l *Ledger) Record(ctx context.Context, sourceID string, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger (source_id, failed, post_uri, post_cid, root_uri, root_cid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id) DO NOTHING`

	createdAt := time.Now().UTC().Format(time.RFC3339)

	if entry == nil {
		_, err := l.db.ExecContext(ctx, query, sourceID, 1, nil, nil, nil, nil, createdAt)
		return err
	}

	var rootURI, rootCID any
	if entry.Root != nil {
		rootURI, rootCID = entry.Root.URI, entry.Root.CID
	}

	_, err := l.db.ExecContext(ctx, query,
		sourceID, 0,
		entry.Post.URI, entry.Post.CID,
		rootURI, rootCID,
		createdAt,
	)
	return err
}

// Resolve looks up the entry for a source status ID. It returns
// domain.ErrNotFound for unknown IDs and (nil, nil) for recorded failures.
func (l *Ledger) Resolve(ctx context.Context, sourceID string) (*domain.LedgerEntry, error) {
	var (
		failed           int
		postURI, postCID sql.NullString
		rootURI, rootCID sql.NullString
	)

	err := l.db.QueryRowContext(ctx, `
		SELECT failed, post_uri, post_cid, root_uri, root_cid
		FROM ledger WHERE source_id = ?`, sourceID,
	).Scan(&failed, &postURI, &postCID, &rootURI, &rootCID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}

	if failed != 0 {
		return nil, nil
	}

	entry := &domain.LedgerEntry{
		Post: bluesky.PostRef{URI: postURI.String, CID: postCID.String},
	}
	if rootURI.Valid {
		entry.Root = &bluesky.PostRef{URI: rootURI.String, CID: rootCID.String}
	}
	return entry, nil
}

// Row is one ledger row as read back for inspection.
type Row struct {
	SourceID  string
	Failed    bool
	PostURI   string
	RootURI   string
	CreatedAt string
}

// Recent returns up to limit ledger rows, newest first. Used by the ledger
// inspection CLI.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Row, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT source_id, failed, COALESCE(post_uri, ''), COALESCE(root_uri, ''), created_at
		FROM ledger
		ORDER BY created_at DESC, source_id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger (limit=%d): %w", limit, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		var failed int
		if err := rows.Scan(&r.SourceID, &failed, &r.PostURI, &r.RootURI, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Failed = failed != 0
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
