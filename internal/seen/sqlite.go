package seen

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "seen: create db dir")
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "seen: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "seen: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS seen_items (
	item_id       TEXT PRIMARY KEY,
	first_seen_at TEXT NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "seen: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Has(ctx context.Context, itemID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_items WHERE item_id = ?`, itemID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "seen: has %s", itemID)
	}
	return true, nil
}

func (s *SQLiteStore) Mark(ctx context.Context, itemID string, firstSeenAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_items (item_id, first_seen_at) VALUES (?, ?)
		 ON CONFLICT(item_id) DO NOTHING`,
		itemID, firstSeenAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, eris.Wrapf(err, "seen: mark %s", itemID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "seen: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_items`).Scan(&st.Total)
	if err != nil {
		return st, eris.Wrap(err, "seen: count")
	}

	var newest sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT MAX(first_seen_at) FROM seen_items`).Scan(&newest)
	if err != nil {
		return st, eris.Wrap(err, "seen: newest")
	}
	if newest.Valid {
		ts, err := time.Parse(time.RFC3339, newest.String)
		if err != nil {
			return st, eris.Wrap(err, "seen: parse newest timestamp")
		}
		st.NewestSeenAt = &ts
	}
	return st, nil
}
