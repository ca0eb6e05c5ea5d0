package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"feedmailer/internal/model"
	"feedmailer/internal/seen"
	"feedmailer/internal/state"
	"feedmailer/migrations"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// migrate brings the schema up to date from the embedded migration files.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadState reads the full state snapshot: one feed_state row per feed plus
// its seen entries. A feed whose seen set was initialized but holds no
// entries (everything expired) comes back with an empty set, not a missing
// one. The returned snapshot is clean.
func (s *SQLite) LoadState(ctx context.Context) (*state.State, error) {
	st := state.New()

	entryRows, err := s.db.QueryContext(ctx,
		`SELECT feed_id, entry_id, expires_at FROM seen_entries`,
	)
	if err != nil {
		return nil, fmt.Errorf("query seen entries: %w", err)
	}
	defer func() { _ = entryRows.Close() }()

	sets := make(map[model.FeedID]seen.Set)
	for entryRows.Next() {
		var feedID, entryID string
		var expiry int64
		if err := entryRows.Scan(&feedID, &entryID, &expiry); err != nil {
			return nil, fmt.Errorf("scan seen entry: %w", err)
		}
		id := model.FeedID(feedID)
		if sets[id] == nil {
			sets[id] = seen.Empty()
		}
		sets[id][entryID] = expiry
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT feed_id, next_update, page_contents, seen_initialized FROM feed_state`,
	)
	if err != nil {
		return nil, fmt.Errorf("query feed state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var next sql.NullInt64
		var page sql.NullString
		var seenInit int
		if err := rows.Scan(&id, &next, &page, &seenInit); err != nil {
			return nil, fmt.Errorf("scan feed state: %w", err)
		}
		feedID := model.FeedID(id)
		if next.Valid {
			st.SetNextUpdate(feedID, next.Int64)
		}
		if page.Valid {
			st.SetPageContents(feedID, page.String)
		}
		if seenInit != 0 {
			set := sets[feedID]
			if set == nil {
				set = seen.Empty()
			}
			st.SetPreviousEntries(feedID, set)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed state: %w", err)
	}

	st.ClearDirty()
	return st, nil
}

// SaveState writes every dirty feed back in one transaction and marks the
// snapshot clean on success.
func (s *SQLite) SaveState(ctx context.Context, st *state.State) error {
	dirty := st.Dirty()
	if len(dirty) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range dirty {
		var next sql.NullInt64
		if v, ok := st.NextUpdate(id); ok {
			next = sql.NullInt64{Int64: v, Valid: true}
		}
		var page sql.NullString
		if v, ok := st.PageContents(id); ok {
			page = sql.NullString{String: v, Valid: true}
		}

		// the flag, not the row count, records that the seen set exists;
		// an empty set must survive the roundtrip or the feed would fall
		// back into first-check suppression
		set, hasSeen := st.PreviousEntries(id)
		seenInit := 0
		if hasSeen {
			seenInit = 1
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feed_state (feed_id, next_update, page_contents, seen_initialized) VALUES (?, ?, ?, ?)
			 ON CONFLICT(feed_id) DO UPDATE SET next_update = excluded.next_update, page_contents = excluded.page_contents, seen_initialized = excluded.seen_initialized`,
			string(id), next, page, seenInit,
		); err != nil {
			return fmt.Errorf("upsert feed state: %w", err)
		}

		if !hasSeen {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM seen_entries WHERE feed_id = ?`, string(id),
		); err != nil {
			return fmt.Errorf("delete seen entries: %w", err)
		}
		for entryID, expiry := range set {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO seen_entries (feed_id, entry_id, expires_at) VALUES (?, ?, ?)`,
				string(id), entryID, expiry,
			); err != nil {
				return fmt.Errorf("insert seen entry: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	st.ClearDirty()
	return nil
}
