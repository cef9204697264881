// Package store persists per-directory sort preferences and key/value
// settings in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/sortview/internal/debug"
	"github.com/justyntemme/sortview/internal/sortkey"
)

// SortPref is the ordering remembered for one directory.
type SortPref struct {
	Column    sortkey.Column
	Direction sortkey.Direction
}

// DB is a handle on the preference database. It is safe for concurrent use.
type DB struct {
	conn *sql.DB
	log  *debug.Logger
}

// NewDB returns an unopened database. log may be nil.
func NewDB(log *debug.Logger) *DB {
	return &DB{log: log}
}

// DefaultPath returns the database location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sortview", "sortview.db")
}

// Open initializes the database connection and schema.
func (d *DB) Open(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return errors.Wrap(err, "creating database directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}

	// WAL lets a watcher goroutine read while the CLI writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return errors.Wrap(err, "enabling WAL")
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return errors.Wrap(err, "setting synchronous mode")
	}

	schema := []string{`
	CREATE TABLE IF NOT EXISTS sort_prefs (
		path TEXT PRIMARY KEY,
		column_name TEXT NOT NULL,
		descending INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`, `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return errors.Wrap(err, "creating schema")
		}
	}

	d.conn = db
	d.log.Log(debug.STORE, "opened %s", dbPath)
	return nil
}

// LoadSort returns the preference stored for dir.
func (d *DB) LoadSort(ctx context.Context, dir string) (SortPref, bool, error) {
	var (
		name string
		desc bool
	)
	err := d.conn.QueryRowContext(ctx,
		"SELECT column_name, descending FROM sort_prefs WHERE path = ?", filepath.Clean(dir)).Scan(&name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return SortPref{}, false, nil
	}
	if err != nil {
		return SortPref{}, false, errors.Wrapf(err, "loading sort for %s", dir)
	}

	col, err := sortkey.ParseColumn(name)
	if err != nil {
		return SortPref{}, false, errors.Wrapf(err, "stored sort for %s", dir)
	}
	pref := SortPref{Column: col}
	if desc {
		pref.Direction = sortkey.Descending
	}
	d.log.Log(debug.STORE, "LoadSort: %s -> %s %s", dir, pref.Column, pref.Direction)
	return pref, true, nil
}

// SaveSort stores the preference for dir, replacing any previous one.
func (d *DB) SaveSort(ctx context.Context, dir string, pref SortPref) error {
	_, err := d.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO sort_prefs (path, column_name, descending, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
		filepath.Clean(dir), pref.Column.String(), pref.Direction == sortkey.Descending)
	if err != nil {
		return errors.Wrapf(err, "saving sort for %s", dir)
	}
	d.log.Log(debug.STORE, "SaveSort: %s <- %s %s", dir, pref.Column, pref.Direction)
	return nil
}

// DeleteSort forgets the preference for dir.
func (d *DB) DeleteSort(ctx context.Context, dir string) error {
	_, err := d.conn.ExecContext(ctx, "DELETE FROM sort_prefs WHERE path = ?", filepath.Clean(dir))
	return errors.Wrapf(err, "deleting sort for %s", dir)
}

// Settings returns every stored setting.
func (d *DB) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, errors.Wrap(err, "loading settings")
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(err, "reading setting")
		}
		settings[key] = value
	}
	return settings, errors.Wrap(rows.Err(), "loading settings")
}

// SaveSetting upserts one setting.
func (d *DB) SaveSetting(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return errors.Wrapf(err, "saving setting %s", key)
}

// Close releases the connection.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
