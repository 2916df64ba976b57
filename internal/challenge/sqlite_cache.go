package challenge

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteCache is a file-backed Cache for client state that must survive a
// restart: the last-known history and the unsynced-delta markers.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (creating if needed) the cache database at path.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.Exec(`
create table if not exists kv (
  key   text primary key,
  value text not null
);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(key string) (string, bool, error) {
	var v string
	err := c.db.QueryRow(`select value from kv where key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *SQLiteCache) Put(key, value string) error {
	_, err := c.db.Exec(`
insert into kv (key, value) values (?, ?)
on conflict (key) do update set value = excluded.value`, key, value)
	return err
}

func (c *SQLiteCache) Delete(key string) error {
	_, err := c.db.Exec(`delete from kv where key = ?`, key)
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
