package cache

import (
	"database/sql"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// index tracks every disk entry in a SQLite database at the cache root.
// It exists so prefix invalidation and LRU eviction under the disk byte
// budget work without walking the directory tree.
type index struct {
	db *sql.DB
}

const indexMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	hash       TEXT PRIMARY KEY,
	tag        TEXT NOT NULL,
	canonical  TEXT NOT NULL,
	bytes      INTEGER NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_canonical ON cache_entries(canonical);
CREATE INDEX IF NOT EXISTS idx_cache_entries_fetched_at ON cache_entries(fetched_at);
`

func openIndex(root string) (*index, error) {
	db, err := sql.Open("sqlite", filepath.Join(root, "index.db"))
	if err != nil {
		return nil, eris.Wrap(err, "cache: open index")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	if _, err := db.Exec(indexMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: migrate index")
	}
	return &index{db: db}, nil
}

func (ix *index) close() error { return ix.db.Close() }

// upsert records an entry's location and size.
func (ix *index) upsert(key Key, byteCount int, source string, fetchedAt time.Time) error {
	_, err := ix.db.Exec(`
		INSERT INTO cache_entries (hash, tag, canonical, bytes, source, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET
			bytes = excluded.bytes,
			source = excluded.source,
			fetched_at = excluded.fetched_at`,
		key.Hash(), key.Tag, key.Canonical, byteCount, source, fetchedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "cache: index upsert")
	}
	return nil
}

func (ix *index) delete(hash string) error {
	_, err := ix.db.Exec(`DELETE FROM cache_entries WHERE hash = ?`, hash)
	if err != nil {
		return eris.Wrap(err, "cache: index delete")
	}
	return nil
}

// indexedEntry is a row handed back for purging.
type indexedEntry struct {
	Hash string
	Tag  string
}

// byPrefix returns entries for a tag whose canonical form contains the
// partial string (empty partial matches every entry under the tag).
func (ix *index) byPrefix(tag, partial string) ([]indexedEntry, error) {
	rows, err := ix.db.Query(`
		SELECT hash, tag FROM cache_entries
		WHERE tag = ? AND (? = '' OR instr(canonical, ?) > 0)`,
		tag, partial, partial,
	)
	if err != nil {
		return nil, eris.Wrap(err, "cache: index prefix query")
	}
	defer rows.Close()
	return scanEntries(rows)
}

// overBudget returns the oldest entries, dropping which would bring total
// bytes back under maxBytes. Returns nil when already under budget.
func (ix *index) overBudget(maxBytes int64) ([]indexedEntry, error) {
	var total sql.NullInt64
	if err := ix.db.QueryRow(`SELECT SUM(bytes) FROM cache_entries`).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "cache: index total bytes")
	}
	if !total.Valid || total.Int64 <= maxBytes {
		return nil, nil
	}
	excess := total.Int64 - maxBytes

	rows, err := ix.db.Query(`SELECT hash, tag, bytes FROM cache_entries ORDER BY fetched_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "cache: index lru query")
	}
	defer rows.Close()

	var victims []indexedEntry
	var freed int64
	for rows.Next() {
		var e indexedEntry
		var b int64
		if err := rows.Scan(&e.Hash, &e.Tag, &b); err != nil {
			return nil, eris.Wrap(err, "cache: index lru scan")
		}
		victims = append(victims, e)
		freed += b
		if freed >= excess {
			break
		}
	}
	return victims, rows.Err()
}

// clear drops every row. Used on manifest schema mismatch.
func (ix *index) clear() error {
	_, err := ix.db.Exec(`DELETE FROM cache_entries`)
	if err != nil {
		return eris.Wrap(err, "cache: index clear")
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]indexedEntry, error) {
	var out []indexedEntry
	for rows.Next() {
		var e indexedEntry
		if err := rows.Scan(&e.Hash, &e.Tag); err != nil {
			return nil, eris.Wrap(err, "cache: index scan")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
