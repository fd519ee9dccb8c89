package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	"transitraptor.dev/internal/models"
	"transitraptor.dev/internal/timetable"
)

// cachedFeed is the opaque blob's decoded shape: the raw feed entities a
// Builder needs to reproduce a Store, not the built Store itself, so the
// cache format never has to mirror Store's internal layout.
type cachedFeed struct {
	Stops     []timetable.RawStop
	Trips     []timetable.RawTrip
	Transfers []timetable.RawTransfer
	Defaults  models.Defaults
	BuiltAt   time.Time
}

// DiskCache persists one gob-encoded, zstd-compressed feed snapshot in a
// single-row SQLite table, a concrete realisation of spec.md section 6's
// "optionally cached to disk as an opaque blob (format unspecified)",
// grounded on the teacher's gtfsdb SQLite-backed cache of parsed feed data.
type DiskCache struct {
	db *sql.DB
}

const diskCacheSchema = `
CREATE TABLE IF NOT EXISTS snapshot_cache (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	built_at INTEGER NOT NULL,
	payload BLOB NOT NULL
)`

// OpenDiskCache opens (creating if necessary) a SQLite database at path for
// use as a snapshot cache.
func OpenDiskCache(path string) (*DiskCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot disk cache: %w", err)
	}
	if _, err := db.Exec(diskCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot disk cache schema: %w", err)
	}
	return &DiskCache{db: db}, nil
}

// Close closes the underlying database handle.
func (c *DiskCache) Close() error { return c.db.Close() }

// Save gob-encodes and zstd-compresses the raw feed entities a Store was
// built from, replacing any previously cached payload.
func (c *DiskCache) Save(ctx context.Context, stops []timetable.RawStop, trips []timetable.RawTrip, transfers []timetable.RawTransfer, defaults models.Defaults, builtAt time.Time) error {
	feed := cachedFeed{Stops: stops, Trips: trips, Transfers: transfers, Defaults: defaults, BuiltAt: builtAt}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(feed); err != nil {
		return fmt.Errorf("encoding snapshot cache payload: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw.Bytes(), nil)

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO snapshot_cache (id, built_at, payload) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET built_at = excluded.built_at, payload = excluded.payload`,
		builtAt.Unix(), compressed)
	if err != nil {
		return fmt.Errorf("writing snapshot cache payload: %w", err)
	}
	return nil
}

// Load returns the cached feed entities and whether a payload was present.
func (c *DiskCache) Load(ctx context.Context) (stops []timetable.RawStop, trips []timetable.RawTrip, transfers []timetable.RawTransfer, defaults models.Defaults, builtAt time.Time, ok bool, err error) {
	var compressed []byte
	var builtAtUnix int64
	row := c.db.QueryRowContext(ctx, `SELECT built_at, payload FROM snapshot_cache WHERE id = 1`)
	if scanErr := row.Scan(&builtAtUnix, &compressed); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return nil, nil, nil, models.Defaults{}, time.Time{}, false, nil
		}
		return nil, nil, nil, models.Defaults{}, time.Time{}, false, fmt.Errorf("reading snapshot cache payload: %w", scanErr)
	}

	dec, decErr := zstd.NewReader(nil)
	if decErr != nil {
		return nil, nil, nil, models.Defaults{}, time.Time{}, false, fmt.Errorf("creating zstd decoder: %w", decErr)
	}
	defer dec.Close()
	raw, decErr := dec.DecodeAll(compressed, nil)
	if decErr != nil {
		return nil, nil, nil, models.Defaults{}, time.Time{}, false, fmt.Errorf("decompressing snapshot cache payload: %w", decErr)
	}

	var feed cachedFeed
	if decodeErr := gob.NewDecoder(bytes.NewReader(raw)).Decode(&feed); decodeErr != nil {
		return nil, nil, nil, models.Defaults{}, time.Time{}, false, fmt.Errorf("decoding snapshot cache payload: %w", decodeErr)
	}

	return feed.Stops, feed.Trips, feed.Transfers, feed.Defaults, time.Unix(builtAtUnix, 0).UTC(), true, nil
}
