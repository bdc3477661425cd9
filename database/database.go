package database

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"mmiclean/model"
)

// ErrNotFound is returned for lookups of unknown change ids or uploads.
var ErrNotFound = errors.New("not found")

// Dataset is one analysis session: an in-memory SQLite database holding the
// uploaded payloads, the tabular record snapshot and the change ledger, plus
// the parsed equipment-log events (derived state, kept in memory).
//
// The dataset is shared mutable state with no internal locking: the tool
// assumes a single operator session per process. Concurrent uploads from
// multiple callers race; that is a documented limitation, not a target.
type Dataset struct {
	DB *sqlx.DB

	MMIEvents   []model.Event
	MMIFilename string

	TableFilename string

	Report          *model.Report
	StartTimeFilter string
}

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	kind     TEXT NOT NULL,
	station  TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL,
	content  BLOB NOT NULL,
	PRIMARY KEY (kind, station)
);

CREATE TABLE IF NOT EXISTS record_columns (
	idx  INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	position INTEGER PRIMARY KEY,
	row_id   TEXT NOT NULL,
	doc      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS changes (
	position    INTEGER NOT NULL,
	id          TEXT PRIMARY KEY,
	issue_type  TEXT NOT NULL,
	action      TEXT NOT NULL,
	status      TEXT NOT NULL,
	row_id      TEXT NOT NULL DEFAULT '',
	timestamp   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	payload     TEXT NOT NULL
);
`

// Open creates a fresh in-memory dataset. Nothing is written to disk, so
// all state ends with the process.
func Open() (*Dataset, error) {
	db, err := sqlx.Open("sqlite3", "file::memory:?cache=shared&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("dataset open error: %w", err)
	}
	// A :memory: database vanishes when its last connection closes; pin
	// the pool to one connection so every query sees the same database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset schema init failed: %w", err)
	}
	return &Dataset{DB: db}, nil
}

func (ds *Dataset) Close() error {
	return ds.DB.Close()
}

// Reset clears every table and all derived in-memory state.
func (ds *Dataset) Reset() error {
	for _, table := range []string{"uploads", "records", "record_columns", "changes"} {
		if _, err := ds.DB.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	ds.MMIEvents = nil
	ds.MMIFilename = ""
	ds.TableFilename = ""
	ds.Report = nil
	ds.StartTimeFilter = ""
	return nil
}
