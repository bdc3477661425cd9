package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Upload kinds. Cleanup uploads use an empty station; analytics uploads are
// keyed by station code.
const (
	UploadMMI     = "mmi"
	UploadTable   = "table"
	UploadBarcode = "barcode"
	UploadError   = "error"
	UploadSQL     = "sql"
)

// SaveUpload stores (or replaces) an uploaded payload.
func SaveUpload(db *sqlx.DB, kind, station, filename string, content []byte) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO uploads (kind, station, filename, content) VALUES (?, ?, ?, ?)`,
		kind, station, filename, content)
	if err != nil {
		return fmt.Errorf("failed to save %s upload: %w", kind, err)
	}
	return nil
}

// GetUpload returns a stored payload, ErrNotFound when absent.
func GetUpload(db *sqlx.DB, kind, station string) (string, []byte, error) {
	var row struct {
		Filename string `db:"filename"`
		Content  []byte `db:"content"`
	}
	err := db.Get(&row, `SELECT filename, content FROM uploads WHERE kind = ? AND station = ?`, kind, station)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load %s upload: %w", kind, err)
	}
	return row.Filename, row.Content, nil
}

// StationUpload lists one stored analytics file.
type StationUpload struct {
	Station  string `db:"station"`
	Kind     string `db:"kind"`
	Filename string `db:"filename"`
}

// ListStationUploads returns all analytics uploads, grouped by station in
// the handler.
func ListStationUploads(db *sqlx.DB) ([]StationUpload, error) {
	var uploads []StationUpload
	err := db.Select(&uploads, `
		SELECT station, kind, filename FROM uploads
		WHERE station != ''
		ORDER BY station, kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to list station uploads: %w", err)
	}
	return uploads, nil
}

// DeleteStationUploads clears the analytics side only.
func DeleteStationUploads(db *sqlx.DB) error {
	if _, err := db.Exec(`DELETE FROM uploads WHERE station != ''`); err != nil {
		return fmt.Errorf("failed to delete station uploads: %w", err)
	}
	return nil
}
