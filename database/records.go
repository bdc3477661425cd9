package database

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mmiclean/model"
)

// ReplaceRecords swaps the tabular snapshot for a freshly parsed one.
// Original row order is preserved via the position column.
func ReplaceRecords(db *sqlx.DB, records []model.Record, columns []string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM record_columns`); err != nil {
		return fmt.Errorf("failed to clear record columns: %w", err)
	}

	for i, name := range columns {
		if _, err := tx.Exec(`INSERT INTO record_columns (idx, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("failed to insert column %q: %w", name, err)
		}
	}

	for i, rec := range records {
		doc, err := json.Marshal(rec.Values)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		if _, err := tx.Exec(`INSERT INTO records (position, row_id, doc) VALUES (?, ?, ?)`,
			i, rec.ID(), string(doc)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}
	return nil
}

// LoadRecords returns the snapshot in original row order.
func LoadRecords(db *sqlx.DB) ([]model.Record, error) {
	columns, err := LoadColumns(db)
	if err != nil {
		return nil, err
	}

	rows, err := db.Queryx(`SELECT doc FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		values := make(map[string]string)
		if err := json.Unmarshal([]byte(doc), &values); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, model.Record{Columns: columns, Values: values})
	}
	return records, rows.Err()
}

func LoadColumns(db *sqlx.DB) ([]string, error) {
	var columns []string
	if err := db.Select(&columns, `SELECT name FROM record_columns ORDER BY idx`); err != nil {
		return nil, fmt.Errorf("failed to query record columns: %w", err)
	}
	return columns, nil
}

func CountRecords(db *sqlx.DB) (int, error) {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM records`); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}
