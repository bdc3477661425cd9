package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mmiclean/model"
)

// ReplaceChanges swaps the ledger for a freshly generated proposal set.
// Pipeline order is preserved via the position column.
func ReplaceChanges(db *sqlx.DB, changes []model.Change) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM changes`); err != nil {
		return fmt.Errorf("failed to clear changes: %w", err)
	}

	const q = `INSERT INTO changes
		(position, id, issue_type, action, status, row_id, timestamp, description, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, c := range changes {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode change %s: %w", c.ID, err)
		}
		if _, err := tx.Exec(q, i, c.ID, string(c.IssueType), string(c.Action), string(c.Status),
			c.RowID, c.Timestamp, c.Description, string(payload)); err != nil {
			return fmt.Errorf("failed to insert change %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}
	return nil
}

func decodeChange(payload, status string) (model.Change, error) {
	var c model.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return model.Change{}, fmt.Errorf("failed to decode change payload: %w", err)
	}
	// The status column is authoritative; the payload keeps its creation
	// snapshot.
	c.Status = model.Status(status)
	return c, nil
}

// ListChanges returns proposals in pipeline order, optionally filtered by
// issue type and/or status. Empty filter strings match everything.
func ListChanges(db *sqlx.DB, issueType, status string) ([]model.Change, error) {
	query := `SELECT payload, status FROM changes WHERE 1=1`
	var args []interface{}
	if issueType != "" {
		query += ` AND issue_type = ?`
		args = append(args, issueType)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY position`

	rows, err := db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var changes []model.Change
	for rows.Next() {
		var payload, st string
		if err := rows.Scan(&payload, &st); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		c, err := decodeChange(payload, st)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// GetChange returns one proposal by id, ErrNotFound when unknown.
func GetChange(db *sqlx.DB, id string) (model.Change, error) {
	var row struct {
		Payload string `db:"payload"`
		Status  string `db:"status"`
	}
	err := db.Get(&row, `SELECT payload, status FROM changes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Change{}, ErrNotFound
	}
	if err != nil {
		return model.Change{}, fmt.Errorf("failed to load change %s: %w", id, err)
	}
	return decodeChange(row.Payload, row.Status)
}

// SetChangeStatus moves one proposal to the given status. Setting a status
// the proposal already has is a no-op, not an error; an unknown id is
// ErrNotFound. Returns the updated proposal.
func SetChangeStatus(db *sqlx.DB, id string, status model.Status) (model.Change, error) {
	res, err := db.Exec(`UPDATE changes SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return model.Change{}, fmt.Errorf("failed to update change %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Change{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		// SQLite reports a row as affected even when the new value equals
		// the old one, so zero rows means the id does not exist.
		return model.Change{}, ErrNotFound
	}
	return GetChange(db, id)
}

// SetAllPending moves every pending proposal to the given status and
// returns the number affected.
func SetAllPending(db *sqlx.DB, status model.Status) (int, error) {
	res, err := db.Exec(`UPDATE changes SET status = ? WHERE status = ?`,
		string(status), string(model.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to update pending changes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read update result: %w", err)
	}
	return int(affected), nil
}

// ChangeStats are the ledger counts grouped three ways.
type ChangeStats struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"byType"`
	ByStatus map[string]int `json:"byStatus"`
	ByAction map[string]int `json:"byAction"`
}

func CountChanges(db *sqlx.DB) (ChangeStats, error) {
	stats := ChangeStats{
		ByType: make(map[string]int),
		ByStatus: map[string]int{
			string(model.StatusPending):  0,
			string(model.StatusApproved): 0,
			string(model.StatusRejected): 0,
		},
		ByAction: map[string]int{
			string(model.ActionDelete): 0,
			string(model.ActionUpdate): 0,
			string(model.ActionFlag):   0,
		},
	}

	rows, err := db.Queryx(`SELECT issue_type, status, action FROM changes`)
	if err != nil {
		return stats, fmt.Errorf("failed to query change counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueType, status, action string
		if err := rows.Scan(&issueType, &status, &action); err != nil {
			return stats, fmt.Errorf("failed to scan change counts: %w", err)
		}
		stats.Total++
		stats.ByType[issueType]++
		stats.ByStatus[status]++
		stats.ByAction[action]++
	}
	return stats, rows.Err()
}

// ClearChanges drops the ledger (used when a new upload invalidates it).
func ClearChanges(db *sqlx.DB) error {
	if _, err := db.Exec(`DELETE FROM changes`); err != nil {
		return fmt.Errorf("failed to clear changes: %w", err)
	}
	return nil
}
