// Package changes holds the change ledger surface: review handlers and the
// re-materialization of cleaned outputs from approved proposals.
package changes

import (
	"strings"

	"mmiclean/model"
)

// diffFields returns only the fields that actually differ between the
// before and after snapshots of an UPDATE.
func diffFields(before, after map[string]string) map[string]string {
	diff := make(map[string]string)
	for key, newVal := range after {
		if before[key] != newVal {
			diff[key] = newVal
		}
	}
	return diff
}

// MaterializeTable applies approved proposals to the record snapshot and
// returns the cleaned table. DELETE removes the row by identity key; UPDATE
// overwrites only the fields that differ between before and after, so
// unrelated edits to other fields survive; FLAG is never auto-applied.
// The input records are not mutated.
func MaterializeTable(records []model.Record, approved []model.Change) []model.Record {
	deletes := make(map[string]struct{})
	updates := make(map[string]map[string]string)

	for _, c := range approved {
		if c.Status != model.StatusApproved {
			continue
		}
		switch c.Action {
		case model.ActionDelete:
			deletes[c.RowID] = struct{}{}
		case model.ActionUpdate:
			if c.After == nil {
				continue
			}
			fields := updates[c.RowID]
			if fields == nil {
				fields = make(map[string]string)
				updates[c.RowID] = fields
			}
			for key, val := range diffFields(c.Before, c.After) {
				fields[key] = val
			}
		}
	}

	cleaned := make([]model.Record, 0, len(records))
	for _, row := range records {
		id := row.ID()
		if _, gone := deletes[id]; gone {
			continue
		}
		if fields, ok := updates[id]; ok {
			values := row.Snapshot()
			for key, val := range fields {
				values[key] = val
			}
			row = model.Record{Columns: row.Columns, Values: values}
		}
		cleaned = append(cleaned, row)
	}
	return cleaned
}

// MaterializeLog removes the duplicate-insert lines named by approved
// DUPLICATE_INSERT proposals, keeping each run's first occurrence. All
// other lines pass through byte-for-byte in original order.
func MaterializeLog(raw string, approved []model.Change) string {
	remove := make(map[int]struct{})
	for _, c := range approved {
		if c.Status != model.StatusApproved || c.IssueType != model.IssueDuplicateInsert {
			continue
		}
		if len(c.EvidenceLines) < 2 {
			continue
		}
		for _, ln := range c.EvidenceLines[1:] {
			remove[ln] = struct{}{}
		}
	}

	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for i, line := range lines {
		if _, gone := remove[i+1]; gone {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}
