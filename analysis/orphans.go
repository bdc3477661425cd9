package analysis

import (
	"fmt"

	"mmiclean/config"
	"mmiclean/model"
)

var psaImageColumns = []string{"PSA_TAPE_PIC", "POWER_BOARD_PSA_PIC", "BATTERY_PSA_PIC"}

// FindOrphanRows detects rows with PSA images but no serial numbers: the
// data-shift pattern left behind when the 6101 PLC flag fires twice and a
// blank row is recorded. The detector proposes DELETE; the operator can
// still reject it.
func FindOrphanRows(events []model.Event, records []model.Record, cfg config.Config) []model.Change {
	var changes []model.Change
	for _, row := range records {
		if !row.Empty("POWER_BOARD_SN") || !row.Empty("BATTERY_SN") {
			continue
		}
		hasAnyPSA := false
		for _, col := range psaImageColumns {
			if !row.Empty(col) {
				hasAnyPSA = true
				break
			}
		}
		if !hasAnyPSA {
			continue
		}

		rowID := row.ID()
		timestamp := extractTime(row.Get("DATE"))

		c := model.Change{
			ID:          fmt.Sprintf("orphan_%s", rowID),
			IssueType:   model.IssueOrphanRow,
			Description: fmt.Sprintf("Row %s has PSA images but no serial numbers", rowID),
			Timestamp:   timestamp,
			Action:      model.ActionDelete,
			RowID:       rowID,
			Before:      row.Snapshot(),
			Status:      model.StatusPending,
		}
		attachEvidence(&c, findInsertsNearTime(events, timestamp, cfg.InsertEvidenceWindow))
		changes = append(changes, c)
	}
	return changes
}
