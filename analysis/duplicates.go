package analysis

import (
	"fmt"

	"mmiclean/config"
	"mmiclean/model"
)

// duplicateKeyColumns are the fields that must match, beyond the DATE cell,
// for two adjacent rows to count as one double-fired insert.
var duplicateKeyColumns = []string{"POWER_BOARD_SN", "BATTERY_SN", "PSA_TAPE_PIC"}

// FindDuplicateRows detects adjacent rows written twice by a double PLC
// trigger: identical DATE cell and identical key fields. The second row is
// proposed for deletion, with the nearby INSERT log lines attached.
func FindDuplicateRows(events []model.Event, records []model.Record, cfg config.Config) []model.Change {
	var changes []model.Change
	for i := 1; i < len(records); i++ {
		curr, prev := records[i], records[i-1]

		if curr.Get("DATE") == "" || curr.Get("DATE") != prev.Get("DATE") {
			continue
		}
		same := true
		for _, col := range duplicateKeyColumns {
			if curr.Get(col) != prev.Get(col) {
				same = false
				break
			}
		}
		if !same {
			continue
		}

		rowID := curr.ID()
		timestamp := extractTime(curr.Get("DATE"))

		c := model.Change{
			ID:          fmt.Sprintf("duplicate_%s", rowID),
			IssueType:   model.IssueDuplicateInsert,
			Description: fmt.Sprintf("Row %s is duplicate of %s at %s", rowID, prev.ID(), timestamp),
			Timestamp:   timestamp,
			Action:      model.ActionDelete,
			RowID:       rowID,
			Before:      curr.Snapshot(),
			DuplicateOf: prev.ID(),
			Status:      model.StatusPending,
		}
		attachEvidence(&c, findInsertsNearTime(events, timestamp, cfg.InsertEvidenceWindow))
		changes = append(changes, c)
	}
	return changes
}
