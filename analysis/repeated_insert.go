package analysis

import (
	"fmt"

	"mmiclean/config"
	"mmiclean/model"
	"mmiclean/timeparse"
)

// FindRepeatedInserts detects runs of three or more consecutive SQL INSERT
// events carrying a byte-identical VALUES payload, each within the repeat
// window of its neighbor. The first occurrence is kept; occurrences 2..N
// are proposed for deletion against the nearest-in-time table row.
//
// The row association is a positional-proximity heuristic: when record
// order diverges from event order a proposal can point at the wrong row,
// so the operator sees the full run as evidence before approving.
func FindRepeatedInserts(events []model.Event, records []model.Record, cfg config.Config) []model.Change {
	var inserts []model.Event
	for _, ev := range events {
		if ev.Type == model.EventSQLInsert && ev.RawValues != "" {
			inserts = append(inserts, ev)
		}
	}

	// Record times for the proximity match, in table order.
	var timedRows []timedRow
	for _, row := range records {
		sec, err := timeparse.Seconds(extractTime(row.Get("DATE")))
		if err != nil {
			continue
		}
		timedRows = append(timedRows, timedRow{row: row, sec: sec})
	}

	var changes []model.Change
	claimed := make(map[int]bool) // timedRows index -> already matched

	i := 0
	for i < len(inserts) {
		j := i + 1
		for j < len(inserts) &&
			inserts[j].RawValues == inserts[i].RawValues &&
			timeparse.Close(inserts[j].Timestamp, inserts[j-1].Timestamp, cfg.RepeatedInsertWindow) {
			j++
		}
		run := inserts[i:j]
		if len(run) < 3 {
			i = j
			continue
		}

		for _, occurrence := range run[1:] {
			c := model.Change{
				ID:        fmt.Sprintf("repeated_insert_%d", occurrence.LineNumber),
				IssueType: model.IssueRepeatedInsert,
				Description: fmt.Sprintf("INSERT at line %d repeats the statement first seen at line %d (%d occurrences)",
					occurrence.LineNumber, run[0].LineNumber, len(run)),
				Timestamp: occurrence.Timestamp,
				Action:    model.ActionFlag,
				Status:    model.StatusPending,
			}

			if idx, ok := nearestRow(timedRows, claimed, occurrence.Timestamp); ok {
				claimed[idx] = true
				c.Action = model.ActionDelete
				c.RowID = timedRows[idx].row.ID()
				c.Before = timedRows[idx].row.Snapshot()
			}

			attachEvidence(&c, run)
			changes = append(changes, c)
		}
		i = j
	}
	return changes
}

type timedRow struct {
	row model.Record
	sec int
}

// nearestRow picks the unclaimed row whose time is closest to the event
// time. Ties resolve to the earlier table position, keeping the output
// deterministic.
func nearestRow(rows []timedRow, claimed map[int]bool, timestamp string) (int, bool) {
	target, err := timeparse.Seconds(timestamp)
	if err != nil {
		return 0, false
	}
	best, bestDist := -1, 0
	for idx, tr := range rows {
		if claimed[idx] {
			continue
		}
		dist := tr.sec - target
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist {
			best, bestDist = idx, dist
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}
