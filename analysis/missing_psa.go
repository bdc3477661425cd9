package analysis

import (
	"fmt"

	"mmiclean/config"
	"mmiclean/model"
	"mmiclean/timeparse"
)

// FindMissingPSATape flags rows whose PSA_TAPE_PIC is empty while other
// station data is present. The fix searches the log for the CAM4 tape
// capture that should have been recorded; the first event inside the
// search window wins. Without a candidate the row is flagged for a human.
func FindMissingPSATape(events []model.Event, records []model.Record, cfg config.Config) []model.Change {
	var psaTapeEvents []model.Event
	for _, ev := range events {
		if ev.Type == model.EventCam4PSATape {
			psaTapeEvents = append(psaTapeEvents, ev)
		}
	}

	var changes []model.Change
	for _, row := range records {
		if !row.Empty("PSA_TAPE_PIC") {
			continue
		}
		if row.Empty("POWER_BOARD_SN") && row.Empty("BATTERY_SN") {
			continue
		}

		rowID := row.ID()
		timestamp := extractTime(row.Get("DATE"))

		var suggested string
		var evidence []model.Event
		for _, ev := range psaTapeEvents {
			if timeparse.Close(ev.Timestamp, timestamp, cfg.PSASearchWindow) {
				suggested = ev.Image
				evidence = append(evidence, ev)
				break
			}
		}
		evidence = append(evidence, findInsertsNearTime(events, timestamp, cfg.InsertEvidenceWindow)...)

		c := model.Change{
			ID:             fmt.Sprintf("missing_psa_%s", rowID),
			IssueType:      model.IssueMissingPSATape,
			Description:    fmt.Sprintf("PSA_TAPE_PIC is empty for row %s", rowID),
			Timestamp:      timestamp,
			Action:         model.ActionFlag,
			RowID:          rowID,
			Before:         row.Snapshot(),
			SuggestedValue: suggested,
			Status:         model.StatusPending,
		}
		if suggested != "" {
			c.Action = model.ActionUpdate
			after := row.Snapshot()
			after["PSA_TAPE_PIC"] = suggested
			c.After = after
		}
		attachEvidence(&c, evidence)
		changes = append(changes, c)
	}
	return changes
}
