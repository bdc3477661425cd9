package analysis

import (
	"fmt"
	"strings"

	"mmiclean/model"
	"mmiclean/timeparse"
)

// Error-table columns. The detector only runs when the uploaded table
// carries ErrorCodeColumn; ordinary production exports skip it.
const (
	ErrorCodeColumn  = "ERROR_CODE"
	ErrorTimeColumn  = "ERROR_TIME"
	ErrorClearColumn = "CLEAR_TIME"
)

// FindErrorEventMismatches cross-checks an error export against the MMI
// error events. Three independent checks per row: an error with no MMI
// counterpart in the same HH:MM bucket is flagged; an exact code+timestamp
// duplicate of an earlier row is deleted; a set time without a clear time
// gets a suggested clear time from the first matching clear event, or a
// flag when none exists.
func FindErrorEventMismatches(events []model.Event, records []model.Record) []model.Change {
	if len(records) == 0 || !records[0].HasColumn(ErrorCodeColumn) {
		return nil
	}

	var errorEvents, clearEvents []model.Event
	for _, ev := range events {
		switch ev.Type {
		case model.EventError:
			errorEvents = append(errorEvents, ev)
		case model.EventErrorClear:
			clearEvents = append(clearEvents, ev)
		}
	}

	var changes []model.Change
	seen := make(map[string]string) // code|set-time -> first row id

	for _, row := range records {
		code := row.Get(ErrorCodeColumn)
		if code == "" {
			continue
		}
		rowID := row.ID()
		setTime := extractTime(row.Get(ErrorTimeColumn))
		clearTime := row.Get(ErrorClearColumn)

		dupKey := code + "|" + setTime
		if firstID, dup := seen[dupKey]; dup {
			c := model.Change{
				ID:          fmt.Sprintf("error_duplicate_%s", rowID),
				IssueType:   model.IssueErrorEventMismatch,
				Description: fmt.Sprintf("Error row %s duplicates %s (code %s at %s)", rowID, firstID, code, setTime),
				Timestamp:   setTime,
				Action:      model.ActionDelete,
				RowID:       rowID,
				Before:      row.Snapshot(),
				DuplicateOf: firstID,
				Status:      model.StatusPending,
			}
			attachEvidence(&c, nil)
			changes = append(changes, c)
			continue
		}
		seen[dupKey] = rowID

		// (a) no MMI error event in the same HH:MM bucket.
		var bucketMatches []model.Event
		for _, ev := range errorEvents {
			if timeparse.Prefix5(ev.Timestamp) == timeparse.Prefix5(setTime) {
				bucketMatches = append(bucketMatches, ev)
			}
		}
		if len(bucketMatches) == 0 {
			c := model.Change{
				ID:          fmt.Sprintf("error_nomatch_%s", rowID),
				IssueType:   model.IssueErrorEventMismatch,
				Description: fmt.Sprintf("Error row %s (code %s at %s) has no matching MMI error event", rowID, code, setTime),
				Timestamp:   setTime,
				Action:      model.ActionFlag,
				RowID:       rowID,
				Before:      row.Snapshot(),
				Status:      model.StatusPending,
			}
			attachEvidence(&c, nil)
			changes = append(changes, c)
		}

		// (c) set time without clear time.
		if setTime != "" && clearTime == "" {
			suggested, evidence := findClearTime(clearEvents, code, setTime)
			c := model.Change{
				ID:        fmt.Sprintf("error_noclear_%s", rowID),
				IssueType: model.IssueErrorEventMismatch,
				Description: fmt.Sprintf("Error row %s (code %s) has a set time but no clear time",
					rowID, code),
				Timestamp:          setTime,
				Action:             model.ActionFlag,
				RowID:              rowID,
				Before:             row.Snapshot(),
				SuggestedClearTime: suggested,
				Status:             model.StatusPending,
			}
			if suggested != "" {
				c.Action = model.ActionUpdate
				after := row.Snapshot()
				after[ErrorClearColumn] = suggested
				c.After = after
			}
			attachEvidence(&c, evidence)
			changes = append(changes, c)
		}
	}
	return changes
}

// findClearTime returns the timestamp of the first clear event at or after
// setTime whose content carries the error code.
func findClearTime(clearEvents []model.Event, code, setTime string) (string, []model.Event) {
	setSec, err := timeparse.Seconds(setTime)
	if err != nil {
		return "", nil
	}
	for _, ev := range clearEvents {
		evSec, err := timeparse.Seconds(ev.Timestamp)
		if err != nil || evSec < setSec {
			continue
		}
		if strings.Contains(ev.Content, code) {
			return ev.Timestamp, []model.Event{ev}
		}
	}
	return "", nil
}
