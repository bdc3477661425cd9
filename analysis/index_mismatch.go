package analysis

import (
	"fmt"
	"regexp"
	"strconv"

	"mmiclean/config"
	"mmiclean/model"
)

// The camera writes the SN image and the matching PSA image six frames
// apart, so a healthy row has psa_index == sn_index + 6.
const psaIndexOffset = 6

var trailingIndexPattern = regexp.MustCompile(`_(\d+)$`)

// trailingIndex extracts the numeric suffix of a filename-like value.
// ok is false when the value has no such suffix; the row is then skipped
// by the check rather than treated as an error.
func trailingIndex(value string) (idx, width int, ok bool) {
	m := trailingIndexPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	return n, len(m[1]), true
}

// rewriteTrailingIndex replaces the numeric suffix, preserving the filename
// prefix and the original digit width.
func rewriteTrailingIndex(value string, index, width int) string {
	return trailingIndexPattern.ReplaceAllString(value, fmt.Sprintf("_%0*d", width, index))
}

type indexedComponent struct {
	name   string
	snCol  string
	psaCol string
}

var indexedComponents = []indexedComponent{
	{name: "power", snCol: "POWER_BOARD_SN_PIC", psaCol: "POWER_BOARD_PSA_PIC"},
	{name: "battery", snCol: "BATTERY_SN_PIC", psaCol: "BATTERY_PSA_PIC"},
}

// FindIndexMismatches checks, per component, that the PSA image index sits
// at the expected offset from the SN image index, and proposes rewriting
// the PSA filename when it does not.
func FindIndexMismatches(events []model.Event, records []model.Record, cfg config.Config) []model.Change {
	var changes []model.Change
	for _, row := range records {
		for _, comp := range indexedComponents {
			snVal := row.Get(comp.snCol)
			psaVal := row.Get(comp.psaCol)
			if snVal == "" || psaVal == "" {
				continue
			}

			snIdx, _, snOK := trailingIndex(snVal)
			psaIdx, psaWidth, psaOK := trailingIndex(psaVal)
			if !snOK || !psaOK {
				continue
			}

			expected := snIdx + psaIndexOffset
			if psaIdx == expected {
				continue
			}

			rowID := row.ID()
			timestamp := extractTime(row.Get("DATE"))
			suggested := rewriteTrailingIndex(psaVal, expected, psaWidth)

			after := row.Snapshot()
			after[comp.psaCol] = suggested

			c := model.Change{
				ID:        fmt.Sprintf("index_mismatch_%s_%s", comp.name, rowID),
				IssueType: model.IssueIndexMismatch,
				Description: fmt.Sprintf("Row %s: %s index %d does not match %s index %d (expected %d)",
					rowID, comp.psaCol, psaIdx, comp.snCol, snIdx, expected),
				Timestamp:      timestamp,
				Action:         model.ActionUpdate,
				RowID:          rowID,
				Before:         row.Snapshot(),
				After:          after,
				Component:      comp.name,
				SNIndex:        snIdx,
				PSAIndex:       psaIdx,
				ExpectedIndex:  expected,
				SuggestedValue: suggested,
				Status:         model.StatusPending,
			}
			attachEvidence(&c, findCameraEventsNearTime(events, timestamp, cfg.CameraEvidenceWindow))
			changes = append(changes, c)
		}
	}
	return changes
}
