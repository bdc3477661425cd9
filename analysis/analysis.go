// Package analysis cross-references parsed equipment-log events against the
// tabular export and produces change proposals. Detectors run in a fixed
// order and their outputs are concatenated, so re-running the pipeline on
// unchanged input yields an identical proposal list.
package analysis

import (
	"strings"

	"mmiclean/config"
	"mmiclean/model"
	"mmiclean/timeparse"
)

// FindAllIssues runs every detector over the event stream and record
// snapshot. Proposal ids are derived from issue type and row/line identity,
// never from run state.
func FindAllIssues(events []model.Event, records []model.Record, cfg config.Config) []model.Change {
	var changes []model.Change
	changes = append(changes, FindMissingPSATape(events, records, cfg)...)
	changes = append(changes, FindDuplicateRows(events, records, cfg)...)
	changes = append(changes, FindOrphanRows(events, records, cfg)...)
	changes = append(changes, FindIndexMismatches(events, records, cfg)...)
	changes = append(changes, FindErrorEventMismatches(events, records)...)
	changes = append(changes, FindRepeatedInserts(events, records, cfg)...)
	return changes
}

// extractTime pulls the wall-clock part out of a DATE cell. Cells arrive as
// either "2025-11-06 09:45:30" (optionally with fractional seconds) or a
// bare time string.
func extractTime(dateValue string) string {
	s := strings.TrimSpace(dateValue)
	if s == "" {
		return ""
	}
	if _, after, found := strings.Cut(s, " "); found {
		s = after
	}
	s, _, _ = strings.Cut(s, ".")
	return s
}

// findInsertsNearTime collects SQL INSERT events within the evidence window
// of a record's timestamp.
func findInsertsNearTime(events []model.Event, timestamp string, window int) []model.Event {
	var result []model.Event
	for _, ev := range events {
		if ev.Type != model.EventSQLInsert {
			continue
		}
		if timeparse.Close(ev.Timestamp, timestamp, window) {
			result = append(result, ev)
		}
	}
	return result
}

var cameraEventTypes = map[model.EventType]struct{}{
	model.EventCam2SN:         {},
	model.EventCam3PRS:        {},
	model.EventCam4PSATape:    {},
	model.EventCam2PSAPower:   {},
	model.EventCam2PSABattery: {},
}

// findCameraEventsNearTime collects camera events within the evidence
// window of a record's timestamp.
func findCameraEventsNearTime(events []model.Event, timestamp string, window int) []model.Event {
	var result []model.Event
	for _, ev := range events {
		if _, ok := cameraEventTypes[ev.Type]; !ok {
			continue
		}
		if timeparse.Close(ev.Timestamp, timestamp, window) {
			result = append(result, ev)
		}
	}
	return result
}

// attachEvidence copies event lines onto a change. Evidence is a weak
// back-reference: line numbers point into the original upload.
func attachEvidence(c *model.Change, events []model.Event) {
	if c.Evidence == nil {
		c.Evidence = []string{}
	}
	if c.EvidenceLines == nil {
		c.EvidenceLines = []int{}
	}
	for _, ev := range events {
		c.Evidence = append(c.Evidence, ev.Raw)
		c.EvidenceLines = append(c.EvidenceLines, ev.LineNumber)
	}
}
