package parsers

import (
	"regexp"
	"strings"

	"mmiclean/model"
)

var linePattern = regexp.MustCompile(`^\[([^\]]+)\](.+)`)

// classifierRule pairs a match predicate with the event type it assigns and
// an optional field extractor. Rules are evaluated in order, first match
// wins. New station codes are added here, not as branching logic.
type classifierRule struct {
	kind    model.EventType
	match   func(content, upper string) bool
	extract func(content string, ev *model.Event)
}

var mmiRules = []classifierRule{
	{
		kind:  model.EventMMIStart,
		match: func(_, upper string) bool { return strings.Contains(upper, "MMI START") },
	},
	{
		kind:    model.EventSQLInsert,
		match:   func(content, _ string) bool { return strings.Contains(strings.ToLower(content), "insert into") },
		extract: extractInsert,
	},
	{
		kind:    model.EventCam2SN,
		match:   prefixMatch("+2,"),
		extract: extractCam2SN,
	},
	{
		kind:    model.EventCam3PRS,
		match:   prefixMatch("+3,"),
		extract: extractCam3PRS,
	},
	{
		kind:    model.EventCam4PSATape,
		match:   prefixMatch("+4,"),
		extract: extractStatusImage,
	},
	{
		kind:    model.EventCam2PSAPower,
		match:   prefixMatch("+5,"),
		extract: extractStatusImage,
	},
	{
		kind:    model.EventCam2PSABattery,
		match:   prefixMatch("+6,"),
		extract: extractStatusImage,
	},
	{
		kind:  model.EventPLCDM,
		match: func(_, upper string) bool { return strings.Contains(upper, "PLC DM") },
	},
	{
		kind:  model.EventTotalLog,
		match: func(_, upper string) bool { return strings.Contains(upper, "TOTAL LOG") },
	},
	{
		kind: model.EventErrorClear,
		match: func(_, upper string) bool {
			return isErrorContent(upper) && containsClearWord(upper)
		},
	},
	{
		kind:  model.EventError,
		match: func(_, upper string) bool { return isErrorContent(upper) },
	},
	{
		kind: model.EventPLCFlag,
		match: func(content, upper string) bool {
			return strings.Contains(content, "6101") || strings.Contains(upper, "FLAG")
		},
	},
}

func prefixMatch(prefix string) func(string, string) bool {
	return func(content, _ string) bool { return strings.HasPrefix(content, prefix) }
}

func isErrorContent(upper string) bool {
	return strings.Contains(upper, "ERROR") || strings.Contains(upper, "ALARM")
}

var clearWords = []string{"CLEAR", "RESET", "END", "RESOLVED", "OFF"}

func containsClearWord(upper string) bool {
	for _, w := range clearWords {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

// ParseMMILog tokenizes equipment log text into classified events. Line
// endings are normalized, blank lines skipped, and lines without a leading
// bracketed timestamp are silently dropped (separator noise is expected).
// LineNumber is the 1-based position in the original unfiltered line list.
func ParseMMILog(content string) []model.Event {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")

	var events []model.Event
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		ev := model.Event{
			LineNumber: i + 1,
			Timestamp:  m[1],
			Raw:        line,
			Content:    m[2],
			Type:       model.EventOther,
		}
		classify(&ev)
		events = append(events, ev)
	}
	return events
}

func classify(ev *model.Event) {
	upper := strings.ToUpper(ev.Content)
	for _, rule := range mmiRules {
		if rule.match(ev.Content, upper) {
			ev.Type = rule.kind
			if rule.extract != nil {
				rule.extract(ev.Content, ev)
			}
			return
		}
	}
}

var valuesPattern = regexp.MustCompile(`(?i)VALUES\s*\(([^)]+)\)`)

func extractInsert(content string, ev *model.Event) {
	m := valuesPattern.FindStringSubmatch(content)
	if m == nil {
		return
	}
	ev.RawValues = m[1]
	ev.Values = ParseInsertValues(m[1])
}

// +2,OK,SERIAL_NUMBER,IMAGE_PATH
func extractCam2SN(content string, ev *model.Event) {
	parts := strings.Split(content, ",")
	if len(parts) < 4 {
		return
	}
	ev.Status = parts[1]
	ev.Serial = parts[2]
	ev.Image = parts[3]
}

// +3,OK,val1,val2,val3,IMAGE_PATH
func extractCam3PRS(content string, ev *model.Event) {
	parts := strings.Split(content, ",")
	if len(parts) < 6 {
		return
	}
	ev.Status = parts[1]
	ev.PRSValues = parts[2] + "," + parts[3] + "," + parts[4]
	ev.Image = parts[5]
}

// +4/+5/+6,OK,IMAGE_PATH
func extractStatusImage(content string, ev *model.Event) {
	parts := strings.Split(content, ",")
	if len(parts) < 3 {
		return
	}
	ev.Status = parts[1]
	ev.Image = parts[2]
}
