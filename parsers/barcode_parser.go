package parsers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"mmiclean/model"
	"mmiclean/stats"
	"mmiclean/timeparse"
)

var (
	barcodeLinePattern = regexp.MustCompile(`^\[(\d{1,2}:\d{2}:\d{2} [AP]M)\](.*)`)
	errorFieldPattern  = regexp.MustCompile(`^\+\d,1,`)
	dbRecordPattern    = regexp.MustCompile(`^\d+:`)
)

// stationRule classifies one scan-log line shape for a station. Rules run
// in order, first match wins; unmatched lines stay UNKNOWN/System.
type stationRule struct {
	eventType string
	category  string
	match     func(content string, fields []string) bool
	sn        func(fields []string) string
}

func prefixRule(eventType, category, prefix string) stationRule {
	return stationRule{
		eventType: eventType,
		category:  category,
		match:     func(content string, _ []string) bool { return strings.HasPrefix(content, prefix) },
	}
}

func dbRule() stationRule {
	return stationRule{
		eventType: "DB_Record",
		category:  "Database",
		match:     func(content string, _ []string) bool { return dbRecordPattern.MatchString(content) },
	}
}

func thirdField(fields []string) string {
	if len(fields) > 2 {
		return fields[2]
	}
	return ""
}

// barcodeRules maps a station code to its ordered scan-log rule table.
// Extending to a new station means adding an entry here.
var barcodeRules = map[string][]stationRule{
	"BS": {
		{
			eventType: "Bottom_Shell_SN", category: "Scan",
			match: func(content string, _ []string) bool { return strings.HasPrefix(content, "+1,") },
			sn: func(fields []string) string {
				if sn := thirdField(fields); strings.HasPrefix(sn, "B") {
					return sn
				}
				return ""
			},
		},
		prefixRule("Press", "Press", "+2,"),
		prefixRule("Component_SN", "Scan", "+3,"),
		dbRule(),
	},
	"BA": {
		{
			eventType: "Power_Board_SN", category: "Scan",
			match: func(content string, _ []string) bool { return strings.HasPrefix(content, "+2,0,F") },
			sn:    thirdField,
		},
		prefixRule("Battery_SN", "Scan", "+2,0,V"),
		prefixRule("PSA_Tape", "PSA", "+4,"),
		prefixRule("Power_Board_PSA", "PSA", "+5,"),
		prefixRule("Battery_PSA", "PSA", "+6,"),
		dbRule(),
	},
	"TR": transportStyleRules(),
	"TO": transportStyleRules(),
	"LA": transportStyleRules(),
	"FV": {
		{
			eventType: "SN_Scan", category: "Scan",
			match: func(content string, _ []string) bool {
				return strings.Contains(content, "SN") || strings.Contains(content, "Serial")
			},
		},
		{
			eventType: "Test_Result", category: "Process",
			match: func(content string, _ []string) bool {
				return strings.Contains(content, "PASS") || strings.Contains(content, "FAIL")
			},
		},
	},
}

func transportStyleRules() []stationRule {
	return []stationRule{
		{
			eventType: "SN_Scan", category: "Scan",
			match: func(content string, _ []string) bool {
				return strings.Contains(content, "+1,0,") || strings.Contains(content, "+3,0,")
			},
			sn: thirdField,
		},
		dbRule(),
	}
}

// ParseBarcodeLog parses a station scan log into classified events and the
// station's throughput metrics. startFilter is a seconds-since-midnight
// lower bound; pass a negative value to disable it.
func ParseBarcodeLog(content, stationCode string, startFilter int) model.StationMetrics {
	station := model.Stations[stationCode]
	rules := barcodeRules[stationCode]

	var (
		events       []model.StationEvent
		snTimestamps []int
		cycleTimes   []float64
	)
	seenSNs := make(map[string]struct{})
	snCounts := make(map[string]int)
	hourly := make(map[string]int)
	first, last := "", ""

	lines := strings.Split(content, "\n")
	for lineNum, raw := range lines {
		m := barcodeLinePattern.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		tsStr, contentPart := m[1], m[2]
		tsSec, err := timeparse.Seconds(tsStr)
		if err != nil {
			continue
		}
		if startFilter >= 0 && tsSec < startFilter {
			continue
		}

		if first == "" {
			first = tsStr
		}
		last = tsStr
		hourly[fmt.Sprintf("%02d", tsSec/3600)]++

		fields := strings.Split(contentPart, ",")
		ev := model.StationEvent{
			Station:     station.Name,
			StationCode: stationCode,
			TimeStr:     tsStr,
			TimeSec:     tsSec,
			EventType:   "UNKNOWN",
			Category:    "System",
			IsError:     errorFieldPattern.MatchString(contentPart),
			Content:     truncate(contentPart, 500),
			LineNum:     lineNum + 1,
		}

		for _, rule := range rules {
			if rule.match(contentPart, fields) {
				ev.EventType = rule.eventType
				ev.Category = rule.category
				if rule.sn != nil {
					ev.SN = rule.sn(fields)
				}
				break
			}
		}

		if ev.SN != "" {
			if _, seen := seenSNs[ev.SN]; !seen {
				seenSNs[ev.SN] = struct{}{}
				if len(snTimestamps) > 0 {
					gap := float64(tsSec - snTimestamps[len(snTimestamps)-1])
					if gap > 0 && gap < 300 {
						cycleTimes = append(cycleTimes, gap)
					}
				}
				snTimestamps = append(snTimestamps, tsSec)
			}
			snCounts[ev.SN]++
		}

		events = append(events, ev)
	}

	var duplicates []model.SNCount
	for sn, count := range snCounts {
		if count > 1 {
			duplicates = append(duplicates, model.SNCount{SN: sn, Count: count})
		}
	}
	sort.Slice(duplicates, func(i, j int) bool { return duplicates[i].Count > duplicates[j].Count })

	metrics := model.StationMetrics{
		Events:          events,
		TotalEvents:     len(events),
		CompletedUnits:  len(seenSNs),
		SNDuplicates:    len(duplicates),
		SNDuplicateList: capSNCounts(duplicates, 10),
		HourlyActivity:  hourly,
		FirstEvent:      first,
		LastEvent:       last,
	}
	for _, ev := range events {
		switch ev.Category {
		case "Scan":
			metrics.ScanEvents++
		case "Press":
			metrics.PressEvents++
		case "Database":
			metrics.DBEvents++
		}
	}
	if len(cycleTimes) > 0 {
		metrics.CycleTimeMedian = stats.Median(cycleTimes)
		metrics.CycleTimeMean = stats.Mean(cycleTimes)
		metrics.CycleTimeMax = stats.Max(cycleTimes)
	}
	return metrics
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func capSNCounts(counts []model.SNCount, n int) []model.SNCount {
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}
