package parsers

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mmiclean/model"
	"mmiclean/stats"
	"mmiclean/timeparse"
)

// Error log grammars differ per station family: BS/BA write
// [time][STATUS][code] message with OCCURED/CLEARED pairs, the downstream
// stations write "An ERROR"/"ERROR RESET" lines, and FVT uses 24-hour
// timestamps.
var (
	bsErrorPattern = regexp.MustCompile(`^\[(\d{1,2}:\d{2}:\d{2} [AP]M)\],?\s*\[([A-Z]+)\]\s*\[(\d+)\]\s*(.*)`)
	baErrorPattern = regexp.MustCompile(`^\[(\d{1,2}:\d{2}:\d{2} [AP]M)\]\[([A-Z]+)\]\s*\[(\d+)\]\s*(.*)`)
	fvErrorPattern = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2})\],\s*(An ERROR|ERROR RESET)\s*,\[(\d+)\],\s*(.*)`)
	trErrorPattern = regexp.MustCompile(`^\[(\d{1,2}:\d{2}:\d{2} [AP]M)\]\s*(An ERROR|ERROR RESET)\s*,\[?(\d+)\]?,\s*(.*)`)

	holdingTimePattern = regexp.MustCompile(`==> HOLDING TIME : \(\s*(\d+):(\d+):(\d+)\s*\)`)
)

// ParseErrorLog parses a station error log into paired error intervals and
// aggregate stats. startFilter is a seconds-since-midnight lower bound;
// negative disables it.
func ParseErrorLog(content, stationCode string, startFilter int) model.ErrorStats {
	switch stationCode {
	case "BS":
		return parseStatusCodeLog(content, stationCode, bsErrorPattern, startFilter)
	case "BA":
		return parseStatusCodeLog(content, stationCode, baErrorPattern, startFilter)
	case "FV":
		return parseOccurrenceLog(content, stationCode, fvErrorPattern, startFilter)
	default:
		return parseOccurrenceLog(content, stationCode, trErrorPattern, startFilter)
	}
}

type pendingError struct {
	interval model.ErrorInterval
}

// parseStatusCodeLog handles the [OCCURED]/[CLEARED] grammar. An error is
// only counted once its CLEARED line pairs it into an interval.
func parseStatusCodeLog(content, stationCode string, pattern *regexp.Regexp, startFilter int) model.ErrorStats {
	stationName := model.Stations[stationCode].Name
	pending := make(map[string]pendingError)
	var timeline []model.ErrorInterval

	for _, raw := range strings.Split(content, "\n") {
		m := pattern.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		tsStr, status, code, message := m[1], m[2], m[3], strings.TrimSpace(m[4])
		tsSec, err := timeparse.Seconds(tsStr)
		if err != nil {
			continue
		}
		if startFilter >= 0 && tsSec < startFilter {
			continue
		}
		if message == "" || message == "(null)" {
			continue
		}

		key := code + "_" + message
		switch status {
		case "OCCURED":
			pending[key] = pendingError{interval: model.ErrorInterval{
				Station:   stationName,
				Code:      code,
				Message:   message,
				StartTime: tsStr,
				StartSec:  tsSec,
			}}
		case "CLEARED":
			p, ok := pending[key]
			if !ok {
				continue
			}
			delete(pending, key)
			iv := p.interval
			iv.EndTime = tsStr
			iv.EndSec = tsSec
			iv.DurationSec = float64(tsSec - iv.StartSec)
			timeline = append(timeline, iv)
		}
	}

	return buildErrorStats(timeline, timeline)
}

// parseOccurrenceLog handles the "An ERROR"/"ERROR RESET" grammar, where
// the reset line may carry the hold duration explicitly.
func parseOccurrenceLog(content, stationCode string, pattern *regexp.Regexp, startFilter int) model.ErrorStats {
	stationName := model.Stations[stationCode].Name
	pending := make(map[string]pendingError)
	var timeline []model.ErrorInterval
	var occurrences []model.ErrorInterval

	for _, raw := range strings.Split(content, "\n") {
		m := pattern.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		tsStr, status, code, message := m[1], m[2], m[3], strings.TrimSpace(m[4])
		tsSec, err := timeparse.Seconds(tsStr)
		if err != nil {
			continue
		}
		if startFilter >= 0 && tsSec < startFilter {
			continue
		}

		durationFromLog := -1
		if hm := holdingTimePattern.FindStringSubmatch(message); hm != nil {
			h, _ := strconv.Atoi(hm[1])
			mi, _ := strconv.Atoi(hm[2])
			s, _ := strconv.Atoi(hm[3])
			durationFromLog = h*3600 + mi*60 + s
			message = strings.TrimSpace(strings.SplitN(message, "==>", 2)[0])
		}

		key := code + "_" + message
		switch status {
		case "An ERROR":
			iv := model.ErrorInterval{
				Station:   stationName,
				Code:      code,
				Message:   message,
				StartTime: tsStr,
				StartSec:  tsSec,
			}
			pending[key] = pendingError{interval: iv}
			occurrences = append(occurrences, iv)
		case "ERROR RESET":
			p, ok := pending[key]
			if !ok {
				continue
			}
			delete(pending, key)
			iv := p.interval
			iv.EndTime = tsStr
			iv.EndSec = tsSec
			if durationFromLog >= 0 {
				iv.DurationSec = float64(durationFromLog)
			} else {
				iv.DurationSec = float64(tsSec - iv.StartSec)
			}
			timeline = append(timeline, iv)
		}
	}

	return buildErrorStats(occurrences, timeline)
}

func buildErrorStats(occurrences, timeline []model.ErrorInterval) model.ErrorStats {
	byCode := make(map[string]int)
	for _, e := range occurrences {
		byCode[e.Code]++
	}

	var downtime float64
	for _, iv := range timeline {
		downtime += iv.DurationSec
	}

	var mtbf *model.MTBF
	if len(timeline) > 1 {
		starts := make([]int, len(timeline))
		for i, iv := range timeline {
			starts[i] = iv.StartSec
		}
		sort.Ints(starts)
		intervals := make([]float64, 0, len(starts)-1)
		for i := 1; i < len(starts); i++ {
			intervals = append(intervals, float64(starts[i]-starts[i-1])/60)
		}
		mtbf = &model.MTBF{Minutes: stats.Mean(intervals), Count: len(timeline)}
	}

	return model.ErrorStats{
		TotalErrors:      len(occurrences),
		UniqueCodes:      len(byCode),
		TotalDowntimeMin: downtime / 60,
		ErrorsByCode:     byCode,
		ErrorTimeline:    timeline,
		MTBF:             mtbf,
	}
}
