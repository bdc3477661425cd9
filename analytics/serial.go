package analytics

import (
	"sort"

	"mmiclean/config"
	"mmiclean/model"
	"mmiclean/stats"
)

// AnalyzeSerial builds the unit-by-unit cycle report for one station from
// its scan events. Only first sightings of each serial count as units. A
// gap above the stoppage threshold marks a stoppage boundary; the unit
// after the gap starts a new production run. Returns nil when fewer than
// two units exist.
func AnalyzeSerial(metrics model.StationMetrics, station model.Station, cfg config.Config) *model.SerialAnalysis {
	var snEvents []model.StationEvent
	for _, ev := range metrics.Events {
		if ev.SN != "" && ev.Category == "Scan" {
			snEvents = append(snEvents, ev)
		}
	}
	if len(snEvents) < 2 {
		return nil
	}

	var units []model.SerialUnit
	seen := make(map[string]bool)
	for _, ev := range snEvents {
		if seen[ev.SN] {
			continue
		}
		seen[ev.SN] = true

		gap := 0
		if len(units) > 0 {
			gap = ev.TimeSec - units[len(units)-1].TimeSec
		}
		units = append(units, model.SerialUnit{
			N:          len(units) + 1,
			Time:       ev.TimeStr,
			TimeSec:    ev.TimeSec,
			SN:         ev.SN,
			Gap:        gap,
			IsStoppage: gap > cfg.StoppageThreshold,
			IsBuffer:   gap > 0 && gap < cfg.BufferThreshold,
		})
	}
	if len(units) < 2 {
		return nil
	}

	return &model.SerialAnalysis{
		Station: station,
		Units:   units,
		Runs:    buildRuns(units),
		Stats:   buildSerialStats(units),
	}
}

// buildRuns segments the unit sequence at stoppage boundaries. Each
// stoppage unit begins a new run, and the trailing segment is always
// emitted, so every unit belongs to exactly one run.
func buildRuns(units []model.SerialUnit) []model.ProductionRun {
	runs := []model.ProductionRun{}

	emit := func(segment []model.SerialUnit, stoppageGap int) {
		if len(segment) == 0 {
			return
		}
		duration := segment[len(segment)-1].TimeSec - segment[0].TimeSec
		uph := 0.0
		if duration > 0 {
			uph = float64(len(segment)) / float64(duration) * 3600
		}
		runs = append(runs, model.ProductionRun{
			RunNumber:    len(runs) + 1,
			StartTime:    segment[0].Time,
			EndTime:      segment[len(segment)-1].Time,
			NumUnits:     len(segment),
			DurationSec:  duration,
			UPH:          uph,
			StoppageTime: stoppageGap,
		})
	}

	start := 0
	for i, u := range units {
		if i > start && u.IsStoppage {
			emit(units[start:i], u.Gap)
			start = i
		}
	}
	emit(units[start:], 0)
	return runs
}

func buildSerialStats(units []model.SerialUnit) model.SerialStats {
	var gaps []int
	stoppages, bufferClears, totalStoppage := 0, 0, 0
	for _, u := range units[1:] {
		if u.Gap > 0 {
			gaps = append(gaps, u.Gap)
		}
		if u.IsStoppage {
			stoppages++
			totalStoppage += u.Gap
		}
		if u.IsBuffer {
			bufferClears++
		}
	}

	s := model.SerialStats{
		TotalUnits:        len(units),
		Stoppages:         stoppages,
		BufferClears:      bufferClears,
		TotalStoppageTime: totalStoppage,
	}
	if len(gaps) > 0 {
		sort.Ints(gaps)
		s.MinGap = gaps[0]
		s.MaxGap = gaps[len(gaps)-1]

		floats := make([]float64, len(gaps))
		for i, g := range gaps {
			floats[i] = float64(g)
		}
		s.MedianGap = stats.Median(floats)
		s.MeanGap = stats.Mean(floats)
	}
	return s
}
