// Package analytics holds the multi-station side of the tool: per-station
// scan and error log parsing, cross-station correlation, and unit-by-unit
// cycle analysis.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"mmiclean/model"
	"mmiclean/stats"
)

// AnalyzeCrossStation correlates error intervals from every station. A
// cascade is a run of errors starting within windowSec of an anchor error
// and touching at least two distinct stations. A recurring pattern is one
// station:code:message signature seen three or more times; its consistency
// score is clamp(1 - stddev/mean, 0, 1) over the occurrence intervals.
func AnalyzeCrossStation(allErrors []model.ErrorInterval, windowSec int) model.CrossStation {
	out := model.CrossStation{
		Cascades:  []model.Cascade{},
		Recurring: []model.RecurringPattern{},
		Insights:  []model.Insight{},
	}
	if len(allErrors) == 0 {
		out.Insights = append(out.Insights, model.Insight{
			Level: "info",
			Text:  "No error data available for cross-station analysis.",
		})
		return out
	}

	sorted := make([]model.ErrorInterval, len(allErrors))
	copy(sorted, allErrors)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].StartSec < sorted[b].StartSec })

	out.Cascades = findCascades(sorted, windowSec)
	out.Recurring = findRecurring(sorted)
	out.Insights = buildInsights(out.Cascades, out.Recurring, windowSec)

	if len(out.Cascades) > 50 {
		out.Cascades = out.Cascades[:50]
	}
	if len(out.Recurring) > 30 {
		out.Recurring = out.Recurring[:30]
	}
	return out
}

func findCascades(sorted []model.ErrorInterval, windowSec int) []model.Cascade {
	cascades := []model.Cascade{}
	cascadeID := 0

	i := 0
	for i < len(sorted) {
		anchor := sorted[i].StartSec
		j := i + 1
		for j < len(sorted) && sorted[j].StartSec-anchor <= windowSec {
			j++
		}
		group := sorted[i:j]

		// Station list in first-appearance order.
		seen := make(map[string]bool)
		var stations []string
		for _, e := range group {
			if !seen[e.Station] {
				seen[e.Station] = true
				stations = append(stations, e.Station)
			}
		}

		if len(stations) > 1 {
			cascadeID++
			errs := make([]model.CascadeError, 0, len(group))
			for _, e := range group {
				errs = append(errs, model.CascadeError{
					Station: e.Station,
					Code:    e.Code,
					Message: e.Message,
					Time:    e.StartTime,
				})
			}
			cascades = append(cascades, model.Cascade{
				ID:        fmt.Sprintf("cascade-%d", cascadeID),
				StartTime: sorted[i].StartTime,
				Stations:  stations,
				Errors:    errs,
				WindowSec: windowSec,
			})
		}

		// A grouped window skips past its members; a lone error just steps.
		if j > i+1 {
			i = j
		} else {
			i++
		}
	}
	return cascades
}

func findRecurring(sorted []model.ErrorInterval) []model.RecurringPattern {
	occurrences := make(map[string][]int)
	var keys []string
	for _, e := range sorted {
		key := e.Station + ":" + e.Code + ":" + e.Message
		if _, ok := occurrences[key]; !ok {
			keys = append(keys, key)
		}
		occurrences[key] = append(occurrences[key], e.StartSec)
	}
	sort.Strings(keys)

	recurring := []model.RecurringPattern{}
	for _, key := range keys {
		times := occurrences[key]
		if len(times) < 3 {
			continue
		}
		intervals := make([]float64, 0, len(times)-1)
		for i := 1; i < len(times); i++ {
			intervals = append(intervals, float64(times[i]-times[i-1]))
		}

		avg := stats.Mean(intervals)
		consistency := 0.0
		if avg > 0 {
			consistency = 1 - stats.Stddev(intervals)/avg
		}
		if consistency < 0 {
			consistency = 0
		}
		if consistency > 1 {
			consistency = 1
		}

		parts := strings.SplitN(key, ":", 3)

		recurring = append(recurring, model.RecurringPattern{
			Station:        parts[0],
			Code:           parts[1],
			Message:        parts[2],
			Occurrences:    len(times),
			AvgIntervalSec: avg,
			Consistency:    consistency,
			Intervals:      intervals,
		})
	}

	sort.SliceStable(recurring, func(a, b int) bool {
		return recurring[a].Consistency > recurring[b].Consistency
	})
	return recurring
}

func buildInsights(cascades []model.Cascade, recurring []model.RecurringPattern, windowSec int) []model.Insight {
	insights := []model.Insight{}

	if len(cascades) > 0 {
		insights = append(insights, model.Insight{
			Level: "warning",
			Text: fmt.Sprintf("%d error cascades detected across stations. Multiple stations experiencing errors within %ds windows.",
				len(cascades), windowSec),
		})
	}

	highConsistency := 0
	for _, r := range recurring {
		if r.Consistency > 0.7 {
			highConsistency++
		}
	}
	if highConsistency > 0 {
		insights = append(insights, model.Insight{
			Level: "critical",
			Text: fmt.Sprintf("%d highly consistent recurring errors (>70%% regularity). These likely have systematic causes.",
				highConsistency),
		})
	}

	if len(cascades) == 0 && len(recurring) == 0 {
		insights = append(insights, model.Insight{
			Level: "success",
			Text:  "No significant cross-station error patterns detected. Errors appear isolated.",
		})
	}
	return insights
}
