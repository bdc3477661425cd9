package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadTime is returned when a string matches neither the 12-hour
// (H:MM:SS AM/PM) nor the 24-hour (HH:MM:SS) grammar.
var ErrBadTime = errors.New("unrecognized time format")

// Seconds converts a wall-clock time string into seconds since midnight.
// Accepted forms: "9:45:18 AM", "09:45:18 PM", "17:03:09". Fractional
// seconds after a dot are truncated. All comparisons built on this value
// assume a single calendar day; a log spanning midnight will mis-compare
// near 00:00.
func Seconds(s string) (int, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return 0, ErrBadTime
	}

	isPM := strings.Contains(t, "PM")
	isAM := strings.Contains(t, "AM")
	t = strings.TrimSpace(strings.NewReplacer("AM", "", "PM", "").Replace(t))

	parts := strings.Split(t, ":")
	if len(parts) < 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	secPart, _, _ := strings.Cut(strings.TrimSpace(parts[2]), ".")
	second := 0
	if secPart != "" {
		second, err = strconv.Atoi(secPart)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	if (isPM || isAM) && (hour < 1 || hour > 12) {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}

	if isPM && hour != 12 {
		hour += 12
	} else if isAM && hour == 12 {
		hour = 0
	}

	return hour*3600 + minute*60 + second, nil
}

// Close reports whether two time strings are within window seconds of each
// other. This is the single fuzzy-match primitive for every correlation
// pass; timestamps are never compared by string equality. Unparseable input
// on either side yields false.
func Close(t1, t2 string, window int) bool {
	s1, err := Seconds(t1)
	if err != nil {
		return false
	}
	s2, err := Seconds(t2)
	if err != nil {
		return false
	}
	d := s1 - s2
	if d < 0 {
		d = -d
	}
	return d <= window
}

// Prefix5 returns the first five characters of a trimmed time string, the
// HH:MM bucket used for coarse error-row matching.
func Prefix5(s string) string {
	t := strings.TrimSpace(s)
	if len(t) < 5 {
		return t
	}
	return t[:5]
}
