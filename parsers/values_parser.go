package parsers

import "strings"

// InsertColumns is the fixed column order of the station's INSERT statement.
var InsertColumns = []string{
	"DATE", "LOTID", "PSA_TAPE_PIC",
	"POWER_BOARD_SN", "POWER_BOARD_SN_PIC",
	"POWER_BOARD_PRS", "POWER_BOARD_PRS_PIC", "POWER_BOARD_PSA_PIC",
	"BATTERY_SN", "BATTERY_SN_PIC",
	"BATTERY_PRS", "BATTERY_PRS_PIC", "BATTERY_PSA_PIC",
	"TEMP", "HUMIDITY",
}

// SplitValues tokenizes a SQL VALUES(...) payload on commas with a two-state
// scanner: a single quote toggles literal mode, and commas inside a literal
// are not split points. Surrounding quotes and whitespace are stripped from
// each token.
func SplitValues(values string) []string {
	var parts []string
	var current strings.Builder
	inLiteral := false

	for _, ch := range values {
		switch {
		case ch == '\'':
			inLiteral = !inLiteral
		case ch == ',' && !inLiteral:
			parts = append(parts, cleanToken(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	parts = append(parts, cleanToken(current.String()))
	return parts
}

func cleanToken(s string) string {
	return strings.Trim(strings.TrimSpace(s), "'")
}

// ParseInsertValues zips a VALUES payload against the fixed insert schema.
// Extra positional values are ignored; missing trailing values leave their
// columns absent.
func ParseInsertValues(values string) map[string]string {
	parts := SplitValues(values)
	out := make(map[string]string, len(InsertColumns))
	for i, col := range InsertColumns {
		if i >= len(parts) {
			break
		}
		out[col] = parts[i]
	}
	return out
}
