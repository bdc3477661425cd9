package model

// Station describes one assembly station on the line.
type Station struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	MultiUp int    `json:"multiUp,omitempty"`
}

// Stations is the closed set of line stations, keyed by code.
var Stations = map[string]Station{
	"BS": {Code: "BS", Name: "Bottom Shell", MultiUp: 3},
	"BA": {Code: "BA", Name: "Battery"},
	"TR": {Code: "TR", Name: "Trans"},
	"TO": {Code: "TO", Name: "Top Shell"},
	"LA": {Code: "LA", Name: "Laser"},
	"FV": {Code: "FV", Name: "FVT"},
}

// KnownStation reports whether code names a configured station.
func KnownStation(code string) bool {
	_, ok := Stations[code]
	return ok
}
