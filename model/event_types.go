package model

// EventType classifies one parsed equipment-log line.
type EventType string

const (
	EventMMIStart       EventType = "MMI_START"
	EventSQLInsert      EventType = "SQL_INSERT"
	EventCam2SN         EventType = "CAM2_SN"
	EventCam3PRS        EventType = "CAM3_PRS"
	EventCam4PSATape    EventType = "CAM4_PSA_TAPE"
	EventCam2PSAPower   EventType = "CAM2_PSA_POWER"
	EventCam2PSABattery EventType = "CAM2_PSA_BATTERY"
	EventPLCDM          EventType = "PLC_DM"
	EventTotalLog       EventType = "TOTAL_LOG"
	EventError          EventType = "ERROR"
	EventErrorClear     EventType = "ERROR_CLEAR"
	EventPLCFlag        EventType = "PLC_FLAG"
	EventOther          EventType = "OTHER"
)

// Event is one parsed line from an equipment log. LineNumber is the 1-based
// position in the original unfiltered file, so evidence references map back
// to the raw upload. Events are immutable after parsing.
type Event struct {
	LineNumber int       `json:"lineNumber"`
	Timestamp  string    `json:"timestamp"`
	Raw        string    `json:"raw"`
	Content    string    `json:"content"`
	Type       EventType `json:"eventType"`

	// Fixed per-type fields. Empty when the type does not carry them or
	// the line was too short to populate them.
	Status    string `json:"status,omitempty"`
	Serial    string `json:"serial,omitempty"`
	Image     string `json:"image,omitempty"`
	PRSValues string `json:"prsValues,omitempty"`

	// SQL_INSERT only: the raw VALUES payload and its parsed column map.
	RawValues string            `json:"rawValues,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
}
