package model

// StationEvent is one classified line from a station scan (barcode) log.
type StationEvent struct {
	Station     string `json:"station"`
	StationCode string `json:"stationCode"`
	TimeStr     string `json:"timeStr"`
	TimeSec     int    `json:"timeSec"`
	EventType   string `json:"eventType"`
	Category    string `json:"category"`
	IsError     bool   `json:"isError"`
	SN          string `json:"sn,omitempty"`
	Content     string `json:"content"`
	LineNum     int    `json:"lineNum"`
}

// SNCount is one duplicated serial with its scan count.
type SNCount struct {
	SN    string `json:"sn"`
	Count int    `json:"count"`
}

// StationMetrics aggregates a station's scan log.
type StationMetrics struct {
	Events          []StationEvent `json:"events"`
	TotalEvents     int            `json:"totalEvents"`
	ScanEvents      int            `json:"scanEvents"`
	PressEvents     int            `json:"pressEvents"`
	DBEvents        int            `json:"dbEvents"`
	CompletedUnits  int            `json:"completedUnits"`
	SNDuplicates    int            `json:"snDuplicates"`
	SNDuplicateList []SNCount      `json:"snDuplicateList"`
	HourlyActivity  map[string]int `json:"hourlyActivity"`
	FirstEvent      string         `json:"firstEvent,omitempty"`
	LastEvent       string         `json:"lastEvent,omitempty"`
	CycleTimeMedian float64        `json:"cycleTimeMedian,omitempty"`
	CycleTimeMean   float64        `json:"cycleTimeMean,omitempty"`
	CycleTimeMax    float64        `json:"cycleTimeMax,omitempty"`
}

// ErrorInterval is one error occurrence with its resolution, when paired.
type ErrorInterval struct {
	Station     string  `json:"station"`
	Code        string  `json:"code"`
	Message     string  `json:"message"`
	StartTime   string  `json:"startTime"`
	StartSec    int     `json:"startSec"`
	EndTime     string  `json:"endTime,omitempty"`
	EndSec      int     `json:"endSec,omitempty"`
	DurationSec float64 `json:"durationSec"`
}

// MTBF is the mean interval between error starts.
type MTBF struct {
	Minutes float64 `json:"minutes"`
	Count   int     `json:"count"`
}

// ErrorStats aggregates a station's error log.
type ErrorStats struct {
	TotalErrors      int             `json:"totalErrors"`
	UniqueCodes      int             `json:"uniqueCodes"`
	TotalDowntimeMin float64         `json:"totalDowntimeMin"`
	ErrorsByCode     map[string]int  `json:"errorsByCode"`
	ErrorTimeline    []ErrorInterval `json:"errorTimeline"`
	MTBF             *MTBF           `json:"mtbf,omitempty"`
}

// CascadeError is one member of a cross-station cascade.
type CascadeError struct {
	Station string `json:"station"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Cascade is a windowed run of errors spanning at least two stations.
type Cascade struct {
	ID        string         `json:"id"`
	StartTime string         `json:"startTime"`
	Stations  []string       `json:"stations"`
	Errors    []CascadeError `json:"errors"`
	WindowSec int            `json:"windowSec"`
}

// RecurringPattern is an error signature seen three or more times.
// Consistency is clamp(1 - stddev/mean, 0, 1) over the occurrence
// intervals; higher means more periodic.
type RecurringPattern struct {
	Station        string    `json:"station"`
	Code           string    `json:"code"`
	Message        string    `json:"message"`
	Occurrences    int       `json:"occurrences"`
	AvgIntervalSec float64   `json:"avgIntervalSec"`
	Consistency    float64   `json:"consistency"`
	Intervals      []float64 `json:"intervals"`
}

// Insight is a human-readable analysis note.
type Insight struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// CrossStation groups the cross-source correlation output.
type CrossStation struct {
	Cascades  []Cascade          `json:"cascades"`
	Recurring []RecurringPattern `json:"recurring"`
	Insights  []Insight          `json:"insights"`
}

// SerialUnit is one first-sighted serial with its gap to the previous unit.
type SerialUnit struct {
	N          int    `json:"n"`
	Time       string `json:"time"`
	TimeSec    int    `json:"timeSec"`
	SN         string `json:"sn"`
	Gap        int    `json:"gap"`
	IsStoppage bool   `json:"isStoppage"`
	IsBuffer   bool   `json:"isBuffer"`
}

// ProductionRun is a contiguous segment of units between stoppages.
type ProductionRun struct {
	RunNumber    int     `json:"runNumber"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	NumUnits     int     `json:"numUnits"`
	DurationSec  int     `json:"durationSec"`
	UPH          float64 `json:"uph"`
	StoppageTime int     `json:"stoppageTime,omitempty"`
}

// SerialStats aggregates the inter-unit gaps of one station.
type SerialStats struct {
	TotalUnits        int     `json:"totalUnits"`
	MinGap            int     `json:"minGap"`
	MaxGap            int     `json:"maxGap"`
	MedianGap         float64 `json:"medianGap"`
	MeanGap           float64 `json:"meanGap"`
	Stoppages         int     `json:"stoppages"`
	BufferClears      int     `json:"bufferClears"`
	TotalStoppageTime int     `json:"totalStoppageTime"`
}

// SerialAnalysis is the unit-by-unit cycle report for one station.
type SerialAnalysis struct {
	Station Station         `json:"station"`
	Units   []SerialUnit    `json:"units"`
	Runs    []ProductionRun `json:"runs"`
	Stats   SerialStats     `json:"stats"`
}

// StationReport pairs a station with its parsed metrics.
type StationReport struct {
	Station Station         `json:"station"`
	Barcode *StationMetrics `json:"barcode,omitempty"`
	Errors  *ErrorStats     `json:"errors,omitempty"`
}

// Report is the full multi-station analytics output.
type Report struct {
	StationAnalyses []StationReport  `json:"stationAnalyses"`
	CrossStation    CrossStation     `json:"crossStation"`
	SerialAnalyses  []SerialAnalysis `json:"serialAnalyses"`
	AllEvents       []StationEvent   `json:"allEvents"`
}
