package analytics

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sort"

	"mmiclean/config"
	"mmiclean/database"
	"mmiclean/metrics"
	"mmiclean/model"
	"mmiclean/parsers"
	"mmiclean/timeparse"
)

func respondJSONError(w http.ResponseWriter, message string, statusCode int) {
	log.Println("Error response:", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{"detail": message})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

var uploadKinds = map[string]string{
	"barcode": database.UploadBarcode,
	"error":   database.UploadError,
	"sql":     database.UploadSQL,
}

// UploadHandler accepts one station log: multipart "file" plus "station"
// and "type" form fields. Re-uploading the same station/type pair replaces
// the previous file.
func UploadHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondJSONError(w, "File upload error: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		station := r.FormValue("station")
		if !model.KnownStation(station) {
			respondJSONError(w, "Unknown station: "+station, http.StatusBadRequest)
			return
		}
		fileType := r.FormValue("type")
		kind, ok := uploadKinds[fileType]
		if !ok {
			respondJSONError(w, "Unknown file type: "+fileType, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondJSONError(w, "File upload error: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			respondJSONError(w, "Failed to read upload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if err := database.SaveUpload(ds.DB, kind, station, header.Filename, content); err != nil {
			respondJSONError(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.Uploads.WithLabelValues(kind).Inc()
		log.Printf("Stored %s %s log: %s (%d bytes)", station, fileType, header.Filename, len(content))
		writeJSON(w, map[string]interface{}{
			"station":  station,
			"type":     fileType,
			"filename": header.Filename,
			"size":     len(content),
		})
	}
}

// AnalyzeHandler runs the full multi-station analysis over every uploaded
// file and caches the report on the dataset. An optional start_time query
// parameter drops events before that time of day.
func AnalyzeHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		startFilter := -1
		startTime := r.URL.Query().Get("start_time")
		if startTime == "" {
			startTime = r.FormValue("start_time")
		}
		if startTime != "" {
			sec, err := timeparse.Seconds(startTime)
			if err != nil {
				respondJSONError(w, "Invalid start_time: "+startTime, http.StatusBadRequest)
				return
			}
			startFilter = sec
		}

		uploads, err := database.ListStationUploads(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to list uploads: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(uploads) == 0 {
			respondJSONError(w, "No station files uploaded", http.StatusBadRequest)
			return
		}

		report, err := buildReport(ds, uploads, startFilter)
		if err != nil {
			respondJSONError(w, "Analysis failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		ds.Report = report
		ds.StartTimeFilter = startTime

		metrics.Analyses.WithLabelValues("analytics").Inc()
		log.Printf("Analytics run complete: %d stations, %d cascades",
			len(report.StationAnalyses), len(report.CrossStation.Cascades))
		writeJSON(w, report)
	}
}

// buildReport parses each station's uploads and assembles the cross-station
// report. Stations are processed in sorted code order so repeated runs over
// the same uploads produce identical output.
func buildReport(ds *database.Dataset, uploads []database.StationUpload, startFilter int) (*model.Report, error) {
	byStation := make(map[string]map[string]string)
	for _, up := range uploads {
		_, content, err := database.GetUpload(ds.DB, up.Kind, up.Station)
		if err != nil {
			return nil, err
		}
		if byStation[up.Station] == nil {
			byStation[up.Station] = make(map[string]string)
		}
		byStation[up.Station][up.Kind] = string(content)
	}

	codes := make([]string, 0, len(byStation))
	for code := range byStation {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	cfg := config.GetConfig()
	report := &model.Report{
		StationAnalyses: []model.StationReport{},
		SerialAnalyses:  []model.SerialAnalysis{},
		AllEvents:       []model.StationEvent{},
	}
	var allErrors []model.ErrorInterval

	for _, code := range codes {
		files := byStation[code]
		station := model.Stations[code]
		sr := model.StationReport{Station: station}

		if content, ok := files[database.UploadBarcode]; ok {
			parsed := parsers.ParseBarcodeLog(content, code, startFilter)
			sr.Barcode = &parsed
			report.AllEvents = append(report.AllEvents, parsed.Events...)

			if serial := AnalyzeSerial(parsed, station, cfg); serial != nil {
				report.SerialAnalyses = append(report.SerialAnalyses, *serial)
			}
		}
		if content, ok := files[database.UploadError]; ok {
			parsed := parsers.ParseErrorLog(content, code, startFilter)
			sr.Errors = &parsed
			allErrors = append(allErrors, parsed.ErrorTimeline...)
		}

		report.StationAnalyses = append(report.StationAnalyses, sr)
	}

	report.CrossStation = AnalyzeCrossStation(allErrors, cfg.CascadeWindow)
	return report, nil
}

// ResultsHandler serves the cached report; 404 until an analysis has run.
func ResultsHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ds.Report == nil {
			respondJSONError(w, "No analysis results available. Run analyze first.", http.StatusNotFound)
			return
		}
		writeJSON(w, ds.Report)
	}
}

// StationsHandler lists each station's uploaded files.
func StationsHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := database.ListStationUploads(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to list uploads: "+err.Error(), http.StatusInternalServerError)
			return
		}

		type stationFiles struct {
			Code            string `json:"code"`
			Name            string `json:"name"`
			HasBarcode      bool   `json:"hasBarcode"`
			HasError        bool   `json:"hasError"`
			HasSQL          bool   `json:"hasSql"`
			BarcodeFilename string `json:"barcodeFilename,omitempty"`
			ErrorFilename   string `json:"errorFilename,omitempty"`
			SQLFilename     string `json:"sqlFilename,omitempty"`
		}

		byCode := make(map[string]*stationFiles)
		var order []string
		for _, up := range uploads {
			sf := byCode[up.Station]
			if sf == nil {
				sf = &stationFiles{Code: up.Station, Name: model.Stations[up.Station].Name}
				byCode[up.Station] = sf
				order = append(order, up.Station)
			}
			switch up.Kind {
			case database.UploadBarcode:
				sf.HasBarcode = true
				sf.BarcodeFilename = up.Filename
			case database.UploadError:
				sf.HasError = true
				sf.ErrorFilename = up.Filename
			case database.UploadSQL:
				sf.HasSQL = true
				sf.SQLFilename = up.Filename
			}
		}

		list := []stationFiles{}
		for _, code := range order {
			list = append(list, *byCode[code])
		}
		writeJSON(w, map[string]interface{}{"stations": list})
	}
}

// ResetHandler clears the analytics uploads and the cached report, leaving
// the cleanup side untouched.
func ResetHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := database.DeleteStationUploads(ds.DB); err != nil {
			respondJSONError(w, "Failed to reset analytics: "+err.Error(), http.StatusInternalServerError)
			return
		}
		ds.Report = nil
		ds.StartTimeFilter = ""
		log.Println("Analytics data reset.")
		writeJSON(w, map[string]interface{}{"status": "reset"})
	}
}
