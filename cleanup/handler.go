// Package cleanup holds the reconciliation side of the tool: uploading the
// equipment log and the tabular export, running the defect analysis, and
// exporting cleaned output.
package cleanup

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"mmiclean/analysis"
	"mmiclean/config"
	"mmiclean/database"
	"mmiclean/metrics"
	"mmiclean/model"
	"mmiclean/parsers"
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

// readUploadedFile pulls the "file" part out of a multipart request.
func readUploadedFile(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

// UploadMMIHandler accepts the equipment log. A new upload invalidates the
// current change ledger.
func UploadMMIHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("Received MMI log upload request...")

		filename, content, err := readUploadedFile(r)
		if err != nil {
			respondJSONError(w, "File upload error: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Undecodable bytes are replaced, never fatal.
		text := string(bytes.ToValidUTF8(content, []byte("�")))

		if err := database.SaveUpload(ds.DB, database.UploadMMI, "", filename, []byte(text)); err != nil {
			respondJSONError(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := database.ClearChanges(ds.DB); err != nil {
			respondJSONError(w, "Failed to reset changes: "+err.Error(), http.StatusInternalServerError)
			return
		}

		ds.MMIEvents = parsers.ParseMMILog(text)
		ds.MMIFilename = filename

		eventCounts := make(map[model.EventType]int)
		for _, ev := range ds.MMIEvents {
			eventCounts[ev.Type]++
		}

		metrics.Uploads.WithLabelValues(database.UploadMMI).Inc()
		log.Printf("Parsed %d events from %s", len(ds.MMIEvents), filename)
		writeJSON(w, map[string]interface{}{
			"filename":    filename,
			"totalEvents": len(ds.MMIEvents),
			"totalLines":  bytes.Count([]byte(text), []byte("\n")) + 1,
			"eventTypes":  eventCounts,
		})
	}
}

// UploadTableHandler accepts the tabular export. A new upload invalidates
// the current change ledger.
func UploadTableHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("Received table upload request...")

		filename, content, err := readUploadedFile(r)
		if err != nil {
			respondJSONError(w, "File upload error: "+err.Error(), http.StatusBadRequest)
			return
		}

		records, columns, err := parsers.ParseTable(content)
		if err != nil {
			respondJSONError(w, "Failed to parse table: "+err.Error(), http.StatusBadRequest)
			return
		}

		if err := database.SaveUpload(ds.DB, database.UploadTable, "", filename, content); err != nil {
			respondJSONError(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := database.ReplaceRecords(ds.DB, records, columns); err != nil {
			respondJSONError(w, "Failed to store records: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := database.ClearChanges(ds.DB); err != nil {
			respondJSONError(w, "Failed to reset changes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		ds.TableFilename = filename

		metrics.Uploads.WithLabelValues(database.UploadTable).Inc()
		log.Printf("Parsed %d rows from %s", len(records), filename)
		writeJSON(w, map[string]interface{}{
			"filename":  filename,
			"totalRows": len(records),
			"columns":   columns,
		})
	}
}

// AnalyzeHandler runs the full detector pipeline and replaces the ledger.
// Both uploads must exist first; nothing partial is attempted.
func AnalyzeHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(ds.MMIEvents) == 0 {
			respondJSONError(w, "No MMI log uploaded", http.StatusBadRequest)
			return
		}
		records, err := database.LoadRecords(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to load records: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(records) == 0 {
			respondJSONError(w, "No table data uploaded", http.StatusBadRequest)
			return
		}

		found := analysis.FindAllIssues(ds.MMIEvents, records, config.GetConfig())
		if err := database.ReplaceChanges(ds.DB, found); err != nil {
			respondJSONError(w, "Failed to store changes: "+err.Error(), http.StatusInternalServerError)
			return
		}

		stats, err := database.CountChanges(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to count changes: "+err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.Analyses.WithLabelValues("cleanup").Inc()
		log.Printf("Analysis produced %d change proposals", stats.Total)
		writeJSON(w, map[string]interface{}{
			"totalChanges": stats.Total,
			"byType":       stats.ByType,
			"byStatus":     stats.ByStatus,
		})
	}
}

// StatsHandler reports dataset and ledger summary counts.
func StatsHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rowCount, err := database.CountRecords(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to count records: "+err.Error(), http.StatusInternalServerError)
			return
		}
		stats, err := database.CountChanges(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to count changes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{
			"mmiFilename":    ds.MMIFilename,
			"mmiTotalEvents": len(ds.MMIEvents),
			"tableFilename":  ds.TableFilename,
			"tableTotalRows": rowCount,
			"totalChanges":   stats.Total,
			"byType":         stats.ByType,
			"byStatus":       stats.ByStatus,
			"byAction":       stats.ByAction,
		})
	}
}

func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// TableDataHandler pages through the uploaded rows for display.
func TableDataHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := database.LoadRecords(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to load records: "+err.Error(), http.StatusInternalServerError)
			return
		}

		limit, offset := pageParams(r, 100)
		page := []map[string]string{}
		for i := offset; i < len(records) && i < offset+limit; i++ {
			page = append(page, records[i].Values)
		}
		writeJSON(w, map[string]interface{}{
			"rows":   page,
			"total":  len(records),
			"limit":  limit,
			"offset": offset,
		})
	}
}

// MMIEventsHandler pages through the parsed events, optionally filtered by
// event type.
func MMIEventsHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventType := r.URL.Query().Get("event_type")

		events := ds.MMIEvents
		if eventType != "" {
			filtered := make([]model.Event, 0, len(events))
			for _, ev := range events {
				if string(ev.Type) == eventType {
					filtered = append(filtered, ev)
				}
			}
			events = filtered
		}

		limit, offset := pageParams(r, 500)
		page := []model.Event{}
		for i := offset; i < len(events) && i < offset+limit; i++ {
			page = append(page, events[i])
		}
		writeJSON(w, map[string]interface{}{
			"events": page,
			"total":  len(events),
			"limit":  limit,
			"offset": offset,
		})
	}
}

// ResetHandler clears the whole dataset, both uploads and the ledger.
func ResetHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := ds.Reset(); err != nil {
			respondJSONError(w, "Failed to reset dataset: "+err.Error(), http.StatusInternalServerError)
			return
		}
		log.Println("Dataset reset.")
		writeJSON(w, map[string]interface{}{"status": "reset"})
	}
}
