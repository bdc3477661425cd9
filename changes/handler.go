package changes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"mmiclean/database"
	"mmiclean/metrics"
	"mmiclean/model"
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

// ListHandler serves the proposal list with optional issueType and status
// filters.
func ListHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issueType := r.URL.Query().Get("issue_type")
		status := r.URL.Query().Get("status")

		list, err := database.ListChanges(ds.DB, issueType, status)
		if err != nil {
			respondJSONError(w, "Failed to list changes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Change{}
		}
		writeJSON(w, map[string]interface{}{"changes": list, "total": len(list)})
	}
}

// DetailHandler routes /api/cleanup/changes/{id} and the {id}/approve and
// {id}/reject actions, dispatching on the path suffix.
func DetailHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/cleanup/changes/")
		if rest == "" {
			respondJSONError(w, "Change id is required", http.StatusBadRequest)
			return
		}

		id, action, _ := strings.Cut(rest, "/")
		switch action {
		case "":
			change, err := database.GetChange(ds.DB, id)
			if errors.Is(err, database.ErrNotFound) {
				respondJSONError(w, "Change not found", http.StatusNotFound)
				return
			}
			if err != nil {
				respondJSONError(w, "Failed to load change: "+err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]interface{}{"change": change})
		case "approve":
			setStatus(ds, w, r, id, model.StatusApproved)
		case "reject":
			setStatus(ds, w, r, id, model.StatusRejected)
		default:
			respondJSONError(w, "Unknown change action: "+action, http.StatusNotFound)
		}
	}
}

func setStatus(ds *database.Dataset, w http.ResponseWriter, r *http.Request, id string, status model.Status) {
	if r.Method != http.MethodPost {
		respondJSONError(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	change, err := database.SetChangeStatus(ds.DB, id, status)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, "Change not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to update change: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ChangeDecisions.WithLabelValues(string(status)).Inc()
	log.Printf("Change %s -> %s", id, status)
	writeJSON(w, map[string]interface{}{"change": change})
}

// ApproveAllHandler approves every pending proposal.
func ApproveAllHandler(ds *database.Dataset) http.HandlerFunc {
	return bulkStatusHandler(ds, model.StatusApproved, "approved_count")
}

// RejectAllHandler rejects every pending proposal.
func RejectAllHandler(ds *database.Dataset) http.HandlerFunc {
	return bulkStatusHandler(ds, model.StatusRejected, "rejected_count")
}

func bulkStatusHandler(ds *database.Dataset, status model.Status, countKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		count, err := database.SetAllPending(ds.DB, status)
		if err != nil {
			respondJSONError(w, "Failed to update changes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.ChangeDecisions.WithLabelValues(string(status)).Add(float64(count))
		log.Printf("%d pending changes -> %s", count, status)
		writeJSON(w, map[string]interface{}{countKey: count})
	}
}
