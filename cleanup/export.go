package cleanup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"mmiclean/changes"
	"mmiclean/database"
	"mmiclean/model"
)

// cleanedName derives the download filename from the upload, preserving
// the requested extension.
func cleanedName(original, fallback, ext string) string {
	if original == "" {
		return fallback + "_cleaned" + ext
	}
	base := strings.TrimSuffix(original, filepath.Ext(original))
	return base + "_cleaned" + ext
}

func approvedChanges(ds *database.Dataset) ([]model.Change, error) {
	return database.ListChanges(ds.DB, "", string(model.StatusApproved))
}

// ExportTableHandler streams the cleaned table as CSV, with approved
// deletions removed and approved updates applied.
func ExportTableHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := database.LoadRecords(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to load records: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(records) == 0 {
			respondJSONError(w, "No table data uploaded", http.StatusBadRequest)
			return
		}
		columns, err := database.LoadColumns(ds.DB)
		if err != nil {
			respondJSONError(w, "Failed to load columns: "+err.Error(), http.StatusInternalServerError)
			return
		}
		approved, err := approvedChanges(ds)
		if err != nil {
			respondJSONError(w, "Failed to load changes: "+err.Error(), http.StatusInternalServerError)
			return
		}

		cleaned := changes.MaterializeTable(records, approved)

		filename := cleanedName(ds.TableFilename, "table", ".csv")
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		cw := csv.NewWriter(w)
		cw.Write(columns)
		for _, row := range cleaned {
			record := make([]string, len(columns))
			for i, col := range columns {
				record[i] = row.Get(col)
			}
			cw.Write(record)
		}
		cw.Flush()
	}
}

// ExportMMIHandler streams the cleaned equipment log, with the repeats of
// approved duplicate-insert runs removed.
func ExportMMIHandler(ds *database.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, raw, err := database.GetUpload(ds.DB, database.UploadMMI, "")
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, "No MMI log uploaded", http.StatusBadRequest)
			return
		}
		if err != nil {
			respondJSONError(w, "Failed to load upload: "+err.Error(), http.StatusInternalServerError)
			return
		}
		approved, err := approvedChanges(ds)
		if err != nil {
			respondJSONError(w, "Failed to load changes: "+err.Error(), http.StatusInternalServerError)
			return
		}

		cleaned := changes.MaterializeLog(string(raw), approved)

		filename := cleanedName(ds.MMIFilename, "mmi", ".log")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write([]byte(cleaned))
	}
}
