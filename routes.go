package main

import (
	"encoding/json"
	"net/http"

	"mmiclean/analytics"
	"mmiclean/changes"
	"mmiclean/cleanup"
	"mmiclean/database"
	"mmiclean/metrics"
)

func SetupRoutes(mux *http.ServeMux, ds *database.Dataset) {

	// Cleanup: uploads, analysis, review data, exports.
	mux.HandleFunc("/api/cleanup/upload-mmi", cleanup.UploadMMIHandler(ds))
	mux.HandleFunc("/api/cleanup/upload-sql", cleanup.UploadTableHandler(ds))
	mux.HandleFunc("/api/cleanup/analyze", cleanup.AnalyzeHandler(ds))
	mux.HandleFunc("/api/cleanup/stats", cleanup.StatsHandler(ds))
	mux.HandleFunc("/api/cleanup/sql-data", cleanup.TableDataHandler(ds))
	mux.HandleFunc("/api/cleanup/mmi-events", cleanup.MMIEventsHandler(ds))
	mux.HandleFunc("/api/cleanup/export-sql", cleanup.ExportTableHandler(ds))
	mux.HandleFunc("/api/cleanup/export-mmi", cleanup.ExportMMIHandler(ds))
	mux.HandleFunc("/api/cleanup/reset", cleanup.ResetHandler(ds))

	// Change ledger. The exact-match routes must be registered alongside the
	// trailing-slash route so approve-all does not fall through to the
	// per-change dispatcher.
	mux.HandleFunc("/api/cleanup/changes", changes.ListHandler(ds))
	mux.HandleFunc("/api/cleanup/changes/approve-all", changes.ApproveAllHandler(ds))
	mux.HandleFunc("/api/cleanup/changes/reject-all", changes.RejectAllHandler(ds))
	mux.HandleFunc("/api/cleanup/changes/", changes.DetailHandler(ds))

	// Analytics: per-station uploads and the multi-station report.
	mux.HandleFunc("/api/analytics/upload", analytics.UploadHandler(ds))
	mux.HandleFunc("/api/analytics/analyze", analytics.AnalyzeHandler(ds))
	mux.HandleFunc("/api/analytics/stations", analytics.StationsHandler(ds))
	mux.HandleFunc("/api/analytics/results", analytics.ResultsHandler(ds))
	mux.HandleFunc("/api/analytics/reset", analytics.ResetHandler(ds))

	mux.HandleFunc("/api/config/get", GetConfigHandler())
	mux.HandleFunc("/api/config/save", SaveConfigHandler())

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"service":      "mmiclean",
			"mmiLoaded":    ds.MMIFilename != "",
			"tableLoaded":  ds.TableFilename != "",
			"reportCached": ds.Report != nil,
		})
	})
}
