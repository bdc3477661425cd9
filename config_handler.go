package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mmiclean/config"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

// GetConfigHandler returns the current settings.
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	}
}

// SaveConfigHandler stores new settings. Detector windows must be positive;
// zero means "use the default" and is filled in by SaveConfig.
func SaveConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := validateWindows(newCfg); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := config.SaveConfig(newCfg); err != nil {
			log.Printf("Error saving config: %v", err)
			writeJSONError(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Settings saved"})
	}
}

func validateWindows(c config.Config) error {
	windows := map[string]int{
		"psaSearchWindow":      c.PSASearchWindow,
		"insertEvidenceWindow": c.InsertEvidenceWindow,
		"cameraEvidenceWindow": c.CameraEvidenceWindow,
		"repeatedInsertWindow": c.RepeatedInsertWindow,
		"cascadeWindow":        c.CascadeWindow,
		"stoppageThreshold":    c.StoppageThreshold,
		"bufferThreshold":      c.BufferThreshold,
	}
	for name, v := range windows {
		if v < 0 {
			return errors.New("negative value for " + name)
		}
	}
	return nil
}
