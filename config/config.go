package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Config holds the operator-tunable settings. Window values are in seconds.
type Config struct {
	ListenAddr           string `json:"listenAddr"`
	PSASearchWindow      int    `json:"psaSearchWindow"`
	InsertEvidenceWindow int    `json:"insertEvidenceWindow"`
	CameraEvidenceWindow int    `json:"cameraEvidenceWindow"`
	RepeatedInsertWindow int    `json:"repeatedInsertWindow"`
	CascadeWindow        int    `json:"cascadeWindow"`
	StoppageThreshold    int    `json:"stoppageThreshold"`
	BufferThreshold      int    `json:"bufferThreshold"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

const configFilePath = "./mmiclean_config.json"

func applyDefaults(c Config) Config {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if c.PSASearchWindow == 0 {
		c.PSASearchWindow = 60
	}
	if c.InsertEvidenceWindow == 0 {
		c.InsertEvidenceWindow = 10
	}
	if c.CameraEvidenceWindow == 0 {
		c.CameraEvidenceWindow = 30
	}
	if c.RepeatedInsertWindow == 0 {
		c.RepeatedInsertWindow = 30
	}
	if c.CascadeWindow == 0 {
		c.CascadeWindow = 60
	}
	if c.StoppageThreshold == 0 {
		c.StoppageThreshold = 60
	}
	if c.BufferThreshold == 0 {
		c.BufferThreshold = 30
	}
	return c
}

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = applyDefaults(Config{})
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}
	cfg = applyDefaults(tempCfg)

	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	newCfg = applyDefaults(newCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return applyDefaults(cfg)
}
