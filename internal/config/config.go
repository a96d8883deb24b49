package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Role constants
const (
	RoleReader        = "reader"        // annotating radiologist
	RoleAdministrator = "administrator" // study-level supervisor
)

// Config represents the flat annosync caller configuration
type Config struct {
	Version    string `json:"version"`
	Username   string `json:"username"`
	Role       string `json:"role"`                  // "reader" or "administrator"
	StudyUID   string `json:"study_uid,omitempty"`   // active study
	SeriesUID  string `json:"series_uid,omitempty"`  // active series within the study
	PatientTag string `json:"patient_tag,omitempty"` // opaque scope identity forwarded in snapshots
}

// LoadConfig reads .annosync/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".annosync", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	confDir := filepath.Join(dir, ".annosync")
	if err := os.MkdirAll(confDir, 0755); err != nil {
		return fmt.Errorf("failed to create .annosync dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(confDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// IsAdministrator returns true if the role is administrator.
func IsAdministrator(role string) bool {
	return role == RoleAdministrator
}

// ValidRole returns true for the two recognized caller roles.
func ValidRole(role string) bool {
	return role == RoleReader || role == RoleAdministrator
}
