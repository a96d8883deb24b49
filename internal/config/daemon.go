package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DaemonConfig holds the settings for the annosync daemon, loaded from
// annosync.yaml. Every window is overridable so tests and small deployments
// can tighten the timing.
type DaemonConfig struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Store struct {
		Backend string `yaml:"backend"` // "sqlite" (default) or "postgres"
		Path    string `yaml:"path"`    // sqlite database path
		DSN     string `yaml:"dsn"`     // postgres connection string
	} `yaml:"store"`

	Sink struct {
		URL string `yaml:"url"` // websocket endpoint of the snapshot consumer
	} `yaml:"sink"`

	Worklist struct {
		BaseURL string `yaml:"baseUrl"`
		Token   string `yaml:"token"`
	} `yaml:"worklist"`

	Engine struct {
		SettleWindowMs  int `yaml:"settleWindowMs"`
		AlertCooldownMs int `yaml:"alertCooldownMs"`
	} `yaml:"engine"`
}

// LoadDaemonConfig reads the daemon configuration from the given path.
// A missing file yields the defaults rather than an error.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	cfg := &DaemonConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDaemonDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read daemon config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse daemon config: %w", err)
	}
	applyDaemonDefaults(cfg)
	return cfg, nil
}

func applyDaemonDefaults(cfg *DaemonConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8714"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
	if cfg.Engine.SettleWindowMs <= 0 {
		cfg.Engine.SettleWindowMs = 120
	}
	if cfg.Engine.AlertCooldownMs <= 0 {
		cfg.Engine.AlertCooldownMs = 3000
	}
}

// SettleWindow returns the debounce settle window as a duration.
func (c *DaemonConfig) SettleWindow() time.Duration {
	return time.Duration(c.Engine.SettleWindowMs) * time.Millisecond
}

// AlertCooldown returns the alert throttle cooldown as a duration.
func (c *DaemonConfig) AlertCooldown() time.Duration {
	return time.Duration(c.Engine.AlertCooldownMs) * time.Millisecond
}
