package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. Values from the YAML file can be
// overridden per-field through environment variables.
type Config struct {
	Addr             string `yaml:"addr"`
	ScreenConfigPath string `yaml:"screen_config_path"`
	SurfacePollMs    int    `yaml:"surface_poll_ms"`

	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Addr = ":8080"
	cfg.ScreenConfigPath = "screens.json"
	cfg.SurfacePollMs = 500
	cfg.NATS.Enabled = false
	cfg.NATS.URL = nats.DefaultURL
	return cfg
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("OUTPUTD_ADDR", c.Addr)
	c.ScreenConfigPath = getEnv("OUTPUTD_SCREEN_CONFIG", c.ScreenConfigPath)
	if ms := os.Getenv("OUTPUTD_SURFACE_POLL_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			c.SurfacePollMs = v
		}
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.Enabled = true
		c.NATS.URL = url
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
