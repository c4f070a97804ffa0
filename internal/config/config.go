// Package config loads service configuration from an optional YAML file
// overlaid with FACEGATE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/facegate/server/internal/facegate/actuator"
)

type DetectorConfig struct {
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type MatcherConfig struct {
	// Threshold is the Euclidean distance below which a probe matches a
	// reference embedding.
	Threshold float64 `yaml:"threshold"`
}

type EscalationConfig struct {
	// Threshold is the number of consecutive denials that raises an alert.
	Threshold int `yaml:"threshold"`
	// IdleTTLHours is how long an untouched counter stays live.
	IdleTTLHours int `yaml:"idle_ttl_hours"`
	// SweepIntervalMinutes is how often stale counters are evicted.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

type ActuatorConfig struct {
	BaudRate    int                         `yaml:"baud_rate"`
	DoorOffset  int                         `yaml:"door_offset"`
	Controllers []actuator.ControllerConfig `yaml:"controllers"`
}

type RateLimitConfig struct {
	PerOriginRPS float64 `yaml:"per_origin_rps"`
	Burst        int     `yaml:"burst"`
}

type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	// Env selects the logger and seeding behavior: "dev" | "prod".
	Env    string `yaml:"env"`
	DBPath string `yaml:"db_path"`

	CORSOrigins []string `yaml:"cors_origins"`

	Detector   DetectorConfig   `yaml:"detector"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Escalation EscalationConfig `yaml:"escalation"`
	Actuator   ActuatorConfig   `yaml:"actuator"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// Default returns the configuration the service runs with when no file and
// no environment overrides are present.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		Env:         "dev",
		DBPath:      "./data/facegate.db",
		CORSOrigins: []string{"https://localhost:5173"},
		Detector: DetectorConfig{
			URL:       "http://localhost:8090",
			TimeoutMS: 10000,
		},
		Matcher: MatcherConfig{Threshold: 0.68},
		Escalation: EscalationConfig{
			Threshold:            3,
			IdleTTLHours:         24,
			SweepIntervalMinutes: 60,
		},
		Actuator: ActuatorConfig{
			BaudRate:   9600,
			DoorOffset: 3,
			Controllers: []actuator.ControllerConfig{
				{ID: 1, Device: "/dev/ttyUSB0", Doors: []int{4, 5, 6}},
				{ID: 2, Device: "/dev/ttyUSB1", Doors: []int{7, 8, 9}},
			},
		},
		RateLimit: RateLimitConfig{PerOriginRPS: 2, Burst: 4},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getenvDefault("FACEGATE_HTTP_ADDR", c.HTTPAddr)
	c.Env = strings.ToLower(getenvDefault("FACEGATE_ENV", c.Env))
	c.DBPath = getenvDefault("FACEGATE_DB_PATH", c.DBPath)
	c.Detector.URL = getenvDefault("FACEGATE_DETECTOR_URL", c.Detector.URL)

	if v := splitCSV(os.Getenv("FACEGATE_CORS_ORIGINS")); v != nil {
		c.CORSOrigins = v
	}

	c.Matcher.Threshold = getenvFloat("FACEGATE_MATCH_THRESHOLD", c.Matcher.Threshold)
	c.Escalation.Threshold = getenvInt("FACEGATE_ESCALATION_THRESHOLD", c.Escalation.Threshold)
	c.Escalation.IdleTTLHours = getenvInt("FACEGATE_ESCALATION_TTL_HOURS", c.Escalation.IdleTTLHours)
	c.Actuator.DoorOffset = getenvInt("FACEGATE_DOOR_OFFSET", c.Actuator.DoorOffset)
	c.Actuator.BaudRate = getenvInt("FACEGATE_BAUD_RATE", c.Actuator.BaudRate)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
