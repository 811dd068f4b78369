package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime settings. The API key only ever comes from the environment.
type AppConfig struct {
	OpenWeatherAPIKey string `yaml:"-"`

	OpenWeatherBaseURL string `yaml:"openweather_base_url"`
	Language           string `yaml:"language"`

	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Lookup history retention.
	HistoryMaxEntries int           `yaml:"history_max_entries"` // per city (0 = unlimited)
	HistoryMaxAge     time.Duration `yaml:"history_max_age"`     // 0 = unlimited
	PruneInterval     time.Duration `yaml:"prune_interval"`

	Port string `yaml:"port"`
}

// Load reads configuration with sensible defaults. Precedence, lowest first:
// defaults, optional YAML file (CONFIG_FILE, default config.yaml), environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := defaults()

	if err := cfg.loadFile(getenvDefault("CONFIG_FILE", "config.yaml")); err != nil {
		return nil, err
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", cfg.OpenWeatherBaseURL)
	cfg.Language = getenvDefault("WEATHER_LANG", cfg.Language)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.HistoryMaxEntries = getenvInt("HISTORY_MAX_ENTRIES", cfg.HistoryMaxEntries)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.HistoryMaxAge, err = getenvDuration("HISTORY_MAX_AGE", cfg.HistoryMaxAge); err != nil {
		return nil, err
	}
	if cfg.PruneInterval, err = getenvDuration("PRUNE_INTERVAL", cfg.PruneInterval); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		OpenWeatherBaseURL: "https://api.openweathermap.org/data/2.5",
		Language:           "en",
		HTTPTimeout:        10 * time.Second,
		HistoryMaxEntries:  20,
		HistoryMaxAge:      24 * time.Hour,
		PruneInterval:      15 * time.Minute,
		Port:               "8080",
	}
}

// loadFile overlays values from a YAML file. A missing file is not an error.
func (c *AppConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
