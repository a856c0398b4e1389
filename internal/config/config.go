package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Port               string        `yaml:"port" validate:"required,numeric"`
	Env                string        `yaml:"env" validate:"oneof=development production test"`
	DatabaseURL        string        `yaml:"database_url"`
	LocationServiceURL string        `yaml:"location_service_url" validate:"required,url"`
	VehicleID          string        `yaml:"vehicle_id" validate:"required,max=64"`
	VehicleLabel       string        `yaml:"vehicle_label"`
	MapsAPIKey         string        `yaml:"maps_api_key"`
	ViewMode           string        `yaml:"view_mode" validate:"oneof=history live"`
	PollInterval       time.Duration `yaml:"poll_interval" validate:"gt=0"`
	LoadTimeout        time.Duration `yaml:"load_timeout" validate:"gt=0"`
	LiveWindow         time.Duration `yaml:"live_window" validate:"gt=0"`
	DefaultZoom        int           `yaml:"default_zoom" validate:"gte=1,lte=21"`
	InitialSpeed       float64       `yaml:"initial_speed" validate:"gte=0.1,lte=100"`
	DemoDays           int           `yaml:"demo_days" validate:"gte=0"`
	LogLevel           string        `yaml:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:               "8080",
		Env:                "development",
		LocationServiceURL: "http://localhost:5001",
		VehicleID:          "vehicle-1",
		VehicleLabel:       "WIRELESS",
		ViewMode:           "history",
		PollInterval:       5 * time.Second,
		LoadTimeout:        10 * time.Second,
		LiveWindow:         10 * time.Minute,
		DefaultZoom:        8,
		InitialSpeed:       1,
		DemoDays:           62,
		LogLevel:           "INFO",
	}
}

// Load reads .env (optional), the YAML file named by CONFIG_FILE (optional)
// and environment overrides, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("GO_ENV", cfg.Env)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LocationServiceURL = getEnv("LOCATION_SERVICE_URL", cfg.LocationServiceURL)
	cfg.VehicleID = getEnv("VEHICLE_ID", cfg.VehicleID)
	cfg.VehicleLabel = getEnv("VEHICLE_LABEL", cfg.VehicleLabel)
	cfg.MapsAPIKey = getEnv("MAPS_API_KEY", cfg.MapsAPIKey)
	cfg.ViewMode = strings.ToLower(getEnv("VIEW_MODE", cfg.ViewMode))
	cfg.LogLevel = strings.ToUpper(getEnv("LOG_LEVEL", cfg.LogLevel))

	var err error
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return err
	}
	if cfg.LoadTimeout, err = getDuration("LOAD_TIMEOUT", cfg.LoadTimeout); err != nil {
		return err
	}
	if cfg.LiveWindow, err = getDuration("LIVE_WINDOW", cfg.LiveWindow); err != nil {
		return err
	}
	if cfg.DefaultZoom, err = getInt("DEFAULT_ZOOM", cfg.DefaultZoom); err != nil {
		return err
	}
	if cfg.DemoDays, err = getInt("DEMO_DAYS", cfg.DemoDays); err != nil {
		return err
	}
	if v := os.Getenv("INITIAL_SPEED"); v != "" {
		if cfg.InitialSpeed, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("config: INITIAL_SPEED: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration constraints
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
