package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Environment variables that override tleague.yaml.
const (
	EnvDatabase = "TLEAGUE_DB"
	EnvMode     = "TLEAGUE_ENV"
	EnvLogLevel = "TLEAGUE_LOG_LEVEL"
)

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Filename string `yaml:"filename" validate:"required"`
}

// SchedulingConfig holds the defaults for scheduling runs. A run request
// overrides any of them.
type SchedulingConfig struct {
	Mode          string        `yaml:"mode" validate:"omitempty,oneof=standard optimized"`
	Iterations    int           `yaml:"iterations" validate:"gte=1,lte=10000"`
	LineMode      string        `yaml:"line_mode" validate:"omitempty,oneof=same_time split_times"`
	MatchDuration time.Duration `yaml:"match_duration" validate:"gte=0"`
}

// App is the application configuration read from tleague.yaml.
type App struct {
	Environment string           `yaml:"environment" validate:"oneof=development production test"`
	LogLevel    string           `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	Database    DatabaseConfig   `yaml:"database"`
	Scheduling  SchedulingConfig `yaml:"scheduling"`
}

// DefaultApp returns the configuration used when tleague.yaml is absent.
func DefaultApp() *App {
	return &App{
		Environment: "development",
		LogLevel:    "info",
		Database:    DatabaseConfig{Filename: "tleague.db"},
		Scheduling: SchedulingConfig{
			Mode:          "standard",
			Iterations:    50,
			LineMode:      "same_time",
			MatchDuration: 2 * time.Hour,
		},
	}
}

// LoadApp loads the .env file next to configPath, then the YAML file on top
// of the defaults, then environment overrides. Missing files are not an
// error.
func LoadApp(configPath string) (*App, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := DefaultApp()
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if v, ok := os.LookupEnv(EnvDatabase); ok && v != "" {
		cfg.Database.Filename = v
	}
	if v, ok := os.LookupEnv(EnvMode); ok && v != "" {
		cfg.Environment = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func (a *App) Validate() error {
	return validate.Struct(a)
}

// Marshal renders the configuration as YAML.
func (a *App) Marshal() ([]byte, error) {
	return yaml.Marshal(a)
}
