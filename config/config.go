package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Vision  VisionConfig
	Tracker TrackerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects and configures the meal store backend
type StorageConfig struct {
	Backend  string `mapstructure:"backend"` // "sqlite" or "bolt"
	DataDir  string `mapstructure:"data_dir"`
	Timezone string `mapstructure:"timezone"` // IANA name; empty means the host's local zone
}

// VisionConfig holds food-recognition API configuration
type VisionConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// TrackerConfig holds tracker service configuration
type TrackerConfig struct {
	DateCheckInterval time.Duration `mapstructure:"date_check_interval"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if present (useful for local development)
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealsnap/")

	// Environment variable settings
	v.SetEnvPrefix("MEALSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"capacitor://*", "http://localhost:*"})

	// Storage defaults
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.timezone", "")

	// Vision defaults. The api_key default registers the key with viper;
	// Unmarshal only sees env values for keys it knows about.
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "https://api.mealrecognition.dev")
	v.SetDefault("vision.requests_per_minute", 30)

	// Tracker defaults
	v.SetDefault("tracker.date_check_interval", "1m")
}

// loadEnvFile loads variables from a .env file in the working directory.
// Missing file is not an error; existing environment variables win.
func loadEnvFile() error {
	file, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required (set MEALSNAP_VISION_API_KEY)")
	}

	if config.Storage.Backend != "sqlite" && config.Storage.Backend != "bolt" {
		return fmt.Errorf("storage backend must be 'sqlite' or 'bolt', got: %s", config.Storage.Backend)
	}

	if config.Storage.Timezone != "" {
		if _, err := time.LoadLocation(config.Storage.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", config.Storage.Timezone, err)
		}
	}

	if config.Tracker.DateCheckInterval <= 0 {
		return fmt.Errorf("tracker date check interval must be positive, got: %s", config.Tracker.DateCheckInterval)
	}

	return nil
}

// Location resolves the configured timezone, falling back to the host's
// local zone. Load has already validated the name.
func (c *Config) Location() *time.Location {
	if c.Storage.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Storage.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
