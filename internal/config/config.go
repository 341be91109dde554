package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	AppName        string `yaml:"app_name"`
	DataDir        string `yaml:"data_dir"`
	DatabaseURL    string `yaml:"database_url"`
	DatabaseDriver string `yaml:"database_driver"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	DevMode        bool   `yaml:"dev_mode"`
}

// Load resolves the configuration from flags, the environment (including a
// .env file) and an optional YAML file named by INVOICER_CONFIG. Non-empty
// flag values win over everything else.
func Load(dataDir, dbDriver string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		AppName:        getEnv("INVOICER_APP_NAME", "invoicer"),
		DataDir:        getEnv("INVOICER_DATA_DIR", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		LogLevel:       getEnv("LOG_LEVEL", "warn"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		DevMode:        getEnv("DEV_MODE", "false") == "true",
	}

	if path := getEnv("INVOICER_CONFIG", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbDriver != "" {
		cfg.DatabaseDriver = dbDriver
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if file.AppName != "" {
		c.AppName = file.AppName
	}
	if file.DataDir != "" {
		c.DataDir = file.DataDir
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
	}
	if file.DatabaseDriver != "" {
		c.DatabaseDriver = file.DatabaseDriver
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
	}
	if file.DevMode {
		c.DevMode = true
	}
	return nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite3":
	case "libsql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the libsql driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.AppName == "" {
		return fmt.Errorf("INVOICER_APP_NAME must not be empty")
	}
	return nil
}

func (c *Config) Dump() {
	fmt.Printf("App Name: %s\n", c.AppName)
	fmt.Printf("Data Dir: %s\n", c.DataDir)
	fmt.Printf("Database Driver: %s\n", c.DatabaseDriver)
	if c.DatabaseURL != "" {
		fmt.Printf("Database URL: %s\n", c.DatabaseURL)
	}
	fmt.Printf("Log Level: %s\n", c.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
