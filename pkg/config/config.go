package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Ontology source configuration
	Ontology OntologyConfig `mapstructure:"ontology"`

	// Suggestion synthesis configuration
	Suggestions SuggestionConfig `mapstructure:"suggestions"`

	// Audit trail configuration
	Audit AuditConfig `mapstructure:"audit"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// OntologyConfig holds the rule fact source configuration
type OntologyConfig struct {
	// Path to the fact document produced by the ontology parser (.json or .yaml)
	Path string `mapstructure:"path"`

	// Watch re-compiles the index when the fact document changes on disk
	Watch bool `mapstructure:"watch"`
}

// SuggestionConfig holds suggestion synthesis configuration
type SuggestionConfig struct {
	Limit int `mapstructure:"limit"`
}

// AuditConfig holds decision audit trail configuration
type AuditConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig holds the audit database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ontoguard")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Ontology defaults
	viper.SetDefault("ontology.path", "ontology.json")
	viper.SetDefault("ontology.watch", true)

	// Suggestion defaults
	viper.SetDefault("suggestions.limit", 5)

	// Audit defaults
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.database.host", "localhost")
	viper.SetDefault("audit.database.port", 5432)
	viper.SetDefault("audit.database.name", "ontoguard")
	viper.SetDefault("audit.database.user", "ontoguard")
	viper.SetDefault("audit.database.ssl_mode", "require")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if path := os.Getenv("ONTOLOGY_PATH"); path != "" {
		config.Ontology.Path = path
	}

	if dbPassword := os.Getenv("AUDIT_DB_PASSWORD"); dbPassword != "" {
		config.Audit.Database.Password = dbPassword
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Ontology.Path == "" {
		return fmt.Errorf("ontology path is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Suggestions.Limit <= 0 {
		return fmt.Errorf("suggestion limit must be positive, got %d", config.Suggestions.Limit)
	}

	if config.Audit.Enabled && config.Audit.Database.Password == "" {
		return fmt.Errorf("audit database password is required when audit is enabled")
	}

	return nil
}
