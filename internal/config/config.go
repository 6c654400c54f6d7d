// Package config provides Viper-based hierarchical configuration management:
// defaults, then an optional YAML config file, then TICKET_-prefixed
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fjacquet/ticket-tracker/internal/logging"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var once sync.Once

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Reconcile struct {
		Epsilon float64 `mapstructure:"epsilon" yaml:"epsilon"`
	} `mapstructure:"reconcile" yaml:"reconcile"`

	Alerts struct {
		ThresholdPct         float64 `mapstructure:"threshold_pct" yaml:"threshold_pct"`
		SeasonalThresholdPct float64 `mapstructure:"seasonal_threshold_pct" yaml:"seasonal_threshold_pct"`
		MinSamples           int     `mapstructure:"min_samples" yaml:"min_samples"`
	} `mapstructure:"alerts" yaml:"alerts"`

	Rules struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"rules" yaml:"rules"`

	AI struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		Model   string `mapstructure:"model" yaml:"model"`
		APIKey  string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`
}

// InitializeConfig loads the configuration with hierarchical precedence.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.ticket-tracker")
	v.AddConfigPath(".ticket-tracker")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TICKET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The Gemini key comes from its conventional unprefixed variable.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "tickets.db")

	v.SetDefault("reconcile.epsilon", 0.01)

	v.SetDefault("alerts.threshold_pct", 15.0)
	v.SetDefault("alerts.seasonal_threshold_pct", 25.0)
	v.SetDefault("alerts.min_samples", 3)

	v.SetDefault("rules.path", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
}

func validateConfig(c *Config) error {
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.Reconcile.Epsilon <= 0 {
		return fmt.Errorf("reconcile.epsilon must be positive, got %v", c.Reconcile.Epsilon)
	}
	if c.Alerts.ThresholdPct <= 0 {
		return fmt.Errorf("alerts.threshold_pct must be positive, got %v", c.Alerts.ThresholdPct)
	}
	if c.Alerts.SeasonalThresholdPct <= 0 {
		return fmt.Errorf("alerts.seasonal_threshold_pct must be positive, got %v", c.Alerts.SeasonalThresholdPct)
	}
	if c.Alerts.MinSamples < 1 {
		return fmt.Errorf("alerts.min_samples must be at least 1, got %d", c.Alerts.MinSamples)
	}
	if c.AI.Enabled && c.AI.Model == "" {
		return fmt.Errorf("ai.enabled requires ai.model")
	}
	return nil
}

// Epsilon returns the reconciliation tolerance as a decimal.
func (c *Config) Epsilon() decimal.Decimal {
	return decimal.NewFromFloat(c.Reconcile.Epsilon)
}

// ThresholdPct returns the price-alert threshold as a decimal percentage.
func (c *Config) ThresholdPct() decimal.Decimal {
	return decimal.NewFromFloat(c.Alerts.ThresholdPct)
}

// SeasonalThresholdPct returns the seasonal price-alert threshold.
func (c *Config) SeasonalThresholdPct() decimal.Decimal {
	return decimal.NewFromFloat(c.Alerts.SeasonalThresholdPct)
}

// ConfigureLogging builds the application logger from this configuration.
func (c *Config) ConfigureLogging() logging.Logger {
	return logging.NewLogrusAdapter(c.Log.Level, c.Log.Format)
}

// LoadEnv loads environment variables from a .env file if one exists, looking
// in the working directory and then the parent.
func LoadEnv() {
	once.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		_ = godotenv.Load(envFile)
	})
}
